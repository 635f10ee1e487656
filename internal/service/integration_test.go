//go:build integration

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startMySQL(t *testing.T, ctx context.Context) *gorm.DB {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image: "mysql:8.0",
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "root",
				"MYSQL_DATABASE":      "victorina",
				"MYSQL_USER":          "victorina",
				"MYSQL_PASSWORD":      "victorina",
			},
			ExposedPorts: []string{"3306/tcp"},
			WaitingFor:   wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start mysql: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, _ := container.Host(ctx)
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "mysql", Host: host, Port: port.Int(),
		User: "victorina", Password: "victorina", DBName: "victorina",
		Charset: "utf8mb4", ParseTime: true, LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestFriendsAndMessages(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t, ctx)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	users := repository.NewUserRepository(db)
	alice := &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleUser}
	bob := &model.User{Username: "bob", Email: "bob@example.com", Password: "x", Role: model.RoleUser}
	for _, u := range []*model.User{alice, bob} {
		if err := users.Create(u); err != nil {
			t.Fatal(err)
		}
	}

	friends := NewFriendshipService(repository.NewFriendshipRepository(db, rdb), users)
	messages := NewMessageService(repository.NewMessageRepository(db), users, friends)

	if _, err := messages.Send(ctx, alice.ID, bob.ID, "hi"); !errors.Is(err, util.ErrNotFriends) {
		t.Fatalf("message to stranger: %v", err)
	}
	if _, err := friends.SendFriendRequest(ctx, alice.ID, alice.ID, ""); !errors.Is(err, util.ErrSelfFriendRequest) {
		t.Fatalf("self request: %v", err)
	}

	ids, err := friends.GetFriendIDs(ctx, alice.ID)
	if err != nil || len(ids) != 0 {
		t.Fatalf("friend ids before = %v, %v", ids, err)
	}

	req, err := friends.SendFriendRequest(ctx, alice.ID, bob.ID, "quiz buddy?")
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	if _, err := friends.SendFriendRequest(ctx, alice.ID, bob.ID, ""); !errors.Is(err, util.ErrRequestPending) {
		t.Fatalf("duplicate request: %v", err)
	}
	if err := friends.HandleFriendRequest(ctx, req.ID, alice.ID, true); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("sender accepting own request: %v", err)
	}
	if err := friends.HandleFriendRequest(ctx, req.ID, bob.ID, true); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// The cached empty list was invalidated by the accept.
	ids, err = friends.GetFriendIDs(ctx, alice.ID)
	if err != nil || len(ids) != 1 || ids[0] != bob.ID {
		t.Fatalf("friend ids after = %v, %v", ids, err)
	}

	first, err := messages.Send(ctx, alice.ID, bob.ID, "  hello  ")
	if err != nil || first.Content != "hello" {
		t.Fatalf("send = %+v, %v", first, err)
	}
	if _, err := messages.Send(ctx, bob.ID, alice.ID, "hey"); err != nil {
		t.Fatal(err)
	}

	unread, err := messages.UnreadCount(ctx, bob.ID)
	if err != nil || unread != 1 {
		t.Fatalf("unread = %d, %v", unread, err)
	}
	if err := messages.MarkRead(ctx, alice.ID, first.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("sender marking read: %v", err)
	}
	if err := messages.MarkRead(ctx, bob.ID, first.ID); err != nil {
		t.Fatal(err)
	}
	if unread, _ = messages.UnreadCount(ctx, bob.ID); unread != 0 {
		t.Fatalf("unread after read = %d", unread)
	}

	convo, err := messages.Conversation(ctx, alice.ID, bob.ID)
	if err != nil || len(convo) != 2 || convo[0].ID != first.ID {
		t.Fatalf("conversation = %d, %v", len(convo), err)
	}
	chats, err := messages.Chats(ctx, alice.ID)
	if err != nil || len(chats) != 1 || chats[0].Partner.ID != bob.ID || chats[0].UnreadCount != 1 {
		t.Fatalf("chats = %+v, %v", chats, err)
	}

	if err := friends.DeleteFriend(ctx, bob.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := messages.Send(ctx, alice.ID, bob.ID, "still there?"); !errors.Is(err, util.ErrNotFriends) {
		t.Fatalf("message after unfriend: %v", err)
	}
}

func TestUserAttemptsScoreResultFromDatabase(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t, ctx)

	users := repository.NewUserRepository(db)
	alice := &model.User{Username: "alice", Email: "alice@example.com", Password: "x", Role: model.RoleUser}
	if err := users.Create(alice); err != nil {
		t.Fatal(err)
	}
	quizzes := repository.NewQuizRepository(db)
	quiz := BuildQuiz(standardQuizRequest(), alice.ID)
	if err := quizzes.Create(ctx, quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	attempts := repository.NewQuizAttemptRepository(db)
	rating := NewUserRatingService(users, attempts, repository.NewUserRatingRepository(db), nil)
	svc := NewQuizAttemptService(users, quizzes, attempts, NewMemoryAttemptLocker(), rating,
		WithAsync(func(run func()) { run() }))

	started, err := svc.StartQuiz(ctx, alice.ID, quiz.ID)
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	done, err := svc.SubmitQuiz(ctx, alice.ID, SubmitAttemptRequest{
		QuizID:    quiz.ID,
		AttemptID: started.AttemptID,
		Answers:   model.AttemptAnswers{0: 0},
		TimeSpent: 5,
	})
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if done.ScoreResult == nil {
		t.Fatal("submit returned no score result")
	}

	list, err := svc.GetUserAttempts(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetUserAttempts: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d attempts, want 1", len(list))
	}
	got := list[0]
	if got.ScoreResult == nil || got.ScoreResult.Title != done.ScoreResult.Title {
		t.Errorf("history score result = %+v, submit returned %+v", got.ScoreResult, done.ScoreResult)
	}
	if got.QuizTitle != quiz.Title {
		t.Errorf("quiz title = %q, want %q", got.QuizTitle, quiz.Title)
	}
}
