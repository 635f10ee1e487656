//go:build integration

package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"victorina_backend/internal/config"
	"victorina_backend/internal/model"
	"victorina_backend/pkg/database"

	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func startMySQL(t *testing.T, ctx context.Context) *gorm.DB {
	t.Helper()
	req := tc.ContainerRequest{
		Image: "mysql:8.0",
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "root",
			"MYSQL_DATABASE":      "victorina",
			"MYSQL_USER":          "victorina",
			"MYSQL_PASSWORD":      "victorina",
		},
		ExposedPorts: []string{"3306/tcp"},
		WaitingFor:   wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(120 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start mysql: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	db, err := database.InitDB(&config.DatabaseConfig{
		Driver:    "mysql",
		Host:      host,
		Port:      port.Int(),
		User:      "victorina",
		Password:  "victorina",
		DBName:    "victorina",
		Charset:   "utf8mb4",
		ParseTime: true,
		LogLevel:  "silent",
	})
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedQuiz(t *testing.T, ctx context.Context, db *gorm.DB, quizType model.QuizType) *model.Quiz {
	t.Helper()
	correct := 0
	quiz := &model.Quiz{
		Title:    "Capitals",
		QuizType: quizType,
		IsPublic: true,
		AuthorID: 1,
		Questions: []model.Question{{
			Position:     0,
			Text:         "Capital of France",
			CorrectIndex: &correct,
			Options:      []model.Option{{Position: 0, Content: "Paris"}, {Position: 1, Content: "Rome"}},
		}},
	}
	if err := NewQuizRepository(db).Create(ctx, quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return quiz
}

func TestAttemptActiveSlotIsUnique(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t, ctx)
	repo := NewQuizAttemptRepository(db)
	quiz := seedQuiz(t, ctx, db, model.QuizTypeStandard)

	now := time.Now().Truncate(time.Second)
	staleBefore := now.Add(-24 * time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex
	created, duplicates := 0, 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateActive(ctx, model.NewActiveAttempt(1, quiz.ID, 1, now), staleBefore)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, gorm.ErrDuplicatedKey):
				duplicates++
			default:
				t.Errorf("CreateActive: %v", err)
			}
		}()
	}
	wg.Wait()
	if created != 1 || duplicates != 7 {
		t.Fatalf("created=%d duplicates=%d", created, duplicates)
	}

	active, err := repo.FindActive(ctx, 1, quiz.ID, staleBefore)
	if err != nil || active == nil {
		t.Fatalf("FindActive = %v, %v", active, err)
	}

	// An attempt older than the window frees the slot for a new one.
	later := now.Add(25 * time.Hour)
	if err := repo.CreateActive(ctx, model.NewActiveAttempt(1, quiz.ID, 1, later), later.Add(-24*time.Hour)); err != nil {
		t.Fatalf("CreateActive after window: %v", err)
	}
}

func TestAttemptCompleteIsConditional(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t, ctx)
	repo := NewQuizAttemptRepository(db)
	quiz := seedQuiz(t, ctx, db, model.QuizTypeStandard)

	now := time.Now().Truncate(time.Second)
	attempt := model.NewActiveAttempt(1, quiz.ID, 1, now)
	if err := repo.CreateActive(ctx, attempt, now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	attempt.Complete(model.AttemptCompletion{Score: 1, Answers: model.AttemptAnswers{0: 0}, TimeSpent: 12, EndTime: now})
	ok, err := repo.Complete(ctx, attempt)
	if err != nil || !ok {
		t.Fatalf("first Complete = %v, %v", ok, err)
	}

	attempt.Score = 0
	ok, err = repo.Complete(ctx, attempt)
	if err != nil || ok {
		t.Fatalf("second Complete = %v, %v", ok, err)
	}

	stored, err := repo.FindByID(ctx, attempt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsCompleted || stored.Score != 1 || stored.ActiveSlot != nil || stored.UserAnswers.Data()[0] != 0 {
		t.Fatalf("stored = %+v", stored)
	}

	// The freed slot accepts a fresh attempt right away.
	if err := repo.CreateActive(ctx, model.NewActiveAttempt(1, quiz.ID, 1, now), now.Add(-time.Hour)); err != nil {
		t.Fatalf("restart: %v", err)
	}

	list, err := repo.ListCompletedForRating(ctx, 1)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCompletedForRating = %d, %v", len(list), err)
	}
}

func TestUserRatingRanking(t *testing.T) {
	ctx := context.Background()
	db := startMySQL(t, ctx)
	repo := NewUserRatingRepository(db)

	rows := []model.UserRating{
		{UserID: 1, AverageScore: decimal.RequireFromString("80.00"), TotalAttempts: 2, CompletedQuizzes: 2},
		{UserID: 2, AverageScore: decimal.RequireFromString("95.50"), TotalAttempts: 1, CompletedQuizzes: 1},
		{UserID: 3, AverageScore: decimal.Zero},
	}
	for i := range rows {
		if err := repo.Upsert(ctx, &rows[i]); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.Upsert(ctx, &model.UserRating{UserID: 1, AverageScore: decimal.RequireFromString("60.00"), TotalAttempts: 3, CompletedQuizzes: 2}); err != nil {
		t.Fatal(err)
	}

	top, err := repo.Top(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].UserID != 2 || top[1].UserID != 1 || top[1].TotalAttempts != 3 {
		t.Fatalf("top = %+v", top)
	}

	higher, err := repo.CountHigher(ctx, top[1].AverageScore)
	if err != nil || higher != 1 {
		t.Fatalf("CountHigher = %d, %v", higher, err)
	}
}
