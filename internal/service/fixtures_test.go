package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type failingRecalculator struct {
	mu    sync.Mutex
	calls int
}

func (f *failingRecalculator) Recalculate(ctx context.Context, userID uint) (*model.UserRating, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return nil, errors.New("rating store down")
}

type stubLocker struct {
	ok  bool
	err error
}

func (l stubLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() {}, true, nil
}

func intPtr(v int) *int { return &v }

// standardQuizRequest has three questions whose correct indices are 0, 1, 2.
func standardQuizRequest() *CreateQuizRequest {
	req := &CreateQuizRequest{Title: "Capitals", QuizType: model.QuizTypeStandard}
	for i := 0; i < 3; i++ {
		req.Questions = append(req.Questions, QuestionInput{
			Text:         "Question",
			CorrectIndex: intPtr(i),
			Options: []OptionInput{
				{Content: "a"}, {Content: "b"}, {Content: "c"},
			},
		})
	}
	return req
}

// personalityQuizRequest has one question; option 0 adds brave:9, option 1 brave:1.
// Result R1 wants brave:8 and R2 brave:2.
func personalityQuizRequest() *CreateQuizRequest {
	return &CreateQuizRequest{
		Title:    "Which hero are you",
		QuizType: model.QuizTypePersonality,
		Questions: []QuestionInput{{
			Text: "Pick one",
			Options: []OptionInput{
				{Content: "Jump in", Traits: model.Traits{"brave": 9}},
				{Content: "Wait", Traits: model.Traits{"brave": 1}},
			},
		}},
		Results: []ResultInput{
			{Title: "R1", Description: "Lion", Traits: model.Traits{"brave": 8}},
			{Title: "R2", Description: "Mouse", Traits: model.Traits{"brave": 2}},
		},
	}
}

type attemptFixture struct {
	users    *memory.Users
	quizzes  *memory.Quizzes
	attempts *memory.Attempts
	ratings  *memory.Ratings
	rating   *UserRatingService
	events   *recordingPublisher
	clock    *testClock
	svc      *QuizAttemptService

	alice, bob          uint
	standard, character *model.Quiz
}

func newAttemptFixture(t *testing.T, opts ...AttemptServiceOption) *attemptFixture {
	t.Helper()
	f := &attemptFixture{
		users:   memory.NewUsers(),
		quizzes: memory.NewQuizzes(),
		ratings: memory.NewRatings(),
		events:  &recordingPublisher{},
		clock:   newTestClock(),
	}
	f.attempts = memory.NewAttempts(f.quizzes)

	alice := &model.User{Username: "alice", Email: "alice@example.com", Role: model.RoleUser}
	bob := &model.User{Username: "bob", Email: "bob@example.com", Role: model.RoleUser}
	f.users.Add(alice)
	f.users.Add(bob)
	f.alice, f.bob = alice.ID, bob.ID

	f.standard = f.addQuiz(t, standardQuizRequest())
	f.character = f.addQuiz(t, personalityQuizRequest())

	f.rating = NewUserRatingService(f.users, f.attempts, f.ratings, nil)
	base := []AttemptServiceOption{
		WithClock(f.clock.Now),
		WithAsync(func(run func()) { run() }),
		WithEvents(f.events),
	}
	f.svc = NewQuizAttemptService(f.users, f.quizzes, f.attempts, NewMemoryAttemptLocker(), f.rating, append(base, opts...)...)
	return f
}

func (f *attemptFixture) addQuiz(t *testing.T, req *CreateQuizRequest) *model.Quiz {
	t.Helper()
	if err := ValidateCreateQuiz(req); err != nil {
		t.Fatalf("invalid fixture quiz: %v", err)
	}
	quiz := BuildQuiz(req, f.alice)
	f.quizzes.Add(quiz)
	return quiz
}

func (f *attemptFixture) complete(t *testing.T, userID uint, quiz *model.Quiz, answers model.AttemptAnswers) *AttemptResponse {
	t.Helper()
	ctx := context.Background()
	started, err := f.svc.StartQuiz(ctx, userID, quiz.ID)
	if err != nil {
		t.Fatalf("StartQuiz: %v", err)
	}
	done, err := f.svc.SubmitQuiz(ctx, userID, SubmitAttemptRequest{
		QuizID:    quiz.ID,
		AttemptID: started.AttemptID,
		Answers:   answers,
		TimeSpent: 10,
	})
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	return done
}
