package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"
	"victorina_backend/pkg/monitoring"
	"victorina_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RatingRecalculator rebuilds a user's rating from their attempts.
type RatingRecalculator interface {
	Recalculate(ctx context.Context, userID uint) (*model.UserRating, error)
}

type SubmitAttemptRequest struct {
	QuizID    uint                 `json:"quizId" binding:"required"`
	AttemptID uint                 `json:"attemptId" binding:"required"`
	Answers   model.AttemptAnswers `json:"answers"`
	TimeSpent int                  `json:"timeSpent"`
}

type ResultView struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Image       string       `json:"image,omitempty"`
	Traits      model.Traits `json:"traits,omitempty"`
	MinScore    *int         `json:"minScore,omitempty"`
	MaxScore    *int         `json:"maxScore,omitempty"`
}

func newResultView(r *model.QuizResult) *ResultView {
	if r == nil {
		return nil
	}
	return &ResultView{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Traits:      r.Traits.Data(),
		MinScore:    r.MinScore,
		MaxScore:    r.MaxScore,
	}
}

type AttemptResponse struct {
	AttemptID         uint                 `json:"attemptId"`
	QuizID            uint                 `json:"quizId"`
	QuizTitle         string               `json:"quizTitle"`
	QuizType          model.QuizType       `json:"quizType,omitempty"`
	Score             int                  `json:"score"`
	TotalQuestions    int                  `json:"totalQuestions"`
	TimeSpent         int                  `json:"timeSpent"`
	IsCompleted       bool                 `json:"isCompleted"`
	StartTime         time.Time            `json:"startTime"`
	EndTime           *time.Time           `json:"endTime,omitempty"`
	Answers           model.AttemptAnswers `json:"answers,omitempty"`
	PersonalityResult *ResultView          `json:"personalityResult,omitempty"`
	ScoreResult       *ResultView          `json:"scoreResult,omitempty"`
}

func newAttemptResponse(a *model.QuizAttempt, quiz *model.Quiz) *AttemptResponse {
	resp := &AttemptResponse{
		AttemptID:         a.ID,
		QuizID:            a.QuizID,
		Score:             a.Score,
		TotalQuestions:    a.TotalQuestions,
		TimeSpent:         a.TimeSpent,
		IsCompleted:       a.IsCompleted,
		StartTime:         a.StartTime,
		EndTime:           a.EndTime,
		PersonalityResult: newResultView(a.PersonalityResult),
	}
	if a.IsCompleted {
		resp.Answers = a.UserAnswers.Data()
	}
	if quiz != nil {
		resp.QuizTitle = quiz.Title
		resp.QuizType = quiz.QuizType
		if a.IsCompleted && !quiz.IsPersonality() {
			resp.ScoreResult = newResultView(MatchScoreBand(quiz.Results, a.Score))
		}
	}
	return resp
}

// QuizAttemptService drives the NONE -> ACTIVE -> COMPLETED lifecycle of
// quiz attempts.
//
// At most one active attempt per (user, quiz) is guaranteed by the attempt
// store's unique active slot; the locker only turns concurrent duplicates
// into a fast "in progress" answer. Completion is a conditional write, so
// an attempt is scored at most once.
type QuizAttemptService struct {
	users    UserStore
	quizzes  QuizStore
	attempts AttemptStore
	locker   AttemptLocker
	ratings  RatingRecalculator
	events   EventPublisher

	window        atomic.Int64
	ratingRetries int
	retryDelay    time.Duration
	now           func() time.Time
	async         func(func())
}

type AttemptServiceOption func(*QuizAttemptService)

func WithClock(now func() time.Time) AttemptServiceOption {
	return func(s *QuizAttemptService) { s.now = now }
}

// WithAsync replaces the goroutine used for rating recomputation.
func WithAsync(run func(func())) AttemptServiceOption {
	return func(s *QuizAttemptService) { s.async = run }
}

func WithActiveWindow(d time.Duration) AttemptServiceOption {
	return func(s *QuizAttemptService) { s.window.Store(int64(d)) }
}

func WithRatingRetries(retries int, delay time.Duration) AttemptServiceOption {
	return func(s *QuizAttemptService) {
		s.ratingRetries = retries
		s.retryDelay = delay
	}
}

func WithEvents(events EventPublisher) AttemptServiceOption {
	return func(s *QuizAttemptService) { s.events = events }
}

func NewQuizAttemptService(
	users UserStore,
	quizzes QuizStore,
	attempts AttemptStore,
	locker AttemptLocker,
	ratings RatingRecalculator,
	opts ...AttemptServiceOption,
) *QuizAttemptService {
	s := &QuizAttemptService{
		users:         users,
		quizzes:       quizzes,
		attempts:      attempts,
		locker:        locker,
		ratings:       ratings,
		events:        LogEventPublisher{},
		ratingRetries: 2,
		retryDelay:    200 * time.Millisecond,
		now:           time.Now,
		async:         func(f func()) { go f() },
	}
	s.window.Store(int64(24 * time.Hour))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetActiveWindow changes how long an unfinished attempt stays active.
func (s *QuizAttemptService) SetActiveWindow(d time.Duration) {
	if d > 0 {
		s.window.Store(int64(d))
	}
}

func (s *QuizAttemptService) activeSince() time.Time {
	return s.now().Add(-time.Duration(s.window.Load()))
}

// lock acquires the per-pair guard. If the lock backend itself fails the
// request continues unguarded; the store constraints still hold.
func (s *QuizAttemptService) lock(ctx context.Context, userID, quizID uint) (func(), error) {
	release, ok, err := s.locker.TryLock(ctx, attemptLockKey(userID, quizID))
	if err != nil {
		logger.Log.Warn("Attempt lock unavailable, relying on store constraints",
			zap.Uint("user_id", userID), zap.Uint("quiz_id", quizID), zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		monitoring.RecordAttemptEvent(monitoring.EventAttemptConflict)
		return nil, util.ErrAttemptInProgress
	}
	return release, nil
}

func (s *QuizAttemptService) loadQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizzes.FindByIDWithDetails(ctx, quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz %d: %w", quizID, err)
	}
	return quiz, nil
}

func (s *QuizAttemptService) StartQuiz(ctx context.Context, userID, quizID uint) (resp *AttemptResponse, err error) {
	ctx, span := tracing.Start(ctx, "QuizAttemptService.StartQuiz",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("quiz_id", int64(quizID)))
	defer func() { tracing.End(span, err) }()

	if _, err := s.users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	defer release()

	since := s.activeSince()
	active, err := s.attempts.FindActive(ctx, userID, quizID, since)
	if err != nil {
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	if active != nil {
		monitoring.RecordAttemptEvent(monitoring.EventAttemptConflict)
		return nil, util.ErrActiveAttemptExists
	}

	attempt := model.NewActiveAttempt(userID, quizID, len(quiz.Questions), s.now())
	if err := s.attempts.CreateActive(ctx, attempt, since); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			monitoring.RecordAttemptEvent(monitoring.EventAttemptConflict)
			return nil, util.ErrActiveAttemptExists
		}
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	monitoring.RecordAttemptEvent(monitoring.EventAttemptStarted)
	logger.Log.Info("Quiz attempt started",
		zap.Uint("user_id", userID), zap.Uint("quiz_id", quizID), zap.Uint("attempt_id", attempt.ID))
	return newAttemptResponse(attempt, quiz), nil
}

func (s *QuizAttemptService) SubmitQuiz(ctx context.Context, userID uint, req SubmitAttemptRequest) (resp *AttemptResponse, err error) {
	ctx, span := tracing.Start(ctx, "QuizAttemptService.SubmitQuiz",
		attribute.Int64("user_id", int64(userID)),
		attribute.Int64("quiz_id", int64(req.QuizID)),
		attribute.Int64("attempt_id", int64(req.AttemptID)),
	)
	defer func() { tracing.End(span, err) }()

	attempt, err := s.attempts.FindByID(ctx, req.AttemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load attempt %d: %w", req.AttemptID, err)
	}
	switch {
	case attempt.UserID != userID:
		return nil, util.ErrAttemptNotOwned
	case attempt.QuizID != req.QuizID:
		return nil, util.ErrAttemptQuizMismatch
	case attempt.IsCompleted:
		return nil, util.ErrAttemptCompleted
	}

	release, err := s.lock(ctx, userID, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	defer release()

	quiz, err := s.loadQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}
	outcome, err := ScoreAttempt(quiz, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrPersonalityResultsMissing) {
			logger.Log.Error("Personality quiz without results",
				zap.Uint("quiz_id", quiz.ID), zap.Uint("attempt_id", attempt.ID))
		}
		return nil, err
	}

	timeSpent := req.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}
	completion := model.AttemptCompletion{
		Score:     outcome.Score,
		Answers:   req.Answers,
		TimeSpent: timeSpent,
		EndTime:   s.now(),
	}
	if outcome.PersonalityResult != nil {
		id := outcome.PersonalityResult.ID
		completion.PersonalityResultID = &id
	}
	if !attempt.Complete(completion) {
		return nil, util.ErrAttemptCompleted
	}

	applied, err := s.attempts.Complete(ctx, attempt)
	if err != nil {
		return nil, fmt.Errorf("complete attempt %d: %w", attempt.ID, err)
	}
	if !applied {
		// another submission won the conditional update
		return nil, util.ErrAttemptCompleted
	}
	attempt.PersonalityResult = outcome.PersonalityResult

	monitoring.RecordAttemptEvent(monitoring.EventAttemptSubmitted)
	logger.Log.Info("Quiz attempt completed",
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", attempt.QuizID),
		zap.Uint("attempt_id", attempt.ID),
		zap.Int("score", attempt.Score),
		zap.Int("total_questions", attempt.TotalQuestions))

	s.async(func() { s.refreshRating(userID) })
	s.publishCompleted(attempt, quiz)

	return newAttemptResponse(attempt, quiz), nil
}

// refreshRating runs outside the submission; failures are logged and counted.
func (s *QuizAttemptService) refreshRating(userID uint) {
	if s.ratings == nil {
		return
	}
	var err error
	for try := 0; try <= s.ratingRetries; try++ {
		if try > 0 {
			time.Sleep(s.retryDelay * time.Duration(try))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err = s.ratings.Recalculate(ctx, userID)
		cancel()
		if err == nil {
			return
		}
	}
	monitoring.RecordAttemptEvent(monitoring.EventRatingFailed)
	logger.Log.Error("Failed to update user rating", zap.Uint("user_id", userID), zap.Error(err))
}

func (s *QuizAttemptService) publishCompleted(a *model.QuizAttempt, quiz *model.Quiz) {
	payload := map[string]interface{}{
		"attemptId":      a.ID,
		"userId":         a.UserID,
		"quizId":         a.QuizID,
		"quizType":       quiz.QuizType,
		"score":          a.Score,
		"totalQuestions": a.TotalQuestions,
		"timeSpent":      a.TimeSpent,
	}
	if a.PersonalityResultID != nil {
		payload["personalityResultId"] = *a.PersonalityResultID
	}
	if err := s.events.Publish(EventAttemptCompleted, payload); err != nil {
		logger.Log.Warn("Failed to publish event",
			zap.String("event", EventAttemptCompleted), zap.Uint("attempt_id", a.ID), zap.Error(err))
	}
}

// GetActiveAttempt returns the caller's resumable attempt, or nil.
func (s *QuizAttemptService) GetActiveAttempt(ctx context.Context, userID, quizID uint) (*AttemptResponse, error) {
	attempt, err := s.attempts.FindActive(ctx, userID, quizID, s.activeSince())
	if err != nil {
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	if attempt == nil {
		return nil, nil
	}
	quiz, err := s.loadQuiz(ctx, quizID)
	if err != nil && !errors.Is(err, util.ErrQuizNotFound) {
		return nil, err
	}
	return newAttemptResponse(attempt, quiz), nil
}

func (s *QuizAttemptService) HasActiveAttempt(ctx context.Context, userID, quizID uint) (bool, error) {
	attempt, err := s.attempts.FindActive(ctx, userID, quizID, s.activeSince())
	if err != nil {
		return false, fmt.Errorf("find active attempt: %w", err)
	}
	return attempt != nil, nil
}

// GetUserAttempts lists completed attempts ordered by quiz, newest first.
// Attempts on quizzes without questions are skipped.
func (s *QuizAttemptService) GetUserAttempts(ctx context.Context, userID uint) ([]*AttemptResponse, error) {
	attempts, err := s.attempts.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	// Score bands need the quiz's results, so quizzes are always loaded with
	// details; a deleted quiz leaves the attempt without title and band.
	quizzes := map[uint]*model.Quiz{}
	out := make([]*AttemptResponse, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		if a.TotalQuestions <= 0 {
			continue
		}
		quiz, ok := quizzes[a.QuizID]
		if !ok {
			quiz, err = s.loadQuiz(ctx, a.QuizID)
			if errors.Is(err, util.ErrQuizNotFound) {
				quiz, err = nil, nil
			}
			if err != nil {
				return nil, err
			}
			quizzes[a.QuizID] = quiz
		}
		out = append(out, newAttemptResponse(a, quiz))
	}
	return out, nil
}

// GetCompletedAttempt returns one of the user's completed attempts.
func (s *QuizAttemptService) GetCompletedAttempt(ctx context.Context, userID, attemptID uint) (*model.QuizAttempt, error) {
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotOwned
	}
	if !attempt.IsCompleted {
		return nil, util.ErrAttemptNotCompleted
	}
	return attempt, nil
}
