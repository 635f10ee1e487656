package service

import (
	"context"
	"errors"
	"fmt"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FriendLister interface {
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type FeedService struct {
	feed     FeedStore
	attempts AttemptStore
	quizzes  QuizStore
	ratings  RatingStore
	friends  FriendLister
	events   EventPublisher
}

func NewFeedService(feed FeedStore, attempts AttemptStore, quizzes QuizStore, ratings RatingStore, friends FriendLister, events EventPublisher) *FeedService {
	if events == nil {
		events = LogEventPublisher{}
	}
	return &FeedService{
		feed:     feed,
		attempts: attempts,
		quizzes:  quizzes,
		ratings:  ratings,
		friends:  friends,
		events:   events,
	}
}

// Publish shares one of the caller's completed attempts. Everything shown
// in the feed is taken from the stored attempt, never from the client.
func (s *FeedService) Publish(ctx context.Context, userID, attemptID uint) (*model.FeedItem, error) {
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
	if !attempt.IsCompleted || attempt.EndTime == nil {
		return nil, util.ErrAttemptNotCompleted
	}

	quiz, err := s.quizzes.FindByIDWithDetails(ctx, attempt.QuizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	item := &model.FeedItem{
		UserID:      userID,
		QuizID:      quiz.ID,
		AttemptID:   attempt.ID,
		QuizTitle:   quiz.Title,
		QuizType:    quiz.QuizType,
		CompletedAt: *attempt.EndTime,
		Traits:      datatypes.NewJSONType(model.Traits{}),
	}

	if quiz.IsPersonality() {
		if r := attempt.PersonalityResult; r != nil {
			item.Character = r.Title
			item.Description = r.Description
			item.Image = r.Image
			item.Traits = traitsOrEmpty(r.Traits.Data())
		}
	} else {
		score, total, spent := attempt.Score, attempt.TotalQuestions, attempt.TimeSpent
		item.Score, item.TotalQuestions, item.TimeSpent = &score, &total, &spent
		if pos, err := s.position(ctx, userID); err != nil {
			logger.Log.Warn("Failed to resolve rating position", zap.Uint("user_id", userID), zap.Error(err))
		} else if pos > 0 {
			item.Position = &pos
		}
	}

	if err := s.feed.Create(ctx, item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrAlreadyPublished
		}
		return nil, fmt.Errorf("create feed item: %w", err)
	}

	if err := s.events.Publish(EventFeedPublished, map[string]interface{}{
		"feedItemId": item.ID,
		"userId":     userID,
		"attemptId":  attempt.ID,
		"quizId":     quiz.ID,
	}); err != nil {
		logger.Log.Warn("Failed to publish event", zap.String("event", EventFeedPublished), zap.Error(err))
	}
	return item, nil
}

// position is the user's leaderboard rank, or 0 when they have no rating.
func (s *FeedService) position(ctx context.Context, userID uint) (int, error) {
	rating, err := s.ratings.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	higher, err := s.ratings.CountHigher(ctx, rating.AverageScore)
	if err != nil {
		return 0, err
	}
	return int(higher) + 1, nil
}

func (s *FeedService) ListAll(ctx context.Context, page, limit int) ([]model.FeedItem, int64, error) {
	return s.feed.List(ctx, nil, (page-1)*limit, limit)
}

func (s *FeedService) ListFriends(ctx context.Context, userID uint, page, limit int) ([]model.FeedItem, int64, error) {
	ids, err := s.friends.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if ids == nil {
		ids = []uint{}
	}
	return s.feed.List(ctx, ids, (page-1)*limit, limit)
}

func (s *FeedService) ListUser(ctx context.Context, userID uint, page, limit int) ([]model.FeedItem, int64, error) {
	return s.feed.List(ctx, []uint{userID}, (page-1)*limit, limit)
}
