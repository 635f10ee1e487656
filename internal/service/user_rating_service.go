package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"
	"victorina_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	leaderboardKey = "victorina:ratings:top"
	leaderboardTTL = 30 * time.Second
	maxTopLimit    = 100
)

var hundred = decimal.NewFromInt(100)

// ComputeUserRating aggregates attempts, which must already exclude
// personality quizzes, into a fresh rating for userID.
func ComputeUserRating(userID uint, attempts []model.QuizAttempt) model.UserRating {
	var score, total int64
	quizzes := map[uint]struct{}{}
	for _, a := range attempts {
		score += int64(a.Score)
		total += int64(a.TotalQuestions)
		quizzes[a.QuizID] = struct{}{}
	}

	avg := decimal.Zero
	if total > 0 {
		// DivRound rounds half away from zero, i.e. half-up for scores
		avg = decimal.NewFromInt(score).Mul(hundred).DivRound(decimal.NewFromInt(total), 2)
	}
	return model.UserRating{
		UserID:           userID,
		AverageScore:     avg,
		CompletedQuizzes: len(quizzes),
		TotalAttempts:    len(attempts),
	}
}

type RatingWithRank struct {
	*model.UserRating
	Rank int64 `json:"rank"`
}

type UserRatingService struct {
	users    UserStore
	attempts AttemptStore
	ratings  RatingStore
	cache    *redis.Client
	group    singleflight.Group
}

// NewUserRatingService builds the service; cache may be nil.
func NewUserRatingService(users UserStore, attempts AttemptStore, ratings RatingStore, cache *redis.Client) *UserRatingService {
	return &UserRatingService{
		users:    users,
		attempts: attempts,
		ratings:  ratings,
		cache:    cache,
	}
}

// Recalculate rebuilds the user's rating from scratch and overwrites the
// stored row. Running it twice without new attempts stores the same values.
func (s *UserRatingService) Recalculate(ctx context.Context, userID uint) (_ *model.UserRating, err error) {
	ctx, span := tracing.Start(ctx, "UserRatingService.Recalculate", attribute.Int64("user_id", int64(userID)))
	defer func() { tracing.End(span, err) }()

	if _, err := s.users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	attempts, err := s.attempts.ListCompletedForRating(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attempts for rating: %w", err)
	}

	rating := ComputeUserRating(userID, attempts)
	if err := s.ratings.Upsert(ctx, &rating); err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, leaderboardKey).Err(); err != nil {
			logger.Log.Warn("Failed to invalidate leaderboard cache", zap.Error(err))
		}
	}

	logger.Log.Debug("User rating updated",
		zap.Uint("user_id", userID),
		zap.String("average_score", rating.AverageScore.StringFixed(2)),
		zap.Int("total_attempts", rating.TotalAttempts),
		zap.Int("completed_quizzes", rating.CompletedQuizzes))
	return &rating, nil
}

// Top returns the leaderboard. Results are cached briefly in Redis and
// concurrent misses share one query.
func (s *UserRatingService) Top(ctx context.Context, limit int) ([]model.UserRating, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > maxTopLimit {
		limit = maxTopLimit
	}
	field := strconv.Itoa(limit)

	if s.cache != nil {
		if raw, err := s.cache.HGet(ctx, leaderboardKey, field).Bytes(); err == nil {
			var cached []model.UserRating
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	v, err, _ := s.group.Do(field, func() (interface{}, error) {
		ratings, err := s.ratings.Top(ctx, limit)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if raw, err := json.Marshal(ratings); err == nil {
				pipe := s.cache.Pipeline()
				pipe.HSet(ctx, leaderboardKey, field, raw)
				pipe.Expire(ctx, leaderboardKey, leaderboardTTL)
				if _, err := pipe.Exec(ctx); err != nil {
					logger.Log.Warn("Failed to cache leaderboard", zap.Error(err))
				}
			}
		}
		return ratings, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	return v.([]model.UserRating), nil
}

// Get returns the user's rating with rank. A user without a stored rating
// gets a zero rating ranked after everyone with a positive average.
func (s *UserRatingService) Get(ctx context.Context, userID uint) (*RatingWithRank, error) {
	if _, err := s.users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	rating, err := s.ratings.FindByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rating = &model.UserRating{UserID: userID, AverageScore: decimal.Zero}
	} else if err != nil {
		return nil, err
	}

	higher, err := s.ratings.CountHigher(ctx, rating.AverageScore)
	if err != nil {
		return nil, err
	}
	return &RatingWithRank{UserRating: rating, Rank: higher + 1}, nil
}
