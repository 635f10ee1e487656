package service

import (
	"context"
	"errors"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuizRatingSummary struct {
	QuizID        uint            `json:"quizId"`
	UserRating    int             `json:"userRating,omitempty"`
	AverageRating decimal.Decimal `json:"averageRating"`
	RatingCount   int             `json:"ratingCount"`
}

// AverageRating is sum/count rounded half-up to two decimals, 0 when count is 0.
func AverageRating(sum, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), 2)
}

type QuizRatingService struct {
	Repo     *repository.QuizRatingRepository
	QuizRepo *repository.QuizRepository
}

func NewQuizRatingService(repo *repository.QuizRatingRepository, quizRepo *repository.QuizRepository) *QuizRatingService {
	return &QuizRatingService{Repo: repo, QuizRepo: quizRepo}
}

// Rate stores the user's rating and refreshes the quiz aggregate.
func (s *QuizRatingService) Rate(ctx context.Context, userID, quizID uint, rating int) (*QuizRatingSummary, error) {
	if rating < 1 || rating > 5 {
		return nil, util.ErrInvalidRating
	}
	if _, err := s.QuizRepo.FindByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	if err := s.Repo.Upsert(ctx, &model.QuizRating{QuizID: quizID, UserID: userID, Rating: rating}); err != nil {
		return nil, err
	}

	sum, count, err := s.Repo.Totals(ctx, quizID)
	if err != nil {
		return nil, err
	}
	avg := AverageRating(sum, count)
	if err := s.QuizRepo.UpdateRatingStats(ctx, quizID, avg, int(count)); err != nil {
		return nil, err
	}

	return &QuizRatingSummary{
		QuizID:        quizID,
		UserRating:    rating,
		AverageRating: avg,
		RatingCount:   int(count),
	}, nil
}

func (s *QuizRatingService) MyRating(ctx context.Context, userID, quizID uint) (*QuizRatingSummary, error) {
	quiz, err := s.QuizRepo.FindByID(ctx, quizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	summary := &QuizRatingSummary{
		QuizID:        quizID,
		AverageRating: quiz.AverageRating,
		RatingCount:   quiz.RatingCount,
	}
	r, err := s.Repo.FindByQuizAndUser(ctx, quizID, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if r != nil {
		summary.UserRating = r.Rating
	}
	return summary, nil
}
