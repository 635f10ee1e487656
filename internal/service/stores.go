package service

import (
	"context"
	"time"
	"victorina_backend/internal/model"

	"github.com/shopspring/decimal"
)

// The interfaces below are satisfied by the gorm repositories and by the
// in-process stores in repository/memory. Not found is gorm.ErrRecordNotFound,
// a unique violation is gorm.ErrDuplicatedKey.

type UserStore interface {
	FindByID(id uint) (*model.User, error)
}

type QuizStore interface {
	FindByIDWithDetails(ctx context.Context, id uint) (*model.Quiz, error)
}

type AttemptStore interface {
	CreateActive(ctx context.Context, attempt *model.QuizAttempt, staleBefore time.Time) error
	FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error)
	FindActive(ctx context.Context, userID, quizID uint, since time.Time) (*model.QuizAttempt, error)
	Complete(ctx context.Context, attempt *model.QuizAttempt) (bool, error)
	ListCompletedByUser(ctx context.Context, userID uint) ([]model.QuizAttempt, error)
	ListCompletedForRating(ctx context.Context, userID uint) ([]model.QuizAttempt, error)
}

type RatingStore interface {
	Upsert(ctx context.Context, rating *model.UserRating) error
	FindByUserID(ctx context.Context, userID uint) (*model.UserRating, error)
	Top(ctx context.Context, limit int) ([]model.UserRating, error)
	CountHigher(ctx context.Context, score decimal.Decimal) (int64, error)
}

type FeedStore interface {
	Create(ctx context.Context, item *model.FeedItem) error
	List(ctx context.Context, userIDs []uint, offset, limit int) ([]model.FeedItem, int64, error)
}
