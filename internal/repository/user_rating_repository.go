package repository

import (
	"context"
	"victorina_backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRatingRepository struct {
	DB *gorm.DB
}

func NewUserRatingRepository(db *gorm.DB) *UserRatingRepository {
	return &UserRatingRepository{DB: db}
}

// Upsert overwrites the single rating row of rating.UserID.
func (r *UserRatingRepository) Upsert(ctx context.Context, rating *model.UserRating) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"average_score", "completed_quizzes", "total_attempts", "updated_at"}),
	}).Create(rating).Error
}

func (r *UserRatingRepository) FindByUserID(ctx context.Context, userID uint) (*model.UserRating, error) {
	var rating model.UserRating
	if err := r.DB.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&rating).Error; err != nil {
		return nil, err
	}
	return &rating, nil
}

func (r *UserRatingRepository) Top(ctx context.Context, limit int) ([]model.UserRating, error) {
	var ratings []model.UserRating
	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("total_attempts > ?", 0).
		Order("average_score DESC, total_attempts DESC, user_id ASC").
		Limit(limit).
		Find(&ratings).Error
	return ratings, err
}

// CountHigher counts ratings with a strictly higher average score.
func (r *UserRatingRepository) CountHigher(ctx context.Context, score decimal.Decimal) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.UserRating{}).
		Where("total_attempts > ? AND average_score > ?", 0, score).
		Count(&count).Error
	return count, err
}
