package repository

import (
	"context"
	"victorina_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizRatingRepository struct {
	DB *gorm.DB
}

func NewQuizRatingRepository(db *gorm.DB) *QuizRatingRepository {
	return &QuizRatingRepository{DB: db}
}

func (r *QuizRatingRepository) Upsert(ctx context.Context, rating *model.QuizRating) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quiz_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(rating).Error
}

func (r *QuizRatingRepository) FindByQuizAndUser(ctx context.Context, quizID, userID uint) (*model.QuizRating, error) {
	var rating model.QuizRating
	err := r.DB.WithContext(ctx).Where("quiz_id = ? AND user_id = ?", quizID, userID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Totals returns the rating sum and count for a quiz.
func (r *QuizRatingRepository) Totals(ctx context.Context, quizID uint) (sum int64, count int64, err error) {
	var row struct {
		Total int64
		Cnt   int64
	}
	err = r.DB.WithContext(ctx).Model(&model.QuizRating{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS cnt").
		Where("quiz_id = ?", quizID).
		Scan(&row).Error
	return row.Total, row.Cnt, err
}
