package repository

import (
	"context"
	"victorina_backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

type QuizFilter struct {
	Category string
	QuizType model.QuizType
	AuthorID uint
	Offset   int
	Limit    int
}

// Create inserts the quiz together with its questions, options and results.
func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(quiz).Error
	})
}

func (r *QuizRepository) FindByID(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// FindByIDWithDetails loads questions, options and results ordered by position.
func (r *QuizRepository) FindByIDWithDetails(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.WithContext(ctx).
		Preload("Author").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) List(ctx context.Context, f QuizFilter, publicOnly bool) ([]model.Quiz, int64, error) {
	var quizzes []model.Quiz
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.Quiz{})
	if publicOnly {
		db = db.Where("is_public = ?", true)
	}
	if f.AuthorID != 0 {
		db = db.Where("author_id = ?", f.AuthorID)
	}
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.QuizType != "" {
		db = db.Where("quiz_type = ?", f.QuizType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Author").
		Order("created_at DESC").
		Offset(f.Offset).Limit(f.Limit).
		Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) CountQuestions(ctx context.Context, quizIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(quizIDs))
	if len(quizIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		QuizID uint
		Total  int
	}
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("quiz_id, COUNT(*) AS total").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error
	for _, row := range rows {
		counts[row.QuizID] = row.Total
	}
	return counts, err
}

func (r *QuizRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&model.Quiz{}, id).Error
}

func (r *QuizRepository) UpdateRatingStats(ctx context.Context, quizID uint, average decimal.Decimal, count int) error {
	return r.DB.WithContext(ctx).Model(&model.Quiz{}).Where("id = ?", quizID).
		Updates(map[string]interface{}{"average_rating": average, "rating_count": count}).Error
}
