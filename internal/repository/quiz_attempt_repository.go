package repository

import (
	"context"
	"errors"
	"time"
	"victorina_backend/internal/model"

	"gorm.io/gorm"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

// CreateActive releases the active slot of unfinished attempts that started
// at or before staleBefore, then inserts attempt. A concurrent or still-fresh
// active attempt for the same pair makes the insert fail with
// gorm.ErrDuplicatedKey.
func (r *QuizAttemptRepository) CreateActive(ctx context.Context, attempt *model.QuizAttempt, staleBefore time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.QuizAttempt{}).
			Where("user_id = ? AND quiz_id = ? AND is_completed = ? AND active_slot IS NOT NULL AND start_time <= ?",
				attempt.UserID, attempt.QuizID, false, staleBefore).
			Update("active_slot", nil).Error
		if err != nil {
			return err
		}
		return tx.Create(attempt).Error
	})
}

func (r *QuizAttemptRepository) FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).Preload("PersonalityResult").First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindActive returns the newest unfinished attempt started after since, or nil.
func (r *QuizAttemptRepository) FindActive(ctx context.Context, userID, quizID uint, since time.Time) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND is_completed = ? AND start_time > ?", userID, quizID, false, since).
		Order("start_time DESC").
		First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// Complete writes the completion fields only if the attempt is still
// unfinished. It reports whether the row was updated.
func (r *QuizAttemptRepository) Complete(ctx context.Context, attempt *model.QuizAttempt) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.QuizAttempt{}).
		Where("id = ? AND is_completed = ?", attempt.ID, false).
		Updates(map[string]interface{}{
			"score":                 attempt.Score,
			"personality_result_id": attempt.PersonalityResultID,
			"user_answers":          attempt.UserAnswers,
			"time_spent":            attempt.TimeSpent,
			"end_time":              attempt.EndTime,
			"is_completed":          true,
			"active_slot":           nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListCompletedByUser orders by quiz, then most recent first. The quiz itself
// is not preloaded; callers load it with its results.
func (r *QuizAttemptRepository) ListCompletedByUser(ctx context.Context, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Preload("PersonalityResult").
		Where("user_id = ? AND is_completed = ?", userID, true).
		Order("quiz_id ASC, end_time DESC").
		Find(&attempts).Error
	return attempts, err
}

// ListCompletedForRating returns completed attempts on non-personality quizzes.
func (r *QuizAttemptRepository) ListCompletedForRating(ctx context.Context, userID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.WithContext(ctx).
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Where("quiz_attempts.user_id = ? AND quiz_attempts.is_completed = ? AND quizzes.quiz_type <> ?",
			userID, true, model.QuizTypePersonality).
		Find(&attempts).Error
	return attempts, err
}
