package model

import (
	"time"

	"gorm.io/datatypes"
)

// AttemptAnswers maps a question index to the selected option index.
type AttemptAnswers map[int]int

// QuizAttempt is one user's pass through one quiz.
//
// ActiveSlot is true while the attempt is in progress and NULL otherwise.
// Together with the user and quiz ids it forms a unique index, so the store
// itself refuses a second in-progress attempt for the same pair.
//
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	UserID              uint                               `gorm:"not null;uniqueIndex:uniq_quiz_attempt_active,priority:1;index:idx_attempt_user_completed,priority:1" json:"userId"`
	QuizID              uint                               `gorm:"not null;uniqueIndex:uniq_quiz_attempt_active,priority:2;index" json:"quizId"`
	ActiveSlot          *bool                              `gorm:"uniqueIndex:uniq_quiz_attempt_active,priority:3" json:"-"`
	Quiz                *Quiz                              `gorm:"foreignKey:QuizID;constraint:false" json:"-"`
	StartTime           time.Time                          `gorm:"not null;index" json:"startTime"`
	EndTime             *time.Time                         `json:"endTime,omitempty"`
	Score               int                                `gorm:"not null;default:0" json:"score"`
	TotalQuestions      int                                `gorm:"not null" json:"totalQuestions"`
	TimeSpent           int                                `gorm:"not null;default:0" json:"timeSpent"`
	IsCompleted         bool                               `gorm:"not null;index:idx_attempt_user_completed,priority:2" json:"isCompleted"`
	UserAnswers         datatypes.JSONType[AttemptAnswers] `json:"userAnswers"`
	PersonalityResultID *uint                              `json:"personalityResultId,omitempty"`
	PersonalityResult   *QuizResult                        `gorm:"foreignKey:PersonalityResultID;constraint:false" json:"personalityResult,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// NewActiveAttempt builds an in-progress attempt with an empty answer set.
func NewActiveAttempt(userID, quizID uint, totalQuestions int, now time.Time) *QuizAttempt {
	slot := true
	return &QuizAttempt{
		UserID:         userID,
		QuizID:         quizID,
		ActiveSlot:     &slot,
		StartTime:      now,
		TotalQuestions: totalQuestions,
		UserAnswers:    datatypes.NewJSONType(AttemptAnswers{}),
	}
}

// AttemptCompletion carries everything written when an attempt completes.
type AttemptCompletion struct {
	Score               int
	PersonalityResultID *uint
	Answers             AttemptAnswers
	TimeSpent           int
	EndTime             time.Time
}

// IsActive reports whether the attempt is unfinished and started after since.
func (a *QuizAttempt) IsActive(since time.Time) bool {
	return !a.IsCompleted && a.StartTime.After(since)
}

// Complete applies c and releases the active slot. It returns false, leaving
// the attempt untouched, if the attempt was already completed.
func (a *QuizAttempt) Complete(c AttemptCompletion) bool {
	if a.IsCompleted {
		return false
	}
	answers := c.Answers
	if answers == nil {
		answers = AttemptAnswers{}
	}
	end := c.EndTime
	a.Score = c.Score
	a.PersonalityResultID = c.PersonalityResultID
	a.UserAnswers = datatypes.NewJSONType(answers)
	a.TimeSpent = c.TimeSpent
	a.EndTime = &end
	a.IsCompleted = true
	a.ActiveSlot = nil
	return true
}
