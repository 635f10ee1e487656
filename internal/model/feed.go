package model

import (
	"time"

	"gorm.io/datatypes"
)

// FeedItem is a published quiz result. Standard quizzes fill the score
// fields, personality quizzes fill the character fields.
//
// swagger:model FeedItem
type FeedItem struct {
	BaseModel
	UserID         uint                       `gorm:"index;not null" json:"userId"`
	User           *User                      `gorm:"foreignKey:UserID;constraint:false" json:"user,omitempty"`
	QuizID         uint                       `gorm:"index;not null" json:"quizId"`
	AttemptID      uint                       `gorm:"uniqueIndex;not null" json:"attemptId"`
	QuizTitle      string                     `gorm:"size:200" json:"quizTitle"`
	QuizType       QuizType                   `gorm:"size:20" json:"quizType"`
	CompletedAt    time.Time                  `gorm:"index" json:"completedAt"`
	Score          *int                       `json:"score,omitempty"`
	TotalQuestions *int                       `json:"totalQuestions,omitempty"`
	TimeSpent      *int                       `json:"timeSpent,omitempty"`
	Position       *int                       `json:"position,omitempty"`
	Character      string                     `gorm:"size:200" json:"character,omitempty"`
	Description    string                     `gorm:"type:text" json:"description,omitempty"`
	Image          string                     `gorm:"size:255" json:"image,omitempty"`
	Traits         datatypes.JSONType[Traits] `json:"traits"`
}

func (FeedItem) TableName() string {
	return "feed_items"
}
