package model

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type QuizType string

const (
	QuizTypeStandard    QuizType = "STANDARD"
	QuizTypePersonality QuizType = "PERSONALITY"
)

func (t QuizType) Valid() bool {
	return t == QuizTypeStandard || t == QuizTypePersonality
}

// Traits maps a trait name to its weight.
type Traits map[string]int

// swagger:model Quiz
type Quiz struct {
	BaseModel
	Title         string                       `gorm:"size:200;not null" json:"title"`
	Description   string                       `gorm:"type:text" json:"description"`
	Category      string                       `gorm:"size:50;index" json:"category"`
	Difficulty    string                       `gorm:"size:20" json:"difficulty"`
	QuizType      QuizType                     `gorm:"size:20;not null;index" json:"quizType"`
	TimeDuration  int                          `json:"timeDuration"` // minutes, 0 means unlimited
	IsPublic      bool                         `gorm:"not null;index" json:"isPublic"`
	Image         string                       `gorm:"size:255" json:"image"`
	Tags          datatypes.JSONType[[]string] `json:"tags"`
	AuthorID      uint                         `gorm:"index;not null" json:"authorId"`
	Author        *User                        `gorm:"foreignKey:AuthorID;constraint:false" json:"author,omitempty"`
	Questions     []Question                   `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
	Results       []QuizResult                 `gorm:"foreignKey:QuizID" json:"results,omitempty"`
	AverageRating decimal.Decimal              `gorm:"type:decimal(3,2);not null;default:0" json:"averageRating"`
	RatingCount   int                          `gorm:"not null;default:0" json:"ratingCount"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) IsPersonality() bool {
	return q.QuizType == QuizTypePersonality
}

// swagger:model Question
type Question struct {
	BaseModel
	QuizID       uint     `gorm:"index;not null" json:"quizId"`
	Position     int      `gorm:"not null" json:"position"`
	Text         string   `gorm:"type:text;not null" json:"text"`
	Image        string   `gorm:"size:255" json:"image"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Options      []Option `gorm:"foreignKey:QuestionID" json:"options"`
}

func (Question) TableName() string {
	return "quiz_questions"
}

// HasValidCorrectIndex reports whether CorrectIndex points at one of the options.
func (q *Question) HasValidCorrectIndex() bool {
	return q.CorrectIndex != nil && *q.CorrectIndex >= 0 && *q.CorrectIndex < len(q.Options)
}

// swagger:model Option
type Option struct {
	BaseModel
	QuestionID uint                       `gorm:"index;not null" json:"questionId"`
	Position   int                        `gorm:"not null" json:"position"`
	Type       string                     `gorm:"size:20;not null;default:'text'" json:"type"`
	Content    string                     `gorm:"type:text" json:"content"`
	Image      string                     `gorm:"size:255" json:"image"`
	Traits     datatypes.JSONType[Traits] `json:"traits"`
}

func (Option) TableName() string {
	return "quiz_options"
}
