package model

import "gorm.io/datatypes"

// QuizResult is a possible outcome of a quiz. Personality quizzes match on
// Traits, standard quizzes describe the [MinScore, MaxScore] band.
//
// swagger:model QuizResult
type QuizResult struct {
	BaseModel
	QuizID      uint                       `gorm:"index;not null" json:"quizId"`
	Position    int                        `gorm:"not null" json:"position"`
	Title       string                     `gorm:"size:200;not null" json:"title"`
	Description string                     `gorm:"type:text" json:"description"`
	Image       string                     `gorm:"size:255" json:"image"`
	MinScore    *int                       `json:"minScore,omitempty"`
	MaxScore    *int                       `json:"maxScore,omitempty"`
	Traits      datatypes.JSONType[Traits] `json:"traits"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// Contains reports whether score falls inside the result's band.
// A result without a band never matches.
func (r *QuizResult) Contains(score int) bool {
	if r.MinScore == nil || r.MaxScore == nil {
		return false
	}
	return score >= *r.MinScore && score <= *r.MaxScore
}
