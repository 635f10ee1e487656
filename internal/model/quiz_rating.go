package model

// QuizRating is a user's 1..5 star rating of a quiz.
type QuizRating struct {
	BaseModel
	QuizID uint `gorm:"not null;uniqueIndex:uniq_quiz_rating,priority:1" json:"quizId"`
	UserID uint `gorm:"not null;uniqueIndex:uniq_quiz_rating,priority:2;index" json:"userId"`
	Rating int  `gorm:"not null" json:"rating"`
}

func (QuizRating) TableName() string {
	return "quiz_ratings"
}
