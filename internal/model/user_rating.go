package model

import "github.com/shopspring/decimal"

// UserRating is recomputed from a user's completed standard attempts.
//
// swagger:model UserRating
type UserRating struct {
	BaseModel
	UserID           uint            `gorm:"uniqueIndex;not null" json:"userId"`
	User             *User           `gorm:"foreignKey:UserID;constraint:false" json:"user,omitempty"`
	AverageScore     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0;index" json:"averageScore"`
	CompletedQuizzes int             `gorm:"not null;default:0" json:"completedQuizzes"`
	TotalAttempts    int             `gorm:"not null;default:0" json:"totalAttempts"`
}

func (UserRating) TableName() string {
	return "user_ratings"
}
