package model

import "time"

// Message is a direct message between two friends.
type Message struct {
	UUIDModel
	SenderID   uint       `gorm:"not null;index:idx_message_pair,priority:1" json:"senderId"`
	ReceiverID uint       `gorm:"not null;index:idx_message_pair,priority:2;index" json:"receiverId"`
	Sender     *User      `gorm:"foreignKey:SenderID;constraint:false" json:"sender,omitempty"`
	Receiver   *User      `gorm:"foreignKey:ReceiverID;constraint:false" json:"receiver,omitempty"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}
