package repository

import (
	"context"
	"time"
	"victorina_backend/internal/model"

	"gorm.io/gorm"
)

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.DB.WithContext(ctx).Create(msg).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	var msg model.Message
	if err := r.DB.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Conversation returns messages exchanged between a and b, oldest first.
func (r *MessageRepository) Conversation(ctx context.Context, a, b uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, err
}

// MarkRead sets read_at once; it reports false when the message was
// already read or is addressed to someone else.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, readerID uint, at time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Message{}).
		Where("id = ? AND receiver_id = ? AND read_at IS NULL", id, readerID).
		Update("read_at", at)
	return res.RowsAffected == 1, res.Error
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Message{}).
		Where("receiver_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// ListInvolving returns the newest messages the user sent or received.
func (r *MessageRepository) ListInvolving(ctx context.Context, userID uint, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
