package repository

import (
	"context"
	"victorina_backend/internal/model"

	"gorm.io/gorm"
)

type FeedRepository struct {
	DB *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{DB: db}
}

// Create fails with gorm.ErrDuplicatedKey when the attempt was already published.
func (r *FeedRepository) Create(ctx context.Context, item *model.FeedItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

// List returns items newest first. A nil userIDs means every user; an empty
// non-nil slice matches nothing.
func (r *FeedRepository) List(ctx context.Context, userIDs []uint, offset, limit int) ([]model.FeedItem, int64, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []model.FeedItem{}, 0, nil
	}

	var items []model.FeedItem
	var total int64

	db := r.DB.WithContext(ctx).Model(&model.FeedItem{})
	if userIDs != nil {
		db = db.Where("user_id IN ?", userIDs)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").
		Order("completed_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}
