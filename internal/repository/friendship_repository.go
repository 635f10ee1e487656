package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"victorina_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type FriendshipRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewFriendshipRepository(db *gorm.DB, rdb *redis.Client) *FriendshipRepository {
	return &FriendshipRepository{
		DB:    db,
		Redis: rdb,
	}
}

func friendIDsKey(userID uint) string {
	return fmt.Sprintf("victorina:friends:%d", userID)
}

func (r *FriendshipRepository) invalidate(ctx context.Context, userIDs ...uint) {
	if r.Redis == nil {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, friendIDsKey(id))
	}
	r.Redis.Del(ctx, keys...)
}

// AcceptRequest marks the request accepted and stores both friendship
// directions in one transaction.
func (r *FriendshipRepository) AcceptRequest(ctx context.Context, req *model.FriendRequest) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.FriendRequest{}).Where("id = ?", req.ID).
			Update("status", model.FriendRequestAccepted).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.Friendship{UserID: req.SenderID, FriendID: req.ReceiverID}).Error; err != nil {
			return err
		}
		return tx.Create(&model.Friendship{UserID: req.ReceiverID, FriendID: req.SenderID}).Error
	})

	if err == nil {
		r.invalidate(ctx, req.SenderID, req.ReceiverID)
	}
	return err
}

func (r *FriendshipRepository) GetFriends(ctx context.Context, userID uint) ([]model.User, error) {
	var friends []model.User
	err := r.DB.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("users.username ASC").
		Find(&friends).Error
	return friends, err
}

func (r *FriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.DB.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

// GetFriendIDsCached reads through a Redis set. An empty friend list is
// cached as the single member 0 for a short time to avoid hammering the DB.
func (r *FriendshipRepository) GetFriendIDsCached(ctx context.Context, userID uint) ([]uint, error) {
	if r.Redis == nil {
		return r.GetFriendIDs(ctx, userID)
	}

	key := friendIDsKey(userID)
	cached, err := r.Redis.SMembers(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		ids := []uint{}
		for _, s := range cached {
			id, convErr := strconv.ParseUint(s, 10, 64)
			if convErr == nil && id > 0 {
				ids = append(ids, uint(id))
			}
		}
		return ids, nil
	}

	ids, err := r.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	pipe := r.Redis.Pipeline()
	if len(ids) > 0 {
		for _, id := range ids {
			pipe.SAdd(ctx, key, id)
		}
		pipe.Expire(ctx, key, 24*time.Hour)
	} else {
		pipe.SAdd(ctx, key, 0)
		pipe.Expire(ctx, key, 5*time.Minute)
	}
	pipe.Exec(ctx)
	return ids, nil
}

func (r *FriendshipRepository) IsFriend(ctx context.Context, userID, friendID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	return count > 0, err
}

func (r *FriendshipRepository) CreateRequest(ctx context.Context, req *model.FriendRequest) error {
	return r.DB.WithContext(ctx).Create(req).Error
}

func (r *FriendshipRepository) GetRequest(ctx context.Context, id string) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// FindPending returns the pending request from senderID to receiverID, or nil.
func (r *FriendshipRepository) FindPending(ctx context.Context, senderID, receiverID uint) (*model.FriendRequest, error) {
	var reqs []model.FriendRequest
	err := r.DB.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ? AND status = ?", senderID, receiverID, model.FriendRequestPending).
		Limit(1).
		Find(&reqs).Error
	if err != nil || len(reqs) == 0 {
		return nil, err
	}
	return &reqs[0], nil
}

func (r *FriendshipRepository) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	return r.DB.WithContext(ctx).Model(&model.FriendRequest{}).Where("id = ?", id).Update("status", status).Error
}

// GetRequests lists requests the user sent or received, newest first.
func (r *FriendshipRepository) GetRequests(ctx context.Context, userID uint, status string) ([]model.FriendRequest, error) {
	var reqs []model.FriendRequest
	db := r.DB.WithContext(ctx).
		Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *FriendshipRepository) DeleteFriendship(ctx context.Context, userID, friendID uint) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND friend_id = ?", userID, friendID).Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND friend_id = ?", friendID, userID).Delete(&model.Friendship{}).Error
	})

	if err == nil {
		r.invalidate(ctx, userID, friendID)
	}
	return err
}
