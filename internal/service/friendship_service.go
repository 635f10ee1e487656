package service

import (
	"context"
	"errors"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"
	"victorina_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FriendshipService struct {
	FriendRepo *repository.FriendshipRepository
	UserRepo   *repository.UserRepository
}

func NewFriendshipService(friendRepo *repository.FriendshipRepository, userRepo *repository.UserRepository) *FriendshipService {
	return &FriendshipService{
		FriendRepo: friendRepo,
		UserRepo:   userRepo,
	}
}

// SendFriendRequest creates a pending request. If the receiver already asked
// the sender, that request is accepted instead.
func (s *FriendshipService) SendFriendRequest(ctx context.Context, senderID, receiverID uint, message string) (*model.FriendRequest, error) {
	if senderID == receiverID {
		return nil, util.ErrSelfFriendRequest
	}
	if _, err := s.UserRepo.FindByID(receiverID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	isFriend, err := s.FriendRepo.IsFriend(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if isFriend {
		return nil, util.ErrAlreadyFriends
	}

	reciprocal, err := s.FriendRepo.FindPending(ctx, receiverID, senderID)
	if err != nil {
		return nil, err
	}
	if reciprocal != nil {
		if err := s.HandleFriendRequest(ctx, reciprocal.ID, senderID, true); err != nil {
			return nil, err
		}
		reciprocal.Status = model.FriendRequestAccepted
		return reciprocal, nil
	}

	existing, err := s.FriendRepo.FindPending(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, util.ErrRequestPending
	}

	req := &model.FriendRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    message,
		Status:     model.FriendRequestPending,
	}
	if err := s.FriendRepo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *FriendshipService) HandleFriendRequest(ctx context.Context, requestID string, receiverID uint, accept bool) error {
	req, err := s.FriendRepo.GetRequest(ctx, requestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrFriendRequestNotFound
	}
	if err != nil {
		return err
	}

	if req.ReceiverID != receiverID {
		return util.ErrPermissionDenied
	}
	if req.Status != model.FriendRequestPending {
		return util.ErrInvalidAction
	}

	if !accept {
		return s.FriendRepo.UpdateRequestStatus(ctx, requestID, model.FriendRequestRejected)
	}

	isFriend, err := s.FriendRepo.IsFriend(ctx, req.SenderID, req.ReceiverID)
	if err != nil {
		return err
	}
	if isFriend {
		return s.FriendRepo.UpdateRequestStatus(ctx, requestID, model.FriendRequestAccepted)
	}
	if err := s.FriendRepo.AcceptRequest(ctx, req); err != nil {
		return err
	}
	logger.Log.Info("Friend request accepted",
		zap.Uint("sender_id", req.SenderID), zap.Uint("receiver_id", req.ReceiverID))
	return nil
}

func (s *FriendshipService) GetFriends(ctx context.Context, userID uint) ([]model.User, error) {
	return s.FriendRepo.GetFriends(ctx, userID)
}

func (s *FriendshipService) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.FriendRepo.GetFriendIDsCached(ctx, userID)
}

func (s *FriendshipService) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	return s.FriendRepo.IsFriend(ctx, a, b)
}

func (s *FriendshipService) GetFriendRequests(ctx context.Context, userID uint, status string) ([]model.FriendRequest, error) {
	return s.FriendRepo.GetRequests(ctx, userID, status)
}

func (s *FriendshipService) DeleteFriend(ctx context.Context, userID, friendID uint) error {
	isFriend, err := s.FriendRepo.IsFriend(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if !isFriend {
		return util.ErrUserNotFound
	}
	return s.FriendRepo.DeleteFriendship(ctx, userID, friendID)
}
