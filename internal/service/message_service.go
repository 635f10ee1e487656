package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"

	"gorm.io/gorm"
)

const (
	maxMessageLength  = 4000
	conversationLimit = 200
	chatScanLimit     = 1000
)

type ChatSummary struct {
	Partner     *model.User    `json:"partner"`
	LastMessage *model.Message `json:"lastMessage"`
	UnreadCount int            `json:"unreadCount"`
}

type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uint) (bool, error)
}

type MessageService struct {
	Repo     *repository.MessageRepository
	UserRepo *repository.UserRepository
	Friends  FriendChecker
}

func NewMessageService(repo *repository.MessageRepository, userRepo *repository.UserRepository, friends FriendChecker) *MessageService {
	return &MessageService{Repo: repo, UserRepo: userRepo, Friends: friends}
}

func (s *MessageService) Send(ctx context.Context, senderID, receiverID uint, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, util.ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		content = content[:maxMessageLength]
	}
	ok, err := s.Friends.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrNotFriends
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.Repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) Conversation(ctx context.Context, userID, otherID uint) ([]model.Message, error) {
	return s.Repo.Conversation(ctx, userID, otherID, conversationLimit)
}

// MarkRead is allowed for the receiver only and is a no-op when the message
// was already read.
func (s *MessageService) MarkRead(ctx context.Context, userID uint, messageID string) error {
	msg, err := s.Repo.FindByID(ctx, messageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrMessageNotFound
	}
	if err != nil {
		return err
	}
	if msg.ReceiverID != userID {
		return util.ErrPermissionDenied
	}
	_, err = s.Repo.MarkRead(ctx, messageID, userID, time.Now())
	return err
}

func (s *MessageService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.Repo.CountUnread(ctx, userID)
}

// Chats groups the user's recent messages by partner, newest chat first.
func (s *MessageService) Chats(ctx context.Context, userID uint) ([]ChatSummary, error) {
	msgs, err := s.Repo.ListInvolving(ctx, userID, chatScanLimit)
	if err != nil {
		return nil, err
	}

	index := map[uint]int{}
	chats := []ChatSummary{}
	for i := range msgs {
		m := &msgs[i]
		partnerID := m.SenderID
		if partnerID == userID {
			partnerID = m.ReceiverID
		}
		pos, seen := index[partnerID]
		if !seen {
			partner, err := s.UserRepo.FindByID(partnerID)
			if err != nil {
				continue
			}
			index[partnerID] = len(chats)
			chats = append(chats, ChatSummary{Partner: partner, LastMessage: m})
			pos = len(chats) - 1
		}
		if m.ReceiverID == userID && m.ReadAt == nil {
			chats[pos].UnreadCount++
		}
	}
	return chats, nil
}
