package service

import (
	"errors"
	"strings"
	"time"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository"
	"victorina_backend/internal/util"

	"gorm.io/gorm"
)

const maxSearchResults = 20

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

func (s *UserService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

// Search excludes the caller and disabled accounts.
func (s *UserService) Search(query string, callerID uint) ([]model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.User{}, nil
	}
	users, err := s.UserRepo.Search(query, maxSearchResults+1)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID == callerID || u.Disabled {
			continue
		}
		out = append(out, u)
		if len(out) == maxSearchResults {
			break
		}
	}
	return out, nil
}

func (s *UserService) TouchLastSeen(userID uint) error {
	return s.UserRepo.UpdateLastSeen(userID, time.Now())
}
