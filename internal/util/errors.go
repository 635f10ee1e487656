package util

import (
	"errors"
	"net/http"
)

// Not found.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrQuizNotFound          = errors.New("quiz not found")
	ErrAttemptNotFound       = errors.New("attempt not found")
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrRatingNotFound        = errors.New("rating not found")
)

// Conflict.
var (
	ErrActiveAttemptExists = errors.New("an active attempt for this quiz already exists")
	ErrAttemptInProgress   = errors.New("attempt is already being processed, retry later")
	ErrUsernameTaken       = errors.New("username is already taken")
	ErrEmailRegistered     = errors.New("email is already registered")
	ErrAlreadyPublished    = errors.New("attempt is already published")
	ErrAlreadyFriends      = errors.New("users are already friends")
	ErrRequestPending      = errors.New("friend request is already pending")
)

// Invalid state or input.
var (
	ErrAttemptCompleted          = errors.New("attempt is already completed")
	ErrAttemptNotOwned           = errors.New("attempt belongs to another user")
	ErrAttemptQuizMismatch       = errors.New("attempt belongs to another quiz")
	ErrAttemptNotCompleted       = errors.New("attempt is not completed")
	ErrPersonalityResultsMissing = errors.New("personality quiz has no results configured")
	ErrInvalidQuiz               = errors.New("invalid quiz definition")
	ErrInvalidRating             = errors.New("rating must be between 1 and 5")
	ErrSelfFriendRequest         = errors.New("cannot send a friend request to yourself")
	ErrNotFriends                = errors.New("messages can only be sent to friends")
	ErrEmptyMessage              = errors.New("message content is empty")
	ErrInvalidAction             = errors.New("invalid action")
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPermissionDenied   = errors.New("permission denied")
)

var statusGroups = []struct {
	status int
	errs   []error
}{
	{http.StatusNotFound, []error{
		ErrUserNotFound, ErrQuizNotFound, ErrAttemptNotFound,
		ErrFriendRequestNotFound, ErrMessageNotFound, ErrRatingNotFound,
	}},
	{http.StatusConflict, []error{
		ErrActiveAttemptExists, ErrAttemptInProgress, ErrUsernameTaken,
		ErrEmailRegistered, ErrAlreadyPublished, ErrAlreadyFriends, ErrRequestPending,
	}},
	{http.StatusBadRequest, []error{
		ErrAttemptCompleted, ErrAttemptNotOwned, ErrAttemptQuizMismatch,
		ErrAttemptNotCompleted, ErrPersonalityResultsMissing, ErrInvalidQuiz,
		ErrInvalidRating, ErrSelfFriendRequest, ErrNotFriends, ErrEmptyMessage,
		ErrInvalidAction,
	}},
	{http.StatusUnauthorized, []error{ErrInvalidCredentials}},
	{http.StatusForbidden, []error{ErrPermissionDenied}},
}

// StatusOf maps a (possibly wrapped) domain error to an HTTP status.
// Unknown errors map to 500.
func StatusOf(err error) int {
	for _, g := range statusGroups {
		for _, target := range g.errs {
			if errors.Is(err, target) {
				return g.status
			}
		}
	}
	return http.StatusInternalServerError
}
