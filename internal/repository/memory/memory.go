// Package memory holds in-process stores that honour the same invariants as
// the gorm repositories. They back service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"
	"victorina_backend/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Users struct {
	mu     sync.RWMutex
	nextID uint
	rows   map[uint]model.User
}

func NewUsers() *Users {
	return &Users{rows: map[uint]model.User{}}
}

func (s *Users) Add(u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	s.rows[u.ID] = *u
}

func (s *Users) FindByID(id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

type Quizzes struct {
	mu     sync.RWMutex
	nextID uint
	rows   map[uint]model.Quiz
}

func NewQuizzes() *Quizzes {
	return &Quizzes{rows: map[uint]model.Quiz{}}
}

// Add stores q and assigns ids to the quiz and to any result without one.
func (s *Quizzes) Add(q *model.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	if q.ID == 0 {
		q.ID = s.nextID
	}
	for i := range q.Results {
		if q.Results[i].ID == 0 {
			q.Results[i].ID = q.ID*1000 + uint(i) + 1
		}
		q.Results[i].QuizID = q.ID
	}
	for i := range q.Questions {
		q.Questions[i].QuizID = q.ID
	}
	s.rows[q.ID] = *q
}

func (s *Quizzes) FindByIDWithDetails(ctx context.Context, id uint) (*model.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &q, nil
}

func (s *Quizzes) quizType(id uint) model.QuizType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows[id].QuizType
}

func (s *Quizzes) result(id uint) *model.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.rows {
		for _, r := range q.Results {
			if r.ID == id {
				res := r
				return &res
			}
		}
	}
	return nil
}

type slotKey struct {
	userID, quizID uint
}

// Attempts mirrors the unique (user_id, quiz_id, active_slot) index and the
// conditional completion update of the SQL store.
type Attempts struct {
	mu      sync.Mutex
	nextID  uint
	rows    map[uint]*model.QuizAttempt
	active  map[slotKey]uint
	quizzes *Quizzes
}

func NewAttempts(quizzes *Quizzes) *Attempts {
	return &Attempts{
		rows:    map[uint]*model.QuizAttempt{},
		active:  map[slotKey]uint{},
		quizzes: quizzes,
	}
}

func cloneAttempt(a *model.QuizAttempt) *model.QuizAttempt {
	c := *a
	if a.ActiveSlot != nil {
		v := *a.ActiveSlot
		c.ActiveSlot = &v
	}
	if a.EndTime != nil {
		v := *a.EndTime
		c.EndTime = &v
	}
	if a.PersonalityResultID != nil {
		v := *a.PersonalityResultID
		c.PersonalityResultID = &v
	}
	answers := model.AttemptAnswers{}
	for k, v := range a.UserAnswers.Data() {
		answers[k] = v
	}
	c.UserAnswers = datatypes.NewJSONType(answers)
	c.PersonalityResult = nil
	c.Quiz = nil
	return &c
}

func (s *Attempts) CreateActive(ctx context.Context, attempt *model.QuizAttempt, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slotKey{attempt.UserID, attempt.QuizID}
	if id, ok := s.active[key]; ok {
		held := s.rows[id]
		if held.StartTime.After(staleBefore) {
			return gorm.ErrDuplicatedKey
		}
		held.ActiveSlot = nil
		delete(s.active, key)
	}

	s.nextID++
	attempt.ID = s.nextID
	now := time.Now()
	attempt.CreatedAt, attempt.UpdatedAt = now, now
	s.rows[attempt.ID] = cloneAttempt(attempt)
	if attempt.ActiveSlot != nil {
		s.active[key] = attempt.ID
	}
	return nil
}

func (s *Attempts) FindByID(ctx context.Context, id uint) (*model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := cloneAttempt(a)
	if c.PersonalityResultID != nil && s.quizzes != nil {
		c.PersonalityResult = s.quizzes.result(*c.PersonalityResultID)
	}
	return c, nil
}

func (s *Attempts) FindActive(ctx context.Context, userID, quizID uint, since time.Time) (*model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.QuizAttempt
	for _, a := range s.rows {
		if a.UserID != userID || a.QuizID != quizID || !a.IsActive(since) {
			continue
		}
		if found == nil || a.StartTime.After(found.StartTime) {
			found = a
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneAttempt(found), nil
}

func (s *Attempts) Complete(ctx context.Context, attempt *model.QuizAttempt) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rows[attempt.ID]
	if !ok || stored.IsCompleted {
		return false, nil
	}
	updated := cloneAttempt(attempt)
	updated.IsCompleted = true
	updated.ActiveSlot = nil
	updated.UserID, updated.QuizID = stored.UserID, stored.QuizID
	updated.StartTime, updated.TotalQuestions = stored.StartTime, stored.TotalQuestions
	updated.CreatedAt, updated.UpdatedAt = stored.CreatedAt, time.Now()
	s.rows[attempt.ID] = updated
	key := slotKey{stored.UserID, stored.QuizID}
	if s.active[key] == attempt.ID {
		delete(s.active, key)
	}
	return true, nil
}

func (s *Attempts) ListCompletedByUser(ctx context.Context, userID uint) ([]model.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.QuizAttempt{}
	for _, a := range s.rows {
		if a.UserID == userID && a.IsCompleted {
			c := cloneAttempt(a)
			if c.PersonalityResultID != nil && s.quizzes != nil {
				c.PersonalityResult = s.quizzes.result(*c.PersonalityResultID)
			}
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuizID != out[j].QuizID {
			return out[i].QuizID < out[j].QuizID
		}
		return out[i].EndTime.After(*out[j].EndTime)
	})
	return out, nil
}

func (s *Attempts) ListCompletedForRating(ctx context.Context, userID uint) ([]model.QuizAttempt, error) {
	all, err := s.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, a := range all {
		if s.quizzes != nil && s.quizzes.quizType(a.QuizID) == model.QuizTypePersonality {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Ratings keeps one UserRating per user.
type Ratings struct {
	mu   sync.RWMutex
	rows map[uint]model.UserRating
}

func NewRatings() *Ratings {
	return &Ratings{rows: map[uint]model.UserRating{}}
}

func (s *Ratings) Upsert(ctx context.Context, rating *model.UserRating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := *rating
	row.User = nil
	if existing, ok := s.rows[rating.UserID]; ok {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	} else {
		row.ID = uint(len(s.rows) + 1)
	}
	s.rows[rating.UserID] = row
	return nil
}

func (s *Ratings) FindByUserID(ctx context.Context, userID uint) (*model.UserRating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (s *Ratings) Top(ctx context.Context, limit int) ([]model.UserRating, error) {
	s.mu.RLock()
	out := make([]model.UserRating, 0, len(s.rows))
	for _, r := range s.rows {
		if r.TotalAttempts > 0 {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].AverageScore.Cmp(out[j].AverageScore); c != 0 {
			return c > 0
		}
		if out[i].TotalAttempts != out[j].TotalAttempts {
			return out[i].TotalAttempts > out[j].TotalAttempts
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Ratings) CountHigher(ctx context.Context, score decimal.Decimal) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.rows {
		if r.TotalAttempts > 0 && r.AverageScore.GreaterThan(score) {
			n++
		}
	}
	return n, nil
}

// Feed enforces one item per attempt.
type Feed struct {
	mu    sync.Mutex
	items []model.FeedItem
}

func NewFeed() *Feed {
	return &Feed{}
}

func (s *Feed) Create(ctx context.Context, item *model.FeedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.AttemptID == item.AttemptID {
			return gorm.ErrDuplicatedKey
		}
	}
	item.ID = uint(len(s.items) + 1)
	item.CreatedAt = time.Now()
	s.items = append(s.items, *item)
	return nil
}

func (s *Feed) List(ctx context.Context, userIDs []uint, offset, limit int) ([]model.FeedItem, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	allowed := map[uint]bool{}
	for _, id := range userIDs {
		allowed[id] = true
	}
	out := []model.FeedItem{}
	for _, it := range s.items {
		if userIDs == nil || allowed[it.UserID] {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	total := int64(len(out))
	if offset >= len(out) {
		return []model.FeedItem{}, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}
