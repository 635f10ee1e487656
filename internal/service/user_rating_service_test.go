package service

import (
	"context"
	"errors"
	"testing"
	"victorina_backend/internal/model"
	"victorina_backend/internal/util"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestComputeUserRating(t *testing.T) {
	attempt := func(quizID uint, score, total int) model.QuizAttempt {
		return model.QuizAttempt{QuizID: quizID, Score: score, TotalQuestions: total, IsCompleted: true}
	}

	tests := []struct {
		name      string
		attempts  []model.QuizAttempt
		avg       string
		total     int
		completed int
	}{
		{"no attempts", nil, "0.00", 0, 0},
		{"two of three", []model.QuizAttempt{attempt(1, 2, 3)}, "66.67", 1, 1},
		{"one of three", []model.QuizAttempt{attempt(1, 1, 3)}, "33.33", 1, 1},
		{"rounds half up", []model.QuizAttempt{attempt(1, 1, 32)}, "3.13", 1, 1},
		{"sums across attempts", []model.QuizAttempt{attempt(1, 3, 3), attempt(1, 0, 3), attempt(2, 2, 4)}, "50.00", 3, 2},
		{"zero questions", []model.QuizAttempt{attempt(1, 0, 0)}, "0.00", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeUserRating(7, tt.attempts)
			if got.UserID != 7 {
				t.Errorf("user id = %d", got.UserID)
			}
			if got.AverageScore.StringFixed(2) != tt.avg {
				t.Errorf("average = %s, want %s", got.AverageScore.StringFixed(2), tt.avg)
			}
			if got.TotalAttempts != tt.total || got.CompletedQuizzes != tt.completed {
				t.Errorf("totals = %d/%d, want %d/%d", got.TotalAttempts, got.CompletedQuizzes, tt.total, tt.completed)
			}
		})
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()
	f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0, 1: 1, 2: 2})
	f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0})

	first, err := f.rating.Recalculate(ctx, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.rating.Recalculate(ctx, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if !first.AverageScore.Equal(second.AverageScore) ||
		first.TotalAttempts != second.TotalAttempts ||
		first.CompletedQuizzes != second.CompletedQuizzes {
		t.Fatalf("recalculation drifted: %+v vs %+v", first, second)
	}

	stored, err := f.ratings.FindByUserID(ctx, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if stored.AverageScore.StringFixed(2) != "66.67" || stored.TotalAttempts != 2 || stored.CompletedQuizzes != 1 {
		t.Errorf("stored rating = %+v", stored)
	}
}

func TestRecalculateUnknownUser(t *testing.T) {
	f := newAttemptFixture(t)
	if _, err := f.rating.Recalculate(context.Background(), 404); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetRatingRank(t *testing.T) {
	f := newAttemptFixture(t)
	ctx := context.Background()
	f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0, 1: 1})
	f.complete(t, f.bob, f.standard, model.AttemptAnswers{0: 0, 1: 1, 2: 2})

	alice, err := f.rating.Get(ctx, f.alice)
	if err != nil {
		t.Fatal(err)
	}
	if alice.Rank != 2 {
		t.Errorf("alice rank = %d, want 2", alice.Rank)
	}
	bob, err := f.rating.Get(ctx, f.bob)
	if err != nil {
		t.Fatal(err)
	}
	if bob.Rank != 1 || bob.AverageScore.StringFixed(2) != "100.00" {
		t.Errorf("bob = %+v rank %d", bob.UserRating, bob.Rank)
	}

	carol := &model.User{Username: "carol"}
	f.users.Add(carol)
	unrated, err := f.rating.Get(ctx, carol.ID)
	if err != nil {
		t.Fatal(err)
	}
	if unrated.Rank != 3 || !unrated.AverageScore.IsZero() {
		t.Errorf("unrated user = %+v rank %d", unrated.UserRating, unrated.Rank)
	}
}

func TestTopUsesCacheAndInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	f := newAttemptFixture(t)
	f.rating = NewUserRatingService(f.users, f.attempts, f.ratings, client)
	ctx := context.Background()

	f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0})
	if _, err := f.rating.Recalculate(ctx, f.alice); err != nil {
		t.Fatal(err)
	}

	top, err := f.rating.Top(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].UserID != f.alice {
		t.Fatalf("top = %+v", top)
	}
	if cached := mr.HGet(leaderboardKey, "10"); cached == "" {
		t.Fatal("leaderboard not cached under the default limit")
	}

	// bob's rating is stored by the uncached service, so the cached page is stale
	f.complete(t, f.bob, f.standard, model.AttemptAnswers{0: 0, 1: 1, 2: 2})
	top, _ = f.rating.Top(ctx, 10)
	if len(top) != 1 {
		t.Fatalf("expected cached leaderboard, got %d entries", len(top))
	}

	if _, err := f.rating.Recalculate(ctx, f.bob); err != nil {
		t.Fatal(err)
	}
	if mr.Exists(leaderboardKey) {
		t.Fatal("recalculation must drop the leaderboard cache")
	}
	top, err = f.rating.Top(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].UserID != f.bob {
		t.Fatalf("top after invalidation = %+v", top)
	}
}

func TestTopLimitIsClamped(t *testing.T) {
	f := newAttemptFixture(t)
	f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0})
	top, err := f.rating.Top(context.Background(), 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 {
		t.Errorf("top = %+v", top)
	}
}
