package service

import (
	"context"
	"errors"
	"testing"
	"victorina_backend/internal/model"
	"victorina_backend/internal/repository/memory"
	"victorina_backend/internal/util"
)

type staticFriends map[uint][]uint

func (f staticFriends) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return f[userID], nil
}

func newFeedFixture(t *testing.T) (*attemptFixture, *FeedService) {
	t.Helper()
	f := newAttemptFixture(t)
	friends := staticFriends{f.alice: {f.bob}}
	return f, NewFeedService(memory.NewFeed(), f.attempts, f.quizzes, f.ratings, friends, f.events)
}

func TestPublishStandardAttempt(t *testing.T) {
	f, feed := newFeedFixture(t)
	ctx := context.Background()

	done := f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0, 1: 1})
	item, err := feed.Publish(ctx, f.alice, done.AttemptID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if item.Score == nil || *item.Score != 2 || *item.TotalQuestions != 3 || *item.TimeSpent != 10 {
		t.Errorf("score fields = %+v", item)
	}
	if item.Position == nil || *item.Position != 1 {
		t.Errorf("position = %v, want 1", item.Position)
	}
	if item.QuizTitle != "Capitals" || item.Character != "" {
		t.Errorf("item = %+v", item)
	}
	if f.events.count(EventFeedPublished) != 1 {
		t.Error("feed event not published")
	}

	if _, err := feed.Publish(ctx, f.alice, done.AttemptID); !errors.Is(err, util.ErrAlreadyPublished) {
		t.Errorf("duplicate publish err = %v", err)
	}
}

func TestPublishPersonalityAttempt(t *testing.T) {
	f, feed := newFeedFixture(t)

	done := f.complete(t, f.alice, f.character, model.AttemptAnswers{0: 0})
	item, err := feed.Publish(context.Background(), f.alice, done.AttemptID)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if item.Character != "R1" || item.Description != "Lion" || item.Traits.Data()["brave"] != 8 {
		t.Errorf("personality item = %+v", item)
	}
	if item.Score != nil || item.Position != nil {
		t.Errorf("personality item carries score fields: %+v", item)
	}
}

func TestPublishRejects(t *testing.T) {
	f, feed := newFeedFixture(t)
	ctx := context.Background()

	done := f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0})
	active, err := f.svc.StartQuiz(ctx, f.alice, f.standard.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := feed.Publish(ctx, f.bob, done.AttemptID); !errors.Is(err, util.ErrAttemptNotOwned) {
		t.Errorf("foreign attempt err = %v", err)
	}
	if _, err := feed.Publish(ctx, f.alice, active.AttemptID); !errors.Is(err, util.ErrAttemptNotCompleted) {
		t.Errorf("active attempt err = %v", err)
	}
	if _, err := feed.Publish(ctx, f.alice, 999); !errors.Is(err, util.ErrAttemptNotFound) {
		t.Errorf("unknown attempt err = %v", err)
	}
}

func TestFeedListings(t *testing.T) {
	f, feed := newFeedFixture(t)
	ctx := context.Background()

	a := f.complete(t, f.alice, f.standard, model.AttemptAnswers{0: 0})
	f.clock.Advance(1)
	b := f.complete(t, f.bob, f.standard, model.AttemptAnswers{0: 0})
	for _, p := range []struct{ user, attempt uint }{{f.alice, a.AttemptID}, {f.bob, b.AttemptID}} {
		if _, err := feed.Publish(ctx, p.user, p.attempt); err != nil {
			t.Fatal(err)
		}
	}

	all, total, err := feed.ListAll(ctx, 1, 10)
	if err != nil || total != 2 || len(all) != 2 {
		t.Fatalf("ListAll = %d items, total %d, %v", len(all), total, err)
	}
	if all[0].UserID != f.bob {
		t.Errorf("feed not newest first: %+v", all)
	}

	friends, total, err := feed.ListFriends(ctx, f.alice, 1, 10)
	if err != nil || total != 1 || friends[0].UserID != f.bob {
		t.Errorf("alice's friend feed = %+v, %d, %v", friends, total, err)
	}
	lonely, total, err := feed.ListFriends(ctx, f.bob, 1, 10)
	if err != nil || total != 0 || len(lonely) != 0 {
		t.Errorf("user without friends sees %+v", lonely)
	}

	mine, _, err := feed.ListUser(ctx, f.alice, 1, 10)
	if err != nil || len(mine) != 1 || mine[0].UserID != f.alice {
		t.Errorf("ListUser = %+v, %v", mine, err)
	}

	page2, _, err := feed.ListAll(ctx, 2, 1)
	if err != nil || len(page2) != 1 || page2[0].UserID != f.alice {
		t.Errorf("second page = %+v, %v", page2, err)
	}
}
