package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func TestMemoryAttemptLocker(t *testing.T) {
	l := NewMemoryAttemptLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, attemptLockKey(1, 2))
	if err != nil || !ok {
		t.Fatalf("first TryLock = %v, %v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, attemptLockKey(1, 2)); ok {
		t.Fatal("second TryLock on a held key succeeded")
	}
	if _, ok, _ := l.TryLock(ctx, attemptLockKey(1, 3)); !ok {
		t.Fatal("different pair must not be blocked")
	}

	release()
	release()
	if _, ok, _ := l.TryLock(ctx, attemptLockKey(1, 2)); !ok {
		t.Fatal("TryLock after release failed")
	}
}

func TestRedisAttemptLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisAttemptLocker(client, 5*time.Second)
	ctx := context.Background()
	key := attemptLockKey(4, 2)

	release, ok, err := l.TryLock(ctx, key)
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	if _, ok, _ := l.TryLock(ctx, key); ok {
		t.Fatal("second TryLock on a held key succeeded")
	}
	if ttl := mr.TTL("victorina:attempt-lock:" + key); ttl != 5*time.Second {
		t.Errorf("lock ttl = %v", ttl)
	}

	release()
	if mr.Exists("victorina:attempt-lock:" + key) {
		t.Fatal("release left the key behind")
	}
}

func TestRedisAttemptLockerReleaseKeepsForeignLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisAttemptLocker(client, time.Second)
	ctx := context.Background()
	key := attemptLockKey(1, 1)

	staleRelease, ok, err := l.TryLock(ctx, key)
	if err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	mr.FastForward(2 * time.Second)

	_, ok, err = l.TryLock(ctx, key)
	if err != nil || !ok {
		t.Fatalf("TryLock after expiry = %v, %v", ok, err)
	}
	staleRelease()
	if !mr.Exists("victorina:attempt-lock:" + key) {
		t.Fatal("expired holder released someone else's lock")
	}
}

func TestRedisAttemptLockerBackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, ok, err := NewRedisAttemptLocker(client, time.Second).TryLock(context.Background(), "x")
	if err == nil || ok {
		t.Fatalf("TryLock with redis down = %v, %v", ok, err)
	}
}
