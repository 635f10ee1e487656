package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// AttemptLocker serialises start/submit for one (user, quiz) pair. TryLock
// never waits: ok is false when another request holds the key.
type AttemptLocker interface {
	TryLock(ctx context.Context, key string) (release func(), ok bool, err error)
}

func attemptLockKey(userID, quizID uint) string {
	return fmt.Sprintf("%d:%d", userID, quizID)
}

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisAttemptLocker works across instances. The TTL bounds how long a
// crashed holder can block the pair.
type RedisAttemptLocker struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisAttemptLocker(client *redis.Client, ttl time.Duration) *RedisAttemptLocker {
	return &RedisAttemptLocker{client: client, ttl: ttl, prefix: "victorina:attempt-lock:"}
}

func (l *RedisAttemptLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// the caller's ctx may already be cancelled
		releaseScript.Run(context.Background(), l.client, []string{redisKey}, token)
	}
	return release, true, nil
}

// MemoryAttemptLocker guards a single process. Entries are removed on
// release, so the map only holds pairs currently in flight.
type MemoryAttemptLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryAttemptLocker() *MemoryAttemptLocker {
	return &MemoryAttemptLocker{held: map[string]struct{}{}}
}

func (l *MemoryAttemptLocker) TryLock(ctx context.Context, key string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, false, nil
	}
	l.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}
