package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mockinterview-backend/utilities"
)

// StepGuard keeps steps of one interview from overlapping.
type StepGuard interface {
	Acquire(ctx context.Context, interviewID string) (release func(), err error)
}

// LocalStepGuard serializes steps within this process.
type LocalStepGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewLocalStepGuard() *LocalStepGuard {
	return &LocalStepGuard{active: make(map[string]struct{})}
}

func (g *LocalStepGuard) Acquire(_ context.Context, interviewID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[interviewID]; busy {
		return nil, ErrStepInProgress
	}
	g.active[interviewID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, interviewID)
			g.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStepGuard shares the guard across processes. The TTL frees locks left
// by a crashed process.
type RedisStepGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStepGuard(client *redis.Client, ttl time.Duration) *RedisStepGuard {
	return &RedisStepGuard{client: client, ttl: ttl}
}

func (g *RedisStepGuard) Acquire(ctx context.Context, interviewID string) (func(), error) {
	key := "interview:step:" + interviewID
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire step lock: %w", err)
	}
	if !ok {
		return nil, ErrStepInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, g.client, []string{key}, token).Err(); err != nil {
				utilities.Warn("Releasing step lock for interview %s failed, it expires in %s: %v", interviewID, g.ttl, err)
			}
		})
	}, nil
}
