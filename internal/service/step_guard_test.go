package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisGuard(t *testing.T, ttl time.Duration) (*RedisStepGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	return NewRedisStepGuard(client, ttl), mr
}

func TestStepGuardsSerializeSteps(t *testing.T) {
	redisGuard, _ := newRedisGuard(t, time.Minute)
	guards := map[string]StepGuard{
		"local": NewLocalStepGuard(),
		"redis": redisGuard,
	}
	for name, guard := range guards {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			release, err := guard.Acquire(ctx, "iv-1")
			if err != nil {
				t.Fatal(err)
			}
			if _, err := guard.Acquire(ctx, "iv-1"); !errors.Is(err, ErrStepInProgress) {
				t.Errorf("expected ErrStepInProgress, got %v", err)
			}
			other, err := guard.Acquire(ctx, "iv-2")
			if err != nil {
				t.Errorf("other interviews must not be blocked: %v", err)
			} else {
				other()
			}

			release()
			release()
			again, err := guard.Acquire(ctx, "iv-1")
			if err != nil {
				t.Fatalf("expected lock to be free after release: %v", err)
			}
			again()
		})
	}
}

func TestRedisStepGuardExpires(t *testing.T) {
	guard, mr := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	if _, err := guard.Acquire(ctx, "iv-1"); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL("interview:step:iv-1"); ttl != 30*time.Second {
		t.Errorf("expected 30s ttl on the lock, got %s", ttl)
	}
	mr.FastForward(31 * time.Second)

	release, err := guard.Acquire(ctx, "iv-1")
	if err != nil {
		t.Fatalf("expired lock should be free: %v", err)
	}
	release()
}

func TestRedisStepGuardKeepsForeignLock(t *testing.T) {
	guard, mr := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "iv-1")
	if err != nil {
		t.Fatal(err)
	}
	// The lock expired and another process took it over.
	mr.FastForward(31 * time.Second)
	if err := mr.Set("interview:step:iv-1", "someone-else"); err != nil {
		t.Fatal(err)
	}

	release()
	if got, err := mr.Get("interview:step:iv-1"); err != nil || got != "someone-else" {
		t.Errorf("release removed a lock it did not own: %q, %v", got, err)
	}
}

func TestRedisStepGuardUnavailable(t *testing.T) {
	guard, mr := newRedisGuard(t, 30*time.Second)
	ctx := context.Background()

	release, err := guard.Acquire(ctx, "iv-1")
	if err != nil {
		t.Fatal(err)
	}
	mr.Close()

	// Release only logs when redis is gone.
	release()
	if _, err := guard.Acquire(ctx, "iv-2"); err == nil || errors.Is(err, ErrStepInProgress) {
		t.Errorf("expected a connection error, got %v", err)
	}
}
