package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/pkg/retry"
)

const DefaultTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a lock someone else has since taken.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

type RedisOptions struct {
	Prefix string
	TTL    time.Duration
	Wait   time.Duration
}

// NewRedis excludes across processes. The TTL bounds how long a crashed
// holder can block a user.
func NewRedis(log *logger.Logger, rdb goredis.UniversalClient, opts RedisOptions) Locker {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Wait <= 0 {
		opts.Wait = DefaultWait
	}
	if opts.Prefix == "" {
		opts.Prefix = "skillforge:lock:"
	}
	return &redisLocker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		wait:   opts.Wait,
	}
}

// Dial connects to addr and verifies the server answers.
func Dial(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for attempt := 1; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return func() { l.release(k, token) }, nil
		}

		sleep := retry.JitterSleep(retry.Backoff(10*time.Millisecond, 250*time.Millisecond, attempt))
		if time.Now().Add(sleep).After(deadline) {
			return nil, sferrors.Conflict("acquire lock", errWaitExceeded(key, l.wait))
		}
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *redisLocker) release(k, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil && err != goredis.Nil {
		l.log.Warn("Failed to release lock", "key", k, "error", err)
	}
}

func errWaitExceeded(key string, wait time.Duration) error {
	return fmt.Errorf("lock %q not acquired within %s", key, wait)
}
