package lock

import (
	"context"
	"sync"
	"time"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

const DefaultWait = 5 * time.Second

// Locker provides mutual exclusion per key. Acquire blocks up to the
// locker's wait budget and fails with ErrConcurrencyConflict after it.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// UserKey is the lock key guarding one user's progress row.
func UserKey(userID string) string { return "user-progress:" + userID }

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

type localLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	wait    time.Duration
}

// NewLocal returns an in-process keyed mutex. It only excludes callers in
// the same process.
func NewLocal(wait time.Duration) Locker {
	if wait <= 0 {
		wait = DefaultWait
	}
	return &localLocker{entries: map[string]*keyedEntry{}, wait: wait}
}

func (l *localLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e := l.entries[key]
	if e == nil {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.sem
				l.unref(key, e)
			})
		}, nil
	case <-timer.C:
		l.unref(key, e)
		return nil, sferrors.Conflict("acquire lock", errWaitExceeded(key, l.wait))
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

func (l *localLocker) unref(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
