package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLocker serialises holders within a single process using a
// capacity-1 channel per key. Blocked acquirers are woken in FIFO order,
// so sustained contention cannot starve a waiter. Used by tests and
// single-node deployments; RedisLocker covers shared stores.
type MemoryLocker struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{sems: make(map[string]chan struct{})}
}

func (l *MemoryLocker) sem(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.sems[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.sems[key] = ch
	}
	return ch
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Token, error) {
	ch := l.sem(key)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return &Token{Key: key, value: uuid.New().String()}, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) Release(_ context.Context, token *Token) error {
	if token == nil || token.released.Swap(true) {
		return nil
	}
	<-l.sem(token.Key)
	return nil
}
