package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:account:"

// releaseScript deletes the lock key only if it still holds this token's
// value, so an expired-and-reacquired lock is never released by the old holder.
var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker acquires locks with SET NX and a TTL, polling until the
// caller's deadline. Works across processes sharing the same Redis.
type RedisLocker struct {
	client        *goredis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

// NewRedisLocker creates a RedisLocker. ttl bounds how long a crashed holder
// can wedge a key; retryInterval is the poll period while waiting.
func NewRedisLocker(client *goredis.Client, ttl, retryInterval time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 20 * time.Millisecond
	}
	return &RedisLocker{client: client, ttl: ttl, retryInterval: retryInterval}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, timeout time.Duration) (*Token, error) {
	token := &Token{Key: key, value: uuid.New().String()}
	redisKey := lockKeyPrefix + key

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token.value, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) Release(ctx context.Context, token *Token) error {
	if token == nil || token.released.Swap(true) {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{lockKeyPrefix + token.Key}, token.value).Err()
}
