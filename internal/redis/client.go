package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the shared connection for the three Redis roles of this service:
// per-account locks, the account/ledger read model, and the event streams.
// One pool serves all of them. Lock polling issues many small commands on the
// request path, so command timeouts stay short enough that a slow Redis
// surfaces as a failed acquisition rather than a stalled request.
type Client struct {
	*redis.Client
}

const (
	dialTimeout    = 2 * time.Second
	commandTimeout = time.Second
	poolSize       = 20
)

func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
		PoolSize:     poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{Client: rdb}, nil
}
