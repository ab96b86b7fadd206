package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The client exists only to back the read-through cache, so its socket
// timeouts follow the cache round-trip bound: the store abandons any
// Get/Set/Delete after cacheTimeout, and a connection allowed to block
// longer than that would just hold a pool slot for a caller that is
// already gone.
const fallbackTimeout = 2 * time.Second

func clientOptions(addr, username, password string, cacheTimeout time.Duration) *redis.Options {
	if cacheTimeout <= 0 {
		cacheTimeout = fallbackTimeout
	}
	return &redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		DB:           0,
		ReadTimeout:  cacheTimeout,
		WriteTimeout: cacheTimeout,
		// Almost all traffic is short cached reads, one per in-flight
		// request, so the pool runs wider than a write-heavy service
		// would and keeps a couple of connections warm between bursts.
		PoolSize:     20,
		MinIdleConns: 2,
	}
}

func NewRedisClient(addr, username, password string, cacheTimeout time.Duration) (*redis.Client, error) {
	rdb := redis.NewClient(clientOptions(addr, username, password, cacheTimeout))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
