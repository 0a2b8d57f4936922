package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Poker/internal/core"
	"github.com/dkeye/Poker/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Redis stores each room config as a plain string under prefix+id.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps an existing client. ttl of zero keeps keys until deleted.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

// DialRedis connects and pings the server.
func DialRedis(ctx context.Context, opts *redis.Options, prefix string, ttl time.Duration) (*Redis, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return NewRedis(rdb, prefix, ttl), nil
}

func (r *Redis) key(id domain.RoomID) string { return r.prefix + string(id) }

func (r *Redis) Create(ctx context.Context, id domain.RoomID, data []byte) error {
	ok, err := r.rdb.SetNX(ctx, r.key(id), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx %s: %w", id, err)
	}
	if !ok {
		return domain.ErrDuplicateRoom
	}
	return nil
}

func (r *Redis) Put(ctx context.Context, id domain.RoomID, data []byte) error {
	if err := r.rdb.Set(ctx, r.key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id domain.RoomID) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}
	return data, nil
}

func (r *Redis) Delete(ctx context.Context, id domain.RoomID) error {
	if err := r.rdb.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
