package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Mavton23/rentix/internal/domain"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a driver.
type Options struct {
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the configured store. The returned close function is never nil.
func Open(ctx context.Context, opts Options) (domain.KeyValueStore, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case "", DriverFile:
		path := opts.Path
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				return nil, noop, err
			}
			path = p
		}
		s, err := NewFileStore(path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		s := NewRedisStore(client, opts.RedisPrefix)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, noop, err
		}
		return s, s.Close, nil

	case DriverMemory:
		return NewMemoryStore(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q (must be file, redis, or memory)", opts.Driver)
	}
}
