package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// Store is the durable key-value blob store behind carts. One key holds one
// visitor's serialized line items.
type Store interface {
	Ping(ctx context.Context) error
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, payload []byte) error
	Close() error
}

type StoreConfig struct {
	Driver string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	PostgresDSN string
}

var ErrUnknownDriver = errors.New("unknown cart store driver")

// OpenStore builds the store selected by cfg.Driver: memory, redis or postgres.
func OpenStore(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemStore(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisTTL), nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s := NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cart schema: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
