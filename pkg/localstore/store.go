package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record keys shared by every backend.
const (
	KeySession   = "vietbuild_user"
	KeyDocuments = "vietbuild_documents"
)

var ErrNotFound = errors.New("record not found")

// Store persists named JSON records. Writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver        string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
	DatabaseURL   string
}

// Open builds the backend named by cfg.Driver. An empty driver means "file".
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return NewFileStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
	case "postgres":
		return NewGormStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", cfg.Driver)
	}
}
