package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/rikai-backend/internal/platform/envutil"
	"github.com/yungbote/rikai-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Store is a flat string-keyed document store. Values are opaque bytes; Set
// overwrites.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend string
	// Namespace prefixes every key, so several workspaces can share one backend.
	Namespace string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SQLitePath  string
	PostgresDSN string
}

func ConfigFromEnv() Config {
	return Config{
		Backend:       strings.ToLower(envutil.String("KV_BACKEND", BackendSQLite)),
		Namespace:     envutil.String("KV_NAMESPACE", ""),
		RedisAddr:     envutil.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),
		SQLitePath:    envutil.String("KV_SQLITE_PATH", "rikai.db"),
		PostgresDSN:   envutil.String("KV_POSTGRES_DSN", ""),
	}
}

func Open(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendMemory, "":
		s = NewMemory()
	case BackendRedis:
		s, err = NewRedis(ctx, log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case BackendSQLite:
		s, err = NewSQLite(log, cfg.SQLitePath)
	case BackendPostgres:
		s, err = NewPostgres(log, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if ns := strings.TrimSpace(cfg.Namespace); ns != "" {
		s = WithNamespace(s, ns)
	}
	return s, nil
}

type namespaced struct {
	Store
	prefix string
}

func WithNamespace(s Store, ns string) Store {
	return &namespaced{Store: s, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.Store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.Store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.Store.Delete(ctx, n.prefix+key)
}
