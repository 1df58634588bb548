package data

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"memberflow/internal/pkg/config"
)

// Module exports the token store provider to Fx.
var Module = fx.Module("data",
	fx.Provide(
		NewTokenStore,
	),
)

// ErrNoSession is returned when no token is stored.
var ErrNoSession = errors.New("no session")

// sessionKey is the single logical key under which the bearer token
// lives, whatever the backend.
const sessionKey = "session"

// TokenStore persists the session bearer token. A token exists if and
// only if the user is considered logged in: it is written only by a
// successful password, setup or reset submission and removed only by
// explicit logout.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Remove(ctx context.Context) error
}

// NewTokenStore builds the configured backend. The default without a
// session section is an in-memory store, which lasts for the process
// lifetime only.
func NewTokenStore(lc fx.Lifecycle, cfg *config.Bootstrap, logger *zap.Logger) (TokenStore, error) {
	backend := "memory"
	if cfg.Session != nil && cfg.Session.Backend != "" {
		backend = cfg.Session.Backend
	}

	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := "memberflow.db"
		if cfg.Session != nil && cfg.Session.Path != "" {
			path = cfg.Session.Path
		}
		store, err := OpenSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				logger.Info("Closing session store...")
				return store.Close()
			},
		})
		return store, nil
	case "redis":
		return NewRedisStore(lc, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

// memoryStore keeps the token for the process lifetime.
type memoryStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

// NewMemoryStore returns a process-scoped TokenStore.
func NewMemoryStore() TokenStore {
	return &memoryStore{}
}

func (s *memoryStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return "", ErrNoSession
	}
	return s.token, nil
}

func (s *memoryStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
	return nil
}

func (s *memoryStore) Remove(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
	return nil
}
