package biz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"memberflow/internal/biz/model"
	"memberflow/internal/data"
	"memberflow/internal/service"
)

// AppState is the single injected holder of the signed-in member's
// server-known record. Flows that change that record call Refetch;
// readers take the cached copy via Current. There is no package-level
// state anywhere, every consumer receives this value.
type AppState struct {
	client service.IdentityAPI
	tokens data.TokenStore
	l      *zap.Logger

	mu     sync.RWMutex
	user   *model.CompleteUser
	latest *model.AdminRequest
	loaded bool
}

func NewAppState(client service.IdentityAPI, tokens data.TokenStore, logger *zap.Logger) *AppState {
	return &AppState{
		client: client,
		tokens: tokens,
		l:      logger,
	}
}

// Current returns the cached record. The user is nil until the first
// successful Refetch and again after Invalidate.
func (s *AppState) Current() (*model.CompleteUser, *model.AdminRequest) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.latest
}

// Loaded reports whether a Refetch has succeeded since the last
// Invalidate.
func (s *AppState) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Refetch replaces the cached record with the server's current view.
// On failure the previous copy is kept.
func (s *AppState) Refetch(ctx context.Context) error {
	account, err := s.client.Me(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := account.User
	s.user = &user
	s.latest = account.LatestRequest
	s.loaded = true
	return nil
}

// Invalidate drops the cached record without touching the session.
func (s *AppState) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.latest = nil
	s.loaded = false
}

// Logout removes the persisted session token and drops the cache.
func (s *AppState) Logout(ctx context.Context) error {
	if err := s.tokens.Remove(ctx); err != nil {
		s.l.Error("remove session token", zap.Error(err))
		return err
	}
	s.Invalidate()
	s.l.Info("logged out")
	return nil
}
