package data

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// TokenStoreTestSuite runs the store contract against each backend that
// needs no external service.
type TokenStoreTestSuite struct {
	suite.Suite
	stores map[string]TokenStore
}

func (suite *TokenStoreTestSuite) SetupTest() {
	sqlite, err := OpenSQLiteStore(filepath.Join(suite.T().TempDir(), "session.db"))
	assert.NoError(suite.T(), err)
	suite.T().Cleanup(func() { _ = sqlite.Close() })

	suite.stores = map[string]TokenStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func (suite *TokenStoreTestSuite) TestGetBeforeSet() {
	ctx := context.Background()
	for name, store := range suite.stores {
		_, err := store.Get(ctx)
		assert.ErrorIs(suite.T(), err, ErrNoSession, name)
	}
}

func (suite *TokenStoreTestSuite) TestSetGetRemove() {
	ctx := context.Background()
	for name, store := range suite.stores {
		assert.NoError(suite.T(), store.Set(ctx, "T1"), name)

		token, err := store.Get(ctx)
		assert.NoError(suite.T(), err, name)
		assert.Equal(suite.T(), "T1", token, name)

		// Overwrite on re-login.
		assert.NoError(suite.T(), store.Set(ctx, "T2"), name)
		token, err = store.Get(ctx)
		assert.NoError(suite.T(), err, name)
		assert.Equal(suite.T(), "T2", token, name)

		assert.NoError(suite.T(), store.Remove(ctx), name)
		_, err = store.Get(ctx)
		assert.ErrorIs(suite.T(), err, ErrNoSession, name)
	}
}

func (suite *TokenStoreTestSuite) TestRemoveIsIdempotent() {
	ctx := context.Background()
	for name, store := range suite.stores {
		assert.NoError(suite.T(), store.Remove(ctx), name)
		assert.NoError(suite.T(), store.Remove(ctx), name)
	}
}

func TestTokenStoreTestSuite(t *testing.T) {
	suite.Run(t, new(TokenStoreTestSuite))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	got, ok := TokenExpiry(signed)
	assert.True(t, ok)
	assert.Equal(t, exp.Unix(), got.Unix())
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	_, ok := TokenExpiry("not-a-jwt")
	assert.False(t, ok)
}

func TestTokenExpiry_NoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"})
	signed, err := token.SignedString([]byte("test-secret"))
	assert.NoError(t, err)

	_, ok := TokenExpiry(signed)
	assert.False(t, ok)
}
