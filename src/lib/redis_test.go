package lib

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRevocation(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	NewRedisClient(rdb)
	ctx := context.Background()

	mock.ExpectSet("auth:revoked:abc", "1", 30*time.Minute).SetVal("OK")
	require.NoError(t, RevokeToken(ctx, "abc", 30*time.Minute))

	mock.ExpectExists("auth:revoked:abc").SetVal(1)
	revoked, err := IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("auth:revoked:def").SetVal(0)
	revoked, err = IsTokenRevoked(ctx, "def")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, "expired", 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthNonce(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	NewRedisClient(rdb)
	ctx := context.Background()

	mock.ExpectSetEx("user::7:oauth:nonce", "beef", time.Hour).SetVal("OK")
	require.NoError(t, SetOAuthNonce(ctx, 7, "beef", time.Hour))

	mock.ExpectGetDel("user::7:oauth:nonce").SetVal("beef")
	nonce, err := ConsumeOAuthNonce(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "beef", nonce)

	mock.ExpectGetDel("user::7:oauth:nonce").RedisNil()
	_, err = ConsumeOAuthNonce(ctx, 7)
	assert.Error(t, err)

	mock.ExpectGetDel("user::8:oauth:nonce").SetErr(errors.New("connection refused"))
	_, err = ConsumeOAuthNonce(ctx, 8)
	assert.False(t, errors.Is(err, redis.Nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
