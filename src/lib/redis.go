package lib

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisMu     sync.Mutex
)

func GetRedisClient() *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	redisClient = redis.NewClient(opt)
	return redisClient
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()
	redisClient = c
	return redisClient
}

func revokedKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// RevokeToken blacklists a token id until the token would have expired anyway.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	rd := GetRedisClient()
	if rd == nil {
		return errors.New("redis unavailable")
	}
	return rd.Set(ctx, revokedKey(jti), "1", ttl).Err()
}

func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	rd := GetRedisClient()
	if rd == nil {
		return false, errors.New("redis unavailable")
	}
	n, err := rd.Exists(ctx, revokedKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nonceKey(accountID uint) string {
	return fmt.Sprintf("user::%d:oauth:nonce", accountID)
}

func SetOAuthNonce(ctx context.Context, accountID uint, nonce string, ttl time.Duration) error {
	rd := GetRedisClient()
	if rd == nil {
		return errors.New("redis unavailable")
	}
	return rd.SetEx(ctx, nonceKey(accountID), nonce, ttl).Err()
}

// ConsumeOAuthNonce returns the pending nonce of the account and removes it.
func ConsumeOAuthNonce(ctx context.Context, accountID uint) (string, error) {
	rd := GetRedisClient()
	if rd == nil {
		return "", errors.New("redis unavailable")
	}
	nonce, err := rd.GetDel(ctx, nonceKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errors.New("no pending authorization")
	}
	return nonce, err
}
