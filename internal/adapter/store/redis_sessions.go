package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keySessionPrefix = "localore:session:"
	sessionTTL       = 24 * time.Hour
)

// RedisSessions stores opaque admin session tokens with a fixed lifetime.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

// Create mints a new session token.
func (s *RedisSessions) Create(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, keySessionPrefix+token, "1", sessionTTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Validate reports whether token names a live session.
func (s *RedisSessions) Validate(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, keySessionPrefix+token).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (s *RedisSessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.client.Del(ctx, keySessionPrefix+token).Err()
}
