package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todolist/models"
	"todolist/utils"
)

const (
	sessionPrefix      = "session:"
	userSessionsPrefix = "user_sessions:"
)

var _ RevokerAll = (*RedisTokens)(nil)

// RedisTokens keeps opaque sessions in Redis hashes with a TTL and an index
// set of session keys per user.
type RedisTokens struct {
	client *redis.Client
}

func NewRedisTokens(client *redis.Client) *RedisTokens {
	return &RedisTokens{client: client}
}

func (r *RedisTokens) Issue(ctx context.Context, s models.Session) (string, error) {
	token, err := utils.GenerateToken(32)
	if err != nil {
		return "", err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return "", errors.New("session already expired")
	}

	key := sessionPrefix + token
	fields := map[string]any{
		"user_id":       s.UserID,
		"created_at":    s.CreatedAt.Format(time.RFC3339),
		"expires_at":    s.ExpiresAt.Format(time.RFC3339),
		"last_activity": s.LastActivity.Format(time.RFC3339),
		"user_agent":    s.UserAgent,
		"ip_address":    s.IPAddress,
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, userSessionsPrefix+s.UserID, key)
		pipe.Expire(ctx, userSessionsPrefix+s.UserID, ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Resolve loads the session and records the access as last activity.
func (r *RedisTokens) Resolve(ctx context.Context, token string) (models.Session, error) {
	key := sessionPrefix + token
	data, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return models.Session{}, fmt.Errorf("load session: %w", err)
	}
	if len(data) == 0 || data["user_id"] == "" {
		return models.Session{}, models.ErrUnauthorized
	}

	s := models.Session{
		Token:     token,
		UserID:    data["user_id"],
		UserAgent: data["user_agent"],
		IPAddress: data["ip_address"],
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, data["created_at"])
	s.LastActivity, _ = time.Parse(time.RFC3339, data["last_activity"])
	if s.ExpiresAt, err = time.Parse(time.RFC3339, data["expires_at"]); err != nil {
		return models.Session{}, models.ErrUnauthorized
	}
	if s.Expired(time.Now()) {
		return models.Session{}, models.ErrUnauthorized
	}

	s.LastActivity = time.Now().UTC()
	if err := r.client.HSet(ctx, key, "last_activity", s.LastActivity.Format(time.RFC3339)).Err(); err != nil {
		return models.Session{}, fmt.Errorf("update last activity: %w", err)
	}
	return s, nil
}

// Revoke removes a single session and its reference in the user index.
// Revoking an unknown token is not an error.
func (r *RedisTokens) Revoke(ctx context.Context, token string) error {
	key := sessionPrefix + token
	userID, err := r.client.HGet(ctx, key, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, userSessionsPrefix+userID, key)
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

// RevokeAll removes every session of a user.
func (r *RedisTokens) RevokeAll(ctx context.Context, userID string) error {
	keys, err := r.client.SMembers(ctx, userSessionsPrefix+userID).Result()
	if err != nil {
		return err
	}
	keys = append(keys, userSessionsPrefix+userID)
	return r.client.Del(ctx, keys...).Err()
}
