package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound means the session expired or was logged out.
var ErrNotFound = errors.New("session not found")

// Store keeps session records in Redis, keyed by session ID, plus the
// logout blacklist for bearer tokens.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: redisClient, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

func (s *Store) Create(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateBalance rewrites the session's balance snapshot, keeping the
// remaining TTL.
func (s *Store) UpdateBalance(ctx context.Context, id string, balance int64) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Balance = balance

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(id), data, redis.KeepTTL).Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

// BlacklistToken marks a bearer token dead until its natural expiry.
func (s *Store) BlacklistToken(ctx context.Context, token string, until time.Duration) error {
	return s.redis.Set(ctx, blacklistKey(token), "1", until).Err()
}

func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	err := s.redis.Get(ctx, blacklistKey(token)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
