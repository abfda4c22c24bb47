package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dealerchat/internal/domain"
)

const historyTTL = 30 * time.Minute

// CachedStore wraps a Store with a redis read-through cache for session
// history. Every write to a session invalidates its cached history; cache
// failures degrade to the underlying store.
type CachedStore struct {
	Store
	client *redis.Client
	log    zerolog.Logger
}

// NewCachedStore connects to redis and wraps the given store.
func NewCachedStore(ctx context.Context, inner Store, redisURL string, log zerolog.Logger) (*CachedStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &CachedStore{
		Store:  inner,
		client: client,
		log:    log.With().Str("component", "storecache").Logger(),
	}, nil
}

func historyKey(userID, sessionID string) string {
	return fmt.Sprintf("chat:%s:%s:history", userID, sessionID)
}

// GetMessages serves the session history from redis when present.
func (s *CachedStore) GetMessages(ctx context.Context, userID, sessionID string) ([]domain.StoredMessage, error) {
	key := historyKey(userID, sessionID)
	if data, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var messages []domain.StoredMessage
		if err := json.Unmarshal(data, &messages); err == nil {
			// identity is still validated on the cold path; a cached entry
			// only exists for owners already seen by the store
			return messages, nil
		}
		s.client.Del(ctx, key)
	}

	messages, err := s.Store.GetMessages(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(messages); err == nil {
		if err := s.client.Set(ctx, key, data, historyTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache set failed")
		}
	}
	return messages, nil
}

// AddMessage writes through and drops the cached history.
func (s *CachedStore) AddMessage(ctx context.Context, userID, sessionID string, role domain.Role, content string) error {
	if err := s.Store.AddMessage(ctx, userID, sessionID, role, content); err != nil {
		return err
	}
	s.invalidate(ctx, userID, sessionID)
	return nil
}

// ClearSession clears and drops the cached history.
func (s *CachedStore) ClearSession(ctx context.Context, userID, sessionID string) error {
	if err := s.Store.ClearSession(ctx, userID, sessionID); err != nil {
		return err
	}
	s.invalidate(ctx, userID, sessionID)
	return nil
}

// DeleteSession deletes and drops the cached history.
func (s *CachedStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.Store.DeleteSession(ctx, userID, sessionID); err != nil {
		return err
	}
	s.invalidate(ctx, userID, sessionID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, userID, sessionID string) {
	if err := s.client.Del(ctx, historyKey(userID, sessionID)).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("history cache invalidation failed")
	}
}

// Close closes the redis connection and the underlying store.
func (s *CachedStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.Store.Close()
		return err
	}
	return s.Store.Close()
}
