// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "meal-assistant/internal/common/errors"
	"meal-assistant/internal/common/logger"
	"meal-assistant/internal/common/metrics"
	"meal-assistant/internal/models"
)

const defaultTTL = 2 * time.Hour

// Store persists one ConversationContext per session in Redis. Contexts are
// small and expire with the session TTL, so a fresh Idle context is the
// answer to every miss.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(client redis.Cmdable, ttl time.Duration, log logger.Logger) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "session_store"}),
	}
}

func contextKey(sessionID string) string {
	return fmt.Sprintf("session:%s:context", sessionID)
}

// Get loads the conversation context for a session. A missing key yields a
// fresh Idle context, not an error.
func (s *Store) Get(ctx context.Context, sessionID string) (models.ConversationContext, error) {
	raw, err := s.client.Get(ctx, contextKey(sessionID)).Result()
	if err == redis.Nil {
		return models.NewContext(), nil
	}
	if err != nil {
		metrics.SessionStoreErrors.Inc()
		s.logger.Error("failed to load session context", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return models.NewContext(), apperrors.NewSessionStoreFailedError(err)
	}

	var convCtx models.ConversationContext
	if err := json.Unmarshal([]byte(raw), &convCtx); err != nil {
		// Corrupt payload: drop it and restart the conversation.
		metrics.SessionStoreErrors.Inc()
		s.logger.Warn("discarding corrupt session context", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return models.NewContext(), nil
	}
	return convCtx, nil
}

// Save stores the conversation context and refreshes the session TTL.
func (s *Store) Save(ctx context.Context, sessionID string, convCtx models.ConversationContext) error {
	payload, err := json.Marshal(convCtx)
	if err != nil {
		return apperrors.NewSessionStoreFailedError(err)
	}

	if err := s.client.Set(ctx, contextKey(sessionID), payload, s.ttl).Err(); err != nil {
		metrics.SessionStoreErrors.Inc()
		s.logger.Error("failed to save session context", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return apperrors.NewSessionStoreFailedError(err)
	}
	return nil
}

// Delete removes the session context, ending the conversation.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, contextKey(sessionID)).Err(); err != nil {
		metrics.SessionStoreErrors.Inc()
		return apperrors.NewSessionStoreFailedError(err)
	}
	return nil
}
