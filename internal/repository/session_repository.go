package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/annoforge/annotator-api/internal/models"
	appErrors "github.com/annoforge/annotator-api/pkg/errors"
)

// SessionRepository persists per-session editing state. All backends treat
// sessions as disposable: expiry loses the data by design.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (*models.SessionData, error)
	Save(ctx context.Context, data *models.SessionData) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process memory. Payloads are
// stored JSON-encoded so reads hand out copies, matching the redis backend's
// aliasing behaviour.
type MemorySessionRepository struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemorySessionRepository constructs the in-memory backend.
func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemorySessionRepository{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the session payload or ErrSessionExpired.
func (r *MemorySessionRepository) Get(ctx context.Context, sessionID string) (*models.SessionData, error) {
	r.mu.RLock()
	entry, ok := r.entries[sessionID]
	r.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			r.mu.Lock()
			delete(r.entries, sessionID)
			r.mu.Unlock()
		}
		return nil, appErrors.ErrSessionExpired
	}

	data := &models.SessionData{}
	if err := json.Unmarshal(entry.payload, data); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return data, nil
}

// Save stores the payload and refreshes the TTL.
func (r *MemorySessionRepository) Save(ctx context.Context, data *models.SessionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", data.ID, err)
	}
	r.mu.Lock()
	r.entries[data.ID] = memoryEntry{payload: payload, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

// Delete removes the session if present.
func (r *MemorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
	return nil
}

// RedisSessionRepository stores sessions as JSON values with a TTL.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionRepository constructs the redis backend.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionRepository{client: client, ttl: ttl, logger: logger}
}

func sessionKey(sessionID string) string {
	return "annotator:session:" + sessionID
}

// Get returns the session payload or ErrSessionExpired.
func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*models.SessionData, error) {
	raw, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("redis get session %s: %w", sessionID, err)
	}
	data := &models.SessionData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return data, nil
}

// Save stores the payload and refreshes the TTL.
func (r *RedisSessionRepository) Save(ctx context.Context, data *models.SessionData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", data.ID, err)
	}
	if err := r.client.Set(ctx, sessionKey(data.ID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", data.ID, err)
	}
	return nil
}

// Delete removes the session key.
func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", sessionID, err)
	}
	return nil
}
