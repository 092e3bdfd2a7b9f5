package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps sessions under "<prefix><token>" with a key TTL equal to
// the remaining lifetime, so several API instances can share them.
type SessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewSessionStore(client *redis.Client, prefix string, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, prefix: prefix, now: now}
}

func (s *SessionStore) key(token string) string {
	return s.prefix + token
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	const op = "redis.SessionStore.Get"

	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return nil, e.WrapError(ctx, op, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	return &sess, nil
}

func (s *SessionStore) Set(ctx context.Context, session domain.Session) error {
	const op = "redis.SessionStore.Set"

	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.Delete(ctx, session.Token)
	}

	b, err := json.Marshal(session)
	if err != nil {
		return e.WrapError(ctx, op, err)
	}
	if err := s.client.Set(ctx, s.key(session.Token), b, ttl).Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	const op = "redis.SessionStore.Delete"

	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys once their TTL runs out.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
