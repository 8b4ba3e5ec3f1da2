package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - The authoritative copy and its per-session lock live in process, in a
//     memory.SessionStore.
//   - Every committed change is mirrored as JSON under quiz:session:{id}
//     so a restarted instance can pick up sessions it no longer holds.
//   - Mirror writes are best-effort and happen under the session's lock, so
//     they land in version order and never after the session was deleted.
type SessionStore struct {
	local  *memory.SessionStore
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		local:  memory.NewSessionStore(),
		client: client,
		ttl:    ttl,
	}
}

func (s *SessionStore) Get(ctx context.Context, id string) (domain.Session, error) {
	sess, err := s.local.Get(ctx, id)
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return sess, err
	}
	restored, ok := s.restore(ctx, id)
	if !ok {
		return domain.Session{}, err
	}
	return restored, nil
}

func (s *SessionStore) Upsert(ctx context.Context, session domain.Session) error {
	if err := s.local.Upsert(ctx, session); err != nil {
		return err
	}
	s.mirror(ctx, session)
	return nil
}

func (s *SessionStore) Update(ctx context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	mirrored := func(sess *domain.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		s.mirror(ctx, *sess)
		return nil
	}
	sess, err := s.local.Update(ctx, id, mirrored)
	if errors.Is(err, domain.ErrSessionNotFound) {
		if _, ok := s.restore(ctx, id); ok {
			sess, err = s.local.Update(ctx, id, mirrored)
		}
	}
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.local.DeleteWith(ctx, id, func() error {
		_ = s.client.Del(ctx, s.key(id)).Err()
		return nil
	})
}

func (s *SessionStore) IDs(ctx context.Context) ([]string, error) {
	return s.local.IDs(ctx)
}

// restore loads a mirrored session into the local store.
func (s *SessionStore) restore(ctx context.Context, id string) (domain.Session, bool) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		return domain.Session{}, false
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil || sess.ID != id {
		return domain.Session{}, false
	}
	if err := s.local.Upsert(ctx, sess); err != nil {
		return domain.Session{}, false
	}
	return sess, true
}

func (s *SessionStore) mirror(ctx context.Context, sess domain.Session) {
	raw, err := json.Marshal(sess)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, s.key(sess.ID), raw, s.ttl).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}

var _ app.SessionRepository = (*SessionStore)(nil)
