package sessions

import (
	"context"
	"time"

	"github.com/hopyard/hops/pkg/metrics"
)

// Service implements the flash channel on top of a session Repository.
// Messages are grouped by key and removed when read.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{repo: r, ttl: ttl, now: time.Now}
}

// TTL is the lifetime granted to a session on every write.
func (s *Service) TTL() time.Duration { return s.ttl }

// AddFlash queues msgs under key for session id, creating the session on first use.
func (s *Service) AddFlash(ctx context.Context, id, key string, msgs ...string) error {
	if id == "" || len(msgs) == 0 {
		return nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if sess == nil {
		sess = &Session{ID: id, CreatedAt: now}
	}
	if sess.Flashes == nil {
		sess.Flashes = map[string][]string{}
	}
	sess.Flashes[key] = append(sess.Flashes[key], msgs...)
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.repo.Save(ctx, sess); err != nil {
		return err
	}
	metrics.FlashMessages.WithLabelValues(key).Add(float64(len(msgs)))
	return nil
}

// Flashes returns and clears the messages queued under key. Sessions left
// without any messages are deleted.
func (s *Service) Flashes(ctx context.Context, id, key string) ([]string, error) {
	if id == "" {
		return nil, nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	msgs, ok := sess.Flashes[key]
	if !ok {
		return nil, nil
	}
	delete(sess.Flashes, key)
	if len(sess.Flashes) == 0 {
		return msgs, s.repo.Delete(ctx, id)
	}
	return msgs, s.repo.Save(ctx, sess)
}
