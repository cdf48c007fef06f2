package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo keeps the latest state of each live session in Redis so a
// reconnecting client can recover it. Entries expire with the TTL.
type SnapshotRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewSnapshotRepo(client RedisClient, ttl time.Duration) *SnapshotRepo {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SnapshotRepo{client: client, ttl: ttl}
}

func (s *SnapshotRepo) key(sessionID string) string {
	return "payment:session:" + sessionID
}

func (s *SnapshotRepo) Save(ctx context.Context, sess *model.PaymentSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sess.ID), data, s.ttl)
}

func (s *SnapshotRepo) Get(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	data, err := s.client.Get(ctx, s.key(sessionID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var sess model.PaymentSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SnapshotRepo) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID))
}
