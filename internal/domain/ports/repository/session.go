package repository

import (
	"context"

	"storefront-payments/internal/domain/model"
)

// SnapshotRepository keeps the latest state of each live session so a
// reconnecting client can recover where it left off. Entries expire on
// their own; Delete is a courtesy on clean shutdown.
type SnapshotRepository interface {
	Save(ctx context.Context, sess *model.PaymentSession) error
	Get(ctx context.Context, sessionID string) (*model.PaymentSession, error)
	Delete(ctx context.Context, sessionID string) error
}

// ResolutionRepository is the terminal-outcome audit log. Save keeps one
// row per session, upserting on conflict: a retry can legally reach a
// second terminal outcome and the row records the session's final word.
type ResolutionRepository interface {
	Save(ctx context.Context, res *model.Resolution) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.Resolution, error)
}
