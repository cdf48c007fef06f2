package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/repository"
)

var _ repository.ResolutionRepository = (*resolutionRepo)(nil)

// resolutionRepo is the terminal-outcome audit log. One row per session;
// a user retry that reaches a second terminal state overwrites the first
// row, so the table always holds the session's final word.
type resolutionRepo struct{ pool *pgxpool.Pool }

func NewResolutionRepo(pool *pgxpool.Pool) *resolutionRepo {
	return &resolutionRepo{pool: pool}
}

func (r *resolutionRepo) Save(ctx context.Context, res *model.Resolution) error {
	const q = `
INSERT INTO payment_resolutions (
  session_id, payment_type, payment_id, method, outcome, resolved_by, message_key, created_at, resolved_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (session_id) DO UPDATE SET
  outcome=$5, resolved_by=$6, message_key=$7, resolved_at=$9;`

	_, err := r.pool.Exec(ctx, q,
		res.SessionID, res.PaymentType, res.PaymentID, res.Method,
		res.Outcome, res.ResolvedBy, res.MessageKey, res.CreatedAt, res.ResolvedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" { // check_violation
			return domain.ErrInvalidArgument
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *resolutionRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Resolution, error) {
	const q = `
SELECT session_id, payment_type, payment_id, method, outcome, resolved_by, message_key, created_at, resolved_at
FROM payment_resolutions WHERE session_id=$1;`

	res := &model.Resolution{}
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(
		&res.SessionID, &res.PaymentType, &res.PaymentID, &res.Method,
		&res.Outcome, &res.ResolvedBy, &res.MessageKey, &res.CreatedAt, &res.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	return res, nil
}
