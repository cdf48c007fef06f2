package observe

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
	"storefront-payments/internal/domain/ports/repository"
	"storefront-payments/internal/flow"
	"storefront-payments/internal/infra/metrics"
)

// Sink fans session lifecycle hooks out to the snapshot store, the audit
// log, metrics and the ops notifier. Writes happen off the orchestrator's
// lock with their own timeout; a failed write is logged, never propagated
// back into the state machine.
type Sink struct {
	snapshots   repository.SnapshotRepository
	resolutions repository.ResolutionRepository
	notifier    adapter.OpsNotifier
	timeout     time.Duration
	log         *zerolog.Logger
}

var _ flow.Observer = (*Sink)(nil)

func NewSink(
	snapshots repository.SnapshotRepository,
	resolutions repository.ResolutionRepository,
	notifier adapter.OpsNotifier,
	log *zerolog.Logger,
) *Sink {
	return &Sink{
		snapshots:   snapshots,
		resolutions: resolutions,
		notifier:    notifier,
		timeout:     5 * time.Second,
		log:         log,
	}
}

func (s *Sink) OnTransition(sess *model.PaymentSession) {
	cp := *sess
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.snapshots.Save(ctx, &cp); err != nil {
			s.log.Warn().Err(err).Str("session_id", cp.ID).Msg("snapshot save failed")
		}
	}()
}

func (s *Sink) OnResolved(res *model.Resolution) {
	metrics.ResolutionsTotal.WithLabelValues(string(res.Outcome), string(res.ResolvedBy)).Inc()
	cp := *res
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.resolutions.Save(ctx, &cp); err != nil {
			s.log.Error().Err(err).Str("session_id", cp.SessionID).Msg("resolution audit write failed")
		}
		if err := s.notifier.NotifyResolution(ctx, &cp); err != nil {
			s.log.Warn().Err(err).Str("session_id", cp.SessionID).Msg("ops notify failed")
		}
	}()
}
