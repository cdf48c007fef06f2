package flow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront-payments/internal/domain/ports/adapter"
)

// Poller is the fallback confirmation channel for one payment session: a
// fixed-cadence status check against the backend with a hard overall
// timeout. The provider's deep-link callback is the primary signal; the
// poller only covers redirects the OS failed to deliver, so the window is
// deliberately short rather than an open-ended spinner.
//
// Start performs one immediate check, then checks every interval until the
// timeout fires. Success and timeout are reported through the owner's
// callbacks; the owner re-checks its own state before acting on either.
type Poller struct {
	backend     adapter.PaymentBackend
	clock       Clock
	interval    time.Duration
	timeout     time.Duration
	paymentType string
	paymentID   string

	onSuccess func(*adapter.StatusResponse)
	onTimeout func()
	log       *zerolog.Logger

	mu   sync.Mutex
	stop chan struct{} // nil when not running
	done chan struct{}
}

func NewPoller(
	backend adapter.PaymentBackend,
	clock Clock,
	interval, timeout time.Duration,
	paymentType, paymentID string,
	onSuccess func(*adapter.StatusResponse),
	onTimeout func(),
	log *zerolog.Logger,
) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Poller{
		backend:     backend,
		clock:       clock,
		interval:    interval,
		timeout:     timeout,
		paymentType: paymentType,
		paymentID:   paymentID,
		onSuccess:   onSuccess,
		onTimeout:   onTimeout,
		log:         log,
	}
}

// Running reports whether a polling loop is currently active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// Start begins polling. Calling Start while a loop is already running is a
// no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.stop != nil {
		p.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	p.stop, p.done = stop, done
	p.mu.Unlock()

	go p.loop(ctx, stop, done)
}

// Stop cancels the recurring check and the timeout. Safe to call from any
// code path any number of times; after Stop returns neither callback will
// fire from the cancelled loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// CheckOnce performs a single manual status check outside the loop. On
// success it stops any running loop and reports through the success
// callback. Returns true when the backend confirmed the payment.
func (p *Poller) CheckOnce(ctx context.Context) bool {
	resp := p.check(ctx)
	if resp == nil {
		return false
	}
	p.Stop()
	p.onSuccess(resp)
	return true
}

func (p *Poller) loop(ctx context.Context, stop, done chan struct{}) {
	ticker := p.clock.NewTicker(p.interval)
	timer := p.clock.NewTimer(p.timeout)
	defer ticker.Stop()
	defer timer.Stop()

	// Callbacks fire only after the loop has released its handles and
	// closed done, so Stop never blocks on a callback in flight.
	finish := func() {
		p.mu.Lock()
		if p.stop == stop {
			p.stop, p.done = nil, nil
		}
		p.mu.Unlock()
		close(done)
	}

	if resp := p.check(ctx); resp != nil {
		finish()
		p.onSuccess(resp)
		return
	}

	for {
		select {
		case <-ctx.Done():
			finish()
			return
		case <-stop:
			close(done)
			return
		case <-ticker.C():
			if resp := p.check(ctx); resp != nil {
				finish()
				p.onSuccess(resp)
				return
			}
		case <-timer.C():
			finish()
			p.onTimeout()
			return
		}
	}
}

// check issues one status request. Transport and backend errors are logged
// and swallowed; the next tick retries at the fixed cadence.
func (p *Poller) check(ctx context.Context) *adapter.StatusResponse {
	resp, err := p.backend.GetPaymentStatus(ctx, p.paymentType, p.paymentID)
	if err != nil {
		p.log.Warn().Err(err).
			Str("payment_type", p.paymentType).
			Str("payment_id", p.paymentID).
			Msg("status check failed; will retry on next tick")
		return nil
	}
	if !resp.OK() {
		return nil
	}
	return resp
}
