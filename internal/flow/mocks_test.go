package flow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"storefront-payments/internal/config"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func testPaymentConfig() *config.PaymentConfig {
	return &config.PaymentConfig{
		PollInterval: 3 * time.Second,
		PollTimeout:  10 * time.Second,
		Scheme:       "com.brainnel.app",
		LegacyScheme: "brainnel",
		Order: config.RouteConfig{
			TranslationPrefix: "order",
			IDField:           "orderId",
			SuccessRoute:      "PaymentSuccessScreen",
			ErrorRoute:        "PayError",
		},
		Recharge: config.RouteConfig{
			TranslationPrefix: "recharge",
			IDField:           "rechargeId",
			SuccessRoute:      "RechargeSuccessScreen",
			ErrorRoute:        "RechargeError",
		},
	}
}

// fakeClock is a manually advanced clock. Advance moves time forward and
// fires every ticker and timer whose moment falls inside the window, in
// chronological order.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
	timers  []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &fakeTicker{clock: c, interval: d, next: c.now.Add(d), ch: make(chan time.Time, 64)}
	c.tickers = append(c.tickers, tk)
	return tk
}

func (c *fakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	tm := &fakeTimer{clock: c, deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.timers = append(c.timers, tm)
	return tm
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.now.Add(d)
	for {
		var earliest time.Time
		consider := func(t time.Time) {
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
		for _, tk := range c.tickers {
			if !tk.stopped {
				consider(tk.next)
			}
		}
		for _, tm := range c.timers {
			if !tm.stopped {
				consider(tm.deadline)
			}
		}
		if earliest.IsZero() || earliest.After(target) {
			break
		}
		c.now = earliest
		for _, tk := range c.tickers {
			if !tk.stopped && !tk.next.After(c.now) {
				select {
				case tk.ch <- c.now:
				default:
				}
				tk.next = tk.next.Add(tk.interval)
			}
		}
		for _, tm := range c.timers {
			if !tm.stopped && !tm.deadline.After(c.now) {
				select {
				case tm.ch <- c.now:
				default:
				}
				tm.stopped = true
			}
		}
	}
	c.now = target
}

type fakeTicker struct {
	clock    *fakeClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}

type fakeTimer struct {
	clock    *fakeClock
	deadline time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// stubBackend is a scriptable PaymentBackend. Every status check records the
// clock reading at call time and signals checkCh, so tests can advance the
// fake clock in lock-step with the poller.
type stubBackend struct {
	mu          sync.Mutex
	clock       *fakeClock
	statusResps []*adapter.StatusResponse // consumed in order; last one repeats
	statusErr   error
	verifyResp  *adapter.StatusResponse
	verifyErr   error

	statusCalls []time.Time
	verifyCalls [][2]string // paymentID, payerID
	checkCh     chan time.Time
}

func newStubBackend(clock *fakeClock) *stubBackend {
	return &stubBackend{
		clock:       clock,
		statusResps: []*adapter.StatusResponse{{Status: 0, Msg: "pending"}},
		checkCh:     make(chan time.Time, 64),
	}
}

func (b *stubBackend) GetPaymentStatus(_ context.Context, _, _ string) (*adapter.StatusResponse, error) {
	b.mu.Lock()
	now := b.clock.Now()
	b.statusCalls = append(b.statusCalls, now)
	resp := b.statusResps[0]
	if len(b.statusResps) > 1 {
		b.statusResps = b.statusResps[1:]
	}
	err := b.statusErr
	b.mu.Unlock()
	b.checkCh <- now
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (b *stubBackend) VerifyCallback(_ context.Context, paymentID, payerID string) (*adapter.StatusResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifyCalls = append(b.verifyCalls, [2]string{paymentID, payerID})
	if b.verifyErr != nil {
		return nil, b.verifyErr
	}
	if b.verifyResp != nil {
		return b.verifyResp, nil
	}
	return &adapter.StatusResponse{Status: 1, Msg: "verified"}, nil
}

func (b *stubBackend) checkTimes() []time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]time.Time, len(b.statusCalls))
	copy(out, b.statusCalls)
	return out
}

// memDevice records every directive the orchestrator sends to the client.
type memDevice struct {
	mu      sync.Mutex
	canOpen bool
	openErr error

	opened     []string
	navs       []navCall
	advisories []string
	navCh      chan navCall
	adviseCh   chan string
}

type navCall struct {
	Route  string
	Params map[string]interface{}
}

func newMemDevice() *memDevice {
	return &memDevice{
		canOpen:  true,
		navCh:    make(chan navCall, 16),
		adviseCh: make(chan string, 16),
	}
}

func (d *memDevice) CanOpen(_ context.Context, _, _ string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.canOpen, nil
}

func (d *memDevice) Open(_ context.Context, _, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return d.openErr
	}
	d.opened = append(d.opened, url)
	return nil
}

func (d *memDevice) Navigate(_ context.Context, _, route string, params map[string]interface{}) error {
	d.mu.Lock()
	call := navCall{Route: route, Params: params}
	d.navs = append(d.navs, call)
	d.mu.Unlock()
	d.navCh <- call
	return nil
}

func (d *memDevice) Advise(_ context.Context, _, message string) error {
	d.mu.Lock()
	d.advisories = append(d.advisories, message)
	d.mu.Unlock()
	d.adviseCh <- message
	return nil
}

func (d *memDevice) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

func (d *memDevice) navCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.navs)
}

// keyTranslator echoes the lookup key so assertions can target message keys
// instead of prose.
type keyTranslator struct{}

func (keyTranslator) Translate(_ string, key string, _ map[string]string) string { return key }

// recObserver collects resolutions.
type recObserver struct {
	mu          sync.Mutex
	resolutions []*model.Resolution
}

func (r *recObserver) OnTransition(*model.PaymentSession) {}

func (r *recObserver) OnResolved(res *model.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *res
	r.resolutions = append(r.resolutions, &cp)
}

func (r *recObserver) resolved() []*model.Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Resolution, len(r.resolutions))
	copy(out, r.resolutions)
	return out
}
