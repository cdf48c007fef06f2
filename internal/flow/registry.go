package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/model"
)

// SessionParams is the client-supplied description of one payment attempt.
type SessionParams struct {
	PaymentType model.PaymentType
	PaymentID   string
	Method      model.PaymentMethod
	PayURL      string
	Platform    model.Platform
	Locale      string
}

func (p *SessionParams) validate() error {
	if !p.PaymentType.Valid() {
		return fmt.Errorf("%w: payment_type %q", domain.ErrInvalidArgument, p.PaymentType)
	}
	if !p.Method.Valid() {
		return fmt.Errorf("%w: method %q", domain.ErrInvalidArgument, p.Method)
	}
	if p.PaymentID == "" {
		return fmt.Errorf("%w: payment_id is required", domain.ErrInvalidArgument)
	}
	return nil
}

// Registry owns every live session. Each session gets its own orchestrator
// with its own subscriptions and timers; nothing here is process-global
// beyond the map itself.
type Registry struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

func NewRegistry(deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = NewClock()
	}
	return &Registry{deps: deps, sessions: make(map[string]*Orchestrator)}
}

// Create registers a new session and runs its opening move. The returned
// error reflects the opening attempt (invalid pay URL, open failure); the
// orchestrator is registered either way so the client can inspect the
// failed state and retry.
func (r *Registry) Create(ctx context.Context, p SessionParams) (*Orchestrator, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Platform == "" {
		p.Platform = model.PlatformAndroid
	}
	now := r.deps.Clock.Now()
	sess := &model.PaymentSession{
		ID:          ulid.Make().String(),
		PaymentType: p.PaymentType,
		PaymentID:   p.PaymentID,
		Method:      p.Method,
		PayURL:      p.PayURL,
		Platform:    p.Platform,
		Locale:      p.Locale,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	o := NewOrchestrator(ctx, sess, r.deps)

	r.mu.Lock()
	r.sessions[sess.ID] = o
	r.mu.Unlock()

	return o, o.Start()
}

// Get returns the live session or domain.ErrNotFound.
func (r *Registry) Get(sessionID string) (*Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// Remove closes and forgets a session. Idempotent.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	o, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if ok {
		o.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll shuts every session down without navigation, for service
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Orchestrator, 0, len(r.sessions))
	for _, o := range r.sessions {
		all = append(all, o)
	}
	r.sessions = make(map[string]*Orchestrator)
	r.mu.Unlock()
	for _, o := range all {
		o.Close()
	}
}
