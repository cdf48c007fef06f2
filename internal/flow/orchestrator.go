package flow

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"storefront-payments/internal/config"
	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
)

// Observer receives session lifecycle hooks. Implementations fan out to
// snapshots, metrics, the audit log and the ops notifier.
type Observer interface {
	OnTransition(sess *model.PaymentSession)
	OnResolved(res *model.Resolution)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnTransition(*model.PaymentSession) {}
func (NopObserver) OnResolved(*model.Resolution)       {}

// Deps bundles the collaborators an orchestrator needs.
type Deps struct {
	Config     *config.PaymentConfig
	Backend    adapter.PaymentBackend
	Opener     adapter.URLOpener
	Navigator  adapter.Navigator
	Advisor    adapter.Advisor
	Translator adapter.Translator
	Observer   Observer
	Clock      Clock
	Logger     *zerolog.Logger
}

// Orchestrator owns one payment session's state machine. All transitions
// run under a single mutex, mirroring the single event-processing thread
// of the client flow; the poller and resolver report outcomes but never
// write status themselves, and every transition re-checks the current
// status so the losing signal source becomes a no-op.
type Orchestrator struct {
	ctx      context.Context
	route    config.RouteConfig
	poller   *Poller
	resolver *Resolver

	opener   adapter.URLOpener
	nav      adapter.Navigator
	advisor  adapter.Advisor
	trans    adapter.Translator
	observer Observer
	clock    Clock
	log      zerolog.Logger

	mu     sync.Mutex
	sess   *model.PaymentSession
	closed bool
}

// NewOrchestrator wires a session to its collaborators. ctx bounds the
// session's background work (polling, verification); cancelling it stops
// everything.
func NewOrchestrator(ctx context.Context, sess *model.PaymentSession, d Deps) *Orchestrator {
	if d.Clock == nil {
		d.Clock = NewClock()
	}
	if d.Observer == nil {
		d.Observer = NopObserver{}
	}
	log := d.Logger.With().
		Str("session_id", sess.ID).
		Str("payment_type", string(sess.PaymentType)).
		Str("payment_id", sess.PaymentID).
		Str("method", string(sess.Method)).
		Logger()

	o := &Orchestrator{
		ctx:      ctx,
		route:    RouteFor(d.Config, sess.PaymentType),
		opener:   d.Opener,
		nav:      d.Navigator,
		advisor:  d.Advisor,
		trans:    d.Translator,
		observer: d.Observer,
		clock:    d.Clock,
		log:      log,
		sess:     sess,
	}
	o.resolver = NewResolver(d.Backend, &o.log, d.Config.Scheme, d.Config.LegacyScheme)
	o.poller = NewPoller(
		d.Backend, d.Clock,
		d.Config.PollInterval, d.Config.PollTimeout,
		string(sess.PaymentType), sess.PaymentID,
		o.onPollSuccess, o.onPollTimeout,
		&o.log,
	)
	return o
}

// Session returns a copy of the current session state.
func (o *Orchestrator) Session() model.PaymentSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *o.sess
}

// Start runs the session's opening move. wave, paypal and bank_card launch
// the external payment surface immediately; mobile_money is confirmed
// entirely out-of-band, so it only arms foreground polling and tells the
// user to confirm on their phone.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domain.ErrSessionClosed
	}
	if o.sess.Method == model.MethodMobileMoney {
		o.sess.HasOpenedPayment = true
		o.touchLocked()
		return nil
	}
	return o.openPaymentLocked()
}

// openPaymentLocked validates the pay URL and launches the external
// surface. Invalid URLs and open failures route straight to the error
// screen; they are terminal for this attempt, the user may retry.
func (o *Orchestrator) openPaymentLocked() error {
	if !validPayURL(o.sess.PayURL) {
		o.log.Warn().Str("pay_url", o.sess.PayURL).Msg("rejecting invalid payment url")
		o.failLocked(msgInvalidPayURL, "", model.ResolvedByUser)
		return domain.ErrInvalidPayURL
	}

	// Android wave pages and PayPal redirects open directly; the capability
	// probe misreports both on some devices. Everything else probes first.
	direct := o.sess.Method == model.MethodPayPal ||
		(o.sess.Method == model.MethodWave && o.sess.Platform == model.PlatformAndroid)
	if !direct {
		ok, err := o.opener.CanOpen(o.ctx, o.sess.ID, o.sess.PayURL)
		if err != nil || !ok {
			o.log.Warn().Err(err).Msg("device cannot open payment url")
			o.failLocked(msgCannotOpenLink, "", model.ResolvedByUser)
			return domain.ErrOpenNotSupported
		}
	}
	if err := o.opener.Open(o.ctx, o.sess.ID, o.sess.PayURL); err != nil {
		o.log.Warn().Err(err).Msg("opening payment url failed")
		o.failLocked(msgCannotOpenLink, "", model.ResolvedByUser)
		return domain.ErrOpenNotSupported
	}
	o.sess.HasOpenedPayment = true
	o.touchLocked()
	return nil
}

// HandleAppState reacts to client app-state transitions. A return to the
// foreground after the payment surface was opened is the recovery path for
// dropped provider redirects: it enters checking and starts polling. Only
// a pending session resumes; terminal sessions stay resolved (a failed one
// leaves only through an explicit Retry) and a checking session already
// polls.
func (o *Orchestrator) HandleAppState(state string) {
	if strings.ToLower(state) != "active" {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || !o.sess.HasOpenedPayment {
		return
	}
	if o.sess.Status == model.StatusChecking || o.sess.Status.Terminal() {
		return
	}
	o.sess.Status = model.StatusChecking
	o.touchLocked()
	o.poller.Start(o.ctx)
}

// HandleDeepLink processes one inbound OS URL for this session and reports
// how it was classified.
func (o *Orchestrator) HandleDeepLink(raw string) DeepLinkKind {
	link := o.resolver.Classify(raw)
	switch link.Kind {
	case LinkPollingAck:
		o.log.Debug().Str("url", raw).Msg("provider polling ack; ignored")
	case LinkCancel:
		o.handleCancelLink()
	case LinkSuccess:
		o.handleSuccessLink(link)
	default:
		o.log.Debug().Str("url", raw).Msg("unrecognized deep link; ignored")
	}
	return link.Kind
}

func (o *Orchestrator) handleCancelLink() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		return
	}
	o.poller.Stop()
	o.failLocked(msgCancelled, "", model.ResolvedByDeepLink)
}

// handleSuccessLink enters the checking phase, verifies outside the lock,
// then transitions only if nothing else resolved the session meanwhile.
func (o *Orchestrator) handleSuccessLink(link DeepLink) {
	o.mu.Lock()
	if o.closed || o.sess.Status.Terminal() {
		o.mu.Unlock()
		return
	}
	o.poller.Stop()
	o.sess.Status = model.StatusChecking
	o.touchLocked()
	sess := *o.sess
	o.mu.Unlock()

	result := o.resolver.Verify(o.ctx, &sess, link)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		o.log.Debug().Msg("verification finished after session resolved; dropped")
		return
	}
	if !result.OK {
		serverMsg := ""
		if result.Response != nil {
			serverMsg = result.Response.Msg
		}
		o.failLocked(result.MessageSuffix, serverMsg, model.ResolvedByDeepLink)
		return
	}
	params := map[string]interface{}{}
	if result.Response != nil {
		for k, v := range result.Response.Data {
			params[k] = v
		}
	} else {
		for k, v := range link.Params {
			params[k] = v
		}
	}
	o.completeLocked(params, model.ResolvedByDeepLink)
}

// Cancel is the explicit user cancel button. Uniform across methods.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		return
	}
	o.poller.Stop()
	o.failLocked(msgCancelled, "", model.ResolvedByUser)
}

// ConfirmExit handles a confirmed back/exit while the session is
// unresolved. The confirmation prompt already happened on the client.
func (o *Orchestrator) ConfirmExit() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		return
	}
	o.poller.Stop()
	o.failLocked(msgIncompleteRetry, "", model.ResolvedByUser)
}

// Retry resets the session to pending and, for methods with an external
// surface, re-attempts the open sequence. mobile_money keeps waiting for
// out-of-band confirmation. Retrying always re-opens the URL even if a
// surface was already launched. While the session is checking, a
// verification is in flight and retry is refused.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return domain.ErrSessionClosed
	}
	if o.sess.Status == model.StatusCompleted {
		return domain.ErrTerminalState
	}
	if o.sess.Status == model.StatusChecking {
		return domain.ErrCheckInProgress
	}
	o.poller.Stop()
	o.sess.Status = model.StatusPending
	o.touchLocked()
	if o.sess.Method == model.MethodMobileMoney {
		return nil
	}
	return o.openPaymentLocked()
}

// Close releases the session: polling stops and no timer or callback has
// any further effect. No navigation is emitted.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.poller.Stop()
}

// onPollSuccess is the poller's success callback.
func (o *Orchestrator) onPollSuccess(resp *adapter.StatusResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		return
	}
	params := map[string]interface{}{}
	for k, v := range resp.Data {
		params[k] = v
	}
	o.completeLocked(params, model.ResolvedByPoll)
}

// onPollTimeout fires once when the polling window elapses without a
// confirmation. The session returns to pending rather than failing: slow
// providers regularly confirm after the window, and bouncing the user to
// an error screen would be a false negative. mobile_money additionally
// gets an inline "not yet paid" advisory.
func (o *Orchestrator) onPollTimeout() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.sess.Status.Terminal() {
		return
	}
	o.sess.Status = model.StatusPending
	o.touchLocked()
	if o.sess.Method == model.MethodMobileMoney {
		msg := o.trans.Translate(o.sess.Locale, o.route.TranslationPrefix+"."+msgNotYetPaid, nil)
		if err := o.advisor.Advise(o.ctx, o.sess.ID, msg); err != nil {
			o.log.Warn().Err(err).Msg("advisory delivery failed")
		}
	}
}

// completeLocked performs the single terminal success transition.
func (o *Orchestrator) completeLocked(params map[string]interface{}, by model.ResolvedBy) {
	o.poller.Stop()
	o.sess.Status = model.StatusCompleted
	o.touchLocked()

	params[o.route.IDField] = o.sess.PaymentID
	if o.sess.IsRecharge() {
		params["isRecharge"] = true
	}
	if err := o.nav.Navigate(o.ctx, o.sess.ID, o.route.SuccessRoute, params); err != nil {
		o.log.Error().Err(err).Str("route", o.route.SuccessRoute).Msg("navigation failed on every path")
	}
	o.observer.OnResolved(o.resolutionLocked(model.StatusCompleted, by, ""))
	o.log.Info().Str("resolved_by", string(by)).Msg("payment completed")
}

// failLocked performs the single terminal failure transition and routes to
// the error screen with a structured payload.
func (o *Orchestrator) failLocked(suffix, serverMsg string, by model.ResolvedBy) {
	o.poller.Stop()
	o.sess.Status = model.StatusFailed
	o.touchLocked()

	key := o.route.TranslationPrefix + "." + suffix
	msg := serverMsg
	if msg == "" {
		msg = o.trans.Translate(o.sess.Locale, key, nil)
	}
	params := map[string]interface{}{"msg": msg}
	params[o.route.IDField] = o.sess.PaymentID
	if o.sess.IsRecharge() {
		params["isRecharge"] = true
	}
	if err := o.nav.Navigate(o.ctx, o.sess.ID, o.route.ErrorRoute, params); err != nil {
		o.log.Error().Err(err).Str("route", o.route.ErrorRoute).Msg("navigation failed on every path")
	}
	o.observer.OnResolved(o.resolutionLocked(model.StatusFailed, by, key))
	o.log.Info().Str("resolved_by", string(by)).Str("message_key", key).Msg("payment failed")
}

func (o *Orchestrator) resolutionLocked(outcome model.SessionStatus, by model.ResolvedBy, key string) *model.Resolution {
	return &model.Resolution{
		SessionID:   o.sess.ID,
		PaymentType: o.sess.PaymentType,
		PaymentID:   o.sess.PaymentID,
		Method:      o.sess.Method,
		Outcome:     outcome,
		ResolvedBy:  by,
		MessageKey:  key,
		CreatedAt:   o.sess.CreatedAt,
		ResolvedAt:  o.clock.Now(),
	}
}

func (o *Orchestrator) touchLocked() {
	o.sess.UpdatedAt = o.clock.Now()
	o.observer.OnTransition(o.sess)
}

// validPayURL rejects structurally empty values, the literal null/undefined
// strings a client serializer can produce, and URLs without a scheme and
// host.
func validPayURL(raw string) bool {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "null", "undefined":
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
