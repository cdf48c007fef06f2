package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"storefront-payments/internal/domain"
	"storefront-payments/internal/domain/ports/adapter"
	"storefront-payments/internal/infra/metrics"
)

// Directive is one instruction pushed to the client device: open the
// external payment page, navigate to a terminal screen, or show an inline
// advisory.
type Directive struct {
	Kind      string                 `json:"kind"` // open_url | navigate | advise
	SessionID string                 `json:"session_id"`
	URL       string                 `json:"url,omitempty"`
	Route     string                 `json:"route,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
	Message   string                 `json:"message,omitempty"`
	SentAt    time.Time              `json:"sent_at"`
}

// DirectivePublisher delivers directives over the session's pub/sub
// channel, with a per-session backlog list as the fallback for clients
// that are not subscribed at that instant.
//
// Navigation gets one extra chance: if both the publish and the fallback
// fail, the publish is retried once after a short delay before the loss is
// surfaced as a hard error. Navigation can race the client's channel
// subscription right after a deep link wakes the app, which is exactly
// when it matters most.
type DirectivePublisher struct {
	client     RedisClient
	backlogTTL time.Duration
	retryDelay time.Duration
	log        *zerolog.Logger
}

var (
	_ adapter.URLOpener = (*DirectivePublisher)(nil)
	_ adapter.Navigator = (*DirectivePublisher)(nil)
	_ adapter.Advisor   = (*DirectivePublisher)(nil)
)

func NewDirectivePublisher(client RedisClient, backlogTTL time.Duration, log *zerolog.Logger) *DirectivePublisher {
	if backlogTTL <= 0 {
		backlogTTL = time.Hour
	}
	return &DirectivePublisher{
		client:     client,
		backlogTTL: backlogTTL,
		retryDelay: 300 * time.Millisecond,
		log:        log,
	}
}

func channelKey(sessionID string) string { return "payment:directives:" + sessionID }
func backlogKey(sessionID string) string { return "payment:backlog:" + sessionID }

// CanOpen validates that the device can plausibly open the URL: an
// absolute http(s) link. Custom app schemes are not openable payment
// surfaces.
func (p *DirectivePublisher) CanOpen(ctx context.Context, sessionID, raw string) (bool, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return false, nil
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", nil
}

// Open pushes an open-url directive.
func (p *DirectivePublisher) Open(ctx context.Context, sessionID, rawURL string) error {
	d := Directive{Kind: "open_url", SessionID: sessionID, URL: rawURL, SentAt: time.Now()}
	return p.deliver(ctx, d, false)
}

// Navigate pushes a navigation directive with the full fallback chain.
func (p *DirectivePublisher) Navigate(ctx context.Context, sessionID, route string, params map[string]interface{}) error {
	d := Directive{Kind: "navigate", SessionID: sessionID, Route: route, Params: params, SentAt: time.Now()}
	return p.deliver(ctx, d, true)
}

// Advise pushes an inline advisory message.
func (p *DirectivePublisher) Advise(ctx context.Context, sessionID, message string) error {
	d := Directive{Kind: "advise", SessionID: sessionID, Message: message, SentAt: time.Now()}
	return p.deliver(ctx, d, false)
}

func (p *DirectivePublisher) deliver(ctx context.Context, d Directive, retryPrimary bool) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal directive: %w", err)
	}

	err = p.publish(ctx, d.SessionID, payload)
	if err == nil {
		metrics.DirectivesTotal.WithLabelValues(d.Kind, "publish").Inc()
		return nil
	}
	p.log.Warn().Err(err).Str("session_id", d.SessionID).Str("kind", d.Kind).
		Msg("directive publish failed; trying backlog")

	err = p.backlog(ctx, d.SessionID, payload)
	if err == nil {
		metrics.DirectivesTotal.WithLabelValues(d.Kind, "fallback").Inc()
		return nil
	}
	p.log.Warn().Err(err).Str("session_id", d.SessionID).Str("kind", d.Kind).
		Msg("directive backlog failed")

	if retryPrimary {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.retryDelay):
		}
		if err := p.publish(ctx, d.SessionID, payload); err == nil {
			metrics.DirectivesTotal.WithLabelValues(d.Kind, "retry").Inc()
			return nil
		}
	}

	metrics.DirectivesTotal.WithLabelValues(d.Kind, "lost").Inc()
	return fmt.Errorf("%w: %s for session %s", domain.ErrNavigationFailed, d.Kind, d.SessionID)
}

// publish treats "nobody subscribed" as a failure so the backlog path runs.
func (p *DirectivePublisher) publish(ctx context.Context, sessionID string, payload []byte) error {
	n, err := p.client.Publish(ctx, channelKey(sessionID), payload)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no subscriber on %s", channelKey(sessionID))
	}
	return nil
}

func (p *DirectivePublisher) backlog(ctx context.Context, sessionID string, payload []byte) error {
	key := backlogKey(sessionID)
	if err := p.client.RPush(ctx, key, payload); err != nil {
		return err
	}
	return p.client.Expire(ctx, key, p.backlogTTL)
}
