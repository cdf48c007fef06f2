package flow

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
)

// DeepLinkKind classifies an inbound app URL against the known provider
// callback patterns.
type DeepLinkKind string

const (
	// LinkUnknown does not match any callback pattern.
	LinkUnknown DeepLinkKind = "unknown"
	// LinkPollingAck means the provider merely opened its page. Explicitly
	// ignored; no state transition.
	LinkPollingAck DeepLinkKind = "polling_ack"
	// LinkSuccess nominally signals success but still requires server
	// verification before the session may complete.
	LinkSuccess DeepLinkKind = "success"
	// LinkCancel is the provider's cancellation redirect.
	LinkCancel DeepLinkKind = "cancel"
)

const (
	pathPollingAck = "payment-polling"
	pathSuccess    = "payment-success"
	pathCancel     = "payment-cancel"
)

// DeepLink is one classified inbound URL.
type DeepLink struct {
	Kind   DeepLinkKind
	Raw    string
	Params map[string]string // flattened query, last value wins
}

// VerifyResult is the resolver's verdict on a success-pattern link.
type VerifyResult struct {
	OK bool
	// Response is the server payload backing the verdict; nil on the
	// permissive fallback path where the URL itself is trusted.
	Response *adapter.StatusResponse
	// MessageSuffix is the failure message key under the session's
	// translation prefix. Empty when OK.
	MessageSuffix string
}

// Resolver classifies deep links and performs method-specific verification.
// It never mutates session state; the orchestrator transitions after
// re-checking its own guards.
type Resolver struct {
	schemes []string
	backend adapter.PaymentBackend
	log     *zerolog.Logger
}

// NewResolver accepts the app's custom scheme plus the legacy one; both are
// equivalent triggers for every pattern class.
func NewResolver(backend adapter.PaymentBackend, log *zerolog.Logger, schemes ...string) *Resolver {
	lowered := make([]string, 0, len(schemes))
	for _, s := range schemes {
		if s != "" {
			lowered = append(lowered, strings.ToLower(s))
		}
	}
	return &Resolver{schemes: lowered, backend: backend, log: log}
}

// Classify parses a raw inbound URL. Kind is LinkUnknown for URLs with a
// foreign scheme or an unrecognized pattern.
func (r *Resolver) Classify(raw string) DeepLink {
	link := DeepLink{Kind: LinkUnknown, Raw: raw, Params: map[string]string{}}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return link
	}
	if !r.knownScheme(u.Scheme) {
		return link
	}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			link.Params[k] = vs[len(vs)-1]
		}
	}
	switch classifyTarget(u) {
	case pathPollingAck:
		link.Kind = LinkPollingAck
	case pathSuccess:
		link.Kind = LinkSuccess
	case pathCancel:
		link.Kind = LinkCancel
	}
	return link
}

func (r *Resolver) knownScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, s := range r.schemes {
		if scheme == s {
			return true
		}
	}
	return false
}

// classifyTarget extracts the callback pattern from either the host part
// (scheme://payment-success) or the trailing path segment
// (scheme://host/payment-success).
func classifyTarget(u *url.URL) string {
	if host := strings.ToLower(u.Host); host != "" {
		switch host {
		case pathPollingAck, pathSuccess, pathCancel:
			return host
		}
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 {
		return ""
	}
	return strings.ToLower(segs[len(segs)-1])
}

// Verify confirms a success-pattern link for the given session.
//
// paypal and bank_card redirects carry a verifiable token pair
// (paymentId + PayerID) and go through the dedicated callback-verification
// endpoint. wave and mobile_money redirects carry nothing verifiable, so
// the unified status endpoint is consulted instead. Anything else falls
// back to trusting the URL as-is.
func (r *Resolver) Verify(ctx context.Context, sess *model.PaymentSession, link DeepLink) VerifyResult {
	switch sess.Method {
	case model.MethodPayPal, model.MethodBankCard:
		pid, hasPID := link.Params["paymentId"]
		payer, hasPayer := link.Params["PayerID"]
		if hasPID && hasPayer && pid != "" && payer != "" {
			return r.verdict(r.backend.VerifyCallback(ctx, pid, payer))
		}
		// Missing token pair: the URL is treated as authoritative.
		return r.trustLink(sess, link)
	case model.MethodWave, model.MethodMobileMoney:
		return r.verdict(r.backend.GetPaymentStatus(ctx, string(sess.PaymentType), sess.PaymentID))
	default:
		return r.trustLink(sess, link)
	}
}

func (r *Resolver) verdict(resp *adapter.StatusResponse, err error) VerifyResult {
	if err != nil {
		// A request exception during verification counts as a failed
		// verification with a generic contact-support message.
		r.log.Error().Err(err).Msg("callback verification request failed")
		return VerifyResult{MessageSuffix: msgContactSupport}
	}
	if !resp.OK() {
		return VerifyResult{Response: resp, MessageSuffix: msgVerificationFailed}
	}
	return VerifyResult{OK: true, Response: resp}
}

// trustLink is the deliberately permissive path: no server round trip, the
// raw query parameters become the success payload. Known soundness gap,
// kept for parity with provider integrations that redirect without tokens.
func (r *Resolver) trustLink(sess *model.PaymentSession, link DeepLink) VerifyResult {
	r.log.Warn().
		Str("session_id", sess.ID).
		Str("method", string(sess.Method)).
		Msg("completing from unverified success redirect")
	return VerifyResult{OK: true}
}
