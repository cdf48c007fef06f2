package adapter

import (
	"context"

	"storefront-payments/internal/domain/model"
)

// URLOpener instructs the client device to launch the external payment
// surface. CanOpen is a capability probe; some method/platform pairs skip
// it and open directly.
type URLOpener interface {
	CanOpen(ctx context.Context, sessionID, url string) (bool, error)
	Open(ctx context.Context, sessionID, url string) error
}

// Navigator delivers a terminal navigation directive to the client. The
// implementation owns its own delivery fallbacks; a returned error means
// every path failed and the caller should surface a hard alert.
type Navigator interface {
	Navigate(ctx context.Context, sessionID, route string, params map[string]interface{}) error
}

// Advisor surfaces a non-navigating inline advisory on the client, e.g. the
// "not yet paid" notice after a mobile-money poll timeout.
type Advisor interface {
	Advise(ctx context.Context, sessionID, message string) error
}

// Translator resolves user-facing message keys. Keys are namespaced under
// the payment type's translation prefix.
type Translator interface {
	Translate(locale, key string, vars map[string]string) string
}

// OpsNotifier reports terminal resolutions to the operations channel.
// Implementations must be safe to call with a nil-op backend.
type OpsNotifier interface {
	NotifyResolution(ctx context.Context, res *model.Resolution) error
}
