package flow

import (
	"storefront-payments/internal/config"
	"storefront-payments/internal/domain/model"
)

// RouteFor returns the routing/translation metadata for a payment type.
// The caller guarantees the type is one of the two known values; order is
// the fallback.
func RouteFor(cfg *config.PaymentConfig, t model.PaymentType) config.RouteConfig {
	if t == model.PaymentTypeRecharge {
		return cfg.Recharge
	}
	return cfg.Order
}
