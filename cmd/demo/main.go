// Demo drives one payment session end to end against in-memory
// collaborators: the backend reports "paid" on the third status check, so
// the poller resolves the session without any deep link.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/rs/zerolog"

	"storefront-payments/internal/config"
	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
	"storefront-payments/internal/flow"
	"storefront-payments/internal/i18n"
)

type demoBackend struct {
	calls int
}

func (b *demoBackend) GetPaymentStatus(_ context.Context, paymentType, paymentID string) (*adapter.StatusResponse, error) {
	b.calls++
	fmt.Printf("status check #%d for %s/%s\n", b.calls, paymentType, paymentID)
	if b.calls >= 3 {
		return &adapter.StatusResponse{Status: 1, Msg: "paid"}, nil
	}
	return &adapter.StatusResponse{Status: 0, Msg: "pending"}, nil
}

func (b *demoBackend) VerifyCallback(_ context.Context, paymentID, payerID string) (*adapter.StatusResponse, error) {
	return &adapter.StatusResponse{Status: 1, Msg: "verified"}, nil
}

type demoDevice struct{}

func (demoDevice) CanOpen(_ context.Context, _, url string) (bool, error) { return true, nil }

func (demoDevice) Open(_ context.Context, sessionID, url string) error {
	fmt.Printf("[device %s] open %s\n", sessionID, url)
	return nil
}

func (demoDevice) Navigate(_ context.Context, sessionID, route string, params map[string]interface{}) error {
	fmt.Printf("[device %s] navigate %s %v\n", sessionID, route, params)
	return nil
}

func (demoDevice) Advise(_ context.Context, sessionID, message string) error {
	fmt.Printf("[device %s] advise: %s\n", sessionID, message)
	return nil
}

func main() {
	cfg := &config.Config{}
	configDefaults(cfg)

	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.InfoLevel)

	catalog, err := i18n.NewCatalog(cfg.I18n.DefaultLocale)
	if err != nil {
		log.Fatalf("i18n: %v", err)
	}

	device := demoDevice{}
	registry := flow.NewRegistry(flow.Deps{
		Config:     &cfg.Payment,
		Backend:    &demoBackend{},
		Opener:     device,
		Navigator:  device,
		Advisor:    device,
		Translator: catalog,
		Logger:     &logger,
	})

	ctx := context.Background()
	o, err := registry.Create(ctx, flow.SessionParams{
		PaymentType: model.PaymentTypeOrder,
		PaymentID:   "demo-1001",
		Method:      model.MethodWave,
		PayURL:      "https://pay.example.com/wave/demo-1001",
		Platform:    model.PlatformAndroid,
		Locale:      "fr",
	})
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	fmt.Printf("session %s created, status=%s\n", o.Session().ID, o.Session().Status)

	// The user returns to the app; polling starts.
	o.HandleAppState("active")
	fmt.Printf("app active, status=%s\n", o.Session().Status)

	// Two intervals pass; the third check confirms the payment.
	time.Sleep(2*cfg.Payment.PollInterval + 500*time.Millisecond)
	fmt.Printf("final status=%s\n", o.Session().Status)

	registry.CloseAll()
}

// configDefaults fills the demo config without a YAML file.
func configDefaults(cfg *config.Config) {
	cfg.Payment.PollInterval = config.DefaultPollInterval
	cfg.Payment.PollTimeout = config.DefaultPollTimeout
	cfg.Payment.Scheme = "com.brainnel.app"
	cfg.Payment.LegacyScheme = "brainnel"
	cfg.Payment.Order = config.RouteConfig{
		TranslationPrefix: "order",
		IDField:           "orderId",
		SuccessRoute:      "PaymentSuccessScreen",
		ErrorRoute:        "PayError",
	}
	cfg.Payment.Recharge = config.RouteConfig{
		TranslationPrefix: "recharge",
		IDField:           "rechargeId",
		SuccessRoute:      "RechargeSuccessScreen",
		ErrorRoute:        "RechargeError",
	}
	cfg.I18n.DefaultLocale = "fr"
}
