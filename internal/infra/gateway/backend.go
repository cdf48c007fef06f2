package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"storefront-payments/internal/domain/ports/adapter"
	"storefront-payments/internal/infra/metrics"
)

// Backend implements adapter.PaymentBackend against the storefront REST
// API using direct HTTP calls. All calls go through a shared circuit
// breaker so a dead backend fails fast instead of stacking up poll ticks.
type Backend struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zerolog.Logger
}

var _ adapter.PaymentBackend = (*Backend)(nil)

func NewBackend(baseURL string, timeout time.Duration, log *zerolog.Logger) *Backend {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "payment-backend",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return &Backend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: cb,
		log:     log,
	}
}

// GetPaymentStatus checks the unified payment-status endpoint.
func (b *Backend) GetPaymentStatus(ctx context.Context, paymentType, paymentID string) (*adapter.StatusResponse, error) {
	url := fmt.Sprintf("%s/api/payments/%s/%s/status", b.baseURL, paymentType, paymentID)
	resp, err := b.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		metrics.StatusChecksTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if resp.OK() {
		metrics.StatusChecksTotal.WithLabelValues("confirmed").Inc()
	} else {
		metrics.StatusChecksTotal.WithLabelValues("pending").Inc()
	}
	return resp, nil
}

// VerifyCallback confirms a PayPal/bank-card redirect token pair.
func (b *Backend) VerifyCallback(ctx context.Context, paymentID, payerID string) (*adapter.StatusResponse, error) {
	body := map[string]string{"paymentId": paymentID, "payerId": payerID}
	url := b.baseURL + "/api/payments/callback/verify"

	start := time.Now()
	resp, err := b.do(ctx, http.MethodPost, url, body)
	result := "ok"
	if err != nil || !resp.OK() {
		result = "fail"
	}
	metrics.VerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return resp, err
}

func (b *Backend) do(ctx context.Context, method, url string, body interface{}) (*adapter.StatusResponse, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := b.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("send request: %w", err)
		}
		defer httpResp.Body.Close()

		raw, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, fmt.Errorf("backend returned %d: %s", httpResp.StatusCode, string(raw))
		}

		var sr adapter.StatusResponse
		if err := json.Unmarshal(raw, &sr); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w, body: %s", err, string(raw))
		}
		return &sr, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*adapter.StatusResponse), nil
}
