package adapter

import "context"

// StatusResponse is the backend's answer to a status check or a callback
// verification. Status == 1 is the success discriminant; any other value
// means "not paid yet" (status check) or "verification rejected" (callback).
type StatusResponse struct {
	Status int                    `json:"status"`
	Msg    string                 `json:"msg,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

func (r *StatusResponse) OK() bool { return r != nil && r.Status == 1 }

// PaymentBackend is the port for the storefront REST backend.
type PaymentBackend interface {
	// GetPaymentStatus checks the unified payment-status endpoint for the
	// given payment type family. Used by the poller and by deep-link
	// verification for methods whose redirect carries no verifiable token.
	GetPaymentStatus(ctx context.Context, paymentType, paymentID string) (*StatusResponse, error)

	// VerifyCallback confirms a PayPal/bank-card redirect using the
	// paymentId and PayerID carried in the callback URL.
	VerifyCallback(ctx context.Context, paymentID, payerID string) (*StatusResponse, error)
}
