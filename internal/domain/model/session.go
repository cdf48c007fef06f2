package model

import "time"

// PaymentType selects the backend endpoint family and the route/translation
// metadata used when a session resolves.
type PaymentType string

const (
	PaymentTypeOrder    PaymentType = "order"
	PaymentTypeRecharge PaymentType = "recharge"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeOrder || t == PaymentTypeRecharge
}

// PaymentMethod selects the open/verify strategy for a session.
type PaymentMethod string

const (
	MethodWave        PaymentMethod = "wave"
	MethodMobileMoney PaymentMethod = "mobile_money"
	MethodPayPal      PaymentMethod = "paypal"
	MethodBankCard    PaymentMethod = "bank_card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodWave, MethodMobileMoney, MethodPayPal, MethodBankCard:
		return true
	}
	return false
}

// Platform is the client OS reported at session creation. The open strategy
// for wave differs between platforms.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// SessionStatus is the only mutable field of a session. completed and failed
// are terminal; no automatic transition leaves either.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusChecking  SessionStatus = "checking"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// PaymentSession is the transient record of one payment/recharge attempt.
// It lives from session creation until a terminal navigation or an explicit
// close; nothing here is persisted except the terminal Resolution.
type PaymentSession struct {
	ID          string // ULID
	PaymentType PaymentType
	PaymentID   string // order id or recharge id, immutable
	Method      PaymentMethod
	PayURL      string // external payment page, immutable
	Platform    Platform
	Locale      string

	Status SessionStatus
	// HasOpenedPayment gates foreground-resume polling: polling must never
	// start before the external payment surface was launched (or, for
	// mobile_money, before the session decided no launch is needed).
	HasOpenedPayment bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *PaymentSession) IsRecharge() bool {
	return s.PaymentType == PaymentTypeRecharge
}

// ResolvedBy records which concurrent signal source won the session.
type ResolvedBy string

const (
	ResolvedByPoll     ResolvedBy = "poll"
	ResolvedByDeepLink ResolvedBy = "deeplink"
	ResolvedByUser     ResolvedBy = "user"
)

// Resolution is the terminal outcome of a session, written to the audit log
// exactly once per session.
type Resolution struct {
	SessionID   string
	PaymentType PaymentType
	PaymentID   string
	Method      PaymentMethod
	Outcome     SessionStatus // completed | failed
	ResolvedBy  ResolvedBy
	MessageKey  string // translation key shown to the user, empty on success
	CreatedAt   time.Time
	ResolvedAt  time.Time
}
