package flow

// Message key suffixes, namespaced under the payment type's translation
// prefix (e.g. "order.verificationFailed").
const (
	msgInvalidPayURL      = "invalidPaymentUrl"
	msgCannotOpenLink     = "cannotOpenLink"
	msgVerificationFailed = "verificationFailed"
	msgContactSupport     = "contactSupport"
	msgCancelled          = "paymentCancelled"
	msgIncompleteRetry    = "paymentIncompleteRetry"
	msgNotYetPaid         = "notYetPaid"
)
