package gateway

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout.session.completed"
	EventPaymentCaptured   EventKind = "payment.captured"
	EventPaymentFailed     EventKind = "payment.failed"
	EventChargeRefunded    EventKind = "charge.refunded"
	EventAccountUpdated    EventKind = "connected_account.updated"
	EventUnknown           EventKind = "unknown"
)

// Event is the domain translation of one gateway notification. Exactly one
// of the payload pointers matching Kind is non-nil; EventUnknown carries
// none.
type Event struct {
	ID      string
	Kind    EventKind
	RawType string

	Session *SessionPayload
	Payment *PaymentPayload
	Refund  *RefundPayload
	Account *AccountPayload
}

type SessionPayload struct {
	SessionID   string
	PaymentRef  string
	AmountTotal int64
	Currency    string
	BuyerEmail  string
	Metadata    map[string]string
}

type PaymentPayload struct {
	PaymentRef     string
	Amount         int64
	FailureMessage string
}

type RefundPayload struct {
	PaymentRef     string
	RefundRef      string
	AmountRefunded int64
}

type AccountPayload struct {
	AccountRef       string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}
