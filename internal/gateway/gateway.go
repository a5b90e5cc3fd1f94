package gateway

import (
	"context"
)

// CheckoutSessionSpec describes one hosted checkout session. Capture is
// always manual: funds stay authorized until the platform instructs capture.
type CheckoutSessionSpec struct {
	Title      string
	Amount     int64 // minor units
	Currency   string
	BuyerEmail string

	// Platform cut retained on capture. When SellerAccountRef is set the
	// session is configured as a destination charge and the gateway routes
	// the remainder to the seller's connected account by itself.
	PlatformFee      int64
	SellerAccountRef string

	SuccessURL string
	CancelURL  string

	// Copied onto the session and echoed back in webhook events.
	Metadata map[string]string
}

type CheckoutSession struct {
	ID         string
	URL        string
	PaymentRef string
}

type TransferSpec struct {
	Amount         int64
	Currency       string
	DestinationRef string
	PayoutID       string
}

type AccountStatus struct {
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// Client is the adapter over the external payment processor. Constructed
// explicitly and injected; no package-level instance.
type Client interface {
	CreateCheckoutSession(ctx context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error)
	CapturePayment(ctx context.Context, paymentRef string) error
	// RefundPayment refunds amount (full refund when amount <= 0) and
	// returns the gateway refund reference. Completion is only confirmed by
	// the matching webhook, not by this call returning.
	RefundPayment(ctx context.Context, paymentRef string, amount int64) (string, error)
	CreateTransfer(ctx context.Context, spec TransferSpec) (string, error)

	// Connected-account onboarding.
	CreateConnectAccount(ctx context.Context, email, country string) (string, error)
	CreateAccountLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error)
	CreateLoginLink(ctx context.Context, accountRef string) (string, error)
	GetAccountStatus(ctx context.Context, accountRef string) (*AccountStatus, error)
}

// Verifier checks a raw webhook body against its signature header and, on
// success, translates the gateway's event shape into a typed domain Event.
// Gateway payload taxonomies must not leak past this boundary.
type Verifier interface {
	Verify(payload []byte, sigHeader string) (*Event, error)
}
