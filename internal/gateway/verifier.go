package gateway

import (
	"encoding/json"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"craftly/pkg/utils"
)

type stripeVerifier struct {
	secret string
}

func NewStripeVerifier(webhookSecret string) Verifier {
	return &stripeVerifier{secret: webhookSecret}
}

// Verify checks the signature over the raw body, then narrows the event to
// the handful of kinds the processor acts on. The raw body must not be
// parsed as trusted input before this returns.
func (v *stripeVerifier) Verify(payload []byte, sigHeader string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrSignatureVerification, err)
	}

	out := &Event{ID: ev.ID, RawType: string(ev.Type)}

	switch ev.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("parse checkout session payload: %w", err)
		}
		out.Kind = EventCheckoutCompleted
		out.Session = &SessionPayload{
			SessionID:   sess.ID,
			AmountTotal: sess.AmountTotal,
			Currency:    string(sess.Currency),
			Metadata:    sess.Metadata,
		}
		if sess.PaymentIntent != nil {
			out.Session.PaymentRef = sess.PaymentIntent.ID
		}
		if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
			out.Session.BuyerEmail = sess.CustomerDetails.Email
		} else {
			out.Session.BuyerEmail = sess.CustomerEmail
		}

	case "payment_intent.succeeded":
		// With manual capture this only fires once the capture lands.
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("parse payment intent payload: %w", err)
		}
		out.Kind = EventPaymentCaptured
		out.Payment = &PaymentPayload{PaymentRef: pi.ID, Amount: pi.Amount}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("parse payment intent payload: %w", err)
		}
		out.Kind = EventPaymentFailed
		out.Payment = &PaymentPayload{PaymentRef: pi.ID, Amount: pi.Amount}
		if pi.LastPaymentError != nil {
			out.Payment.FailureMessage = pi.LastPaymentError.Msg
		}

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(ev.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("parse charge payload: %w", err)
		}
		out.Kind = EventChargeRefunded
		out.Refund = &RefundPayload{AmountRefunded: ch.AmountRefunded}
		if ch.PaymentIntent != nil {
			out.Refund.PaymentRef = ch.PaymentIntent.ID
		}

	case "account.updated":
		var acct stripe.Account
		if err := json.Unmarshal(ev.Data.Raw, &acct); err != nil {
			return nil, fmt.Errorf("parse account payload: %w", err)
		}
		out.Kind = EventAccountUpdated
		out.Account = &AccountPayload{
			AccountRef:       acct.ID,
			ChargesEnabled:   acct.ChargesEnabled,
			PayoutsEnabled:   acct.PayoutsEnabled,
			DetailsSubmitted: acct.DetailsSubmitted,
		}

	default:
		out.Kind = EventUnknown
	}

	return out, nil
}
