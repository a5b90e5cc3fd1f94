package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"craftly/pkg/utils"
)

type StripeConfig struct {
	SecretKey     string // sk_xxx
	WebhookSecret string // whsec_xxx, used by the verifier
	Currency      string // default currency, e.g. "eur"
	CallTimeout   time.Duration
}

type stripeGateway struct {
	api *client.API
	cfg StripeConfig
}

// NewStripeGateway builds a gateway client around an explicitly constructed
// stripe client. Callers inject it into the services that need it.
func NewStripeGateway(cfg StripeConfig) (Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("missing stripe secret key")
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &stripeGateway{api: api, cfg: cfg}, nil
}

func (g *stripeGateway) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.cfg.CallTimeout)
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, spec CheckoutSessionSpec) (*CheckoutSession, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	currency := spec.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(spec.SuccessURL),
		CancelURL:  stripe.String(spec.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(spec.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(spec.Title),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		// Manual capture is the escrow mechanism: the authorization is held
		// until the platform instructs capture or it is voided.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			CaptureMethod: stripe.String("manual"),
		},
	}
	params.Context = ctx

	if spec.BuyerEmail != "" {
		params.CustomerEmail = stripe.String(spec.BuyerEmail)
	}

	// Destination charge: gateway retains PlatformFee for the platform and
	// routes the remainder to the connected seller account on capture.
	if spec.SellerAccountRef != "" {
		params.PaymentIntentData.ApplicationFeeAmount = stripe.Int64(spec.PlatformFee)
		params.PaymentIntentData.TransferData = &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
			Destination: stripe.String(spec.SellerAccountRef),
		}
	}

	for k, v := range spec.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", utils.ErrGateway, err)
	}

	out := &CheckoutSession{ID: sess.ID, URL: sess.URL}
	if sess.PaymentIntent != nil {
		out.PaymentRef = sess.PaymentIntent.ID
	}
	return out, nil
}

func (g *stripeGateway) CapturePayment(ctx context.Context, paymentRef string) error {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Capture(paymentRef, params); err != nil {
		return fmt.Errorf("%w: capture %s: %v", utils.ErrGateway, paymentRef, err)
	}
	return nil
}

func (g *stripeGateway) RefundPayment(ctx context.Context, paymentRef string, amount int64) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
	}
	params.Context = ctx
	if amount > 0 {
		params.Amount = stripe.Int64(amount)
	}

	ref, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: refund %s: %v", utils.ErrGateway, paymentRef, err)
	}
	return ref.ID, nil
}

func (g *stripeGateway) CreateTransfer(ctx context.Context, spec TransferSpec) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	currency := spec.Currency
	if currency == "" {
		currency = g.cfg.Currency
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(spec.Amount),
		Currency:    stripe.String(currency),
		Destination: stripe.String(spec.DestinationRef),
	}
	params.Context = ctx
	if spec.PayoutID != "" {
		params.AddMetadata("payout_id", spec.PayoutID)
	}

	tr, err := g.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: transfer to %s: %v", utils.ErrGateway, spec.DestinationRef, err)
	}
	return tr.ID, nil
}

func (g *stripeGateway) CreateConnectAccount(ctx context.Context, email, country string) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(country),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		// Most sellers are individuals, not companies.
		BusinessType: stripe.String("individual"),
	}
	params.Context = ctx

	acct, err := g.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create connect account: %v", utils.ErrGateway, err)
	}
	return acct.ID, nil
}

func (g *stripeGateway) CreateAccountLink(ctx context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountRef),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create account link: %v", utils.ErrGateway, err)
	}
	return link.URL, nil
}

func (g *stripeGateway) CreateLoginLink(ctx context.Context, accountRef string) (string, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.LoginLinkParams{Account: stripe.String(accountRef)}
	params.Context = ctx

	link, err := g.api.LoginLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create login link: %v", utils.ErrGateway, err)
	}
	return link.URL, nil
}

func (g *stripeGateway) GetAccountStatus(ctx context.Context, accountRef string) (*AccountStatus, error) {
	ctx, cancel := g.callCtx(ctx)
	defer cancel()

	params := &stripe.AccountParams{}
	params.Context = ctx

	acct, err := g.api.Accounts.GetByID(accountRef, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve account %s: %v", utils.ErrGateway, accountRef, err)
	}
	return &AccountStatus{
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}, nil
}
