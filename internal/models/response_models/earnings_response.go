package response_models

type SellerEarningsResponse struct {
	SellerID string `json:"seller_id"`
	Currency string `json:"currency"`

	// Captured, past the escrow hold window and not consumed by a payout.
	AvailableBalance int64 `json:"available_balance"`
	// Authorized-uncaptured plus captured funds still inside the hold window.
	PendingEarnings int64 `json:"pending_earnings"`
	// Lifetime captured earnings, for display.
	TotalEarnings int64 `json:"total_earnings"`
}

type PayoutResponse struct {
	ID               string `json:"id"`
	SellerID         string `json:"seller_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	GatewayPayoutRef string `json:"gateway_payout_ref,omitempty"`
	CreatedAt        string `json:"created_at"`
}

type ConnectAccountResponse struct {
	AccountRef       string `json:"account_ref"`
	OnboardingURL    string `json:"onboarding_url,omitempty"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}
