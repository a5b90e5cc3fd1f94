package response_models

type TransactionSummary struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Amount            int64  `json:"amount"`
	PlatformFee       int64  `json:"platform_fee"`
	SellerEarnings    int64  `json:"seller_earnings"`
	Currency          string `json:"currency"`
	EscrowReleaseDate string `json:"escrow_release_date,omitempty"`
}

type OrderResponse struct {
	ID              string `json:"id"`
	GigID           string `json:"gig_id"`
	BuyerID         string `json:"buyer_id"`
	SellerID        string `json:"seller_id"`
	Status          string `json:"status"`
	TotalAmount     int64  `json:"total_amount"`
	PlatformFee     int64  `json:"platform_fee"`
	SellerEarnings  int64  `json:"seller_earnings"`
	SelectedVariant string `json:"selected_variant,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`

	Transaction *TransactionSummary `json:"transaction,omitempty"`
}
