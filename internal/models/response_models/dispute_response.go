package response_models

type DisputeResponse struct {
	ID           string   `json:"id"`
	OrderID      string   `json:"order_id"`
	BuyerID      string   `json:"buyer_id"`
	SellerID     string   `json:"seller_id"`
	Reason       string   `json:"reason"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Resolution   string   `json:"resolution"`
	RefundAmount *int64   `json:"refund_amount,omitempty"`
	BuyerFiles   []string `json:"buyer_evidence,omitempty"`
	SellerFiles  []string `json:"seller_evidence,omitempty"`
	CreatedAt    string   `json:"created_at"`
	ResolvedAt   string   `json:"resolved_at,omitempty"`
}
