package request_models

type CreatePayoutRequest struct {
	SellerID string `json:"seller_id" binding:"required,uuid"`
	// Minor units. Must not exceed the seller's available balance.
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type ConnectAccountRequest struct {
	Country    string `json:"country" binding:"required,len=2"`
	RefreshURL string `json:"refresh_url" binding:"required,url"`
	ReturnURL  string `json:"return_url" binding:"required,url"`
}
