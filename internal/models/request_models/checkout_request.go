package request_models

type CreateCheckoutRequest struct {
	GigID           string `json:"gig_id" binding:"required,uuid"`
	SelectedVariant string `json:"selected_variant"`
	BuyerMessage    string `json:"buyer_message"`
	// Origin of the calling page, used to build success/cancel URLs.
	Origin string `json:"origin" binding:"required,url"`
}
