package request_models

type CreateDisputeRequest struct {
	OrderID     string   `json:"order_id" binding:"required,uuid"`
	Reason      string   `json:"reason" binding:"required,oneof=not_delivered poor_quality wrong_service communication_issue other"`
	Description string   `json:"description" binding:"required,min=50"`
	Evidence    []string `json:"evidence"`
}

// OpenOrderDisputeRequest is the path-scoped variant, the order id comes
// from the URL.
type OpenOrderDisputeRequest struct {
	Reason      string   `json:"reason" binding:"required,oneof=not_delivered poor_quality wrong_service communication_issue other"`
	Description string   `json:"description" binding:"required,min=50"`
	Evidence    []string `json:"evidence"`
}

type AddEvidenceRequest struct {
	Evidence []string `json:"evidence" binding:"required,min=1"`
	Notes    string   `json:"notes"`
}

type ResolveDisputeRequest struct {
	Resolution   string `json:"resolution" binding:"required,oneof=refund_full refund_partial revision_requested buyer_favor seller_favor no_action"`
	RefundAmount *int64 `json:"refund_amount"`
	RefundReason string `json:"refund_reason"`
	AdminNotes   string `json:"admin_notes" binding:"required"`
}
