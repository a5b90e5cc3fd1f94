package db_models

import (
	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusPaid       PayoutStatus = "paid"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Payout is a batched transfer of settled seller earnings to the seller's
// connected account. Source transactions are linked via Transaction.PayoutID.
type Payout struct {
	BaseModel
	SellerID uuid.UUID `gorm:"index"`

	Amount   int64
	Currency string `gorm:"size:3"`

	Status PayoutStatus `gorm:"type:payout_status;index"`

	GatewayPayoutRef string `gorm:"index"`
	PaidAt           *int64
	FailureReason    string
}
