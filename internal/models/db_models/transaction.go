package db_models

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending    TransactionStatus = "pending"
	TxnStatusAuthorized TransactionStatus = "authorized"
	TxnStatusCaptured   TransactionStatus = "captured"
	TxnStatusRefunded   TransactionStatus = "refunded"
	TxnStatusFailed     TransactionStatus = "failed"
)

// Transaction is one financial movement tied 1:1 to an Order's payment
// attempt. Funds sit authorized-uncaptured (escrow) until a release
// condition is met.
type Transaction struct {
	BaseModel
	OrderID  uuid.UUID `gorm:"uniqueIndex"`
	BuyerID  uuid.UUID `gorm:"index"`
	SellerID uuid.UUID `gorm:"index"`

	Amount         int64 // e.g., 10000 = 100.00 EUR
	PlatformFee    int64
	SellerEarnings int64
	Currency       string `gorm:"size:3"` // ISO 4217

	Status TransactionStatus `gorm:"type:transaction_status;index"`

	// Gateway fields
	GatewaySessionRef string `gorm:"index"` // checkout session id
	GatewayPaymentRef string `gorm:"index"` // payment intent id
	GatewayRefundRef  string

	// Earnings become payable once this date passes without a dispute.
	EscrowReleaseDate *int64

	// Set when a payout consumes this transaction. A transaction may be
	// referenced by at most one non-failed payout.
	PayoutID *uuid.UUID `gorm:"index"`

	// Important timestamps (unix seconds)
	AuthorizedAt *int64
	CapturedAt   *int64
	RefundedAt   *int64
	FailedAt     *int64

	// Raw gateway payload snapshots, failure reasons, etc.
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Order Order `gorm:"foreignKey:OrderID"`
}

// BuyerEmail reads the buyer contact stored in the metadata snapshot at
// checkout time. Empty when the snapshot is missing or unreadable.
func (t *Transaction) BuyerEmail() string {
	var meta struct {
		BuyerEmail string `json:"buyer_email"`
	}
	if err := json.Unmarshal(t.Metadata, &meta); err != nil {
		return ""
	}
	return meta.BuyerEmail
}
