package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type DisputeStatus string

const (
	DisputeStatusOpen      DisputeStatus = "open"
	DisputeStatusMediation DisputeStatus = "mediation"
	DisputeStatusResolved  DisputeStatus = "resolved"
	DisputeStatusClosed    DisputeStatus = "closed"
)

type DisputeReason string

const (
	DisputeReasonNotDelivered  DisputeReason = "not_delivered"
	DisputeReasonPoorQuality   DisputeReason = "poor_quality"
	DisputeReasonWrongService  DisputeReason = "wrong_service"
	DisputeReasonCommunication DisputeReason = "communication_issue"
	DisputeReasonOther         DisputeReason = "other"
)

type DisputeResolution string

const (
	ResolutionPending           DisputeResolution = "pending"
	ResolutionRefundFull        DisputeResolution = "refund_full"
	ResolutionRefundPartial     DisputeResolution = "refund_partial"
	ResolutionRevisionRequested DisputeResolution = "revision_requested"
	ResolutionBuyerFavor        DisputeResolution = "buyer_favor"
	ResolutionSellerFavor       DisputeResolution = "seller_favor"
	ResolutionNoAction          DisputeResolution = "no_action"
)

// Dispute is the exception workflow attached to exactly one order. At most
// one open/mediation dispute may exist per order at a time.
type Dispute struct {
	BaseModel
	OrderID  uuid.UUID `gorm:"index"`
	BuyerID  uuid.UUID `gorm:"index"`
	SellerID uuid.UUID `gorm:"index"`

	Reason      DisputeReason `gorm:"size:32"`
	Description string

	Status     DisputeStatus     `gorm:"type:dispute_status;index"`
	Resolution DisputeResolution `gorm:"size:32"`

	// Arrays of evidence file URLs.
	BuyerEvidence  datatypes.JSON `gorm:"type:jsonb;default:'[]'"`
	SellerEvidence datatypes.JSON `gorm:"type:jsonb;default:'[]'"`

	AdminID      *uuid.UUID
	AdminNotes   string
	RefundAmount *int64
	RefundReason string

	MediationStartedAt *int64
	ResolvedAt         *int64

	Order Order `gorm:"foreignKey:OrderID"`
}
