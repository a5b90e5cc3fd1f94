package db_models

import (
	"github.com/google/uuid"
)

// SellerAccount tracks a seller's connected payout account at the gateway.
// When PayoutsEnabled is true, checkouts are configured as destination
// charges; otherwise captured funds stay with the platform for manual payout.
type SellerAccount struct {
	BaseModel
	UserID uuid.UUID `gorm:"uniqueIndex"`

	GatewayAccountRef string `gorm:"uniqueIndex"`
	Country           string `gorm:"size:2"`

	ChargesEnabled   bool `gorm:"default:false"`
	PayoutsEnabled   bool `gorm:"default:false"`
	DetailsSubmitted bool `gorm:"default:false"`
}
