package db_models

import (
	"github.com/google/uuid"
)

// Gig carries the minimal catalog fields the payment core needs. Full
// catalog management lives in a separate service.
type Gig struct {
	BaseModel
	SellerID uuid.UUID `gorm:"index"`

	Title    string
	Price    int64  // minor units
	Currency string `gorm:"size:3"`
	Active   bool   `gorm:"default:true"`
}
