package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"craftly/internal/models/db_models"
)

// GigRepositoryInterface is the catalog collaborator boundary: the payment
// core only ever reads price, seller identity and title from it.
type GigRepositoryInterface interface {
	GetGigByID(ctx context.Context, gigID uuid.UUID) (*db_models.Gig, error)
}

func NewGigRepository(db *gorm.DB) GigRepositoryInterface {
	return &GigRepository{db: db}
}

type GigRepository struct {
	db *gorm.DB
}

func (r *GigRepository) GetGigByID(ctx context.Context, gigID uuid.UUID) (*db_models.Gig, error) {
	var gig db_models.Gig
	err := r.db.WithContext(ctx).Where("id = ?", gigID).First(&gig).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gig, nil
}
