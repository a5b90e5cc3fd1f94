package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"craftly/internal/models/db_models"
)

type WebhookEventRepositoryInterface interface {
	// MarkProcessed records the gateway event id. Returns false when the id
	// was already recorded, which is how redeliveries become no-ops.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepositoryInterface {
	return &WebhookEventRepository{db: db}
}

type WebhookEventRepository struct {
	db *gorm.DB
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	rec := db_models.ProcessedWebhookEvent{
		EventID:   eventID,
		EventType: eventType,
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
