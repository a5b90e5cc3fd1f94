package db_models

// ProcessedWebhookEvent records gateway event ids that have already been
// applied. The unique index on EventID is what makes webhook redelivery a
// no-op.
type ProcessedWebhookEvent struct {
	BaseModel
	EventID   string `gorm:"uniqueIndex;size:255"`
	EventType string `gorm:"size:64"`
}
