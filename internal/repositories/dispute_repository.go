package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"craftly/internal/models/db_models"
	"craftly/pkg/utils"
)

type DisputeRepositoryInterface interface {
	// CreateIfNoneActive inserts the dispute unless the order already has
	// one in open/mediation. The parent order row is locked for the check
	// so two concurrent opens cannot both pass.
	CreateIfNoneActive(ctx context.Context, dispute *db_models.Dispute) (bool, error)

	GetDisputeByID(ctx context.Context, disputeID uuid.UUID) (*db_models.Dispute, error)
	GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Dispute, error)
	HasActiveDispute(ctx context.Context, orderID uuid.UUID) (bool, error)

	UpdateStatusIf(ctx context.Context, disputeID uuid.UUID, expected []db_models.DisputeStatus, to db_models.DisputeStatus, extra map[string]interface{}) (bool, error)

	// CloseResolvedByOrder moves a resolved dispute on this order to closed.
	// Final bookkeeping once the refund confirmation has landed.
	CloseResolvedByOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	SetSellerEvidence(ctx context.Context, disputeID uuid.UUID, evidence []byte) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Dispute, error)
	ListAll(ctx context.Context) ([]db_models.Dispute, error)
}

func NewDisputeRepository(db *gorm.DB) DisputeRepositoryInterface {
	return &DisputeRepository{db: db}
}

type DisputeRepository struct {
	db *gorm.DB
}

func (r *DisputeRepository) CreateIfNoneActive(ctx context.Context, dispute *db_models.Dispute) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order db_models.Order
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", dispute.OrderID).
			First(&order).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.WithContext(ctx).Model(&db_models.Dispute{}).
			Where("order_id = ? AND status IN ?", dispute.OrderID,
				[]db_models.DisputeStatus{db_models.DisputeStatusOpen, db_models.DisputeStatusMediation}).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.WithContext(ctx).Create(dispute).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *DisputeRepository) GetDisputeByID(ctx context.Context, disputeID uuid.UUID) (*db_models.Dispute, error) {
	var dispute db_models.Dispute
	err := r.db.WithContext(ctx).Where("id = ?", disputeID).First(&dispute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dispute, nil
}

func (r *DisputeRepository) GetActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Dispute, error) {
	var dispute db_models.Dispute
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID,
			[]db_models.DisputeStatus{db_models.DisputeStatusOpen, db_models.DisputeStatusMediation}).
		First(&dispute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dispute, nil
}

func (r *DisputeRepository) HasActiveDispute(ctx context.Context, orderID uuid.UUID) (bool, error) {
	d, err := r.GetActiveByOrderID(ctx, orderID)
	if err != nil {
		return false, err
	}
	return d != nil, nil
}

func (r *DisputeRepository) UpdateStatusIf(ctx context.Context, disputeID uuid.UUID, expected []db_models.DisputeStatus, to db_models.DisputeStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": utils.NowUnixSeconds(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&db_models.Dispute{}).
		Where("id = ? AND status IN ?", disputeID, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DisputeRepository) CloseResolvedByOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&db_models.Dispute{}).
		Where("order_id = ? AND status = ?", orderID, db_models.DisputeStatusResolved).
		Updates(map[string]interface{}{
			"status":     db_models.DisputeStatusClosed,
			"updated_at": utils.NowUnixSeconds(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *DisputeRepository) SetSellerEvidence(ctx context.Context, disputeID uuid.UUID, evidence []byte) error {
	return r.db.WithContext(ctx).Model(&db_models.Dispute{}).
		Where("id = ?", disputeID).
		Update("seller_evidence", evidence).Error
}

func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]db_models.Dispute, error) {
	var disputes []db_models.Dispute
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&disputes).Error
	if err != nil {
		return nil, err
	}
	return disputes, nil
}

func (r *DisputeRepository) ListAll(ctx context.Context) ([]db_models.Dispute, error) {
	var disputes []db_models.Dispute
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&disputes).Error
	if err != nil {
		return nil, err
	}
	return disputes, nil
}
