package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"craftly/internal/models/db_models"
	"craftly/pkg/utils"
)

// EarningsTotals is the aggregation the payout accountant reads.
type EarningsTotals struct {
	Available int64
	Pending   int64
	Total     int64
}

type PayoutRepositoryInterface interface {
	// SumSellerEarnings aggregates captured transactions for one seller.
	// "now" decides which captured funds have cleared the escrow hold.
	SumSellerEarnings(ctx context.Context, sellerID uuid.UUID, now int64) (*EarningsTotals, error)

	// SelectPayableTransactions returns released, unconsumed captured
	// transactions oldest-first whose earnings cover at least amount.
	SelectPayableTransactions(ctx context.Context, sellerID uuid.UUID, amount int64, now int64) ([]db_models.Transaction, error)

	CreatePayout(ctx context.Context, payout *db_models.Payout) error
	GetPayoutByID(ctx context.Context, payoutID uuid.UUID) (*db_models.Payout, error)

	// ConsumeTransactions stamps payoutID onto the given transactions,
	// guarded so an already-consumed transaction is never claimed twice.
	// Returns false (and consumes nothing) when any row was contended.
	ConsumeTransactions(ctx context.Context, payoutID uuid.UUID, txnIDs []uuid.UUID) (bool, error)
	// ReleaseTransactions undoes consumption after a failed transfer.
	ReleaseTransactions(ctx context.Context, payoutID uuid.UUID) error

	UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, to db_models.PayoutStatus, extra map[string]interface{}) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]db_models.Payout, error)
}

func NewPayoutRepository(db *gorm.DB) PayoutRepositoryInterface {
	return &PayoutRepository{db: db}
}

type PayoutRepository struct {
	db *gorm.DB
}

func (r *PayoutRepository) SumSellerEarnings(ctx context.Context, sellerID uuid.UUID, now int64) (*EarningsTotals, error) {
	totals := &EarningsTotals{}

	type row struct{ Sum int64 }
	var res row

	// Captured, released from escrow, not yet consumed by a payout.
	err := r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Select("COALESCE(SUM(seller_earnings), 0) AS sum").
		Where("seller_id = ? AND status = ? AND payout_id IS NULL AND escrow_release_date IS NOT NULL AND escrow_release_date <= ?",
			sellerID, db_models.TxnStatusCaptured, now).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	totals.Available = res.Sum

	// Captured but still inside the hold window.
	err = r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Select("COALESCE(SUM(seller_earnings), 0) AS sum").
		Where("seller_id = ? AND status = ? AND payout_id IS NULL AND (escrow_release_date IS NULL OR escrow_release_date > ?)",
			sellerID, db_models.TxnStatusCaptured, now).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	totals.Pending = res.Sum

	// Authorized but not yet captured also counts as pending.
	err = r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Select("COALESCE(SUM(seller_earnings), 0) AS sum").
		Where("seller_id = ? AND status = ?", sellerID, db_models.TxnStatusAuthorized).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	totals.Pending += res.Sum

	err = r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Select("COALESCE(SUM(seller_earnings), 0) AS sum").
		Where("seller_id = ? AND status = ?", sellerID, db_models.TxnStatusCaptured).
		Scan(&res).Error
	if err != nil {
		return nil, err
	}
	totals.Total = res.Sum

	return totals, nil
}

func (r *PayoutRepository) SelectPayableTransactions(ctx context.Context, sellerID uuid.UUID, amount int64, now int64) ([]db_models.Transaction, error) {
	var txns []db_models.Transaction
	err := r.db.WithContext(ctx).
		Where("seller_id = ? AND status = ? AND payout_id IS NULL AND escrow_release_date IS NOT NULL AND escrow_release_date <= ?",
			sellerID, db_models.TxnStatusCaptured, now).
		Order("captured_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	selected := make([]db_models.Transaction, 0, len(txns))
	var covered int64
	for _, t := range txns {
		if covered >= amount {
			break
		}
		selected = append(selected, t)
		covered += t.SellerEarnings
	}
	if covered < amount {
		return nil, nil
	}
	return selected, nil
}

func (r *PayoutRepository) CreatePayout(ctx context.Context, payout *db_models.Payout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *PayoutRepository) GetPayoutByID(ctx context.Context, payoutID uuid.UUID) (*db_models.Payout, error) {
	var payout db_models.Payout
	err := r.db.WithContext(ctx).Where("id = ?", payoutID).First(&payout).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payout, nil
}

func (r *PayoutRepository) ConsumeTransactions(ctx context.Context, payoutID uuid.UUID, txnIDs []uuid.UUID) (bool, error) {
	ok := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.WithContext(ctx).Model(&db_models.Transaction{}).
			Where("id IN ? AND status = ? AND payout_id IS NULL", txnIDs, db_models.TxnStatusCaptured).
			Updates(map[string]interface{}{
				"payout_id":  payoutID,
				"updated_at": utils.NowUnixSeconds(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(txnIDs)) {
			// Someone else consumed one of these in between; roll back so
			// no transaction is left half-claimed.
			return gorm.ErrInvalidTransaction
		}
		ok = true
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidTransaction) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

func (r *PayoutRepository) ReleaseTransactions(ctx context.Context, payoutID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Where("payout_id = ?", payoutID).
		Update("payout_id", nil).Error
}

func (r *PayoutRepository) UpdatePayoutStatus(ctx context.Context, payoutID uuid.UUID, to db_models.PayoutStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": utils.NowUnixSeconds(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	return r.db.WithContext(ctx).Model(&db_models.Payout{}).
		Where("id = ?", payoutID).
		Updates(updates).Error
}

func (r *PayoutRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]db_models.Payout, error) {
	var payouts []db_models.Payout
	err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}
