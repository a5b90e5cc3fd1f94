package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"craftly/internal/models/db_models"
	"craftly/pkg/utils"
)

type SellerAccountRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*db_models.SellerAccount, error)
	GetByAccountRef(ctx context.Context, accountRef string) (*db_models.SellerAccount, error)
	Create(ctx context.Context, account *db_models.SellerAccount) error
	UpdateCapabilities(ctx context.Context, accountRef string, chargesEnabled, payoutsEnabled, detailsSubmitted bool) error
}

func NewSellerAccountRepository(db *gorm.DB) SellerAccountRepositoryInterface {
	return &SellerAccountRepository{db: db}
}

type SellerAccountRepository struct {
	db *gorm.DB
}

func (r *SellerAccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*db_models.SellerAccount, error) {
	var account db_models.SellerAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *SellerAccountRepository) GetByAccountRef(ctx context.Context, accountRef string) (*db_models.SellerAccount, error) {
	var account db_models.SellerAccount
	err := r.db.WithContext(ctx).Where("gateway_account_ref = ?", accountRef).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *SellerAccountRepository) Create(ctx context.Context, account *db_models.SellerAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *SellerAccountRepository) UpdateCapabilities(ctx context.Context, accountRef string, chargesEnabled, payoutsEnabled, detailsSubmitted bool) error {
	return r.db.WithContext(ctx).Model(&db_models.SellerAccount{}).
		Where("gateway_account_ref = ?", accountRef).
		Updates(map[string]interface{}{
			"charges_enabled":   chargesEnabled,
			"payouts_enabled":   payoutsEnabled,
			"details_submitted": detailsSubmitted,
			"updated_at":        utils.NowUnixSeconds(),
		}).Error
}
