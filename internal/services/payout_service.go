package services

import (
	"context"
	"log"

	"github.com/google/uuid"

	"craftly/internal/gateway"
	"craftly/internal/models/db_models"
	"craftly/internal/models/response_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

type PayoutConfig struct {
	Currency string
}

// PayoutService batches settled seller earnings into transfers to a seller's
// connected account. Invariant: a captured transaction funds at most one
// payout, ever. Consumption happens before the transfer call so a crash can
// only over-reserve, never double-pay; a failed transfer releases the rows.
type PayoutService interface {
	GetSellerEarnings(ctx context.Context, sellerID uuid.UUID) (*response_models.SellerEarningsResponse, error)
	CreatePayout(ctx context.Context, sellerID uuid.UUID, amount int64) (*response_models.PayoutResponse, error)
	ListPayouts(ctx context.Context, sellerID uuid.UUID) ([]response_models.PayoutResponse, error)
}

type payoutService struct {
	payoutRepo  repositories.PayoutRepositoryInterface
	accountRepo repositories.SellerAccountRepositoryInterface
	gw          gateway.Client
	cfg         PayoutConfig
}

func NewPayoutService(
	payoutRepo repositories.PayoutRepositoryInterface,
	accountRepo repositories.SellerAccountRepositoryInterface,
	gw gateway.Client,
	cfg PayoutConfig,
) PayoutService {
	return &payoutService{
		payoutRepo:  payoutRepo,
		accountRepo: accountRepo,
		gw:          gw,
		cfg:         cfg,
	}
}

func (s *payoutService) GetSellerEarnings(ctx context.Context, sellerID uuid.UUID) (*response_models.SellerEarningsResponse, error) {
	totals, err := s.payoutRepo.SumSellerEarnings(ctx, sellerID, utils.NowUnixSeconds())
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return &response_models.SellerEarningsResponse{
		SellerID:         sellerID.String(),
		Currency:         s.cfg.Currency,
		AvailableBalance: totals.Available,
		PendingEarnings:  totals.Pending,
		TotalEarnings:    totals.Total,
	}, nil
}

func (s *payoutService) CreatePayout(ctx context.Context, sellerID uuid.UUID, amount int64) (*response_models.PayoutResponse, error) {
	if amount <= 0 {
		return nil, utils.ErrInvalidAmount
	}

	account, err := s.accountRepo.GetByUserID(ctx, sellerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil || !account.PayoutsEnabled {
		return nil, utils.ErrPayoutNotFound
	}

	now := utils.NowUnixSeconds()
	totals, err := s.payoutRepo.SumSellerEarnings(ctx, sellerID, now)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if amount > totals.Available {
		return nil, utils.ErrInsufficientBalance
	}

	txns, err := s.payoutRepo.SelectPayableTransactions(ctx, sellerID, amount, now)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txns == nil {
		// Balance moved between the sum and the selection.
		return nil, utils.ErrInsufficientBalance
	}

	payout := &db_models.Payout{
		SellerID: sellerID,
		Amount:   amount,
		Currency: s.cfg.Currency,
		Status:   db_models.PayoutStatusPending,
	}
	if err := s.payoutRepo.CreatePayout(ctx, payout); err != nil {
		return nil, utils.ErrDatabaseError
	}

	txnIDs := make([]uuid.UUID, 0, len(txns))
	for _, t := range txns {
		txnIDs = append(txnIDs, t.ID)
	}
	consumed, err := s.payoutRepo.ConsumeTransactions(ctx, payout.ID, txnIDs)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !consumed {
		// A concurrent payout claimed one of the rows first.
		if uerr := s.payoutRepo.UpdatePayoutStatus(ctx, payout.ID, db_models.PayoutStatusFailed,
			map[string]interface{}{"failure_reason": "transactions contended"}); uerr != nil {
			log.Printf("payout: failed to mark contended payout %s failed: %v", payout.ID, uerr)
		}
		return nil, utils.ErrConflict
	}

	// Earnings are reserved and the transfer is about to leave; a crash from
	// here on shows up as a processing payout for the reconciliation sweep.
	if err := s.payoutRepo.UpdatePayoutStatus(ctx, payout.ID, db_models.PayoutStatusProcessing, nil); err != nil {
		log.Printf("payout: failed to mark payout %s processing: %v", payout.ID, err)
	}

	transferRef, err := s.gw.CreateTransfer(ctx, gateway.TransferSpec{
		Amount:         amount,
		Currency:       s.cfg.Currency,
		DestinationRef: account.GatewayAccountRef,
		PayoutID:       payout.ID.String(),
	})
	if err != nil {
		if rerr := s.payoutRepo.ReleaseTransactions(ctx, payout.ID); rerr != nil {
			log.Printf("payout: failed to release transactions for %s after transfer failure: %v", payout.ID, rerr)
		}
		if uerr := s.payoutRepo.UpdatePayoutStatus(ctx, payout.ID, db_models.PayoutStatusFailed,
			map[string]interface{}{"failure_reason": err.Error()}); uerr != nil {
			log.Printf("payout: failed to mark payout %s failed: %v", payout.ID, uerr)
		}
		return nil, err
	}

	if err := s.payoutRepo.UpdatePayoutStatus(ctx, payout.ID, db_models.PayoutStatusPaid,
		map[string]interface{}{
			"gateway_payout_ref": transferRef,
			"paid_at":            utils.NowUnixSeconds(),
		}); err != nil {
		// The transfer went through; the status update will be retried by a
		// reconciliation sweep. Surface the payout as paid regardless.
		log.Printf("payout: transfer %s succeeded but status update failed for %s: %v", transferRef, payout.ID, err)
	}

	payout.Status = db_models.PayoutStatusPaid
	payout.GatewayPayoutRef = transferRef
	resp := toPayoutResponse(payout)
	return &resp, nil
}

func (s *payoutService) ListPayouts(ctx context.Context, sellerID uuid.UUID) ([]response_models.PayoutResponse, error) {
	payouts, err := s.payoutRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	out := make([]response_models.PayoutResponse, 0, len(payouts))
	for i := range payouts {
		out = append(out, toPayoutResponse(&payouts[i]))
	}
	return out, nil
}

func toPayoutResponse(p *db_models.Payout) response_models.PayoutResponse {
	return response_models.PayoutResponse{
		ID:               p.ID.String(),
		SellerID:         p.SellerID.String(),
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           string(p.Status),
		GatewayPayoutRef: p.GatewayPayoutRef,
		CreatedAt:        utils.FormatRFC3339(utils.FromUnixSeconds(p.CreatedAt)),
	}
}
