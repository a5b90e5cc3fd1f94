package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"craftly/internal/models/db_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

// DisputeService runs the three-stage dispute process: open -> mediation ->
// resolved, with closed as automatic bookkeeping. Opening and escalating are
// cheap state moves; resolving is the only step that touches money, and it
// does so through the escrow service.
type DisputeService interface {
	OpenDispute(ctx context.Context, orderID, buyerID uuid.UUID, reason db_models.DisputeReason, description string, evidence []string) (*db_models.Dispute, error)
	AddSellerEvidence(ctx context.Context, disputeID, sellerID uuid.UUID, evidence []string) error
	EscalateToMediation(ctx context.Context, disputeID, adminID uuid.UUID) error
	Resolve(ctx context.Context, disputeID, adminID uuid.UUID, resolution db_models.DisputeResolution, refundAmount *int64, refundReason, adminNotes string) error

	GetDispute(ctx context.Context, disputeID, requesterID uuid.UUID, isAdmin bool) (*db_models.Dispute, error)
	ListMyDisputes(ctx context.Context, userID uuid.UUID) ([]db_models.Dispute, error)
	ListAllDisputes(ctx context.Context) ([]db_models.Dispute, error)
}

type disputeService struct {
	disputeRepo repositories.DisputeRepositoryInterface
	orderRepo   repositories.OrderRepositoryInterface
	escrow      EscrowService
}

func NewDisputeService(
	disputeRepo repositories.DisputeRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	escrow EscrowService,
) DisputeService {
	return &disputeService{
		disputeRepo: disputeRepo,
		orderRepo:   orderRepo,
		escrow:      escrow,
	}
}

func (s *disputeService) OpenDispute(ctx context.Context, orderID, buyerID uuid.UUID, reason db_models.DisputeReason, description string, evidence []string) (*db_models.Dispute, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}
	if order.BuyerID != buyerID {
		return nil, utils.ErrForbidden
	}

	switch order.Status {
	case db_models.OrderStatusInProgress, db_models.OrderStatusDelivered, db_models.OrderStatusRevision:
	default:
		return nil, fmt.Errorf("%w: order %s is %s, cannot be disputed", utils.ErrIllegalTransition, orderID, order.Status)
	}

	buyerEvidence, _ := json.Marshal(evidence)
	dispute := &db_models.Dispute{
		OrderID:       orderID,
		BuyerID:       buyerID,
		SellerID:      order.SellerID,
		Reason:        reason,
		Description:   description,
		Status:        db_models.DisputeStatusOpen,
		Resolution:    db_models.ResolutionPending,
		BuyerEvidence: buyerEvidence,
	}

	created, err := s.disputeRepo.CreateIfNoneActive(ctx, dispute)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if !created {
		return nil, utils.ErrDisputeAlreadyOpen
	}

	if err := s.escrow.MarkDisputed(ctx, orderID); err != nil {
		// The order moved (e.g. completed) between the check and here.
		// Close the dispute we just opened rather than leave it dangling.
		if _, cerr := s.disputeRepo.UpdateStatusIf(ctx, dispute.ID,
			[]db_models.DisputeStatus{db_models.DisputeStatusOpen},
			db_models.DisputeStatusClosed, nil); cerr != nil {
			log.Printf("dispute: failed to close orphaned dispute %s: %v", dispute.ID, cerr)
		}
		return nil, err
	}

	return dispute, nil
}

func (s *disputeService) AddSellerEvidence(ctx context.Context, disputeID, sellerID uuid.UUID, evidence []string) error {
	dispute, err := s.requireDispute(ctx, disputeID)
	if err != nil {
		return err
	}
	if dispute.SellerID != sellerID {
		return utils.ErrForbidden
	}
	if dispute.Status != db_models.DisputeStatusOpen && dispute.Status != db_models.DisputeStatusMediation {
		return fmt.Errorf("%w: dispute %s is %s, evidence window closed", utils.ErrIllegalTransition, disputeID, dispute.Status)
	}

	raw, _ := json.Marshal(evidence)
	if err := s.disputeRepo.SetSellerEvidence(ctx, disputeID, raw); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func (s *disputeService) EscalateToMediation(ctx context.Context, disputeID, adminID uuid.UUID) error {
	ok, err := s.disputeRepo.UpdateStatusIf(ctx, disputeID,
		[]db_models.DisputeStatus{db_models.DisputeStatusOpen},
		db_models.DisputeStatusMediation,
		map[string]interface{}{
			"admin_id":             adminID,
			"mediation_started_at": utils.NowUnixSeconds(),
		})
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		dispute, err := s.requireDispute(ctx, disputeID)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: dispute %s is %s, not open", utils.ErrIllegalTransition, disputeID, dispute.Status)
	}
	return nil
}

// Resolve applies an admin decision. Refund resolutions start an async
// refund: the order stays disputed and the dispute stays resolved until the
// refund-confirmation webhook closes both. Seller-favor outcomes capture the
// escrow right away.
func (s *disputeService) Resolve(ctx context.Context, disputeID, adminID uuid.UUID, resolution db_models.DisputeResolution, refundAmount *int64, refundReason, adminNotes string) error {
	dispute, err := s.requireDispute(ctx, disputeID)
	if err != nil {
		return err
	}

	txn, err := s.orderRepo.GetTransactionByOrderID(ctx, dispute.OrderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil {
		return utils.ErrTransactionNotFound
	}

	refund := int64(0)
	switch resolution {
	case db_models.ResolutionRefundFull, db_models.ResolutionBuyerFavor:
		refund = txn.Amount
	case db_models.ResolutionRefundPartial:
		if refundAmount == nil || *refundAmount <= 0 {
			return utils.ErrInvalidAmount
		}
		refund = *refundAmount
	}
	if refund > txn.Amount {
		return utils.ErrRefundExceedsCharge
	}

	updates := map[string]interface{}{
		"admin_id":      adminID,
		"admin_notes":   adminNotes,
		"resolution":    resolution,
		"refund_reason": refundReason,
		"resolved_at":   utils.NowUnixSeconds(),
	}
	if refund > 0 {
		updates["refund_amount"] = refund
	}

	ok, err := s.disputeRepo.UpdateStatusIf(ctx, disputeID,
		[]db_models.DisputeStatus{db_models.DisputeStatusMediation},
		db_models.DisputeStatusResolved, updates)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: dispute %s is %s, not in mediation", utils.ErrIllegalTransition, disputeID, dispute.Status)
	}

	switch resolution {
	case db_models.ResolutionRefundFull, db_models.ResolutionRefundPartial, db_models.ResolutionBuyerFavor:
		if err := s.escrow.RefundOrder(ctx, dispute.OrderID, refund); err != nil {
			// Put the dispute back so the admin can retry the resolution.
			if _, rerr := s.disputeRepo.UpdateStatusIf(ctx, disputeID,
				[]db_models.DisputeStatus{db_models.DisputeStatusResolved},
				db_models.DisputeStatusMediation, nil); rerr != nil {
				log.Printf("dispute: could not roll %s back to mediation after refund failure: %v", disputeID, rerr)
			}
			return err
		}
		// Closed by the webhook processor once charge.refunded lands.
		return nil

	case db_models.ResolutionRevisionRequested:
		if err := s.escrow.ResolveToRevision(ctx, dispute.OrderID); err != nil {
			return err
		}
		return s.closeResolved(ctx, disputeID)

	case db_models.ResolutionSellerFavor, db_models.ResolutionNoAction:
		if err := s.escrow.CompleteAndCapture(ctx, dispute.OrderID); err != nil {
			return err
		}
		return s.closeResolved(ctx, disputeID)

	default:
		return fmt.Errorf("unknown resolution %q", resolution)
	}
}

func (s *disputeService) closeResolved(ctx context.Context, disputeID uuid.UUID) error {
	if _, err := s.disputeRepo.UpdateStatusIf(ctx, disputeID,
		[]db_models.DisputeStatus{db_models.DisputeStatusResolved},
		db_models.DisputeStatusClosed, nil); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

func (s *disputeService) GetDispute(ctx context.Context, disputeID, requesterID uuid.UUID, isAdmin bool) (*db_models.Dispute, error) {
	dispute, err := s.requireDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && dispute.BuyerID != requesterID && dispute.SellerID != requesterID {
		return nil, utils.ErrForbidden
	}
	return dispute, nil
}

func (s *disputeService) ListMyDisputes(ctx context.Context, userID uuid.UUID) ([]db_models.Dispute, error) {
	disputes, err := s.disputeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return disputes, nil
}

func (s *disputeService) ListAllDisputes(ctx context.Context) ([]db_models.Dispute, error) {
	disputes, err := s.disputeRepo.ListAll(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return disputes, nil
}

func (s *disputeService) requireDispute(ctx context.Context, disputeID uuid.UUID) (*db_models.Dispute, error) {
	dispute, err := s.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if dispute == nil {
		return nil, utils.ErrDisputeNotFound
	}
	return dispute, nil
}
