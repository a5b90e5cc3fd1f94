package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"craftly/internal/gateway"
	"craftly/internal/models/db_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

type EscrowConfig struct {
	// Days a delivered order waits before funds auto-release without buyer
	// action. Business policy, so configurable rather than hard-coded.
	HoldDays int
}

func (c EscrowConfig) holdWindow() time.Duration {
	days := c.HoldDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// EscrowService owns the Order/Transaction state machine. Transitions are
// persisted through compare-and-swap updates keyed on the current status, so
// concurrent webhook deliveries and user actions serialize per order at the
// database. External gateway calls are never made while a row is "held": we
// read state, decide, call out, then re-validate with another CAS.
type EscrowService interface {
	// Buyer/seller driven transitions.
	SubmitDelivery(ctx context.Context, orderID, sellerID uuid.UUID, deliveryNote string) error
	AcceptDelivery(ctx context.Context, orderID, buyerID uuid.UUID) error
	RequestRevision(ctx context.Context, orderID, buyerID uuid.UUID) error
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) error

	// Webhook-driven transitions.
	ConfirmPayment(ctx context.Context, payload *gateway.SessionPayload) error
	ConfirmCapture(ctx context.Context, paymentRef string) error
	ConfirmPaymentFailed(ctx context.Context, paymentRef, reason string) error
	ConfirmRefund(ctx context.Context, paymentRef string, amountRefunded int64) (orderID uuid.UUID, err error)

	// Dispute-engine hooks.
	MarkDisputed(ctx context.Context, orderID uuid.UUID) error
	ResolveToRevision(ctx context.Context, orderID uuid.UUID) error
	CompleteAndCapture(ctx context.Context, orderID uuid.UUID) error
	RefundOrder(ctx context.Context, orderID uuid.UUID, amount int64) error

	// RunAutoRelease captures escrowed funds for delivered orders past the
	// hold window with no active dispute. Idempotent against concurrent
	// buyer acceptance.
	RunAutoRelease(ctx context.Context) error
}

type escrowService struct {
	orderRepo   repositories.OrderRepositoryInterface
	disputeRepo repositories.DisputeRepositoryInterface
	gw          gateway.Client
	fees        FeeSplitService
	mail        IMailService
	cfg         EscrowConfig
}

func NewEscrowService(
	orderRepo repositories.OrderRepositoryInterface,
	disputeRepo repositories.DisputeRepositoryInterface,
	gw gateway.Client,
	fees FeeSplitService,
	mail IMailService,
	cfg EscrowConfig,
) EscrowService {
	return &escrowService{
		orderRepo:   orderRepo,
		disputeRepo: disputeRepo,
		gw:          gw,
		fees:        fees,
		mail:        mail,
		cfg:         cfg,
	}
}

func (s *escrowService) SubmitDelivery(ctx context.Context, orderID, sellerID uuid.UUID, deliveryNote string) error {
	order, err := s.requireOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != sellerID {
		return utils.ErrForbidden
	}

	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{db_models.OrderStatusInProgress, db_models.OrderStatusRevision},
		db_models.OrderStatusDelivered,
		map[string]interface{}{
			"delivered_at":    utils.NowUnixSeconds(),
			"seller_delivery": deliveryNote,
		})
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: order %s cannot move to delivered from %s", utils.ErrIllegalTransition, orderID, order.Status)
	}

	// Notify the buyer that the acceptance window has started. Mail failures
	// never roll back a state transition.
	if s.mail != nil {
		if txn, terr := s.orderRepo.GetTransactionByOrderID(ctx, orderID); terr == nil && txn != nil {
			if email := txn.BuyerEmail(); email != "" {
				go func() {
					if merr := s.mail.SendDeliveryNotice(email, orderID.String()); merr != nil {
						log.Printf("escrow: delivery notice for order %s failed: %v", orderID, merr)
					}
				}()
			}
		}
	}
	return nil
}

// AcceptDelivery is the buyer releasing escrow: the transaction is captured
// first, then the order completes. An order must never read completed while
// its funds are still uncaptured.
func (s *escrowService) AcceptDelivery(ctx context.Context, orderID, buyerID uuid.UUID) error {
	order, err := s.requireOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return utils.ErrForbidden
	}
	if order.Status != db_models.OrderStatusDelivered {
		return fmt.Errorf("%w: order %s is %s, not delivered", utils.ErrIllegalTransition, orderID, order.Status)
	}

	return s.CompleteAndCapture(ctx, orderID)
}

func (s *escrowService) RequestRevision(ctx context.Context, orderID, buyerID uuid.UUID) error {
	order, err := s.requireOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return utils.ErrForbidden
	}

	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{db_models.OrderStatusDelivered},
		db_models.OrderStatusRevision, nil)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: order %s cannot move to revision from %s", utils.ErrIllegalTransition, orderID, order.Status)
	}
	return nil
}

// CancelOrder handles pre-delivery cancellation by the buyer or seller. The
// order is cancelled right away; money comes back through the refund webhook
// once the gateway confirms.
func (s *escrowService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) error {
	order, err := s.requireOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return utils.ErrForbidden
	}

	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{db_models.OrderStatusPending, db_models.OrderStatusInProgress},
		db_models.OrderStatusCancelled, nil)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: order %s cannot be cancelled from %s", utils.ErrIllegalTransition, orderID, order.Status)
	}

	txn, err := s.orderRepo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil || txn.Status == db_models.TxnStatusPending {
		// Nothing was authorized yet; cancelling the order is enough. If the
		// session still completes, ConfirmPayment sees the cancelled order
		// and releases the fresh authorization.
		return nil
	}
	if txn.Status != db_models.TxnStatusAuthorized {
		log.Printf("escrow: order %s cancelled but transaction %s is %s, funds untouched, needs reconciliation", orderID, txn.ID, txn.Status)
		return nil
	}

	// Release the authorization. The transaction stays authorized locally
	// until charge.refunded confirms.
	refundRef, err := s.gw.RefundPayment(ctx, txn.GatewayPaymentRef, 0)
	if err != nil {
		log.Printf("escrow: cancel refund failed for order %s payment %s, needs reconciliation: %v", orderID, txn.GatewayPaymentRef, err)
		return err
	}
	if err := s.orderRepo.SetTransactionRefundRef(ctx, txn.ID, refundRef); err != nil {
		log.Printf("escrow: refund %s started for order %s but reference not persisted: %v", refundRef, orderID, err)
	}
	return nil
}

// ConfirmPayment applies checkout.session.completed: transaction pending ->
// authorized, order pending -> in_progress. If checkout persistence was lost
// the order pair is rebuilt from session metadata, so payment confirmation
// is never dropped.
func (s *escrowService) ConfirmPayment(ctx context.Context, payload *gateway.SessionPayload) error {
	txn, err := s.orderRepo.GetTransactionBySessionRef(ctx, payload.SessionID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil {
		txn, err = s.rebuildFromSession(ctx, payload)
		if err != nil {
			return err
		}
	}

	if payload.PaymentRef != "" && txn.GatewayPaymentRef == "" {
		if err := s.orderRepo.SetTransactionPaymentRef(ctx, txn.ID, payload.PaymentRef); err != nil {
			return utils.ErrDatabaseError
		}
	}

	now := utils.NowUnixSeconds()
	if _, err := s.orderRepo.UpdateTransactionStatusIf(ctx, txn.ID,
		[]db_models.TransactionStatus{db_models.TxnStatusPending},
		db_models.TxnStatusAuthorized,
		map[string]interface{}{"authorized_at": now}); err != nil {
		return utils.ErrDatabaseError
	}

	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, txn.OrderID,
		[]db_models.OrderStatus{db_models.OrderStatusPending},
		db_models.OrderStatusInProgress, nil)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return s.releaseIfCancelled(ctx, txn, payload.PaymentRef)
	}
	return nil
}

// releaseIfCancelled handles a session completing after the buyer already
// cancelled the pending order: the authorization just taken must not stay
// held against a dead order, so a full refund is started right away. Any
// other non-pending order state is a replay and needs nothing.
func (s *escrowService) releaseIfCancelled(ctx context.Context, txn *db_models.Transaction, paymentRef string) error {
	order, err := s.requireOrder(ctx, txn.OrderID)
	if err != nil {
		return err
	}
	if order.Status != db_models.OrderStatusCancelled {
		return nil
	}

	// Only a live authorization with no refund underway gets released;
	// anything else means an earlier delivery already handled it.
	fresh, err := s.orderRepo.GetTransactionByOrderID(ctx, txn.OrderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if fresh == nil || fresh.Status != db_models.TxnStatusAuthorized || fresh.GatewayRefundRef != "" {
		return nil
	}

	if paymentRef == "" {
		paymentRef = fresh.GatewayPaymentRef
	}
	refundRef, err := s.gw.RefundPayment(ctx, paymentRef, 0)
	if err != nil {
		log.Printf("escrow: order %s cancelled before payment confirmation, release of payment %s failed, needs reconciliation: %v", txn.OrderID, paymentRef, err)
		return err
	}
	if err := s.orderRepo.SetTransactionRefundRef(ctx, txn.ID, refundRef); err != nil {
		log.Printf("escrow: refund %s started for order %s but reference not persisted: %v", refundRef, txn.OrderID, err)
	}
	log.Printf("escrow: order %s was cancelled before payment confirmation, authorization released pending refund webhook", txn.OrderID)
	return nil
}

func (s *escrowService) ConfirmCapture(ctx context.Context, paymentRef string) error {
	txn, err := s.requireTransactionByPaymentRef(ctx, paymentRef)
	if err != nil {
		return err
	}
	if txn.Status == db_models.TxnStatusCaptured {
		return nil
	}

	now := utils.NowUnixSeconds()
	release := time.Now().Add(s.cfg.holdWindow()).Unix()
	ok, err := s.orderRepo.UpdateTransactionStatusIf(ctx, txn.ID,
		[]db_models.TransactionStatus{db_models.TxnStatusAuthorized},
		db_models.TxnStatusCaptured,
		map[string]interface{}{"captured_at": now, "escrow_release_date": release})
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		// pending -> captured would skip the authorization confirmation;
		// refunded/failed -> captured is a replay of a stale event.
		log.Printf("escrow: capture event for payment %s ignored, transaction is %s", paymentRef, txn.Status)
	}
	return nil
}

func (s *escrowService) ConfirmPaymentFailed(ctx context.Context, paymentRef, reason string) error {
	txn, err := s.requireTransactionByPaymentRef(ctx, paymentRef)
	if err != nil {
		return err
	}

	now := utils.NowUnixSeconds()
	if _, err := s.orderRepo.UpdateTransactionStatusIf(ctx, txn.ID,
		[]db_models.TransactionStatus{db_models.TxnStatusPending, db_models.TxnStatusAuthorized},
		db_models.TxnStatusFailed,
		map[string]interface{}{"failed_at": now}); err != nil {
		return utils.ErrDatabaseError
	}

	if _, err := s.orderRepo.UpdateOrderStatusIf(ctx, txn.OrderID,
		[]db_models.OrderStatus{db_models.OrderStatusPending, db_models.OrderStatusInProgress},
		db_models.OrderStatusCancelled, nil); err != nil {
		return utils.ErrDatabaseError
	}
	if reason != "" {
		log.Printf("escrow: payment %s failed: %s", paymentRef, reason)
	}
	return nil
}

// ConfirmRefund applies charge.refunded: transaction -> refunded, order ->
// cancelled. This is the confirmation leg of refunds started by disputes or
// cancellations; nothing is refunded optimistically before this event.
func (s *escrowService) ConfirmRefund(ctx context.Context, paymentRef string, amountRefunded int64) (uuid.UUID, error) {
	txn, err := s.requireTransactionByPaymentRef(ctx, paymentRef)
	if err != nil {
		return uuid.Nil, err
	}

	now := utils.NowUnixSeconds()
	ok, err := s.orderRepo.UpdateTransactionStatusIf(ctx, txn.ID,
		[]db_models.TransactionStatus{db_models.TxnStatusAuthorized, db_models.TxnStatusCaptured},
		db_models.TxnStatusRefunded,
		map[string]interface{}{"refunded_at": now})
	if err != nil {
		return uuid.Nil, utils.ErrDatabaseError
	}
	if !ok && txn.Status != db_models.TxnStatusRefunded {
		log.Printf("escrow: refund event for payment %s ignored, transaction is %s", paymentRef, txn.Status)
		return txn.OrderID, nil
	}

	// Cancelled-already is fine (pre-delivery cancellation path).
	if _, err := s.orderRepo.UpdateOrderStatusIf(ctx, txn.OrderID,
		[]db_models.OrderStatus{
			db_models.OrderStatusPending, db_models.OrderStatusInProgress,
			db_models.OrderStatusDelivered, db_models.OrderStatusRevision,
			db_models.OrderStatusDisputed,
		},
		db_models.OrderStatusCancelled, nil); err != nil {
		return uuid.Nil, utils.ErrDatabaseError
	}
	log.Printf("escrow: refund of %d confirmed for order %s", amountRefunded, txn.OrderID)
	return txn.OrderID, nil
}

func (s *escrowService) MarkDisputed(ctx context.Context, orderID uuid.UUID) error {
	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{
			db_models.OrderStatusInProgress, db_models.OrderStatusDelivered,
			db_models.OrderStatusRevision,
		},
		db_models.OrderStatusDisputed, nil)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: order %s cannot be disputed", utils.ErrIllegalTransition, orderID)
	}
	return nil
}

func (s *escrowService) ResolveToRevision(ctx context.Context, orderID uuid.UUID) error {
	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{db_models.OrderStatusDisputed},
		db_models.OrderStatusRevision, nil)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		return fmt.Errorf("%w: order %s is not disputed", utils.ErrIllegalTransition, orderID)
	}
	return nil
}

// CompleteAndCapture captures the escrowed funds and then completes the
// order. Used by buyer acceptance, seller-favor dispute resolutions and the
// auto-release job; all three may race and each leg is a CAS, so the money
// moves exactly once.
func (s *escrowService) CompleteAndCapture(ctx context.Context, orderID uuid.UUID) error {
	txn, err := s.orderRepo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil {
		return utils.ErrTransactionNotFound
	}

	switch txn.Status {
	case db_models.TxnStatusCaptured:
		// Already captured (concurrent release or webhook); just complete.
	case db_models.TxnStatusAuthorized:
		if err := s.gw.CapturePayment(ctx, txn.GatewayPaymentRef); err != nil {
			// Unknown outcome: the capture may have landed. Do not guess;
			// the payment.captured webhook or the next release tick settles it.
			log.Printf("escrow: capture call failed for order %s payment %s, relying on webhook reconciliation: %v", orderID, txn.GatewayPaymentRef, err)
			return err
		}
		now := utils.NowUnixSeconds()
		release := time.Now().Add(s.cfg.holdWindow()).Unix()
		ok, err := s.orderRepo.UpdateTransactionStatusIf(ctx, txn.ID,
			[]db_models.TransactionStatus{db_models.TxnStatusAuthorized},
			db_models.TxnStatusCaptured,
			map[string]interface{}{"captured_at": now, "escrow_release_date": release})
		if err != nil {
			return utils.ErrDatabaseError
		}
		if !ok {
			// The capture webhook got there first; verify it agrees.
			fresh, err := s.orderRepo.GetTransactionByOrderID(ctx, orderID)
			if err != nil {
				return utils.ErrDatabaseError
			}
			if fresh == nil || fresh.Status != db_models.TxnStatusCaptured {
				log.Printf("escrow: captured at gateway but local transaction for order %s is inconsistent, flagging for reconciliation", orderID)
				return utils.ErrConflict
			}
		}
	default:
		return fmt.Errorf("%w: transaction for order %s is %s, cannot capture", utils.ErrIllegalTransition, orderID, txn.Status)
	}

	ok, err := s.orderRepo.UpdateOrderStatusIf(ctx, orderID,
		[]db_models.OrderStatus{db_models.OrderStatusDelivered, db_models.OrderStatusDisputed},
		db_models.OrderStatusCompleted,
		map[string]interface{}{"completed_at": utils.NowUnixSeconds()})
	if err != nil {
		return utils.ErrDatabaseError
	}
	if !ok {
		order, err := s.requireOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == db_models.OrderStatusCompleted {
			return nil
		}
		return fmt.Errorf("%w: order %s cannot complete from %s", utils.ErrIllegalTransition, orderID, order.Status)
	}
	return nil
}

// RefundOrder starts a refund at the gateway for a dispute resolution.
// amount <= 0 refunds in full. Local state is left untouched: the order
// remains disputed until ConfirmRefund applies the webhook.
func (s *escrowService) RefundOrder(ctx context.Context, orderID uuid.UUID, amount int64) error {
	txn, err := s.orderRepo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil {
		return utils.ErrTransactionNotFound
	}
	if txn.Status != db_models.TxnStatusAuthorized && txn.Status != db_models.TxnStatusCaptured {
		return fmt.Errorf("%w: transaction for order %s is %s, cannot refund", utils.ErrIllegalTransition, orderID, txn.Status)
	}
	if amount > txn.Amount {
		return utils.ErrRefundExceedsCharge
	}

	refundRef, err := s.gw.RefundPayment(ctx, txn.GatewayPaymentRef, amount)
	if err != nil {
		log.Printf("escrow: refund call failed for order %s payment %s, needs reconciliation: %v", orderID, txn.GatewayPaymentRef, err)
		return err
	}
	if err := s.orderRepo.SetTransactionRefundRef(ctx, txn.ID, refundRef); err != nil {
		log.Printf("escrow: refund %s started for order %s but reference not persisted: %v", refundRef, orderID, err)
	}
	return nil
}

func (s *escrowService) RunAutoRelease(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.holdWindow()).Unix()
	orders, err := s.orderRepo.ListReleasableOrders(ctx, cutoff, 100)
	if err != nil {
		return err
	}

	for _, order := range orders {
		// An active dispute pauses the release timer for its order.
		active, err := s.disputeRepo.HasActiveDispute(ctx, order.ID)
		if err != nil {
			log.Printf("escrow: auto-release dispute check failed for order %s: %v", order.ID, err)
			continue
		}
		if active {
			continue
		}

		if err := s.CompleteAndCapture(ctx, order.ID); err != nil {
			// A concurrent buyer acceptance makes this a no-op conflict.
			log.Printf("escrow: auto-release skipped order %s: %v", order.ID, err)
		} else {
			log.Printf("escrow: auto-released order %s after %d day hold", order.ID, s.cfg.HoldDays)
		}
	}
	return nil
}

func (s *escrowService) requireOrder(ctx context.Context, orderID uuid.UUID) (*db_models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}
	return order, nil
}

func (s *escrowService) requireTransactionByPaymentRef(ctx context.Context, paymentRef string) (*db_models.Transaction, error) {
	txn, err := s.orderRepo.GetTransactionByPaymentRef(ctx, paymentRef)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}
	return txn, nil
}

// rebuildFromSession recreates the Order/Transaction pair from checkout
// session metadata when local persistence failed after session creation.
func (s *escrowService) rebuildFromSession(ctx context.Context, payload *gateway.SessionPayload) (*db_models.Transaction, error) {
	orderID, err1 := uuid.Parse(payload.Metadata["order_id"])
	gigID, err2 := uuid.Parse(payload.Metadata["gig_id"])
	buyerID, err3 := uuid.Parse(payload.Metadata["buyer_id"])
	sellerID, err4 := uuid.Parse(payload.Metadata["seller_id"])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nil, fmt.Errorf("session %s completed but metadata is unusable, manual reconciliation required", payload.SessionID)
	}

	feePercent, err := strconv.Atoi(payload.Metadata["fee_percent"])
	if err != nil {
		return nil, fmt.Errorf("session %s completed but fee_percent metadata is unusable, manual reconciliation required", payload.SessionID)
	}
	platformFee, sellerEarnings, err := s.fees.Split(payload.AmountTotal, feePercent)
	if err != nil {
		return nil, err
	}

	order := &db_models.Order{
		BaseModel:          db_models.BaseModel{ID: orderID},
		GigID:              gigID,
		BuyerID:            buyerID,
		SellerID:           sellerID,
		Status:             db_models.OrderStatusPending,
		TotalAmount:        payload.AmountTotal,
		PlatformFeePercent: feePercent,
		PlatformFee:        platformFee,
		SellerEarnings:     sellerEarnings,
	}
	txn := &db_models.Transaction{
		BuyerID:           buyerID,
		SellerID:          sellerID,
		Amount:            payload.AmountTotal,
		PlatformFee:       platformFee,
		SellerEarnings:    sellerEarnings,
		Currency:          payload.Currency,
		Status:            db_models.TxnStatusPending,
		GatewaySessionRef: payload.SessionID,
		GatewayPaymentRef: payload.PaymentRef,
	}
	if payload.BuyerEmail != "" {
		if meta, merr := json.Marshal(map[string]string{"buyer_email": payload.BuyerEmail}); merr == nil {
			txn.Metadata = datatypes.JSON(meta)
		}
	}
	if err := s.orderRepo.CreateOrderWithTransaction(ctx, order, txn); err != nil {
		return nil, utils.ErrDatabaseError
	}
	log.Printf("escrow: rebuilt order %s from session %s metadata", orderID, payload.SessionID)
	return txn, nil
}
