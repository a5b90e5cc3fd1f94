package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftly/internal/models/db_models"
	"craftly/pkg/utils"
)

type disputeFixture struct {
	escrow  *escrowFixture
	svc     DisputeService
	adminID uuid.UUID
}

func newDisputeFixture(t *testing.T) *disputeFixture {
	t.Helper()
	esc := newEscrowFixture(t)
	return &disputeFixture{
		escrow:  esc,
		svc:     NewDisputeService(esc.disputes, esc.orders, esc.svc),
		adminID: uuid.New(),
	}
}

func (fx *disputeFixture) openDispute(t *testing.T, orderID uuid.UUID) *db_models.Dispute {
	t.Helper()
	dispute, err := fx.svc.OpenDispute(context.Background(), orderID, fx.escrow.buyerID,
		db_models.DisputeReasonPoorQuality, "the delivered work does not match what the listing promised at all", nil)
	require.NoError(t, err)
	return dispute
}

func TestOpenDispute(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)

	dispute := fx.openDispute(t, order.ID)
	assert.Equal(t, db_models.DisputeStatusOpen, dispute.Status)
	assert.Equal(t, db_models.ResolutionPending, dispute.Resolution)
	assert.Equal(t, fx.escrow.sellerID, dispute.SellerID)

	gotOrder, _ := fx.escrow.orders.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, db_models.OrderStatusDisputed, gotOrder.Status)
}

func TestOpenDisputeOnlyOneActive(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)

	fx.openDispute(t, order.ID)
	_, err := fx.svc.OpenDispute(context.Background(), order.ID, fx.escrow.buyerID,
		db_models.DisputeReasonOther, "opening a second dispute on the same order should never be possible", nil)
	assert.ErrorIs(t, err, utils.ErrIllegalTransition)
}

func TestOpenDisputeOnlyBuyer(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)

	_, err := fx.svc.OpenDispute(context.Background(), order.ID, fx.escrow.sellerID,
		db_models.DisputeReasonOther, "sellers cannot dispute their own orders, only buyers can do that", nil)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestOpenDisputeOnCompletedOrderRejected(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusCompleted, db_models.TxnStatusCaptured)

	_, err := fx.svc.OpenDispute(context.Background(), order.ID, fx.escrow.buyerID,
		db_models.DisputeReasonOther, "disputes after completion go through support, not through this flow", nil)
	assert.ErrorIs(t, err, utils.ErrIllegalTransition)
}

func TestAddSellerEvidence(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)

	err := fx.svc.AddSellerEvidence(context.Background(), dispute.ID, fx.escrow.sellerID,
		[]string{"https://files.example.com/delivery-proof.png"})
	require.NoError(t, err)

	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.NotEmpty(t, got.SellerEvidence)
}

func TestAddSellerEvidenceOnlySeller(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)

	err := fx.svc.AddSellerEvidence(context.Background(), dispute.ID, fx.escrow.buyerID, []string{"x"})
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestEscalateToMediation(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)

	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.Equal(t, db_models.DisputeStatusMediation, got.Status)
	require.NotNil(t, got.AdminID)
	assert.Equal(t, fx.adminID, *got.AdminID)
	assert.NotNil(t, got.MediationStartedAt)

	// Escalating twice is a conflict, not a silent success.
	err := fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID)
	assert.ErrorIs(t, err, utils.ErrIllegalTransition)
}

func TestResolveRequiresMediation(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)

	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundFull, nil, "", "resolved straight from open")
	assert.ErrorIs(t, err, utils.ErrIllegalTransition)
}

func TestResolveRefundFullWaitsForWebhook(t *testing.T) {
	fx := newDisputeFixture(t)
	order, txn := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusCaptured)
	dispute := fx.openDispute(t, order.ID)
	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundFull, nil, "work never usable", "siding with the buyer")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.escrow.gw.refundCount())

	// Resolved but not closed: closure comes from the refund webhook.
	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.Equal(t, db_models.DisputeStatusResolved, got.Status)
	assert.Equal(t, db_models.ResolutionRefundFull, got.Resolution)
	require.NotNil(t, got.RefundAmount)
	assert.Equal(t, txn.Amount, *got.RefundAmount)

	gotOrder, _ := fx.escrow.orders.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, db_models.OrderStatusDisputed, gotOrder.Status)

	// The refund confirmation webhook settles both order and dispute.
	_, err = fx.escrow.svc.ConfirmRefund(context.Background(), txn.GatewayPaymentRef, txn.Amount)
	require.NoError(t, err)
	closed, err := fx.escrow.disputes.CloseResolvedByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestResolveRefundPartialValidation(t *testing.T) {
	fx := newDisputeFixture(t)
	order, txn := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusCaptured)
	dispute := fx.openDispute(t, order.ID)
	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundPartial, nil, "", "no amount given")
	assert.ErrorIs(t, err, utils.ErrInvalidAmount)

	tooMuch := txn.Amount + 1
	err = fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundPartial, &tooMuch, "", "over the charge")
	assert.ErrorIs(t, err, utils.ErrRefundExceedsCharge)

	assert.Equal(t, 0, fx.escrow.gw.refundCount())
}

func TestResolveSellerFavorCapturesAndCloses(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)
	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionSellerFavor, nil, "", "work matches the listing")
	require.NoError(t, err)

	assert.Equal(t, 1, fx.escrow.gw.captureCount())

	gotOrder, _ := fx.escrow.orders.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, db_models.OrderStatusCompleted, gotOrder.Status)

	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.Equal(t, db_models.DisputeStatusClosed, got.Status)
}

func TestResolveRevisionRequested(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)
	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRevisionRequested, nil, "", "one more pass on the deliverable")
	require.NoError(t, err)

	gotOrder, _ := fx.escrow.orders.GetOrderByID(context.Background(), order.ID)
	assert.Equal(t, db_models.OrderStatusRevision, gotOrder.Status)

	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.Equal(t, db_models.DisputeStatusClosed, got.Status)
}

func TestResolveRefundFailureRollsBackToMediation(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusCaptured)
	dispute := fx.openDispute(t, order.ID)
	require.NoError(t, fx.svc.EscalateToMediation(context.Background(), dispute.ID, fx.adminID))

	fx.escrow.gw.refundErr = utils.ErrGateway
	err := fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundFull, nil, "", "refund attempt")
	require.Error(t, err)

	// The admin can retry once the gateway recovers.
	got, _ := fx.escrow.disputes.GetDisputeByID(context.Background(), dispute.ID)
	assert.Equal(t, db_models.DisputeStatusMediation, got.Status)

	fx.escrow.gw.refundErr = nil
	err = fx.svc.Resolve(context.Background(), dispute.ID, fx.adminID,
		db_models.ResolutionRefundFull, nil, "", "refund retry")
	require.NoError(t, err)
	_ = order
}

func TestGetDisputeAccessControl(t *testing.T) {
	fx := newDisputeFixture(t)
	order, _ := fx.escrow.seedOrder(db_models.OrderStatusDelivered, db_models.TxnStatusAuthorized)
	dispute := fx.openDispute(t, order.ID)

	_, err := fx.svc.GetDispute(context.Background(), dispute.ID, fx.escrow.buyerID, false)
	assert.NoError(t, err)
	_, err = fx.svc.GetDispute(context.Background(), dispute.ID, fx.escrow.sellerID, false)
	assert.NoError(t, err)
	_, err = fx.svc.GetDispute(context.Background(), dispute.ID, uuid.New(), false)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = fx.svc.GetDispute(context.Background(), dispute.ID, uuid.New(), true)
	assert.NoError(t, err)
}
