package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"craftly/internal/models/db_models"
	"craftly/pkg/utils"
)

// OrderRepositoryInterface is the single persistence surface for orders and
// their transactions. Status updates are compare-and-swap: the row moves
// only if it is still in one of the expected source states, which is what
// serializes concurrent webhook deliveries per order.
type OrderRepositoryInterface interface {
	CreateOrderWithTransaction(ctx context.Context, order *db_models.Order, txn *db_models.Transaction) error

	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*db_models.Order, error)
	GetTransactionByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Transaction, error)
	GetTransactionBySessionRef(ctx context.Context, sessionRef string) (*db_models.Transaction, error)
	GetTransactionByPaymentRef(ctx context.Context, paymentRef string) (*db_models.Transaction, error)

	// UpdateOrderStatusIf moves the order from one of the expected statuses
	// to the target, applying extra column updates in the same statement.
	// Returns false without error when the row was not in an expected state.
	UpdateOrderStatusIf(ctx context.Context, orderID uuid.UUID, expected []db_models.OrderStatus, to db_models.OrderStatus, extra map[string]interface{}) (bool, error)
	UpdateTransactionStatusIf(ctx context.Context, txnID uuid.UUID, expected []db_models.TransactionStatus, to db_models.TransactionStatus, extra map[string]interface{}) (bool, error)

	// SetTransactionPaymentRef backfills the payment reference once the
	// gateway reports it (session creation may not include it yet).
	SetTransactionPaymentRef(ctx context.Context, txnID uuid.UUID, paymentRef string) error

	// SetTransactionRefundRef records the gateway's refund id when a refund
	// is started, so the stored transaction can be matched to the gateway's
	// books during reconciliation.
	SetTransactionRefundRef(ctx context.Context, txnID uuid.UUID, refundRef string) error

	// ListReleasableOrders returns delivered orders whose delivery is older
	// than the cutoff, for the escrow auto-release job.
	ListReleasableOrders(ctx context.Context, deliveredBefore int64, limit int) ([]db_models.Order, error)
}

func NewOrderRepository(db *gorm.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *gorm.DB
}

func (r *OrderRepository) CreateOrderWithTransaction(ctx context.Context, order *db_models.Order, txn *db_models.Transaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(order).Error; err != nil {
			return err
		}
		txn.OrderID = order.ID
		return tx.WithContext(ctx).Create(txn).Error
	})
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) GetTransactionByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Transaction, error) {
	return r.firstTransaction(ctx, "order_id = ?", orderID)
}

func (r *OrderRepository) GetTransactionBySessionRef(ctx context.Context, sessionRef string) (*db_models.Transaction, error) {
	return r.firstTransaction(ctx, "gateway_session_ref = ?", sessionRef)
}

func (r *OrderRepository) GetTransactionByPaymentRef(ctx context.Context, paymentRef string) (*db_models.Transaction, error) {
	return r.firstTransaction(ctx, "gateway_payment_ref = ?", paymentRef)
}

func (r *OrderRepository) firstTransaction(ctx context.Context, query string, arg interface{}) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := r.db.WithContext(ctx).Where(query, arg).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *OrderRepository) UpdateOrderStatusIf(ctx context.Context, orderID uuid.UUID, expected []db_models.OrderStatus, to db_models.OrderStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": utils.NowUnixSeconds(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&db_models.Order{}).
		Where("id = ? AND status IN ?", orderID, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) UpdateTransactionStatusIf(ctx context.Context, txnID uuid.UUID, expected []db_models.TransactionStatus, to db_models.TransactionStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": utils.NowUnixSeconds(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Where("id = ? AND status IN ?", txnID, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderRepository) SetTransactionPaymentRef(ctx context.Context, txnID uuid.UUID, paymentRef string) error {
	return r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Where("id = ?", txnID).
		Update("gateway_payment_ref", paymentRef).Error
}

func (r *OrderRepository) SetTransactionRefundRef(ctx context.Context, txnID uuid.UUID, refundRef string) error {
	return r.db.WithContext(ctx).Model(&db_models.Transaction{}).
		Where("id = ?", txnID).
		Update("gateway_refund_ref", refundRef).Error
}

func (r *OrderRepository) ListReleasableOrders(ctx context.Context, deliveredBefore int64, limit int) ([]db_models.Order, error) {
	var orders []db_models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND delivered_at IS NOT NULL AND delivered_at <= ?", db_models.OrderStatusDelivered, deliveredBefore).
		Order("delivered_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
