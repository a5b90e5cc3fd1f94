package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"craftly/internal/gateway"
	"craftly/internal/models/db_models"
	"craftly/internal/repositories"
)

// In-memory repository fakes. They mirror the CAS semantics of the real
// gorm-backed repositories so the service state machines can be exercised
// without a database.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*db_models.Order
	txns   map[uuid.UUID]*db_models.Transaction

	failCreate bool
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*db_models.Order),
		txns:   make(map[uuid.UUID]*db_models.Transaction),
	}
}

func (f *fakeOrderRepo) CreateOrderWithTransaction(_ context.Context, order *db_models.Order, txn *db_models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return fmt.Errorf("create failed")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.OrderID = order.ID
	cpO := *order
	cpT := *txn
	f.orders[order.ID] = &cpO
	f.txns[txn.ID] = &cpT
	return nil
}

func (f *fakeOrderRepo) putOrder(o *db_models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	cp := *o
	f.orders[o.ID] = &cp
}

func (f *fakeOrderRepo) putTxn(t *db_models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	f.txns[t.ID] = &cp
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, orderID uuid.UUID) (*db_models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) GetTransactionByOrderID(_ context.Context, orderID uuid.UUID) (*db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.OrderID == orderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) GetTransactionBySessionRef(_ context.Context, sessionRef string) (*db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.GatewaySessionRef == sessionRef {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) GetTransactionByPaymentRef(_ context.Context, paymentRef string) (*db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.GatewayPaymentRef == paymentRef {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOrderRepo) UpdateOrderStatusIf(_ context.Context, orderID uuid.UUID, expected []db_models.OrderStatus, to db_models.OrderStatus, extra map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, st := range expected {
		if o.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	o.Status = to
	for k, v := range extra {
		switch k {
		case "delivered_at":
			n := v.(int64)
			o.DeliveredAt = &n
		case "completed_at":
			n := v.(int64)
			o.CompletedAt = &n
		case "seller_delivery":
			o.SellerDelivery = v.(string)
		}
	}
	return true, nil
}

func (f *fakeOrderRepo) UpdateTransactionStatusIf(_ context.Context, txnID uuid.UUID, expected []db_models.TransactionStatus, to db_models.TransactionStatus, extra map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[txnID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, st := range expected {
		if t.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	t.Status = to
	for k, v := range extra {
		n, isInt := v.(int64)
		switch k {
		case "authorized_at":
			if isInt {
				t.AuthorizedAt = &n
			}
		case "captured_at":
			if isInt {
				t.CapturedAt = &n
			}
		case "refunded_at":
			if isInt {
				t.RefundedAt = &n
			}
		case "failed_at":
			if isInt {
				t.FailedAt = &n
			}
		case "escrow_release_date":
			if isInt {
				t.EscrowReleaseDate = &n
			}
		}
	}
	return true, nil
}

func (f *fakeOrderRepo) SetTransactionPaymentRef(_ context.Context, txnID uuid.UUID, paymentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.txns[txnID]; ok {
		t.GatewayPaymentRef = paymentRef
	}
	return nil
}

func (f *fakeOrderRepo) SetTransactionRefundRef(_ context.Context, txnID uuid.UUID, refundRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.txns[txnID]; ok {
		t.GatewayRefundRef = refundRef
	}
	return nil
}

func (f *fakeOrderRepo) ListReleasableOrders(_ context.Context, deliveredBefore int64, limit int) ([]db_models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Order
	for _, o := range f.orders {
		if o.Status == db_models.OrderStatusDelivered && o.DeliveredAt != nil && *o.DeliveredAt <= deliveredBefore {
			out = append(out, *o)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

var _ repositories.OrderRepositoryInterface = (*fakeOrderRepo)(nil)

type fakeDisputeRepo struct {
	mu       sync.Mutex
	disputes map[uuid.UUID]*db_models.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: make(map[uuid.UUID]*db_models.Dispute)}
}

func (f *fakeDisputeRepo) isActive(d *db_models.Dispute) bool {
	return d.Status == db_models.DisputeStatusOpen || d.Status == db_models.DisputeStatusMediation
}

func (f *fakeDisputeRepo) CreateIfNoneActive(_ context.Context, dispute *db_models.Dispute) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.disputes {
		if d.OrderID == dispute.OrderID && f.isActive(d) {
			return false, nil
		}
	}
	if dispute.ID == uuid.Nil {
		dispute.ID = uuid.New()
	}
	cp := *dispute
	f.disputes[dispute.ID] = &cp
	return true, nil
}

func (f *fakeDisputeRepo) GetDisputeByID(_ context.Context, disputeID uuid.UUID) (*db_models.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.disputes[disputeID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDisputeRepo) GetActiveByOrderID(_ context.Context, orderID uuid.UUID) (*db_models.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.disputes {
		if d.OrderID == orderID && f.isActive(d) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeDisputeRepo) HasActiveDispute(_ context.Context, orderID uuid.UUID) (bool, error) {
	d, _ := f.GetActiveByOrderID(context.Background(), orderID)
	return d != nil, nil
}

func (f *fakeDisputeRepo) UpdateStatusIf(_ context.Context, disputeID uuid.UUID, expected []db_models.DisputeStatus, to db_models.DisputeStatus, extra map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.disputes[disputeID]
	if !ok {
		return false, nil
	}
	matched := false
	for _, st := range expected {
		if d.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	d.Status = to
	for k, v := range extra {
		switch k {
		case "admin_id":
			id := v.(uuid.UUID)
			d.AdminID = &id
		case "admin_notes":
			d.AdminNotes = v.(string)
		case "resolution":
			d.Resolution = v.(db_models.DisputeResolution)
		case "refund_amount":
			n := v.(int64)
			d.RefundAmount = &n
		case "refund_reason":
			d.RefundReason = v.(string)
		case "mediation_started_at":
			n := v.(int64)
			d.MediationStartedAt = &n
		case "resolved_at":
			n := v.(int64)
			d.ResolvedAt = &n
		}
	}
	return true, nil
}

func (f *fakeDisputeRepo) CloseResolvedByOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.disputes {
		if d.OrderID == orderID && d.Status == db_models.DisputeStatusResolved {
			d.Status = db_models.DisputeStatusClosed
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDisputeRepo) SetSellerEvidence(_ context.Context, disputeID uuid.UUID, evidence []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.disputes[disputeID]; ok {
		d.SellerEvidence = evidence
	}
	return nil
}

func (f *fakeDisputeRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]db_models.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Dispute
	for _, d := range f.disputes {
		if d.BuyerID == userID || d.SellerID == userID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDisputeRepo) ListAll(_ context.Context) ([]db_models.Dispute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Dispute
	for _, d := range f.disputes {
		out = append(out, *d)
	}
	return out, nil
}

var _ repositories.DisputeRepositoryInterface = (*fakeDisputeRepo)(nil)

type fakePayoutRepo struct {
	mu        sync.Mutex
	txns      []*db_models.Transaction
	payouts   map[uuid.UUID]*db_models.Payout
	statusLog map[uuid.UUID][]db_models.PayoutStatus
	now       int64
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{
		payouts:   make(map[uuid.UUID]*db_models.Payout),
		statusLog: make(map[uuid.UUID][]db_models.PayoutStatus),
	}
}

func (f *fakePayoutRepo) addTxn(t *db_models.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	f.txns = append(f.txns, &cp)
}

func (f *fakePayoutRepo) released(t *db_models.Transaction, now int64) bool {
	return t.Status == db_models.TxnStatusCaptured && t.PayoutID == nil &&
		t.EscrowReleaseDate != nil && *t.EscrowReleaseDate <= now
}

func (f *fakePayoutRepo) SumSellerEarnings(_ context.Context, sellerID uuid.UUID, now int64) (*repositories.EarningsTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := &repositories.EarningsTotals{}
	for _, t := range f.txns {
		if t.SellerID != sellerID {
			continue
		}
		switch {
		case f.released(t, now):
			totals.Available += t.SellerEarnings
		case t.Status == db_models.TxnStatusCaptured && t.PayoutID == nil:
			totals.Pending += t.SellerEarnings
		case t.Status == db_models.TxnStatusAuthorized:
			totals.Pending += t.SellerEarnings
		}
		if t.Status == db_models.TxnStatusCaptured {
			totals.Total += t.SellerEarnings
		}
	}
	return totals, nil
}

func (f *fakePayoutRepo) SelectPayableTransactions(_ context.Context, sellerID uuid.UUID, amount int64, now int64) ([]db_models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var selected []db_models.Transaction
	var covered int64
	for _, t := range f.txns {
		if t.SellerID != sellerID || !f.released(t, now) {
			continue
		}
		selected = append(selected, *t)
		covered += t.SellerEarnings
		if covered >= amount {
			break
		}
	}
	if covered < amount {
		return nil, nil
	}
	return selected, nil
}

func (f *fakePayoutRepo) CreatePayout(_ context.Context, payout *db_models.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	cp := *payout
	f.payouts[payout.ID] = &cp
	return nil
}

func (f *fakePayoutRepo) GetPayoutByID(_ context.Context, payoutID uuid.UUID) (*db_models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[payoutID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayoutRepo) ConsumeTransactions(_ context.Context, payoutID uuid.UUID, txnIDs []uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[uuid.UUID]*db_models.Transaction)
	for _, t := range f.txns {
		byID[t.ID] = t
	}
	for _, id := range txnIDs {
		t, ok := byID[id]
		if !ok || t.Status != db_models.TxnStatusCaptured || t.PayoutID != nil {
			return false, nil
		}
	}
	for _, id := range txnIDs {
		pid := payoutID
		byID[id].PayoutID = &pid
	}
	return true, nil
}

func (f *fakePayoutRepo) ReleaseTransactions(_ context.Context, payoutID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.PayoutID != nil && *t.PayoutID == payoutID {
			t.PayoutID = nil
		}
	}
	return nil
}

func (f *fakePayoutRepo) UpdatePayoutStatus(_ context.Context, payoutID uuid.UUID, to db_models.PayoutStatus, extra map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payouts[payoutID]
	if !ok {
		return nil
	}
	p.Status = to
	f.statusLog[payoutID] = append(f.statusLog[payoutID], to)
	for k, v := range extra {
		switch k {
		case "gateway_payout_ref":
			p.GatewayPayoutRef = v.(string)
		case "failure_reason":
			p.FailureReason = v.(string)
		case "paid_at":
			n := v.(int64)
			p.PaidAt = &n
		}
	}
	return nil
}

func (f *fakePayoutRepo) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]db_models.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db_models.Payout
	for _, p := range f.payouts {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repositories.PayoutRepositoryInterface = (*fakePayoutRepo)(nil)

type fakeGigRepo struct {
	mu   sync.Mutex
	gigs map[uuid.UUID]*db_models.Gig
}

func newFakeGigRepo() *fakeGigRepo {
	return &fakeGigRepo{gigs: make(map[uuid.UUID]*db_models.Gig)}
}

func (f *fakeGigRepo) putGig(g *db_models.Gig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	f.gigs[g.ID] = &cp
}

func (f *fakeGigRepo) GetGigByID(_ context.Context, gigID uuid.UUID) (*db_models.Gig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gigs[gigID]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

var _ repositories.GigRepositoryInterface = (*fakeGigRepo)(nil)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*db_models.SellerAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*db_models.SellerAccount)}
}

func (f *fakeAccountRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*db_models.SellerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) GetByAccountRef(_ context.Context, accountRef string) (*db_models.SellerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.GatewayAccountRef == accountRef {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccountRepo) Create(_ context.Context, account *db_models.SellerAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	cp := *account
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) UpdateCapabilities(_ context.Context, accountRef string, chargesEnabled, payoutsEnabled, detailsSubmitted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.GatewayAccountRef == accountRef {
			a.ChargesEnabled = chargesEnabled
			a.PayoutsEnabled = payoutsEnabled
			a.DetailsSubmitted = detailsSubmitted
		}
	}
	return nil
}

var _ repositories.SellerAccountRepositoryInterface = (*fakeAccountRepo)(nil)

type fakeEventRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{seen: make(map[string]bool)}
}

func (f *fakeEventRepo) MarkProcessed(_ context.Context, eventID, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[eventID] {
		return false, nil
	}
	f.seen[eventID] = true
	return true, nil
}

var _ repositories.WebhookEventRepositoryInterface = (*fakeEventRepo)(nil)

type refundCall struct {
	paymentRef string
	amount     int64
}

// fakeGateway records outbound gateway calls and lets tests fail specific
// operations.
type fakeGateway struct {
	mu sync.Mutex

	captureCalls  []string
	refundCalls   []refundCall
	transferCalls []gateway.TransferSpec
	sessionSpecs  []gateway.CheckoutSessionSpec

	captureErr  error
	refundErr   error
	transferErr error

	sessionCounter int
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, spec gateway.CheckoutSessionSpec) (*gateway.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionCounter++
	f.sessionSpecs = append(f.sessionSpecs, spec)
	return &gateway.CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", f.sessionCounter),
		URL: "https://checkout.example.com/pay",
	}, nil
}

func (f *fakeGateway) CapturePayment(_ context.Context, paymentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return f.captureErr
	}
	f.captureCalls = append(f.captureCalls, paymentRef)
	return nil
}

func (f *fakeGateway) RefundPayment(_ context.Context, paymentRef string, amount int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return "", f.refundErr
	}
	f.refundCalls = append(f.refundCalls, refundCall{paymentRef: paymentRef, amount: amount})
	return "re_test_1", nil
}

func (f *fakeGateway) CreateTransfer(_ context.Context, spec gateway.TransferSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.transferErr != nil {
		return "", f.transferErr
	}
	f.transferCalls = append(f.transferCalls, spec)
	return fmt.Sprintf("tr_test_%d", len(f.transferCalls)), nil
}

func (f *fakeGateway) CreateConnectAccount(_ context.Context, email, country string) (string, error) {
	return "acct_test_1", nil
}

func (f *fakeGateway) CreateAccountLink(_ context.Context, accountRef, refreshURL, returnURL string) (string, error) {
	return "https://connect.example.com/onboard/" + accountRef, nil
}

func (f *fakeGateway) CreateLoginLink(_ context.Context, accountRef string) (string, error) {
	return "https://connect.example.com/login/" + accountRef, nil
}

func (f *fakeGateway) GetAccountStatus(_ context.Context, accountRef string) (*gateway.AccountStatus, error) {
	return &gateway.AccountStatus{ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true}, nil
}

func (f *fakeGateway) captureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.captureCalls)
}

func (f *fakeGateway) refundCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refundCalls)
}

var _ gateway.Client = (*fakeGateway)(nil)

// fakeVerifier bypasses signature checks and hands back a canned event.
type fakeVerifier struct {
	event *gateway.Event
	err   error
}

func (f *fakeVerifier) Verify(_ []byte, _ string) (*gateway.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

var _ gateway.Verifier = (*fakeVerifier)(nil)

type sentMail struct {
	kind string
	to   string
}

type fakeMail struct {
	mu    sync.Mutex
	sends []sentMail
}

func (f *fakeMail) SendOrderConfirmation(to, _ string, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMail{kind: "confirmation", to: to})
	return nil
}

func (f *fakeMail) SendRefundNotice(to, _ string, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMail{kind: "refund", to: to})
	return nil
}

func (f *fakeMail) SendDeliveryNotice(to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sentMail{kind: "delivery", to: to})
	return nil
}

var _ IMailService = (*fakeMail)(nil)
