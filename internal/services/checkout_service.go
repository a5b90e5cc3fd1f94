package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"craftly/internal/gateway"
	"craftly/internal/models/db_models"
	"craftly/internal/models/response_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

type CheckoutConfig struct {
	FeePercent int    // platform cut, e.g. 15
	MinAmount  int64  // smallest purchasable price in minor units
	MaxAmount  int64  // largest purchasable price in minor units
	Currency   string // e.g. "EUR"
}

type CheckoutService interface {
	CreateCheckout(ctx context.Context, gigID, buyerID uuid.UUID, buyerEmail, selectedVariant, buyerMessage, origin string) (*response_models.CreateCheckoutResponse, error)
}

type checkoutService struct {
	gigRepo     repositories.GigRepositoryInterface
	orderRepo   repositories.OrderRepositoryInterface
	accountRepo repositories.SellerAccountRepositoryInterface
	gw          gateway.Client
	fees        FeeSplitService
	cfg         CheckoutConfig
}

func NewCheckoutService(
	gigRepo repositories.GigRepositoryInterface,
	orderRepo repositories.OrderRepositoryInterface,
	accountRepo repositories.SellerAccountRepositoryInterface,
	gw gateway.Client,
	fees FeeSplitService,
	cfg CheckoutConfig,
) CheckoutService {
	return &checkoutService{
		gigRepo:     gigRepo,
		orderRepo:   orderRepo,
		accountRepo: accountRepo,
		gw:          gw,
		fees:        fees,
		cfg:         cfg,
	}
}

// CreateCheckout builds a manual-capture checkout session for one gig and
// persists the optimistic Order/Transaction pair. The order is only marked
// paid by the webhook processor, never here. Session creation happens before
// anything is persisted, so a gateway failure leaves no local state behind.
func (s *checkoutService) CreateCheckout(ctx context.Context, gigID, buyerID uuid.UUID, buyerEmail, selectedVariant, buyerMessage, origin string) (*response_models.CreateCheckoutResponse, error) {
	gig, err := s.gigRepo.GetGigByID(ctx, gigID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if gig == nil {
		return nil, utils.ErrGigNotFound
	}
	if !gig.Active {
		return nil, utils.ErrGigNotPurchasable
	}
	if gig.Price < s.cfg.MinAmount || gig.Price > s.cfg.MaxAmount {
		return nil, fmt.Errorf("%w: price %d outside platform bounds", utils.ErrGigNotPurchasable, gig.Price)
	}
	if gig.SellerID == buyerID {
		return nil, utils.ErrForbidden
	}

	platformFee, sellerEarnings, err := s.fees.Split(gig.Price, s.cfg.FeePercent)
	if err != nil {
		return nil, err
	}

	// Destination split only when the seller has a payout-capable connected
	// account; otherwise all captured funds stay with the platform and are
	// paid out manually later.
	sellerAccountRef := ""
	account, err := s.accountRepo.GetByUserID(ctx, gig.SellerID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account != nil && account.PayoutsEnabled {
		sellerAccountRef = account.GatewayAccountRef
	}

	orderID := uuid.New()

	currency := gig.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}

	session, err := s.gw.CreateCheckoutSession(ctx, gateway.CheckoutSessionSpec{
		Title:            gig.Title,
		Amount:           gig.Price,
		Currency:         currency,
		BuyerEmail:       buyerEmail,
		PlatformFee:      platformFee,
		SellerAccountRef: sellerAccountRef,
		SuccessURL:       fmt.Sprintf("%s/orders/%s?checkout=success", origin, orderID),
		CancelURL:        fmt.Sprintf("%s/gigs/%s?checkout=cancelled", origin, gigID),
		Metadata: map[string]string{
			"order_id":    orderID.String(),
			"gig_id":      gigID.String(),
			"buyer_id":    buyerID.String(),
			"seller_id":   gig.SellerID.String(),
			"fee_percent": fmt.Sprintf("%d", s.cfg.FeePercent),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrCheckoutFailed, err)
	}

	order := &db_models.Order{
		BaseModel:          db_models.BaseModel{ID: orderID},
		GigID:              gigID,
		BuyerID:            buyerID,
		SellerID:           gig.SellerID,
		Status:             db_models.OrderStatusPending,
		TotalAmount:        gig.Price,
		PlatformFeePercent: s.cfg.FeePercent,
		PlatformFee:        platformFee,
		SellerEarnings:     sellerEarnings,
		SelectedVariant:    selectedVariant,
		BuyerMessage:       buyerMessage,
	}
	txn := &db_models.Transaction{
		BuyerID:           buyerID,
		SellerID:          gig.SellerID,
		Amount:            gig.Price,
		PlatformFee:       platformFee,
		SellerEarnings:    sellerEarnings,
		Currency:          currency,
		Status:            db_models.TxnStatusPending,
		GatewaySessionRef: session.ID,
		GatewayPaymentRef: session.PaymentRef,
	}
	if buyerEmail != "" {
		// Buyer contact travels with the transaction so later lifecycle
		// notices do not depend on an identity lookup.
		if meta, merr := json.Marshal(map[string]string{"buyer_email": buyerEmail}); merr == nil {
			txn.Metadata = datatypes.JSON(meta)
		}
	}

	if err := s.orderRepo.CreateOrderWithTransaction(ctx, order, txn); err != nil {
		// The session exists at the gateway but nothing was persisted. The
		// buyer can still pay; the webhook processor recreates state from
		// session metadata, so log loudly and surface the failure.
		log.Printf("checkout: session %s created but persistence failed for order %s: %v", session.ID, orderID, err)
		return nil, utils.ErrDatabaseError
	}

	return &response_models.CreateCheckoutResponse{
		SessionID:   session.ID,
		RedirectURL: session.URL,
		OrderID:     orderID.String(),
		Amount:      gig.Price,
		Currency:    currency,
	}, nil
}
