package services

import (
	"context"

	"github.com/google/uuid"

	"craftly/internal/models/response_models"
	"craftly/internal/repositories"
	"craftly/pkg/utils"
)

// OrderQueryService is the read side for orders. Mutations go through the
// escrow service.
type OrderQueryService interface {
	GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*response_models.OrderResponse, error)
}

type orderQueryService struct {
	orderRepo repositories.OrderRepositoryInterface
}

func NewOrderQueryService(orderRepo repositories.OrderRepositoryInterface) OrderQueryService {
	return &orderQueryService{orderRepo: orderRepo}
}

func (s *orderQueryService) GetOrder(ctx context.Context, orderID, requesterID uuid.UUID, isAdmin bool) (*response_models.OrderResponse, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}
	if !isAdmin && order.BuyerID != requesterID && order.SellerID != requesterID {
		return nil, utils.ErrForbidden
	}

	resp := &response_models.OrderResponse{
		ID:              order.ID.String(),
		GigID:           order.GigID.String(),
		BuyerID:         order.BuyerID.String(),
		SellerID:        order.SellerID.String(),
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		PlatformFee:     order.PlatformFee,
		SellerEarnings:  order.SellerEarnings,
		SelectedVariant: order.SelectedVariant,
		CreatedAt:       utils.FormatRFC3339(utils.FromUnixSeconds(order.CreatedAt)),
		UpdatedAt:       utils.FormatRFC3339(utils.FromUnixSeconds(order.UpdatedAt)),
	}

	txn, err := s.orderRepo.GetTransactionByOrderID(ctx, orderID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn != nil {
		summary := &response_models.TransactionSummary{
			ID:             txn.ID.String(),
			Status:         string(txn.Status),
			Amount:         txn.Amount,
			PlatformFee:    txn.PlatformFee,
			SellerEarnings: txn.SellerEarnings,
			Currency:       txn.Currency,
		}
		if txn.EscrowReleaseDate != nil {
			summary.EscrowReleaseDate = utils.FormatRFC3339(utils.FromUnixSeconds(*txn.EscrowReleaseDate))
		}
		resp.Transaction = summary
	}

	return resp, nil
}
