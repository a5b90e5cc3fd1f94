package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftly/internal/services"
	"craftly/pkg/utils"
)

type OrderController struct {
	orderService  services.OrderQueryService
	escrowService services.EscrowService
}

func NewOrderController(orderService services.OrderQueryService, escrowService services.EscrowService) *OrderController {
	return &OrderController{
		orderService:  orderService,
		escrowService: escrowService,
	}
}

// GetOrder godoc
// @Summary Get one order with its transaction
// @Description Visible to the order's buyer, seller and admins
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id} [get]
func (o *OrderController) GetOrder(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	order, err := o.orderService.GetOrder(c.Request.Context(), orderID, userID, isAdmin(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, order, "Order retrieved successfully")
}

type deliverRequest struct {
	DeliveryNote string `json:"delivery_note" binding:"required"`
}

// SubmitDelivery godoc
// @Summary Mark an order as delivered
// @Description Seller delivers the work; starts the escrow hold window
// @Tags Orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body deliverRequest true "Delivery note"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id}/deliver [post]
func (o *OrderController) SubmitDelivery(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request deliverRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := o.escrowService.SubmitDelivery(c.Request.Context(), orderID, userID, request.DeliveryNote); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Order marked as delivered")
}

// AcceptDelivery godoc
// @Summary Accept a delivery and release escrow
// @Description Buyer accepts the delivered work; escrowed funds are captured
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id}/accept-delivery [post]
func (o *OrderController) AcceptDelivery(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := o.escrowService.AcceptDelivery(c.Request.Context(), orderID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Delivery accepted, funds released")
}

// RequestRevision godoc
// @Summary Request a revision on a delivered order
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id}/request-revision [post]
func (o *OrderController) RequestRevision(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := o.escrowService.RequestRevision(c.Request.Context(), orderID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Revision requested")
}

// CancelOrder godoc
// @Summary Cancel an order before delivery
// @Description Cancels the order and releases the payment hold; the refund is confirmed asynchronously by the gateway
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id}/cancel [post]
func (o *OrderController) CancelOrder(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := o.escrowService.CancelOrder(c.Request.Context(), orderID, userID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Order cancelled")
}
