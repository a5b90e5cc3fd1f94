package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"craftly/internal/models/request_models"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

type CheckoutController struct {
	checkoutService services.CheckoutService
}

func NewCheckoutController(checkoutService services.CheckoutService) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
	}
}

// CreateCheckout godoc
// @Summary Start a checkout for a gig
// @Description Creates a hosted checkout session with funds held in escrow until delivery is accepted
// @Tags Checkout
// @Accept json
// @Produce json
// @Param request body request_models.CreateCheckoutRequest true "Create Checkout Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/checkout [post]
func (ct *CheckoutController) CreateCheckout(c *gin.Context) {
	var request request_models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	gigID, _ := uuid.Parse(request.GigID)
	buyerEmail := c.GetString("email")

	resp, err := ct.checkoutService.CreateCheckout(c.Request.Context(), gigID, buyerID, buyerEmail, request.SelectedVariant, request.BuyerMessage, request.Origin)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, resp, "Checkout session created successfully")
}
