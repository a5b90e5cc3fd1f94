package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"craftly/internal/models/request_models"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

type PayoutController struct {
	payoutService  services.PayoutService
	connectService services.ConnectService
}

func NewPayoutController(payoutService services.PayoutService, connectService services.ConnectService) *PayoutController {
	return &PayoutController{
		payoutService:  payoutService,
		connectService: connectService,
	}
}

// GetEarnings godoc
// @Summary Get a seller's earnings balances
// @Description Visible to the seller themselves and to admins
// @Tags Payouts
// @Produce json
// @Param id path string true "Seller ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /sellers/{id}/earnings [get]
func (p *PayoutController) GetEarnings(c *gin.Context) {
	sellerID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}
	if requesterID != sellerID && !isAdmin(c) {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	earnings, err := p.payoutService.GetSellerEarnings(c.Request.Context(), sellerID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, earnings, "Earnings retrieved successfully")
}

// CreatePayout godoc
// @Summary Request a payout of available earnings
// @Description Allowed for the seller themselves and for admins
// @Tags Payouts
// @Accept json
// @Produce json
// @Param request body request_models.CreatePayoutRequest true "Payout request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payouts [post]
func (p *PayoutController) CreatePayout(c *gin.Context) {
	requesterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.CreatePayoutRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	sellerID, err := uuid.Parse(request.SellerID)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid seller id")
		return
	}
	if requesterID != sellerID && !isAdmin(c) {
		utils.HandleServiceError(c, utils.ErrForbidden)
		return
	}

	payout, err := p.payoutService.CreatePayout(c.Request.Context(), sellerID, request.Amount)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payout, "Payout created successfully")
}

// ListPayouts godoc
// @Summary List the current seller's payouts
// @Tags Payouts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payouts [get]
func (p *PayoutController) ListPayouts(c *gin.Context) {
	sellerID, ok := currentUserID(c)
	if !ok {
		return
	}

	payouts, err := p.payoutService.ListPayouts(c.Request.Context(), sellerID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, payouts, "Payouts retrieved successfully")
}

// CreateConnectAccount godoc
// @Summary Start connected-account onboarding for payouts
// @Description Creates the connected account if needed and returns a fresh onboarding link
// @Tags Payouts
// @Accept json
// @Produce json
// @Param request body request_models.ConnectAccountRequest true "Connect Account Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /sellers/connect [post]
func (p *PayoutController) CreateConnectAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.ConnectAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	email := c.GetString("email")
	account, err := p.connectService.CreateAccount(c.Request.Context(), userID, email, request.Country, request.RefreshURL, request.ReturnURL)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, account, "Connected account ready for onboarding")
}

// GetConnectStatus godoc
// @Summary Get the current seller's connected-account status
// @Tags Payouts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /sellers/connect/status [get]
func (p *PayoutController) GetConnectStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := p.connectService.GetAccountStatus(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Account status retrieved successfully")
}

// CreateLoginLink godoc
// @Summary Get a dashboard login link for the connected account
// @Tags Payouts
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /sellers/connect/login-link [post]
func (p *PayoutController) CreateLoginLink(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	link, err := p.connectService.CreateLoginLink(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"login_url": link}, "Login link created successfully")
}
