package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"craftly/internal/models/db_models"
	"craftly/internal/models/request_models"
	"craftly/internal/models/response_models"
	"craftly/internal/services"
	"craftly/pkg/utils"
)

type DisputeController struct {
	disputeService services.DisputeService
}

func NewDisputeController(disputeService services.DisputeService) *DisputeController {
	return &DisputeController{
		disputeService: disputeService,
	}
}

// OpenDispute godoc
// @Summary Open a dispute on an order
// @Description Buyer opens a dispute; the order freezes and the escrow release timer pauses
// @Tags Disputes
// @Accept json
// @Produce json
// @Param request body request_models.CreateDisputeRequest true "Create Dispute Request"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes [post]
func (d *DisputeController) OpenDispute(c *gin.Context) {
	var request request_models.CreateDisputeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID, _ := uuid.Parse(request.OrderID)

	dispute, err := d.disputeService.OpenDispute(c.Request.Context(), orderID, buyerID,
		db_models.DisputeReason(request.Reason), request.Description, request.Evidence)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, toDisputeResponse(dispute), "Dispute opened successfully")
}

// OpenDisputeForOrder godoc
// @Summary Open a dispute on a specific order
// @Description Same as POST /disputes with the order taken from the path
// @Tags Disputes
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param request body request_models.OpenOrderDisputeRequest true "Dispute details"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /orders/{id}/dispute [post]
func (d *DisputeController) OpenDisputeForOrder(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	buyerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.OpenOrderDisputeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	dispute, err := d.disputeService.OpenDispute(c.Request.Context(), orderID, buyerID,
		db_models.DisputeReason(request.Reason), request.Description, request.Evidence)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, toDisputeResponse(dispute), "Dispute opened successfully")
}

// AddEvidence godoc
// @Summary Add seller evidence to a dispute
// @Tags Disputes
// @Accept json
// @Produce json
// @Param id path string true "Dispute ID"
// @Param request body request_models.AddEvidenceRequest true "Evidence"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes/{id}/evidence [post]
func (d *DisputeController) AddEvidence(c *gin.Context) {
	disputeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.AddEvidenceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := d.disputeService.AddSellerEvidence(c.Request.Context(), disputeID, userID, request.Evidence); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Evidence added")
}

// Escalate godoc
// @Summary Escalate a dispute to mediation
// @Description Admin only
// @Tags Disputes
// @Produce json
// @Param id path string true "Dispute ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes/{id}/escalate [post]
func (d *DisputeController) Escalate(c *gin.Context) {
	disputeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := d.disputeService.EscalateToMediation(c.Request.Context(), disputeID, adminID); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Dispute escalated to mediation")
}

// Resolve godoc
// @Summary Resolve a dispute
// @Description Admin only. Refund resolutions complete asynchronously once the gateway confirms the refund
// @Tags Disputes
// @Accept json
// @Produce json
// @Param id path string true "Dispute ID"
// @Param request body request_models.ResolveDisputeRequest true "Resolution"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes/{id}/resolve [post]
func (d *DisputeController) Resolve(c *gin.Context) {
	disputeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	var request request_models.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	err := d.disputeService.Resolve(c.Request.Context(), disputeID, adminID,
		db_models.DisputeResolution(request.Resolution), request.RefundAmount, request.RefundReason, request.AdminNotes)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, nil, "Dispute resolved")
}

// GetDispute godoc
// @Summary Get one dispute
// @Description Visible to the dispute's buyer, seller and admins
// @Tags Disputes
// @Produce json
// @Param id path string true "Dispute ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes/{id} [get]
func (d *DisputeController) GetDispute(c *gin.Context) {
	disputeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	dispute, err := d.disputeService.GetDispute(c.Request.Context(), disputeID, userID, isAdmin(c))
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, toDisputeResponse(dispute), "Dispute retrieved successfully")
}

// ListMyDisputes godoc
// @Summary List disputes involving the current user
// @Tags Disputes
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes/my [get]
func (d *DisputeController) ListMyDisputes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	disputes, err := d.disputeService.ListMyDisputes(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, toDisputeResponses(disputes), "Disputes retrieved successfully")
}

// ListAllDisputes godoc
// @Summary List every dispute
// @Description Admin only
// @Tags Disputes
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /disputes [get]
func (d *DisputeController) ListAllDisputes(c *gin.Context) {
	disputes, err := d.disputeService.ListAllDisputes(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, toDisputeResponses(disputes), "Disputes retrieved successfully")
}

func toDisputeResponse(dispute *db_models.Dispute) response_models.DisputeResponse {
	resp := response_models.DisputeResponse{
		ID:           dispute.ID.String(),
		OrderID:      dispute.OrderID.String(),
		BuyerID:      dispute.BuyerID.String(),
		SellerID:     dispute.SellerID.String(),
		Reason:       string(dispute.Reason),
		Description:  dispute.Description,
		Status:       string(dispute.Status),
		Resolution:   string(dispute.Resolution),
		RefundAmount: dispute.RefundAmount,
		CreatedAt:    utils.FormatRFC3339(utils.FromUnixSeconds(dispute.CreatedAt)),
	}
	_ = json.Unmarshal(dispute.BuyerEvidence, &resp.BuyerFiles)
	_ = json.Unmarshal(dispute.SellerEvidence, &resp.SellerFiles)
	if dispute.ResolvedAt != nil {
		resp.ResolvedAt = utils.FormatRFC3339(utils.FromUnixSeconds(*dispute.ResolvedAt))
	}
	return resp
}

func toDisputeResponses(disputes []db_models.Dispute) []response_models.DisputeResponse {
	out := make([]response_models.DisputeResponse, 0, len(disputes))
	for i := range disputes {
		out = append(out, toDisputeResponse(&disputes[i]))
	}
	return out
}
