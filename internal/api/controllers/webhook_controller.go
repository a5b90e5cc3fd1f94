package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"craftly/internal/services"
	"craftly/pkg/utils"
)

type WebhookController struct {
	webhookService services.WebhookService
}

func NewWebhookController(webhookService services.WebhookService) *WebhookController {
	return &WebhookController{
		webhookService: webhookService,
	}
}

// HandleGatewayWebhook godoc
// @Summary Receive payment gateway events
// @Description Unauthenticated endpoint; authenticity comes from the signature header. 2xx acknowledges, 5xx requests redelivery
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /webhooks/payment [post]
func (w *WebhookController) HandleGatewayWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Unreadable payload")
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")

	err = w.webhookService.ProcessWebhook(c.Request.Context(), payload, sigHeader)
	switch {
	case err == nil:
		utils.RespondSuccess(c, nil, "Event processed")
	case errors.Is(err, utils.ErrSignatureVerification):
		utils.RespondError(c, http.StatusBadRequest, "Signature verification failed")
	case errors.Is(err, utils.ErrDatabaseError), errors.Is(err, utils.ErrGateway):
		// 5xx so the gateway retries the delivery.
		log.Printf("webhook: transient processing failure: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, "Temporary failure, please redeliver")
	default:
		// Business-level rejections are acknowledged; redelivering the same
		// event would fail identically and only fill the retry queue.
		log.Printf("webhook: event discarded: %v", err)
		utils.RespondSuccess(c, nil, "Event discarded")
	}
}
