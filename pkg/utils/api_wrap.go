package utils

import (
	"errors"
	"github.com/gin-gonic/gin"
	"log"
	"net/http"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func traceID(c *gin.Context) string {
	if v, ok := c.Get("trace_id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func RespondSuccess(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  "success",
		Code:    http.StatusOK,
		Message: message,
		TraceID: traceID(c),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: traceID(c),
	})
}

// HandleServiceError maps service-layer errors onto coarse API responses.
// Internal detail stays in the logs, never in the response body.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		RespondError(c, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, ErrGigNotFound):
		RespondError(c, http.StatusNotFound, "Gig not found")
	case errors.Is(err, ErrGigNotPurchasable):
		RespondError(c, http.StatusBadRequest, "Gig is not purchasable")
	case errors.Is(err, ErrOrderNotFound):
		RespondError(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrTransactionNotFound):
		RespondError(c, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, ErrDisputeNotFound):
		RespondError(c, http.StatusNotFound, "Dispute not found")
	case errors.Is(err, ErrPayoutNotFound):
		RespondError(c, http.StatusNotFound, "Payout not found")
	case errors.Is(err, ErrCheckoutFailed):
		log.Printf("checkout creation failed: %v", err)
		RespondError(c, http.StatusBadGateway, "Checkout could not be created, please try again")
	case errors.Is(err, ErrIllegalTransition):
		log.Printf("illegal state transition rejected: %v", err)
		RespondError(c, http.StatusConflict, "Order is not in a state that allows this action")
	case errors.Is(err, ErrInsufficientBalance):
		RespondError(c, http.StatusBadRequest, "Requested amount exceeds available balance")
	case errors.Is(err, ErrDisputeAlreadyOpen):
		RespondError(c, http.StatusConflict, "A dispute is already open for this order")
	case errors.Is(err, ErrRefundExceedsCharge):
		RespondError(c, http.StatusBadRequest, "Refund amount exceeds the charged amount")
	case errors.Is(err, ErrForbidden):
		RespondError(c, http.StatusForbidden, "Forbidden: insufficient permissions")
	case errors.Is(err, ErrConflict):
		RespondError(c, http.StatusConflict, "Conflicting update, please retry")
	case errors.Is(err, ErrGateway):
		log.Printf("gateway error: %v", err)
		RespondError(c, http.StatusBadGateway, "Payment processing temporarily unavailable")
	case errors.Is(err, ErrDatabaseError):
		log.Printf("database error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	default:
		log.Printf("unknown error: %v", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
