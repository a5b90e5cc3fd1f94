package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"craftly/pkg/utils"
)

// CORSMiddleware allows the frontend origin set via CORS_ALLOWED_ORIGIN.
// The wildcard default only suits local development.
func CORSMiddleware() gin.HandlerFunc {
	allowedOrigin := utils.GetEnv("CORS_ALLOWED_ORIGIN", "*")
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Stripe-Signature")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
