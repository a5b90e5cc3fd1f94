package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"craftly/pkg/utils"
)

// currentUserID reads the authenticated user id set by the JWT middleware.
// Aborts with 401 when missing or malformed.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("user_id")
	if raw == "" {
		utils.RespondError(c, http.StatusUnauthorized, "user_id is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "user_id is invalid")
		return uuid.Nil, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("Role") == "admin"
}

// pathUUID parses a :param path segment as a UUID, responding 400 on failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
