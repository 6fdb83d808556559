package api

import (
	"bitwise74/account-api/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail answers with the status matching err. Validation errors are echoed
// back, everything else gets a generic message.
func fail(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var (
		status int
		msg    string
	)

	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidToken):
		status, msg = http.StatusBadRequest, "Invalid or expired verification link"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, "This email or nickname is already taken"
	case errors.Is(err, service.ErrAuthenticationFailed):
		status, msg = http.StatusUnauthorized, "Invalid credentials"
	default:
		status, msg = http.StatusInternalServerError, "Internal server error"
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}

func badBody(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}
