package middleware

import (
	"bitwise74/account-api/internal/model"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through only if the authenticated user has
// one of roles. Must run after the JWT middleware.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasRole(c, roles) {
			forbidden(c)
			return
		}

		c.Next()
	}
}

// SelfOrRole lets the request through when the :param path value is the
// authenticated user's own ID or when the user has one of roles
func SelfOrRole(param string, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param(param) != c.GetString("userID") && !hasRole(c, roles) {
			forbidden(c)
			return
		}

		c.Next()
	}
}

func hasRole(c *gin.Context, roles []model.Role) bool {
	return slices.Contains(roles, model.Role(c.GetString("role")))
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":     "You don't have permission to do that",
		"requestID": c.GetString("requestID"),
	})
}
