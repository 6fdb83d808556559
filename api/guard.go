package api

import (
	"bitwise74/account-api/internal/model"
	"net/http"

	"github.com/gin-gonic/gin"
)

func isSelf(c *gin.Context) bool {
	return c.Param("id") == c.GetString("userID")
}

func isAdmin(c *gin.Context) bool {
	return model.Role(c.GetString("role")) == model.RoleAdmin
}

// canManageTarget lets managers act on other accounts as long as the target
// isn't an admin. It answers the request itself when it returns false.
func (a *API) canManageTarget(c *gin.Context) bool {
	if isSelf(c) || isAdmin(c) {
		return true
	}

	target, err := a.Users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return false
	}

	if target.Role == model.RoleAdmin {
		forbid(c, "Only admins can manage admin accounts")
		return false
	}

	return true
}

func forbid(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}
