package api

import (
	"bitwise74/account-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserUpdate(c *gin.Context) {
	var data service.UserUpdate
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	// Only admins hand out roles
	if data.Role != nil && !isAdmin(c) {
		forbid(c, "Only admins can change roles")
		return
	}

	// Another user's credentials are admin only
	if !isSelf(c) && !isAdmin(c) && (data.Password != nil || data.Email != nil) {
		forbid(c, "Only admins can change another user's password or email")
		return
	}

	if !a.canManageTarget(c) {
		return
	}

	user, err := a.Users.Update(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
