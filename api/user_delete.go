package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserDelete(c *gin.Context) {
	if !a.canManageTarget(c) {
		return
	}

	deleted, err := a.Users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	if !deleted {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
			"error":     "User not found",
			"requestID": c.GetString("requestID"),
		})
		return
	}

	c.Status(http.StatusNoContent)
}
