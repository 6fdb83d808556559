package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserLock(c *gin.Context) {
	if err := a.Users.LockAccount(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locked": true})
}

func (a *API) UserUnlock(c *gin.Context) {
	if err := a.Users.UnlockAccount(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locked": false})
}
