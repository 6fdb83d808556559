package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserVerify(c *gin.Context) {
	if err := a.Users.VerifyEmailWithToken(c.Request.Context(), c.Param("id"), c.Param("token")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified",
	})
}
