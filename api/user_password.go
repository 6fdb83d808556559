package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type resetPasswordBody struct {
	Password string `json:"password"`
}

func (a *API) UserResetPassword(c *gin.Context) {
	var data resetPasswordBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	if err := a.Users.ResetPassword(c.Request.Context(), c.Param("id"), data.Password); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated",
	})
}
