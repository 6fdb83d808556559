package api

import (
	"bitwise74/account-api/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserRegister(c *gin.Context) {
	var data service.UserCreate
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	user, err := a.Users.RegisterUser(c.Request.Context(), data)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}
