package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) UserFetch(c *gin.Context) {
	user, err := a.Users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
