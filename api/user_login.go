package api

import (
	"bitwise74/account-api/pkg/middleware"
	"bitwise74/account-api/pkg/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) UserLogin(c *gin.Context) {
	requestID := c.GetString("requestID")

	var data loginBody
	if err := c.ShouldBindJSON(&data); err != nil {
		badBody(c, err)
		return
	}

	if data.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Email field can't be empty",
			"requestID": requestID,
		})
		return
	}

	if data.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Password field can't be empty",
			"requestID": requestID,
		})
		return
	}

	// Every failed step answers the same, locked accounts included
	user, err := a.Users.LoginUser(c.Request.Context(), data.Email, data.Password)
	if err != nil {
		fail(c, err)
		return
	}

	authToken, exp, err := security.MakeAuthToken(a.Config.JWT.Secret, user.ID, string(user.Role), a.Config.JWT.TTL)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to generate JWT auth token", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	secure := strings.HasPrefix(a.Config.Server.BaseURL, "https://")
	maxAge := int(a.Config.JWT.TTL.Seconds())

	c.SetCookie(middleware.AuthCookie, authToken, maxAge, "/", "", secure, true)
	c.SetCookie("logged_in", "1", maxAge, "/", "", secure, false)
	c.JSON(http.StatusOK, gin.H{
		"userID":    user.ID,
		"token":     authToken,
		"expiresAt": exp,
	})
}
