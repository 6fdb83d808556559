package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a *API) UserList(c *gin.Context) {
	requestID := c.GetString("requestID")

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "skip must be a non-negative integer",
			"requestID": requestID,
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "limit must be a positive integer",
			"requestID": requestID,
		})
		return
	}

	users, err := a.Users.ListUsers(c.Request.Context(), skip, limit)
	if err != nil {
		fail(c, err)
		return
	}

	total, err := a.Users.Count(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}
