package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Created answers a successful POST that stored a new record.
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
