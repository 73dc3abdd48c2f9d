package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func Healthcheck(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, gin.H{"healthy": true}, "")
}
