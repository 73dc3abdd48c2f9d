package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/toddlr/toddlr-backend/internal/apperr"
)

// Envelope is the uniform response shape every endpoint returns.
type Envelope struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func RespondSuccess(c *gin.Context, code int, data any, message string) {
	c.JSON(code, Envelope{
		Status:  "success",
		Code:    code,
		Data:    data,
		Message: message,
	})
}

func RespondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	c.JSON(status, Envelope{
		Status:  "error",
		Code:    status,
		Message: apperr.Message(err),
	})
}
