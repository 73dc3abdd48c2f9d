package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/toddlr/toddlr-backend/internal/apperr"
	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/requestdata"
	"github.com/toddlr/toddlr-backend/internal/services"
	"github.com/toddlr/toddlr-backend/internal/types"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var body struct {
		Email     string `json:"email"`
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	user := &types.User{
		Email:     body.Email,
		Username:  body.Username,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	}
	created, err := h.authService.RegisterUser(c.Request.Context(), user)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusCreated, created, "User registered successfully")
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, apperr.Invalid("Invalid request body"))
		return
	}
	token, user, err := h.authService.LoginUser(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, gin.H{"token": token, "user": user}, "Logged in successfully")
}

// GET /user/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := requestdata.UserID(c.Request.Context())
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondSuccess(c, http.StatusOK, user, "")
}
