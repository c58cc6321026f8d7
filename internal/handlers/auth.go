package handlers

import (
	"errors"

	"github.com/feedbackforge/backend/internal/config"
	"github.com/feedbackforge/backend/internal/middleware"
	"github.com/feedbackforge/backend/internal/services"
	"github.com/feedbackforge/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(db *gorm.DB, cfg *config.AuthConfig) *AuthHandler {
	return &AuthHandler{service: services.NewAuthService(db, cfg)}
}

// EnsureAdmin creates the configured admin account on startup.
func (h *AuthHandler) EnsureAdmin() error {
	return h.service.EnsureAdmin()
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, token, err := h.service.Login(req.Username, req.Password)
	if err != nil {
		// Do not leak whether the user exists.
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrValidation) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	response.Success(c, gin.H{
		"username": middleware.GetUsername(c),
	})
}
