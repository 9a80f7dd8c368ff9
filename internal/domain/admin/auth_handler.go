package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"topglass/internal/domain/ratelimit"
	"topglass/internal/pkg/response"
)

type AuthHandler struct {
	service *Service
}

func NewAuthHandler(service *Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	Admin       *AdminUser `json:"admin"`
}

// Login handles POST /api/v1/admin/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, admin, err := h.service.Login(c.Request.Context(), req.Email, req.Password, ratelimit.ClientIP(c))
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "AUTH_FAILED", "Invalid email or password")
		return
	case errors.Is(err, ErrAdminInactive):
		response.Error(c, http.StatusForbidden, "ACCOUNT_DISABLED", err.Error())
		return
	case err != nil:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Login failed")
		return
	}

	response.Success(c, http.StatusOK, LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(h.service.jwt.TTL().Seconds()),
		Admin:       admin,
	})
}

// GetMe handles GET /api/v1/admin/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	adminID := c.GetString(ContextAdminID)
	if adminID == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	admin, err := h.service.GetAdminByID(c.Request.Context(), adminID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Admin not found")
		return
	}
	response.Success(c, http.StatusOK, admin)
}
