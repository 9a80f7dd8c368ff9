package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"topglass/internal/pkg/response"
)

type CheckRequest struct {
	Endpoint string `json:"endpoint"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Check handles POST /api/v1/functions/check-rate-limit
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Endpoint) == "" {
		response.Error(c, http.StatusBadRequest, "ENDPOINT_REQUIRED", "Endpoint is required")
		return
	}

	decision, err := h.service.Check(c.Request.Context(), ClientIP(c), strings.TrimSpace(req.Endpoint))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "ENDPOINT_REQUIRED", err.Error())
		return
	}
	if !decision.Allowed {
		c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
		response.ErrorWithDetails(c, http.StatusTooManyRequests, "RATE_LIMITED", decision.Message, decision)
		return
	}
	response.Success(c, http.StatusOK, decision)
}

// ClientIP prefers proxy headers over the socket address.
func ClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("cf-connecting-ip")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(c.GetHeader("x-real-ip")); ip != "" {
		return ip
	}
	if fwd := c.GetHeader("x-forwarded-for"); fwd != "" {
		if ip := strings.TrimSpace(strings.Split(fwd, ",")[0]); ip != "" {
			return ip
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
