package notification

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"topglass/internal/domain"
	"topglass/internal/pkg/response"
	"topglass/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SendLeadNotification handles POST /api/v1/functions/send-lead-notification
func (h *Handler) SendLeadNotification(c *gin.Context) {
	var req domain.LeadSummary
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	for _, v := range []*string{&req.LeadID, &req.Name, &req.Email, &req.Phone} {
		*v = strings.TrimSpace(*v)
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "MISSING_FIELDS", "Missing required fields", errs)
		return
	}

	id, err := h.service.Notify(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "NOTIFICATION_FAILED", err.Error())
		return
	}
	response.Success(c, http.StatusOK, gin.H{"messageId": id})
}

// ListDeliveries handles GET /api/v1/admin/leads/:id/notifications
func (h *Handler) ListDeliveries(c *gin.Context) {
	out, err := h.service.Deliveries(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list notifications")
		return
	}
	if out == nil {
		out = []Delivery{}
	}
	response.Success(c, http.StatusOK, out)
}
