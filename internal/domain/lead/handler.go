package lead

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"topglass/internal/pkg/response"
	"topglass/internal/pkg/validator"
)

type Handler struct {
	service *Service
	now     func() time.Time
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Create handles POST /api/v1/leads (public)
func (h *Handler) Create(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", errs)
		return
	}

	l, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, CreateLeadResponse{ID: l.ID})
}

// List handles GET /api/v1/admin/leads
func (h *Handler) List(c *gin.Context) {
	f, ok := h.parseFilter(c)
	if !ok {
		return
	}

	f.Limit = 50
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			f.Limit = v
		}
	}
	if o := c.Query("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			f.Offset = v
		}
	}

	leads, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if leads == nil {
		leads = []Lead{}
	}
	response.Success(c, http.StatusOK, ListResponse{Leads: leads, Total: total})
}

// Stats handles GET /api/v1/admin/leads/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Export handles GET /api/v1/admin/leads/export
func (h *Handler) Export(c *gin.Context) {
	f, ok := h.parseFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	n, err := h.service.Export(c.Request.Context(), &buf, f)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename(h.now())+`"`)
	c.Header("X-Export-Count", strconv.Itoa(n))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Get handles GET /api/v1/admin/leads/:id
func (h *Handler) Get(c *gin.Context) {
	l, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// UpdateStatus handles PATCH /api/v1/admin/leads/:id/status
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", errs)
		return
	}

	l, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// UpdateNotes handles PATCH /api/v1/admin/leads/:id/notes
func (h *Handler) UpdateNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", errs)
		return
	}
	if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
		req.Notes = nil
	}

	l, err := h.service.UpdateNotes(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, l)
}

// Delete handles DELETE /api/v1/admin/leads/:id
func (h *Handler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Lead deleted"})
}

func (h *Handler) parseFilter(c *gin.Context) (Filter, bool) {
	f := Filter{Search: c.Query("search")}

	if s := c.Query("status"); s != "" && s != "all" {
		f.Status = Status(s)
		if !f.Status.Valid() {
			response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown status")
			return Filter{}, false
		}
	}

	since, err := PeriodStart(c.Query("period"), h.now())
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_PERIOD", "Period must be one of: today, week, month")
		return Filter{}, false
	}
	f.Since = since
	return f, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrLeadNotFound):
		response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", "Lead not found")
	case errors.Is(err, ErrLeadExists):
		response.Error(c, http.StatusConflict, "LEAD_EXISTS", "A lead with this id already exists")
	case errors.Is(err, ErrInvalidPhone):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid phone number",
			map[string]string{"phone": "Le numéro doit être au format français (10 chiffres commençant par 0)"})
	case errors.Is(err, ErrInvalidPlate):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid registration plate",
			map[string]string{"registration_plate": "L'immatriculation doit être au format AA-123-BB"})
	case errors.Is(err, ErrInvalidStatus):
		response.Error(c, http.StatusBadRequest, "INVALID_STATUS", "Unknown status")
	case errors.Is(err, ErrAttachmentNotFound):
		response.Error(c, http.StatusNotFound, "ATTACHMENT_NOT_FOUND", "Attachment not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
