package upload

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"topglass/internal/domain"
	"topglass/internal/domain/lead"
	"topglass/internal/domain/ratelimit"
	"topglass/internal/pkg/response"
)

// FilesPrefix is where signed links point to.
const FilesPrefix = "/api/v1/files/"

// Limiter gates the public upload endpoint.
type Limiter interface {
	Allow(ctx context.Context, ip, endpoint string) bool
	Record(ctx context.Context, ip, endpoint string)
}

// Signer issues and checks temporary file links.
type Signer interface {
	Sign(path string) (string, time.Time, error)
	Verify(token string) (string, error)
}

type Handler struct {
	service *Service
	limiter Limiter
	signer  Signer
}

func NewHandler(service *Service, limiter Limiter, signer Signer) *Handler {
	return &Handler{service: service, limiter: limiter, signer: signer}
}

// UploadLeadPhoto handles POST /api/v1/functions/upload-lead-photo
func (h *Handler) UploadLeadPhoto(c *gin.Context) {
	ip := ratelimit.ClientIP(c)
	if h.limiter != nil && !h.limiter.Allow(c.Request.Context(), ip, domain.EndpointUploadLeadPhoto) {
		denied := ratelimit.Denied()
		c.Header("Retry-After", strconv.Itoa(denied.RetryAfter))
		response.ErrorWithDetails(c, http.StatusTooManyRequests, "RATE_LIMITED", denied.Message, denied)
		return
	}

	u, ok := h.receive(c, c.PostForm("leadId"), SourcePublic)
	if !ok {
		return
	}
	if h.limiter != nil {
		h.limiter.Record(c.Request.Context(), ip, domain.EndpointUploadLeadPhoto)
	}
	response.Success(c, http.StatusOK, gin.H{"path": u.Path})
}

// ListAttachments handles GET /api/v1/admin/leads/:id/attachments
func (h *Handler) ListAttachments(c *gin.Context) {
	l, meta, err := h.service.Attachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]Attachment, 0, len(l.Attachments))
	for _, p := range l.Attachments {
		a, err := h.link(p)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if m, ok := meta[p]; ok {
			a.Name, a.MimeType, a.Size = m.OriginalName, m.MimeType, m.Size
		}
		items = append(items, a)
	}
	response.Success(c, http.StatusOK, items)
}

// AddAttachment handles POST /api/v1/admin/leads/:id/attachments
func (h *Handler) AddAttachment(c *gin.Context) {
	u, ok := h.receive(c, c.Param("id"), SourceAdmin)
	if !ok {
		return
	}
	a, err := h.link(u.Path)
	if err != nil {
		h.writeError(c, err)
		return
	}
	a.Name, a.MimeType, a.Size = u.OriginalName, u.MimeType, u.Size
	response.Success(c, http.StatusCreated, a)
}

// DeleteAttachment handles DELETE /api/v1/admin/leads/:id/attachments?path=
func (h *Handler) DeleteAttachment(c *gin.Context) {
	p := storagePath(c.Query("path"))
	if p == "" {
		response.Error(c, http.StatusBadRequest, "PATH_REQUIRED", "Query parameter path is required")
		return
	}
	l, err := h.service.Detach(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"attachments": l.Attachments})
}

// ServeFile handles GET /api/v1/files/*path?token=
func (h *Handler) ServeFile(c *gin.Context) {
	p := strings.TrimPrefix(c.Param("path"), "/")
	granted, err := h.signer.Verify(c.Query("token"))
	if err != nil || granted != p {
		response.Error(c, http.StatusForbidden, "INVALID_SIGNATURE", ErrInvalidSignature.Error())
		return
	}

	rc, size, contentType, err := h.service.Open(c.Request.Context(), p)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, size, contentType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

func (h *Handler) receive(c *gin.Context, leadID string, src Source) (*Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxBytes()+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, ErrFileTooLarge)
			return nil, false
		}
		response.Error(c, http.StatusBadRequest, "MISSING_FILE", "No file provided")
		return nil, false
	}
	if strings.TrimSpace(leadID) == "" {
		response.Error(c, http.StatusBadRequest, "MISSING_LEAD_ID", "Lead ID is required")
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "MISSING_FILE", "No file provided")
		return nil, false
	}
	defer f.Close()

	u, err := h.service.Upload(c.Request.Context(), Input{
		LeadID:      strings.TrimSpace(leadID),
		Source:      src,
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return u, true
}

func (h *Handler) link(p string) (Attachment, error) {
	token, expires, err := h.signer.Sign(p)
	if err != nil {
		return Attachment{}, err
	}
	return Attachment{
		Path:      p,
		URL:       FilesPrefix + p + "?token=" + url.QueryEscape(token),
		ExpiresAt: expires,
	}, nil
}

// storagePath accepts a bare path or a previously issued link.
func storagePath(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, FilesPrefix); i >= 0 {
		raw = raw[i+len(FilesPrefix):]
	}
	return strings.TrimPrefix(raw, "/")
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File too large. Maximum size is "+strconv.FormatInt(h.service.MaxBytes()>>20, 10)+"MB")
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", err.Error())
	case errors.Is(err, ErrInvalidLeadID):
		response.Error(c, http.StatusBadRequest, "INVALID_LEAD_ID", "Invalid lead ID format")
	case errors.Is(err, ErrInvalidExtension):
		response.Error(c, http.StatusBadRequest, "INVALID_EXTENSION", "Invalid file extension")
	case errors.Is(err, ErrInvalidMimeType):
		response.Error(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Invalid file type")
	case errors.Is(err, ErrInvalidPath):
		response.Error(c, http.StatusBadRequest, "INVALID_PATH", err.Error())
	case errors.Is(err, ErrFileNotFound):
		response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", err.Error())
	case errors.Is(err, lead.ErrLeadNotFound):
		response.Error(c, http.StatusNotFound, "LEAD_NOT_FOUND", err.Error())
	case errors.Is(err, lead.ErrAttachmentNotFound):
		response.Error(c, http.StatusNotFound, "ATTACHMENT_NOT_FOUND", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Upload failed")
	}
}
