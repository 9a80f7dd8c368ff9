package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglass/internal/domain/lead"
	"topglass/internal/domain/ratelimit"
	"topglass/internal/pkg/jwt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T, maxBytes int64) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t, maxBytes)
	db := setupTestDB(t)
	require.NoError(t, db.AutoMigrate(&ratelimit.Entry{}))
	limiter := ratelimit.NewService(ratelimit.NewGormStore(db), nil)
	h := NewHandler(f.service, limiter, jwt.NewLinkSigner("link-secret", time.Hour))

	r := gin.New()
	v1 := r.Group("/api/v1")
	RegisterPublicRoutes(v1, h)
	RegisterAdminRoutes(v1.Group("/admin"), h)
	return r, f
}

func doUpload(r http.Handler, target, leadID, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if leadID != "" {
		_ = w.WriteField("leadId", leadID)
	}
	if filename != "" {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		if contentType != "" {
			hdr.Set("Content-Type", contentType)
		}
		part, _ := w.CreatePart(hdr)
		_, _ = part.Write(content)
	}
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Real-IP", "203.0.113.7")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

const publicUpload = "/api/v1/functions/upload-lead-photo"

func TestHandler_UploadLeadPhoto(t *testing.T) {
	r, f := setupTestRouter(t, 0)

	rr := doUpload(r, publicUpload, f.leadID, "pare-brise.png", "image/png", pngBytes)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Path string `json:"path"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &out))
	assert.True(t, strings.HasPrefix(out.Path, f.leadID+"/"))
	assert.True(t, strings.HasSuffix(out.Path, ".png"))

	l, err := f.leads.GetByID(context.Background(), f.leadID)
	require.NoError(t, err)
	assert.Equal(t, []string{out.Path}, l.Attachments)
}

func TestHandler_UploadLeadPhotoRejections(t *testing.T) {
	r, f := setupTestRouter(t, 32)

	tests := []struct {
		name     string
		leadID   string
		filename string
		mime     string
		content  []byte
		status   int
		code     string
	}{
		{"missing file", f.leadID, "", "", nil, http.StatusBadRequest, "MISSING_FILE"},
		{"missing lead", "", "a.png", "image/png", pngBytes[:16], http.StatusBadRequest, "MISSING_LEAD_ID"},
		{"bad lead", "123", "a.png", "image/png", pngBytes[:16], http.StatusBadRequest, "INVALID_LEAD_ID"},
		{"bad extension", f.leadID, "a.svg", "image/png", pngBytes[:16], http.StatusBadRequest, "INVALID_EXTENSION"},
		{"bad mime", f.leadID, "a.png", "application/zip", pngBytes[:16], http.StatusBadRequest, "INVALID_FILE_TYPE"},
		{"too large", f.leadID, "a.png", "image/png", pngBytes, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doUpload(r, publicUpload, tt.leadID, tt.filename, tt.mime, tt.content)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, decode(t, rr).Error.Code)
		})
	}
}

func TestHandler_UploadLeadPhotoRateLimited(t *testing.T) {
	r, f := setupTestRouter(t, 0)

	// rejected uploads are not counted
	for i := 0; i < 12; i++ {
		rr := doUpload(r, publicUpload, f.leadID, "a.exe", "image/png", pngBytes)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	limit := ratelimit.LimitFor("upload-lead-photo")
	for i := 0; i < limit; i++ {
		f.service.suffix = func() string { return "n" + string(rune('a'+i)) }
		rr := doUpload(r, publicUpload, f.leadID, "a.png", "image/png", pngBytes)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := doUpload(r, publicUpload, f.leadID, "a.png", "image/png", pngBytes)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "900", rr.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, rr).Error.Code)
}

func TestHandler_AttachmentsLifecycle(t *testing.T) {
	r, f := setupTestRouter(t, 0)
	base := "/api/v1/admin/leads/" + f.leadID + "/attachments"

	pdf := []byte("%PDF-1.4 devis signé")
	rr := doUpload(r, base, "", "devis.pdf", "application/pdf", pdf)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var added Attachment
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &added))
	assert.Equal(t, "devis.pdf", added.Name)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Attachment
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, added.Path, list[0].Path)
	assert.Equal(t, "application/pdf", list[0].MimeType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), list[0].ExpiresAt, time.Minute)

	// the signed link serves the file
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, list[0].URL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, pdf, rr.Body.Bytes())

	// a token for one path does not open another
	other := strings.Replace(list[0].URL, added.Path, f.leadID+"/other.pdf", 1)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, other, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, FilesPrefix+added.Path, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// deleting by full link works too
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, base+"?path="+url.QueryEscape(list[0].URL), nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, base+"?path="+url.QueryEscape(added.Path), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "ATTACHMENT_NOT_FOUND", decode(t, rr).Error.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_ListAttachmentsUnknownLead(t *testing.T) {
	r, _ := setupTestRouter(t, 0)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/leads/"+"00000000-0000-4000-8000-000000000000"+"/attachments", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, lead.ErrLeadNotFound.Error(), decode(t, rr).Error.Message)
}

func TestStoragePath(t *testing.T) {
	assert.Equal(t, "a/b.png", storagePath("a/b.png"))
	assert.Equal(t, "a/b.png", storagePath("/a/b.png"))
	assert.Equal(t, "a/b.png", storagePath("http://localhost:8080/api/v1/files/a/b.png?token=x"))
	assert.Equal(t, "", storagePath("  "))
}
