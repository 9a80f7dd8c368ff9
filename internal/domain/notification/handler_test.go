package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"topglass/internal/domain"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T, sender Sender) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(NewService(sender, NewDeliveryRepository(setupTestDB(t)), testConfig(), nil))
	r := gin.New()
	v1 := r.Group("/api/v1")
	RegisterPublicRoutes(v1, h)
	RegisterAdminRoutes(v1.Group("/admin"), h)
	return r
}

func doJSONRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
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

const notifyPath = "/api/v1/functions/send-lead-notification"

func TestHandler_SendLeadNotification(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return("msg-42", nil)
	r := setupTestRouter(t, sender)

	rr := doJSONRequest(r, http.MethodPost, notifyPath, sampleSummary())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	env := decode(t, rr)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"messageId":"msg-42"}`, string(env.Data))

	rr = doJSONRequest(r, http.MethodGet, "/api/v1/admin/leads/"+sampleSummary().LeadID+"/notifications", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var deliveries []Delivery
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &deliveries))
	assert.Len(t, deliveries, 1)
}

func TestHandler_SendLeadNotificationMissingFields(t *testing.T) {
	sender := new(MockSender)
	r := setupTestRouter(t, sender)

	tests := []struct {
		name   string
		mutate func(s *domain.LeadSummary)
		field  string
	}{
		{"no lead id", func(s *domain.LeadSummary) { s.LeadID = "" }, "LeadID"},
		{"blank name", func(s *domain.LeadSummary) { s.Name = "  " }, "Name"},
		{"no email", func(s *domain.LeadSummary) { s.Email = "" }, "Email"},
		{"no phone", func(s *domain.LeadSummary) { s.Phone = "" }, "Phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSummary()
			tt.mutate(&s)
			rr := doJSONRequest(r, http.MethodPost, notifyPath, s)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			env := decode(t, rr)
			assert.Equal(t, "MISSING_FIELDS", env.Error.Code)
			assert.Equal(t, "Missing required fields", env.Error.Message)
			assert.Equal(t, "required", env.Error.Details[tt.field])
		})
	}
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestHandler_SendLeadNotificationProviderError(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return("", errors.New("domain not verified"))
	r := setupTestRouter(t, sender)

	rr := doJSONRequest(r, http.MethodPost, notifyPath, sampleSummary())
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decode(t, rr)
	assert.Equal(t, "NOTIFICATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Message, "domain not verified")
}
