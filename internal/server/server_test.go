package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglass/internal/client"
	"topglass/internal/config"
	"topglass/internal/database"
	"topglass/internal/domain"
	"topglass/internal/domain/admin"
	"topglass/internal/domain/catalog"
	"topglass/internal/domain/lead"
	"topglass/internal/domain/notification"
	"topglass/internal/domain/quote"
	"topglass/internal/domain/upload"
)

const (
	adminEmail    = "admin@topglassfrance.com"
	adminPassword = "correct-horse-battery"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// captureSender records emails instead of delivering them.
type captureSender struct {
	mu   sync.Mutex
	sent []notification.Email
}

func (s *captureSender) Name() string { return "capture" }

func (s *captureSender) Send(_ context.Context, e notification.Email) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, e)
	return fmt.Sprintf("capture-%d", len(s.sent)), nil
}

func (s *captureSender) emails() []notification.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification.Email(nil), s.sent...)
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:             "test",
		JWTSecret:          "jwt-test-secret",
		JWTTTL:             time.Hour,
		SigningSecret:      "link-test-secret",
		SignedURLTTL:       time.Hour,
		UploadDir:          t.TempDir(),
		MaxUploadBytes:     upload.DefaultMaxBytes,
		NotifyFrom:         "TopGlass <noreply@topglassfrance.com>",
		NotifyTo:           []string{"ops@topglassfrance.com"},
		AdminURL:           "https://topglassfrance.com/admin",
		CORSAllowedOrigins: []string{"*"},
	}
}

func setupTestServer(t *testing.T) (*Server, *httptest.Server, *captureSender) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:server_%s?mode=memory&cache=shared", name), nil)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	sender := &captureSender{}
	s := New(Deps{Config: testConfig(t), DB: db, Sender: sender})
	ts := httptest.NewServer(s.Router)
	t.Cleanup(ts.Close)
	return s, ts, sender
}

func login(t *testing.T, s *Server, ts *httptest.Server) string {
	t.Helper()
	_, _, err := s.Admins.EnsureAdmin(context.Background(), adminEmail, adminPassword, "Opérateur")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"email": adminEmail, "password": adminPassword})
	resp, err := http.Post(ts.URL+"/api/v1/admin/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var out admin.LoginResponse
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func adminGet(t *testing.T, ts *httptest.Server, token, path string, dst any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil && resp.StatusCode == http.StatusOK {
		var env envelope
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
		require.NoError(t, json.Unmarshal(env.Data, dst))
	}
	return resp.StatusCode
}

// fillRequest drives m through steps 1 to 4 with a complete glazing request.
func fillRequest(t *testing.T, m *quote.Machine) {
	t.Helper()
	require.NoError(t, m.SetRegistration("ab123cd"))
	require.NoError(t, m.OpenVehicleConfirmation())
	require.NoError(t, m.SelectBrand("PEUGEOT"))
	require.NoError(t, m.SelectModel("208"))
	require.NoError(t, m.SelectBodyType(catalog.BodyTypes()[0]))
	require.NoError(t, m.SetVIN("VF3ABCDEFGH123456"))
	require.NoError(t, m.ConfirmVehicle())

	require.NoError(t, m.SetServiceType(domain.ServiceGlazing))
	require.NoError(t, m.ToggleGlassZone("pare-brise"))
	require.NoError(t, m.Next())

	_, err := m.AddPhotos(quote.BinaryFile{
		Name:        "impact.png",
		ContentType: "image/png",
		Data:        []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
	})
	require.NoError(t, err)
	require.NoError(t, m.SetDescription("Impact côté conducteur"))
	require.NoError(t, m.Next())

	require.NoError(t, m.SetCivility(catalog.CivilityMrs))
	require.NoError(t, m.SetFirstName("Claire"))
	require.NoError(t, m.SetLastName("Martin"))
	require.NoError(t, m.SetEmail("claire@example.fr"))
	require.NoError(t, m.SetPhone("06 12 34 56 78"))
	require.NoError(t, m.SetLocation("Marseille"))
	require.NoError(t, m.SetContactPreference("phone"))
	require.NoError(t, m.SetConsent(true))
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "topglass_http_request_duration_seconds")
}

func TestQuoteSubmission_EndToEnd(t *testing.T) {
	s, ts, sender := setupTestServer(t)
	token := login(t, s, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/admin/leads/feed?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.Hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	c := client.New(client.Config{BaseURL: ts.URL, Timeout: 5 * time.Second})
	m := quote.NewMachine(quote.NewOrchestrator(c.Collaborators()))
	fillRequest(t, m)

	receipt, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, quote.PhaseStep5, m.Phase())
	assert.True(t, receipt.Notified)
	assert.Zero(t, receipt.FailedUploads)
	require.Len(t, receipt.UploadedPaths, 1)
	assert.True(t, strings.HasPrefix(receipt.UploadedPaths[0], receipt.LeadID+"/"))

	// The dashboard sees the creation first.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev lead.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, lead.EventCreated, ev.Type)
	assert.Equal(t, receipt.LeadID, ev.LeadID)

	stored, err := s.Leads.GetByID(context.Background(), receipt.LeadID)
	require.NoError(t, err)
	assert.Equal(t, "Mme Claire Martin", stored.Name)
	assert.Equal(t, "0612345678", stored.Phone)
	assert.Equal(t, "AB-123-CD", stored.RegistrationPlate)
	assert.Equal(t, receipt.UploadedPaths, stored.Attachments)
	require.NotNil(t, stored.Notes)
	assert.Contains(t, *stored.Notes, "Zones de vitrage: Pare-brise")
	assert.Contains(t, *stored.Notes, "VIN: VF3ABCDEFGH123456")

	emails := sender.emails()
	require.Len(t, emails, 1)
	assert.Contains(t, emails[0].Subject, "Mme Claire Martin")
	assert.Equal(t, []string{"ops@topglassfrance.com"}, emails[0].To)

	var deliveries []notification.Delivery
	require.Equal(t, http.StatusOK, adminGet(t, ts, token, "/api/v1/admin/leads/"+receipt.LeadID+"/notifications", &deliveries))
	require.Len(t, deliveries, 1)
	assert.Equal(t, notification.StatusSent, deliveries[0].Status)

	var attachments []upload.Attachment
	require.Equal(t, http.StatusOK, adminGet(t, ts, token, "/api/v1/admin/leads/"+receipt.LeadID+"/attachments", &attachments))
	require.Len(t, attachments, 1)
	assert.Equal(t, "impact.png", attachments[0].Name)

	resp, err := http.Get(ts.URL + attachments[0].URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestQuoteSubmission_RateLimited(t *testing.T) {
	_, ts, sender := setupTestServer(t)
	c := client.New(client.Config{BaseURL: ts.URL, Timeout: 5 * time.Second})

	for i := 0; i < 5; i++ {
		d, err := c.Check(context.Background(), domain.EndpointLeadsSubmit)
		require.NoError(t, err)
		require.True(t, d.Allowed, "check %d", i+1)
	}

	m := quote.NewMachine(quote.NewOrchestrator(c.Collaborators()))
	var got []quote.Message
	m.Subscribe(func(msg quote.Message) { got = append(got, msg) })
	fillRequest(t, m)

	_, err := m.Submit(context.Background())
	require.Error(t, err)
	var se *quote.SubmitError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, quote.KindRateLimited, se.Kind)
	assert.Equal(t, quote.PhaseStep4, m.Phase())
	require.Len(t, got, 1)
	assert.Equal(t, quote.LevelError, got[0].Level)
	assert.Empty(t, sender.emails())
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	s, ts, _ := setupTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, adminGet(t, ts, "", "/api/v1/admin/leads", nil))
	assert.Equal(t, http.StatusUnauthorized, adminGet(t, ts, "not-a-token", "/api/v1/admin/leads/stats", nil))

	token := login(t, s, ts)
	var list lead.ListResponse
	require.Equal(t, http.StatusOK, adminGet(t, ts, token, "/api/v1/admin/leads", &list))
	assert.Zero(t, list.Total)
	assert.Empty(t, list.Leads)

	var me admin.AdminUser
	require.Equal(t, http.StatusOK, adminGet(t, ts, token, "/api/v1/admin/auth/me", &me))
	assert.Equal(t, adminEmail, me.Email)
}

func TestDeleteLead_RemovesFiles(t *testing.T) {
	s, ts, _ := setupTestServer(t)
	token := login(t, s, ts)

	c := client.New(client.Config{BaseURL: ts.URL, Timeout: 5 * time.Second})
	m := quote.NewMachine(quote.NewOrchestrator(c.Collaborators()))
	fillRequest(t, m)
	receipt, err := m.Submit(context.Background())
	require.NoError(t, err)
	require.Len(t, receipt.UploadedPaths, 1)

	var attachments []upload.Attachment
	require.Equal(t, http.StatusOK, adminGet(t, ts, token, "/api/v1/admin/leads/"+receipt.LeadID+"/attachments", &attachments))
	require.Len(t, attachments, 1)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/admin/leads/"+receipt.LeadID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err = s.Leads.GetByID(context.Background(), receipt.LeadID)
	assert.ErrorIs(t, err, lead.ErrLeadNotFound)

	resp, err = http.Get(ts.URL + attachments[0].URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
