// Package client talks to the topglass API on behalf of the quote wizard.
// Client implements every collaborator interface the orchestrator needs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"topglass/internal/domain"
	"topglass/internal/domain/quote"
	"topglass/internal/pkg/logger"
)

const (
	pathRateLimit = "/api/v1/functions/check-rate-limit"
	pathLeads     = "/api/v1/leads"
	pathUpload    = "/api/v1/functions/upload-lead-photo"
	pathNotify    = "/api/v1/functions/send-lead-notification"

	maxErrorBody = 64 << 10
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *zap.Logger
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		log:        logger.OrNop(cfg.Logger),
	}
}

// Collaborators wires the client into a quote orchestrator.
func (c *Client) Collaborators() quote.Collaborators {
	return quote.Collaborators{
		RateLimiter: c,
		Records:     c,
		Uploader:    c,
		Notifier:    c,
	}
}

// APIError is a non-2xx answer carrying the server's error envelope.
type APIError struct {
	Status  int
	ErrCode string
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *APIError) Code() string    { return e.ErrCode }
func (e *APIError) Details() string { return e.Detail }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// Check implements quote.RateLimiter.
func (c *Client) Check(ctx context.Context, endpoint string) (domain.RateLimitDecision, error) {
	var decision domain.RateLimitDecision
	env, status, err := c.postJSON(ctx, pathRateLimit, map[string]string{"endpoint": endpoint})
	if err != nil {
		return decision, err
	}

	switch status {
	case http.StatusOK:
		err = json.Unmarshal(env.Data, &decision)
	case http.StatusTooManyRequests:
		decision.Allowed = false
		if env.Error != nil && len(env.Error.Details) > 0 {
			err = json.Unmarshal(env.Error.Details, &decision)
		}
		if decision.Message == "" && env.Error != nil {
			decision.Message = env.Error.Message
		}
	default:
		return decision, apiError(status, env)
	}
	if err != nil {
		return decision, fmt.Errorf("decode rate limit decision: %w", err)
	}
	return decision, nil
}

// Insert implements quote.RecordStore.
func (c *Client) Insert(ctx context.Context, fields domain.LeadFields) error {
	env, status, err := c.postJSON(ctx, pathLeads, fields)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return apiError(status, env)
	}
	return nil
}

// Upload implements quote.Uploader.
func (c *Client) Upload(ctx context.Context, leadID string, file quote.BinaryFile) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("leadId", leadID); err != nil {
		return "", err
	}
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(file.Data)
	}
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	env, status, err := c.do(ctx, pathUpload, w.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiError(status, env)
	}

	var out struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return out.Path, nil
}

// Notify implements quote.Notifier.
func (c *Client) Notify(ctx context.Context, summary domain.LeadSummary) error {
	env, status, err := c.postJSON(ctx, pathNotify, summary)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return apiError(status, env)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*envelope, int, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, path, "application/json", bytes.NewReader(b))
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader) (*envelope, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api call", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Duration("latency", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%s: read response: %w", path, err)
	}
	env := &envelope{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil, resp.StatusCode, fmt.Errorf("%s: decode response: %w", path, err)
			}
			return env, resp.StatusCode, nil
		}
	}
	return env, resp.StatusCode, nil
}

func apiError(status int, env *envelope) error {
	e := &APIError{Status: status}
	if env == nil || env.Error == nil {
		return e
	}
	e.ErrCode = env.Error.Code
	e.Message = env.Error.Message
	e.Detail = detailString(env.Error.Details)
	return e
}

// detailString flattens the details payload for display.
func detailString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err == nil {
		parts := make([]string, 0, len(m))
		for k, v := range m {
			parts = append(parts, k+": "+v)
		}
		slices.Sort(parts)
		return strings.Join(parts, ", ")
	}
	return string(raw)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
