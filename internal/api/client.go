// Package api implements the typed gateway to the remote events API. It owns
// transport concerns only: request shaping, auth headers, and turning HTTP
// responses into domain results or typed failures. It never mutates local
// state and never retries; callers decide what to do with a failure.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gestor-eventos/eventctl/internal/models"
	appErrors "github.com/gestor-eventos/eventctl/pkg/errors"
)

type sessionSource interface {
	Current() (models.Session, bool)
}

// Client issues requests against the events API.
type Client struct {
	baseURL string
	http    *http.Client
	session sessionSource
	logger  *zap.Logger
}

// NewClient constructs a gateway for the given base URL. The session source
// supplies the bearer token for authenticated routes.
func NewClient(baseURL string, timeout time.Duration, session sessionSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    newHTTPClient(timeout),
		session: session,
		logger:  logger,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Login authenticates a user and returns the issued token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Email: email, Password: password}
	var res models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates a new account. The server returns no body the client needs.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	req := models.RegisterRequest{Name: name, Email: email, Password: password}
	return c.do(ctx, http.MethodPost, "/register", req, nil)
}

// ListEvents fetches every event visible to the caller. The result is
// unscoped; filtering to the current owner happens upstream.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

type eventPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	UserID      int64  `json:"userId,omitempty"`
}

// CreateEvent submits a validated draft owned by the given user.
func (c *Client) CreateEvent(ctx context.Context, draft models.EventDraft, date time.Time, userID int64) (*models.Event, error) {
	payload := eventPayload{
		Title:       draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Date:        date.UTC().Format(time.RFC3339),
		UserID:      userID,
	}
	var event models.Event
	if err := c.do(ctx, http.MethodPost, "/events", payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent replaces the mutable fields of an existing event. The id and
// the owner are preserved server-side.
func (c *Client) UpdateEvent(ctx context.Context, id int64, draft models.EventDraft, date time.Time) (*models.Event, error) {
	payload := eventPayload{
		Title:       draft.Title,
		Description: draft.Description,
		Location:    draft.Location,
		Date:        date.UTC().Format(time.RFC3339),
	}
	var event models.Event
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/events/%d", id), payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent removes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil)
}

// failureBody is the error payload shape the server uses. Some routes fill
// `message`, others `error`; the translation layer sorts that out.
type failureBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.CodeTransport, 0, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.CodeTransport, 0, "failed to build request")
	}

	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	if sess, ok := c.session.Current(); ok {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api_request_failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err),
		)
		return appErrors.Wrap(err, appErrors.CodeTransport, 0, "request failed")
	}
	defer res.Body.Close() //nolint:errcheck

	c.logger.Debug("api_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", reqID),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var failure failureBody
		if err := json.NewDecoder(res.Body).Decode(&failure); err != nil || (failure.Message == "" && failure.Error == "") {
			return appErrors.New(appErrors.CodeTransport, res.StatusCode, fmt.Sprintf("request failed with status %d", res.StatusCode))
		}
		return appErrors.Remote(res.StatusCode, failure.Message, failure.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return appErrors.Wrap(err, appErrors.CodeTransport, res.StatusCode, "failed to decode response body")
	}
	return nil
}
