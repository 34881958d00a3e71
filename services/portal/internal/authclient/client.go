package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"vietbuild/pkg/domain"
)

// Client calls the account endpoints of the upload service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an auth error reported by the service, either as a
// non-2xx status or as an "error" field in a 200 body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an auth client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, phone, password string) (domain.Identity, error) {
	payload := map[string]string{"username": username, "phone": phone, "password": password}
	return c.post(ctx, "/api/auth/register", payload)
}

// Login validates a phone/password pair.
func (c *Client) Login(ctx context.Context, phone, password string) (domain.Identity, error) {
	payload := map[string]string{"phone": phone, "password": password}
	return c.post(ctx, "/api/auth/login", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) (domain.Identity, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return domain.Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return domain.Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Identity{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Identity{}, err
	}
	var out identityResponse
	decodeErr := json.Unmarshal(body, &out)
	if resp.StatusCode >= 400 {
		msg := out.message()
		if msg == "" {
			msg = resp.Status
		}
		return domain.Identity{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return domain.Identity{}, decodeErr
	}
	if msg := out.message(); msg != "" {
		return domain.Identity{}, &APIError{Status: http.StatusBadRequest, Message: msg}
	}
	return out.Identity, nil
}

type identityResponse struct {
	domain.Identity
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

func (r identityResponse) message() string {
	if r.Error != "" {
		return r.Error
	}
	if s, ok := r.Detail.(string); ok {
		return s
	}
	return ""
}
