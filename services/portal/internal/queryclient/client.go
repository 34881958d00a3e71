package queryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vietbuild/pkg/domain"
)

// Client calls the retrieval-augmented chat endpoint of the query service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents a query service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs a query service client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type HistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message        string        `json:"message"`
	ChatHistory    []HistoryItem `json:"chat_history,omitempty"`
	Documents      []string      `json:"documents,omitempty"`
	ConversationID *int64        `json:"conversation_id,omitempty"`
}

type ChatResponse struct {
	Message string          `json:"message"`
	Sources []domain.Source `json:"sources,omitempty"`
}

// Chat sends one question with the prior transcript.
func (c *Client) Chat(ctx context.Context, in ChatRequest) (ChatResponse, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return ChatResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(data))
	if err != nil {
		return ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ChatResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Detail any    `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if s, ok := errResp.Detail.(string); ok && msg == "" {
			msg = s
		}
		if msg == "" {
			msg = resp.Status
		}
		return ChatResponse{}, &APIError{Status: resp.StatusCode, Message: msg}
	}
	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}
