package uploadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"vietbuild/pkg/domain"
)

// Client calls the document ingestion endpoints of the upload service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError represents an upload service error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// NewClient constructs an upload service client. Ingestion runs embedding
// pipelines server-side, so the timeout is generous.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// File is one file part of an upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Summary struct {
	TotalFiles             int     `json:"total_files"`
	SuccessfulFiles        int     `json:"successful_files"`
	FailedFiles            int     `json:"failed_files"`
	TotalChunksProcessed   int     `json:"total_chunks_processed"`
	TotalEmbeddingsCreated int     `json:"total_embeddings_created"`
	TotalProcessingTime    float64 `json:"total_processing_time"`
	WorkersUsed            int     `json:"workers_used"`
}

type FileResult struct {
	Filename          string  `json:"filename"`
	Status            string  `json:"status"`
	Message           string  `json:"message"`
	ProcessedChunks   int     `json:"processed_chunks"`
	EmbeddingsCreated int     `json:"embeddings_created"`
	ProcessingTime    float64 `json:"processing_time"`
	Error             string  `json:"error,omitempty"`
}

func (r FileResult) Succeeded() bool {
	return r.Status == "success"
}

type UploadResponse struct {
	ConversationID int64        `json:"conversation_id"`
	Summary        Summary      `json:"summary"`
	Results        []FileResult `json:"results"`
	Errors         []string     `json:"errors"`
}

// Upload sends a batch of files in one multipart request. maxWorkers <= 0 omits the field.
func (c *Client) Upload(ctx context.Context, files []File, userID string, maxWorkers int) (UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		if err := writeFilePart(mw, "files", f); err != nil {
			return UploadResponse{}, err
		}
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return UploadResponse{}, err
	}
	if maxWorkers > 0 {
		if err := mw.WriteField("max_workers", strconv.Itoa(maxWorkers)); err != nil {
			return UploadResponse{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResponse{}, err
	}
	var out UploadResponse
	if err := c.do(ctx, http.MethodPost, "/api/document/upload", mw.FormDataContentType(), &buf, &out); err != nil {
		return UploadResponse{}, err
	}
	return out, nil
}

// UploadSingle sends one file to the single-file endpoint.
func (c *Client) UploadSingle(ctx context.Context, file File) (FileResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := writeFilePart(mw, "file", file); err != nil {
		return FileResult{}, err
	}
	if err := mw.Close(); err != nil {
		return FileResult{}, err
	}
	var out FileResult
	if err := c.do(ctx, http.MethodPost, "/api/document/upload/single", mw.FormDataContentType(), &buf, &out); err != nil {
		return FileResult{}, err
	}
	return out, nil
}

// Conversations lists the conversations created by a user's uploads.
func (c *Client) Conversations(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	var out []domain.Conversation
	path := fmt.Sprintf("/api/conversation/conversations/user/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Conversation returns one conversation with its documents.
func (c *Client) Conversation(ctx context.Context, id int64) (domain.ConversationDetail, error) {
	var out domain.ConversationDetail
	path := fmt.Sprintf("/api/conversation/conversations/%d", id)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return domain.ConversationDetail{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
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
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func writeFilePart(mw *multipart.Writer, field string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}
