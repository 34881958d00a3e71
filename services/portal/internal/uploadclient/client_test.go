package uploadclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadSendsMultipartBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/document/upload" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		files := r.MultipartForm.File["files"]
		if len(files) != 2 {
			t.Errorf("expected 2 files, got %d", len(files))
		}
		if r.FormValue("user_id") != "42" || r.FormValue("max_workers") != "4" {
			t.Errorf("unexpected fields: user_id=%q max_workers=%q", r.FormValue("user_id"), r.FormValue("max_workers"))
		}
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "%PDF-a" {
			t.Errorf("unexpected first file content %q", data)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"conversation_id": 5,
			"summary":         map[string]any{"total_files": 2, "successful_files": 1, "failed_files": 1},
			"results": []map[string]any{
				{"filename": "a.pdf", "status": "success", "message": "ok", "processed_chunks": 3},
				{"filename": "b.pdf", "status": "error", "message": "bad", "error": "parse failed"},
			},
			"errors": []string{"b.pdf: parse failed"},
		})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Upload(context.Background(), []File{
		{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF-a")},
		{Name: "b.pdf", Data: []byte("%PDF-b")},
	}, "42", 4)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.ConversationID != 5 || len(resp.Results) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.Results[0].Succeeded() || resp.Results[1].Succeeded() {
		t.Fatalf("unexpected result statuses: %+v", resp.Results)
	}
	if resp.Results[1].Error != "parse failed" {
		t.Fatalf("unexpected error text: %q", resp.Results[1].Error)
	}
}

func TestUploadOmitsMaxWorkersForSingleFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		if _, ok := r.MultipartForm.Value["max_workers"]; ok {
			t.Errorf("max_workers should be omitted")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"conversation_id": 1, "results": []any{}})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Upload(context.Background(), []File{{Name: "a.pdf"}}, "1", 0); err != nil {
		t.Fatalf("upload: %v", err)
	}
}

func TestUploadReturnsAPIErrorOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "No files provided"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Upload(context.Background(), nil, "1", 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "No files provided" {
		t.Fatalf("expected APIError with detail, got %v", err)
	}
}

func TestConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/conversation/conversations/user/3":
			_ = json.NewEncoder(w).Encode([]map[string]any{{"id": 11, "title": "Conversation for a.pdf", "history": "[]"}})
		case "/api/conversation/conversations/11":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": 11, "title": "Conversation for a.pdf", "history": "[]",
				"documents": []map[string]any{{"id": 1, "name": "a.pdf", "size": 1024}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Conversation not found"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.Conversations(context.Background(), 3)
	if err != nil {
		t.Fatalf("list conversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != 11 {
		t.Fatalf("unexpected list: %+v", list)
	}
	detail, err := c.Conversation(context.Background(), 11)
	if err != nil {
		t.Fatalf("conversation detail: %v", err)
	}
	if len(detail.Documents) != 1 || detail.Documents[0].Name != "a.pdf" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	_, err = c.Conversation(context.Background(), 99)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}

func TestUploadSingle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/document/upload/single" {
			http.NotFound(w, r)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"filename": "a.pdf", "status": "success"})
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL).UploadSingle(context.Background(), File{Name: "a.pdf", Data: []byte("x")})
	if err != nil {
		t.Fatalf("upload single: %v", err)
	}
	if !res.Succeeded() {
		t.Fatalf("unexpected result: %+v", res)
	}
}
