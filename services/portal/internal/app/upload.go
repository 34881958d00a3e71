package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"vietbuild/pkg/domain"
	"vietbuild/pkg/events"
	"vietbuild/pkg/pdfmeta"
	"vietbuild/pkg/storage"
	"vietbuild/services/portal/internal/store"
	"vietbuild/services/portal/internal/uploadclient"
)

const (
	defaultContentType = "application/pdf"
	batchWorkers       = 4
)

// UploadFile is one file accepted from the caller.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload records every file as an uploading document and processes the batch
// in the background. The new ids are returned in file order; a file whose
// record cannot be persisted is dropped from the batch.
func (a *App) Upload(ctx context.Context, sess domain.Session, files []UploadFile) ([]string, error) {
	if sess.Plan != domain.PlanPro {
		return nil, fmt.Errorf("%w: uploads require the pro plan", ErrForbidden)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files", ErrInvalidInput)
	}
	for _, f := range files {
		if err := a.checkFile(f); err != nil {
			return nil, err
		}
	}

	owner := sess.Username
	if owner == "" {
		owner = "unknown"
	}
	ids := make([]string, 0, len(files))
	accepted := make([]UploadFile, 0, len(files))
	var persistErr error
	for _, f := range files {
		contentType := f.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		id, err := a.docs.Add(ctx, domain.NewDocument{
			Name:       f.Name,
			Type:       contentType,
			Size:       int64(len(f.Data)),
			Pages:      a.pageCount(f.Data),
			Status:     domain.StatusUploading,
			Progress:   0,
			UploadedBy: owner,
		})
		if err != nil {
			slog.Error("persist new document", "name", f.Name, "err", err)
			persistErr = err
			continue
		}
		ids = append(ids, id)
		accepted = append(accepted, f)
		if doc, ok := a.docs.Get(id); ok {
			a.publish(ctx, events.New(events.DocumentAdded, doc))
		}
	}
	if len(ids) == 0 {
		return nil, persistErr
	}
	files = accepted

	userID := strconv.FormatInt(sess.ID, 10)
	a.goBackground(func(ctx context.Context) {
		a.archiveBatch(ctx, ids, files)
		switch a.uploadMode {
		case UploadSimulated:
			for _, id := range ids {
				a.startProcessing(id)
			}
		default:
			a.uploadRemote(ctx, ids, files, userID)
		}
	})
	return ids, nil
}

func (a *App) checkFile(f UploadFile) error {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	if len(a.allowedExtensions) > 0 && !a.allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return fmt.Errorf("%w: %s: file type not allowed", ErrInvalidInput, name)
	}
	if a.maxUploadBytes > 0 && int64(len(f.Data)) > a.maxUploadBytes {
		return fmt.Errorf("%w: %s: file exceeds %d bytes", ErrInvalidInput, name, a.maxUploadBytes)
	}
	return nil
}

// pageCount reads the page count of a PDF, or draws 5-54 for anything the
// parser cannot read.
func (a *App) pageCount(data []byte) int {
	if n, err := pdfmeta.PageCount(data); err == nil {
		return n
	}
	return a.intn(50) + 5
}

func batchSize(n int) int {
	if n > 1 {
		return batchWorkers
	}
	return 0
}

// archiveBatch stores the original bytes. Failures are logged only.
func (a *App) archiveBatch(ctx context.Context, ids []string, files []UploadFile) {
	if a.archive == nil {
		return
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(batchSize(len(files)), 1))
	for i, f := range files {
		id := ids[i]
		g.Go(func() error {
			key := storage.DocumentKey(id, f.Name)
			contentType := f.ContentType
			if contentType == "" {
				contentType = defaultContentType
			}
			if err := a.archive.Put(gctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), contentType); err != nil {
				slog.Warn("archive document", "document_id", id, "key", key, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// uploadRemote sends the batch and settles each document from its result.
func (a *App) uploadRemote(ctx context.Context, ids []string, files []UploadFile, userID string) {
	parts := make([]uploadclient.File, len(files))
	for i, f := range files {
		parts[i] = uploadclient.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data}
	}
	resp, err := a.uploader.Upload(ctx, parts, userID, batchSize(len(files)))
	if err != nil {
		slog.Error("batch upload failed", "documents", len(ids), "err", err)
		for _, id := range ids {
			a.fail(ctx, id)
		}
		return
	}

	convID := resp.ConversationID
	a.mu.Lock()
	a.conversationID = &convID
	a.mu.Unlock()

	for i, id := range ids {
		if i >= len(resp.Results) {
			slog.Warn("upload result missing", "document_id", id, "index", i)
			a.fail(ctx, id)
			continue
		}
		result := resp.Results[i]
		if !result.Succeeded() {
			slog.Warn("file upload rejected", "document_id", id, "filename", result.Filename, "status", result.Status, "error", result.Error)
			a.fail(ctx, id)
			continue
		}
		a.complete(ctx, id)
	}

	if len(resp.Results) > 0 && resp.Results[0].Succeeded() {
		if doc, ok := a.docs.Get(ids[0]); ok && doc.Status == domain.StatusReady {
			a.selectDocument(doc)
		}
	}
}

func (a *App) complete(ctx context.Context, id string) {
	status := domain.StatusReady
	progress := 100
	analysis := mockAnalysis(a.intn)
	a.transition(ctx, id, store.DocumentPatch{Status: &status, Progress: &progress, AnalysisResults: &analysis})
}

func (a *App) fail(ctx context.Context, id string) {
	status := domain.StatusError
	progress := 0
	a.transition(ctx, id, store.DocumentPatch{Status: &status, Progress: &progress})
}
