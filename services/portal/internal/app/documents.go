package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"vietbuild/pkg/domain"
	"vietbuild/pkg/events"
	"vietbuild/pkg/storage"
	"vietbuild/services/portal/internal/uploadclient"
)

// Documents lists the documents visible to sess in upload order. Admins see
// every document.
func (a *App) Documents(sess domain.Session) []domain.Document {
	all := a.docs.List()
	if sess.IsAdmin() {
		return all
	}
	out := make([]domain.Document, 0, len(all))
	for _, d := range all {
		if d.UploadedBy == sess.Username {
			out = append(out, d)
		}
	}
	return out
}

// Document returns one document visible to sess.
func (a *App) Document(sess domain.Session, id string) (domain.Document, error) {
	doc, ok := a.docs.Get(strings.TrimSpace(id))
	if !ok || (!sess.IsAdmin() && doc.UploadedBy != sess.Username) {
		return domain.Document{}, ErrNotFound
	}
	return doc, nil
}

// RemoveDocument stops any processing for the document and deletes it along
// with its archived bytes.
func (a *App) RemoveDocument(ctx context.Context, sess domain.Session, id string) error {
	doc, err := a.Document(sess, id)
	if err != nil {
		return err
	}
	a.cancelProcessing(doc.ID)
	if err := a.docs.Remove(ctx, doc.ID); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}

	a.mu.Lock()
	wasActive := a.activeDocument == doc.ID
	if wasActive {
		a.activeDocument = ""
	}
	a.mu.Unlock()
	if wasActive {
		a.documentChat.Reset()
	}

	if a.archive != nil {
		if err := a.archive.Delete(ctx, storage.DocumentKey(doc.ID, doc.Name)); err != nil {
			slog.Warn("delete archived document", "document_id", doc.ID, "err", err)
		}
	}
	a.publish(ctx, events.New(events.DocumentDeleted, doc))
	return nil
}

// DownloadURL returns a presigned link to the archived original.
func (a *App) DownloadURL(ctx context.Context, sess domain.Session, id string) (string, error) {
	doc, err := a.Document(sess, id)
	if err != nil {
		return "", err
	}
	if a.archive == nil {
		return "", fmt.Errorf("%w: document archive is not configured", ErrNotFound)
	}
	return a.archive.PresignGet(ctx, storage.DocumentKey(doc.ID, doc.Name), a.presignExpiry)
}

// Conversations lists the conversations the upload service created for sess.
func (a *App) Conversations(ctx context.Context, sess domain.Session) ([]domain.Conversation, error) {
	if a.uploader == nil {
		return []domain.Conversation{}, nil
	}
	convs, err := a.uploader.Conversations(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// Conversation returns one conversation with the documents it covers.
func (a *App) Conversation(ctx context.Context, id int64) (domain.ConversationDetail, error) {
	if a.uploader == nil {
		return domain.ConversationDetail{}, ErrNotFound
	}
	detail, err := a.uploader.Conversation(ctx, id)
	if err != nil {
		var apiErr *uploadclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return domain.ConversationDetail{}, ErrNotFound
		}
		return domain.ConversationDetail{}, fmt.Errorf("get conversation: %w", err)
	}
	return detail, nil
}
