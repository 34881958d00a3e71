package events

import (
	"context"
	"time"

	"vietbuild/internal/util"
	"vietbuild/pkg/domain"
)

type Type string

const (
	DocumentAdded      Type = "document.added"
	DocumentProcessing Type = "document.processing"
	DocumentReady      Type = "document.ready"
	DocumentFailed     Type = "document.failed"
	DocumentDeleted    Type = "document.deleted"
)

// Event describes one document lifecycle transition.
type Event struct {
	ID         string                `json:"id"`
	Type       Type                  `json:"type"`
	DocumentID string                `json:"documentId"`
	Status     domain.DocumentStatus `json:"status,omitempty"`
	Progress   int                   `json:"progress"`
	Owner      string                `json:"owner,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// New builds an event for doc stamped with a fresh id and the current time.
func New(t Type, doc domain.Document) Event {
	return Event{
		ID:         util.NewID(),
		Type:       t,
		DocumentID: doc.ID,
		Status:     doc.Status,
		Progress:   doc.Progress,
		Owner:      doc.UploadedBy,
		Timestamp:  time.Now().UTC(),
	}
}

// ForStatus maps a document status to the event announcing it.
func ForStatus(status domain.DocumentStatus) Type {
	switch status {
	case domain.StatusReady:
		return DocumentReady
	case domain.StatusError:
		return DocumentFailed
	case domain.StatusProcessing:
		return DocumentProcessing
	default:
		return DocumentAdded
	}
}

// Publisher delivers lifecycle events to a downstream channel.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
