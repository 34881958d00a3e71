package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vietbuild/pkg/domain"
	"vietbuild/pkg/localstore"
)

// DocumentPatch lists the mutable fields of a document. Nil fields are left as is.
type DocumentPatch struct {
	Status          *domain.DocumentStatus
	Progress        *int
	AnalysisResults *domain.AnalysisResult
}

// DocumentStore owns the document collection. Every mutation persists the
// next collection first and applies it to memory only once that write
// succeeds, so the persisted copy always matches memory.
type DocumentStore struct {
	mu      sync.RWMutex
	records localstore.Store
	docs    map[string]domain.Document
	orders  []string
	now     func() time.Time
}

// NewDocumentStore initializes an empty store over records.
func NewDocumentStore(records localstore.Store) *DocumentStore {
	return &DocumentStore{
		records: records,
		docs:    make(map[string]domain.Document),
		now:     time.Now,
	}
}

// Init loads the persisted collection. Malformed data yields an empty collection.
func (s *DocumentStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()

	data, err := s.records.Get(ctx, localstore.KeyDocuments)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		slog.Warn("discarding malformed persisted documents", "err", err)
		return nil
	}
	for _, d := range docs {
		if d.ID == "" {
			continue
		}
		if _, dup := s.docs[d.ID]; !dup {
			s.orders = append(s.orders, d.ID)
		}
		s.docs[d.ID] = d
	}
	return nil
}

// Dispose drops the in-memory collection without touching the persisted copy.
func (s *DocumentStore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Add appends a document, stamping ID and UploadedAt. Nothing changes when
// persisting fails.
func (s *DocumentStore) Add(ctx context.Context, in domain.NewDocument) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	id := NewDocumentID(now)
	for {
		if _, taken := s.docs[id]; !taken {
			break
		}
		id = NewDocumentID(now)
	}
	doc := domain.Document{
		ID:         id,
		Name:       in.Name,
		Type:       in.Type,
		Size:       in.Size,
		Pages:      in.Pages,
		Status:     in.Status,
		Progress:   clampProgress(in.Progress),
		UploadedAt: now,
		UploadedBy: in.UploadedBy,
	}
	if err := s.persistLocked(ctx, append(s.snapshotLocked(), doc)); err != nil {
		return "", err
	}
	s.docs[id] = doc
	s.orders = append(s.orders, id)
	return id, nil
}

// Update merges patch into the document. Unknown ids are ignored.
func (s *DocumentStore) Update(ctx context.Context, id string, patch DocumentPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	if patch.Status != nil {
		doc.Status = *patch.Status
	}
	if patch.Progress != nil {
		doc.Progress = clampProgress(*patch.Progress)
	}
	if patch.AnalysisResults != nil {
		analysis := cloneAnalysis(*patch.AnalysisResults)
		doc.AnalysisResults = &analysis
	}
	next := s.snapshotLocked()
	for i := range next {
		if next[i].ID == id {
			next[i] = doc
		}
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	s.docs[id] = doc
	return nil
}

// Remove deletes the document. Unknown ids are ignored. Removing the last
// document persists an empty collection.
func (s *DocumentStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return nil
	}
	next := make([]domain.Document, 0, len(s.orders))
	filtered := make([]string, 0, len(s.orders))
	for _, d := range s.snapshotLocked() {
		if d.ID != id {
			next = append(next, d)
			filtered = append(filtered, d.ID)
		}
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return err
	}
	delete(s.docs, id)
	s.orders = filtered
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(id string) (domain.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return domain.Document{}, false
	}
	return cloneDocument(d), true
}

// List returns documents in insertion order.
func (s *DocumentStore) List() []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *DocumentStore) snapshotLocked() []domain.Document {
	res := make([]domain.Document, 0, len(s.orders))
	for _, id := range s.orders {
		if d, ok := s.docs[id]; ok {
			res = append(res, cloneDocument(d))
		}
	}
	return res
}

func (s *DocumentStore) persistLocked(ctx context.Context, docs []domain.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := s.records.Put(ctx, localstore.KeyDocuments, data); err != nil {
		return fmt.Errorf("persist documents: %w", err)
	}
	return nil
}

func (s *DocumentStore) reset() {
	s.docs = make(map[string]domain.Document)
	s.orders = nil
}

func clampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func cloneDocument(d domain.Document) domain.Document {
	if d.AnalysisResults != nil {
		analysis := cloneAnalysis(*d.AnalysisResults)
		d.AnalysisResults = &analysis
	}
	return d
}

func cloneAnalysis(a domain.AnalysisResult) domain.AnalysisResult {
	risks := make([]domain.Risk, len(a.Risks))
	for i, r := range a.Risks {
		r.Standards = append([]string(nil), r.Standards...)
		risks[i] = r
	}
	a.Risks = risks
	a.ComplianceItems = append([]domain.ComplianceItem(nil), a.ComplianceItems...)
	return a
}
