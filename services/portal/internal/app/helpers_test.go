package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"vietbuild/pkg/auth"
	"vietbuild/pkg/domain"
	"vietbuild/pkg/events"
	"vietbuild/pkg/localstore"
	"vietbuild/services/portal/internal/authclient"
	"vietbuild/services/portal/internal/queryclient"
	"vietbuild/services/portal/internal/store"
	"vietbuild/services/portal/internal/uploadclient"
)

type fakeAuth struct {
	loginFn    func(ctx context.Context, phone, password string) (domain.Identity, error)
	registerFn func(ctx context.Context, username, phone, password string) (domain.Identity, error)
}

func (f *fakeAuth) Login(ctx context.Context, phone, password string) (domain.Identity, error) {
	return f.loginFn(ctx, phone, password)
}

func (f *fakeAuth) Register(ctx context.Context, username, phone, password string) (domain.Identity, error) {
	return f.registerFn(ctx, username, phone, password)
}

type fakeQuerier struct {
	chatFn func(ctx context.Context, req queryclient.ChatRequest) (queryclient.ChatResponse, error)
}

func (f *fakeQuerier) Chat(ctx context.Context, req queryclient.ChatRequest) (queryclient.ChatResponse, error) {
	return f.chatFn(ctx, req)
}

type fakeAssistant struct {
	chatFn func(ctx context.Context, message string) (string, error)
}

func (f *fakeAssistant) Chat(ctx context.Context, message string) (string, error) {
	return f.chatFn(ctx, message)
}

type fakeUploader struct {
	uploadFn func(ctx context.Context, files []uploadclient.File, userID string, maxWorkers int) (uploadclient.UploadResponse, error)
}

func (f *fakeUploader) Upload(ctx context.Context, files []uploadclient.File, userID string, maxWorkers int) (uploadclient.UploadResponse, error) {
	return f.uploadFn(ctx, files, userID, maxWorkers)
}

func (f *fakeUploader) Conversations(context.Context, int64) ([]domain.Conversation, error) {
	return nil, nil
}

func (f *fakeUploader) Conversation(context.Context, int64) (domain.ConversationDetail, error) {
	return domain.ConversationDetail{}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) forDocument(id string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, ev := range p.events {
		if ev.DocumentID == id {
			out = append(out, ev)
		}
	}
	return out
}

var (
	proUser    = domain.Session{ID: 42, Username: "bob", Role: domain.RoleUser, Plan: domain.PlanPro, Name: "Bob"}
	normalUser = domain.Session{ID: 43, Username: "carol", Role: domain.RoleUser, Plan: domain.PlanNormal, Name: "Carol"}
)

func acceptAll() *fakeAuth {
	return &fakeAuth{
		loginFn: func(_ context.Context, phone, _ string) (domain.Identity, error) {
			return domain.Identity{ID: 42, Username: "bob", Phone: phone}, nil
		},
		registerFn: func(_ context.Context, username, phone, _ string) (domain.Identity, error) {
			return domain.Identity{ID: 42, Username: username, Phone: phone}, nil
		},
	}
}

// newTestApp builds an app over file-backed stores. mutate adjusts the config
// before construction.
func newTestApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	records, err := localstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	authn := acceptAll()
	cfg := Config{
		Sessions:         store.NewSessionStore(records, authn, auth.Credential{Username: "admin", Secret: "admin"}),
		Documents:        store.NewDocumentStore(records),
		Registrar:        authn,
		UploadMode:       UploadSimulated,
		ChatMode:         ChatMock,
		ProgressInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func settled(a *App, id string) func() bool {
	return func() bool {
		d, ok := a.docs.Get(id)
		return ok && (d.Status == domain.StatusReady || d.Status == domain.StatusError)
	}
}

// newRejectingSessions returns a session store whose auth service refuses
// every credential.
func newRejectingSessions(t *testing.T) *store.SessionStore {
	t.Helper()
	records, err := localstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	reject := &fakeAuth{loginFn: func(context.Context, string, string) (domain.Identity, error) {
		return domain.Identity{}, &authclient.APIError{Status: 401, Message: "Invalid phone or password"}
	}}
	return store.NewSessionStore(records, reject, auth.Credential{Username: "admin", Secret: "admin"})
}
