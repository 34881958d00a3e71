package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"vietbuild/pkg/domain"
	"vietbuild/pkg/events"
	"vietbuild/pkg/storage"
	"vietbuild/services/portal/internal/queryclient"
	"vietbuild/services/portal/internal/store"
	"vietbuild/services/portal/internal/uploadclient"
)

type UploadMode string

const (
	UploadRemote    UploadMode = "remote"
	UploadSimulated UploadMode = "simulated"
)

type ChatMode string

const (
	ChatRemote ChatMode = "remote"
	ChatMock   ChatMode = "mock"
)

// Registrar creates accounts on the auth service.
type Registrar interface {
	Register(ctx context.Context, username, phone, password string) (domain.Identity, error)
}

// Uploader submits files to the upload service and reads back the
// conversations it created.
type Uploader interface {
	Upload(ctx context.Context, files []uploadclient.File, userID string, maxWorkers int) (uploadclient.UploadResponse, error)
	Conversations(ctx context.Context, userID int64) ([]domain.Conversation, error)
	Conversation(ctx context.Context, id int64) (domain.ConversationDetail, error)
}

// Querier answers questions about uploaded documents.
type Querier interface {
	Chat(ctx context.Context, req queryclient.ChatRequest) (queryclient.ChatResponse, error)
}

// Assistant answers general questions without document context.
type Assistant interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Config holds runtime configuration for the orchestrator.
type Config struct {
	Sessions  *store.SessionStore
	Documents *store.DocumentStore

	Registrar Registrar
	Uploader  Uploader
	Querier   Querier
	Assistant Assistant

	Publisher events.Publisher
	Archive   storage.ObjectStore

	UploadMode        UploadMode
	ChatMode          ChatMode
	MockReplyDelay    time.Duration
	ProgressInterval  time.Duration
	MaxUploadBytes    int64
	AllowedExtensions []string
	PresignExpiry     time.Duration

	// Intn returns a value in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// App drives both stores through uploads, simulated processing and chat.
type App struct {
	sessions  *store.SessionStore
	docs      *store.DocumentStore
	registrar Registrar
	uploader  Uploader
	querier   Querier
	assistant Assistant
	publisher events.Publisher
	archive   storage.ObjectStore

	uploadMode        UploadMode
	chatMode          ChatMode
	mockReplyDelay    time.Duration
	progressInterval  time.Duration
	maxUploadBytes    int64
	allowedExtensions map[string]bool
	presignExpiry     time.Duration
	intn              func(int) int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	tasks          map[string]*task
	conversationID *int64
	activeDocument string
	documentChat   *Transcript
	assistantChat  *Transcript
}

// New validates cfg and builds the orchestrator.
func New(cfg Config) (*App, error) {
	if cfg.Sessions == nil || cfg.Documents == nil {
		return nil, errors.New("session and document stores required")
	}
	uploadMode := cfg.UploadMode
	if uploadMode == "" {
		uploadMode = UploadRemote
	}
	if uploadMode == UploadRemote && cfg.Uploader == nil {
		return nil, errors.New("remote upload mode requires an uploader")
	}
	chatMode := cfg.ChatMode
	if chatMode == "" {
		chatMode = ChatRemote
	}
	if chatMode == ChatRemote && (cfg.Querier == nil || cfg.Assistant == nil) {
		return nil, errors.New("remote chat mode requires query and assistant clients")
	}
	if uploadMode != UploadRemote && uploadMode != UploadSimulated {
		return nil, fmt.Errorf("unknown upload mode %q", uploadMode)
	}
	if chatMode != ChatRemote && chatMode != ChatMock {
		return nil, fmt.Errorf("unknown chat mode %q", chatMode)
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	progressInterval := cfg.ProgressInterval
	if progressInterval <= 0 {
		progressInterval = 500 * time.Millisecond
	}
	mockDelay := cfg.MockReplyDelay
	if mockDelay < 0 {
		mockDelay = 0
	}
	presign := cfg.PresignExpiry
	if presign <= 0 {
		presign = 15 * time.Minute
	}
	intn := cfg.Intn
	if intn == nil {
		intn = rand.IntN
	}
	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		sessions:          cfg.Sessions,
		docs:              cfg.Documents,
		registrar:         cfg.Registrar,
		uploader:          cfg.Uploader,
		querier:           cfg.Querier,
		assistant:         cfg.Assistant,
		publisher:         publisher,
		archive:           cfg.Archive,
		uploadMode:        uploadMode,
		chatMode:          chatMode,
		mockReplyDelay:    mockDelay,
		progressInterval:  progressInterval,
		maxUploadBytes:    cfg.MaxUploadBytes,
		allowedExtensions: allowed,
		presignExpiry:     presign,
		intn:              intn,
		ctx:               ctx,
		cancel:            cancel,
		tasks:             make(map[string]*task),
		documentChat:      NewTranscript(),
		assistantChat:     NewTranscript(assistantWelcome()),
	}, nil
}

// Init restores the persisted session and documents.
func (a *App) Init(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.sessions.Init(gctx) })
	g.Go(func() error { return a.docs.Init(gctx) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("restore state: %w", err)
	}
	if sess, ok := a.sessions.Current(); ok {
		slog.Info("session restored", "username", sess.Username, "role", sess.Role)
	}
	slog.Info("documents restored", "count", len(a.docs.List()))
	return nil
}

// Close stops every processing task and waits for background work. Stores
// are released from memory; their persisted copies stay.
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()
	a.sessions.Dispose()
	a.docs.Dispose()
}

// Session returns the active session.
func (a *App) Session() (domain.Session, bool) {
	return a.sessions.Current()
}

// Login starts a session. Every failure is reported as ErrInvalidCredentials.
func (a *App) Login(ctx context.Context, identifier, secret string, plan domain.Plan) (domain.Session, error) {
	if !a.sessions.Login(ctx, strings.TrimSpace(identifier), secret, plan) {
		return domain.Session{}, ErrInvalidCredentials
	}
	sess, ok := a.sessions.Current()
	if !ok {
		return domain.Session{}, ErrInvalidCredentials
	}
	a.resetChats()
	return sess, nil
}

// Logout ends the session and drops the chat views tied to it.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	a.resetChats()
	return nil
}

// LandingPath is where a session lands after login.
func LandingPath(sess domain.Session) string {
	if sess.IsAdmin() {
		return "/admin"
	}
	return "/dashboard"
}

func (a *App) resetChats() {
	a.mu.Lock()
	a.conversationID = nil
	a.activeDocument = ""
	a.mu.Unlock()
	a.documentChat.Reset()
	a.assistantChat.Reset(assistantWelcome())
}

// goBackground runs fn on the app context and is awaited by Close.
func (a *App) goBackground(fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(a.ctx)
	}()
}

// transition applies patch and announces the resulting state. Patches against
// removed documents are dropped.
func (a *App) transition(ctx context.Context, id string, patch store.DocumentPatch) {
	if _, ok := a.docs.Get(id); !ok {
		return
	}
	if err := a.docs.Update(ctx, id, patch); err != nil {
		slog.Error("update document", "document_id", id, "err", err)
	}
	doc, ok := a.docs.Get(id)
	if !ok {
		return
	}
	a.publish(ctx, events.New(events.ForStatus(doc.Status), doc))
}

func (a *App) publish(ctx context.Context, ev events.Event) {
	if err := a.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("publish document event", "type", ev.Type, "document_id", ev.DocumentID, "err", err)
	}
}
