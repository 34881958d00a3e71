package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"vietbuild/pkg/domain"
	"vietbuild/services/portal/internal/queryclient"
	"vietbuild/services/portal/internal/store"
)

// readyDocument inserts a document that already finished processing.
func readyDocument(t *testing.T, a *App, owner string) domain.Document {
	t.Helper()
	ctx := context.Background()
	id, err := a.docs.Add(ctx, domain.NewDocument{Name: "tower.pdf", Type: "application/pdf", Size: 2048, Status: domain.StatusUploading, UploadedBy: owner})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	status := domain.StatusReady
	progress := 100
	analysis := domain.AnalysisResult{ComplianceScore: 87, ItemsPassed: 12, ItemsFlagged: 3, StandardsChecked: 7}
	if err := a.docs.Update(ctx, id, store.DocumentPatch{Status: &status, Progress: &progress, AnalysisResults: &analysis}); err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ := a.docs.Get(id)
	return doc
}

func TestSelectDocumentWelcome(t *testing.T) {
	a := newTestApp(t, nil)
	doc := readyDocument(t, a, "bob")

	msgs, err := a.SelectDocument(proUser, doc.ID)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := "Document **\"tower.pdf\"** has been analyzed and is ready for questions. \n\n" +
		"**Analysis Summary:**\n" +
		"- Compliance Score: 87%\n" +
		"- Items Passed: 12\n" +
		"- Items Flagged: 3\n" +
		"- Standards Checked: 7\n\n" +
		"What would you like to know about this document?"
	if len(msgs) != 1 || msgs[0].Content != want || msgs[0].Role != domain.ChatAssistant {
		t.Fatalf("unexpected welcome: %+v", msgs)
	}

	pending, err := a.docs.Add(context.Background(), domain.NewDocument{Name: "p.pdf", Status: domain.StatusUploading, UploadedBy: "bob"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := a.SelectDocument(proUser, pending); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("selecting an unfinished document: expected ErrInvalidInput, got %v", err)
	}
}

func TestAskDocumentMock(t *testing.T) {
	a := newTestApp(t, nil)
	doc := readyDocument(t, a, "bob")
	ctx := context.Background()

	if _, err := a.AskDocument(ctx, proUser, "fire rating?"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("asking without a selection: expected ErrInvalidInput, got %v", err)
	}
	if _, err := a.SelectDocument(proUser, doc.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	msgs, err := a.AskDocument(ctx, proUser, "  What is the fire rating?  ")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected welcome, question and reply, got %d", len(msgs))
	}
	if msgs[1].Role != domain.ChatUser || msgs[1].Content != "What is the fire rating?" || !strings.HasPrefix(msgs[1].ID, "msg_") {
		t.Fatalf("unexpected user message: %+v", msgs[1])
	}
	if msgs[2].Content != documentCatalog[topicFire] {
		t.Fatalf("expected document fire answer, got %q", msgs[2].Content)
	}
	if msgs[1].ID == msgs[2].ID {
		t.Fatalf("question and reply share id %s", msgs[1].ID)
	}

	same, err := a.AskDocument(ctx, proUser, "   ")
	if err != nil || len(same) != 3 {
		t.Fatalf("blank input should be ignored: %d messages, err %v", len(same), err)
	}
	if _, err := a.AskDocument(ctx, normalUser, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("normal plan: expected ErrForbidden, got %v", err)
	}
}

func TestAskDocumentRemote(t *testing.T) {
	var got queryclient.ChatRequest
	a := newTestApp(t, func(cfg *Config) {
		cfg.ChatMode = ChatRemote
		cfg.Assistant = &fakeAssistant{}
		cfg.Querier = &fakeQuerier{chatFn: func(_ context.Context, req queryclient.ChatRequest) (queryclient.ChatResponse, error) {
			got = req
			return queryclient.ChatResponse{
				Message: "raw",
				Sources: []domain.Source{
					{Title: "A", Content: "same passage"},
					{Title: "B", Content: "same passage "},
				},
			}, nil
		}}
	})
	doc := readyDocument(t, a, "bob")
	if _, err := a.SelectDocument(proUser, doc.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	conv := int64(9)
	a.mu.Lock()
	a.conversationID = &conv
	a.mu.Unlock()

	msgs, err := a.AskDocument(context.Background(), proUser, "cover depth?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got.Message != "cover depth?" || got.ConversationID == nil || *got.ConversationID != 9 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.ChatHistory) != 1 || got.ChatHistory[0].Role != "assistant" {
		t.Fatalf("history should hold the prior transcript only, got %+v", got.ChatHistory)
	}
	if len(got.Documents) != 1 || got.Documents[0] != "tower.pdf" {
		t.Fatalf("unexpected documents: %v", got.Documents)
	}
	reply := msgs[len(msgs)-1]
	if reply.Content != "**📚 Nguồn 1** - A\n\nsame passage" || len(reply.Sources) != 2 {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestAskDocumentRemoteFailureApologizes(t *testing.T) {
	a := newTestApp(t, func(cfg *Config) {
		cfg.ChatMode = ChatRemote
		cfg.Assistant = &fakeAssistant{}
		cfg.Querier = &fakeQuerier{chatFn: func(context.Context, queryclient.ChatRequest) (queryclient.ChatResponse, error) {
			return queryclient.ChatResponse{}, errors.New("connection refused")
		}}
	})
	doc := readyDocument(t, a, "bob")
	if _, err := a.SelectDocument(proUser, doc.ID); err != nil {
		t.Fatalf("select: %v", err)
	}
	msgs, err := a.AskDocument(context.Background(), proUser, "hello")
	if err != nil {
		t.Fatalf("failure must not surface as error: %v", err)
	}
	if len(msgs) != 3 || msgs[1].Content != "hello" || msgs[2].Content != apologyText {
		t.Fatalf("expected question kept and apology appended, got %+v", msgs)
	}
}

func TestAskAssistant(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()

	start := a.AssistantChat()
	if len(start) != 1 || !strings.HasPrefix(start[0].Content, "Chào mừng đến với **ConstructionIQ**!") {
		t.Fatalf("unexpected initial transcript: %+v", start)
	}
	msgs := a.AskAssistant(ctx, "What about fire safety?")
	if len(msgs) != 3 || msgs[2].Content != generalCatalog[topicFire] {
		t.Fatalf("expected general fire answer, got %+v", msgs)
	}
	msgs = a.AskAssistant(ctx, "Cường độ bê tông?")
	if msgs[len(msgs)-1].Content != generalCatalog[topicConcrete] {
		t.Fatalf("expected concrete answer")
	}
	msgs = a.AskAssistant(ctx, "tell me a joke")
	if msgs[len(msgs)-1].Content != generalCatalog[topicDefault] {
		t.Fatalf("expected default answer")
	}
	if got := a.AskAssistant(ctx, "\t "); len(got) != len(msgs) {
		t.Fatalf("blank input should be ignored")
	}
}

func TestAskAssistantRemote(t *testing.T) {
	calls := 0
	a := newTestApp(t, func(cfg *Config) {
		cfg.ChatMode = ChatRemote
		cfg.Querier = &fakeQuerier{}
		cfg.Assistant = &fakeAssistant{chatFn: func(_ context.Context, message string) (string, error) {
			calls++
			if calls > 1 {
				return "", errors.New("timeout")
			}
			return "echo: " + message, nil
		}}
	})
	ctx := context.Background()
	msgs := a.AskAssistant(ctx, "hi")
	if msgs[len(msgs)-1].Content != "echo: hi" {
		t.Fatalf("unexpected reply %q", msgs[len(msgs)-1].Content)
	}
	msgs = a.AskAssistant(ctx, "again")
	if msgs[len(msgs)-1].Content != apologyText || msgs[len(msgs)-2].Content != "again" {
		t.Fatalf("expected apology after failure, got %+v", msgs[len(msgs)-2:])
	}
}

func TestLogoutResetsChats(t *testing.T) {
	a := newTestApp(t, nil)
	ctx := context.Background()
	if _, err := a.Login(ctx, "admin", "admin", ""); err != nil {
		t.Fatalf("login: %v", err)
	}
	a.AskAssistant(ctx, "hi")
	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := a.AssistantChat(); len(got) != 1 || got[0].ID != "welcome" {
		t.Fatalf("assistant chat not reset: %+v", got)
	}
	if _, ok := a.Session(); ok {
		t.Fatalf("session should be gone")
	}
}
