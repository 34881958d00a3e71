package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vietbuild/internal/util"
	"vietbuild/pkg/domain"
	"vietbuild/services/portal/internal/queryclient"
)

const (
	welcomeMessageID = "welcome"
	apologyText      = "Xin lỗi, đã có lỗi xảy ra khi xử lý câu hỏi của bạn. Vui lòng thử lại."
)

func assistantWelcome() domain.ChatMessage {
	return domain.ChatMessage{
		ID:   welcomeMessageID,
		Role: domain.ChatAssistant,
		Content: `Chào mừng đến với **ConstructionIQ**! Tôi là trợ lý AI chuyên về tuân thủ xây dựng của bạn.

I can answer questions about:
- Vietnamese construction standards (TCVN)
- Building regulations (QCVN)
- Permit requirements
- Material specifications
- Safety compliance

Ask me anything about construction compliance in Vietnam!`,
	}
}

func documentWelcome(doc domain.Document) domain.ChatMessage {
	var a domain.AnalysisResult
	if doc.AnalysisResults != nil {
		a = *doc.AnalysisResults
	}
	return domain.ChatMessage{
		ID:   welcomeMessageID,
		Role: domain.ChatAssistant,
		Content: fmt.Sprintf(`Document **"%s"** has been analyzed and is ready for questions. 

**Analysis Summary:**
- Compliance Score: %d%%
- Items Passed: %d
- Items Flagged: %d
- Standards Checked: %d

What would you like to know about this document?`, doc.Name, a.ComplianceScore, a.ItemsPassed, a.ItemsFlagged, a.StandardsChecked),
	}
}

// SelectDocument makes a ready document the subject of the document chat and
// resets that chat to a welcome summarizing its analysis.
func (a *App) SelectDocument(sess domain.Session, id string) ([]domain.ChatMessage, error) {
	doc, err := a.Document(sess, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusReady {
		return nil, fmt.Errorf("%w: document is not ready", ErrInvalidInput)
	}
	a.selectDocument(doc)
	return a.documentChat.Messages(), nil
}

func (a *App) selectDocument(doc domain.Document) {
	a.mu.Lock()
	a.activeDocument = doc.ID
	a.mu.Unlock()
	a.documentChat.Reset(documentWelcome(doc))
}

// DocumentChat returns the active document id and its transcript.
func (a *App) DocumentChat() (string, []domain.ChatMessage) {
	a.mu.Lock()
	active := a.activeDocument
	a.mu.Unlock()
	return active, a.documentChat.Messages()
}

// AssistantChat returns the general assistant transcript.
func (a *App) AssistantChat() []domain.ChatMessage {
	return a.assistantChat.Messages()
}

// AskDocument sends a question about the selected document and returns the
// updated transcript. Blank input leaves the transcript untouched. Remote
// failures end in an apology message, never in an error.
func (a *App) AskDocument(ctx context.Context, sess domain.Session, text string) ([]domain.ChatMessage, error) {
	if sess.Plan != domain.PlanPro {
		return nil, fmt.Errorf("%w: document chat requires the pro plan", ErrForbidden)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return a.documentChat.Messages(), nil
	}
	a.mu.Lock()
	active := a.activeDocument
	var conversationID *int64
	if a.conversationID != nil {
		id := *a.conversationID
		conversationID = &id
	}
	a.mu.Unlock()
	doc, ok := a.docs.Get(active)
	if active == "" || !ok {
		return nil, fmt.Errorf("%w: select a ready document first", ErrInvalidInput)
	}

	history := a.documentChat.Messages()
	now := time.Now()
	a.documentChat.Append(userMessage(now, text))

	var reply domain.ChatMessage
	switch a.chatMode {
	case ChatMock:
		a.wait(ctx)
		reply = assistantMessage(now, documentCatalog.reply(text), nil)
	default:
		resp, err := a.querier.Chat(ctx, queryclient.ChatRequest{
			Message:        text,
			ChatHistory:    historyItems(history),
			Documents:      []string{doc.Name},
			ConversationID: conversationID,
		})
		if err != nil {
			util.LoggerFromContext(ctx).Warn("document chat failed", "document_id", doc.ID, "err", err)
			reply = assistantMessage(now, apologyText, nil)
		} else {
			reply = assistantMessage(now, renderReply(resp.Message, resp.Sources), resp.Sources)
		}
	}
	a.documentChat.Append(reply)
	return a.documentChat.Messages(), nil
}

// AskAssistant sends a general question and returns the updated transcript.
func (a *App) AskAssistant(ctx context.Context, text string) []domain.ChatMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return a.assistantChat.Messages()
	}
	now := time.Now()
	a.assistantChat.Append(userMessage(now, text))

	var content string
	switch a.chatMode {
	case ChatMock:
		a.wait(ctx)
		content = generalCatalog.reply(text)
	default:
		reply, err := a.assistant.Chat(ctx, text)
		if err != nil {
			util.LoggerFromContext(ctx).Warn("assistant chat failed", "err", err)
			reply = apologyText
		}
		content = reply
	}
	a.assistantChat.Append(assistantMessage(now, content, nil))
	return a.assistantChat.Messages()
}

// wait holds back a mock reply for the configured delay. A canceled caller
// or shutdown cuts the delay short; the reply is still recorded.
func (a *App) wait(ctx context.Context) {
	if a.mockReplyDelay <= 0 {
		return
	}
	timer := time.NewTimer(a.mockReplyDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		slog.Debug("mock reply delay cut short", "err", ctx.Err())
	case <-a.ctx.Done():
	case <-timer.C:
	}
}

func userMessage(now time.Time, text string) domain.ChatMessage {
	return domain.ChatMessage{ID: util.NewMessageID(now), Role: domain.ChatUser, Content: text}
}

func assistantMessage(sent time.Time, content string, sources []domain.Source) domain.ChatMessage {
	// one millisecond after the question it answers
	return domain.ChatMessage{
		ID:      util.NewMessageID(sent.Add(time.Millisecond)),
		Role:    domain.ChatAssistant,
		Content: content,
		Sources: sources,
	}
}

func historyItems(messages []domain.ChatMessage) []queryclient.HistoryItem {
	items := make([]queryclient.HistoryItem, len(messages))
	for i, m := range messages {
		items[i] = queryclient.HistoryItem{Role: string(m.Role), Content: m.Content}
	}
	return items
}
