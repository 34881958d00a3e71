package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type Plan string

const (
	PlanNormal Plan = "normal"
	PlanPro    Plan = "pro"
)

// ParsePlan maps caller input to a plan, defaulting to normal.
func ParsePlan(v string) Plan {
	if Plan(v) == PlanPro {
		return PlanPro
	}
	return PlanNormal
}

// Identity is what the auth collaborator returns for a registered account.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// Session is the single active authenticated identity of the portal.
// ID 0 is reserved for the built-in administrator.
type Session struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Phone    string   `json:"phone,omitempty"`
	Role     UserRole `json:"role"`
	Plan     Plan     `json:"plan"`
	Name     string   `json:"name"`
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type DocumentStatus string

const (
	StatusUploading  DocumentStatus = "uploading"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type CheckStatus string

const (
	CheckPass    CheckStatus = "pass"
	CheckFail    CheckStatus = "fail"
	CheckWarning CheckStatus = "warning"
)

type Risk struct {
	ID          string   `json:"id"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Standards   []string `json:"standards"`
}

type ComplianceItem struct {
	Parameter string      `json:"parameter"`
	Standard  string      `json:"standard"`
	Actual    string      `json:"actual"`
	Status    CheckStatus `json:"status"`
}

type AnalysisResult struct {
	ComplianceScore  int              `json:"complianceScore"`
	ItemsPassed      int              `json:"itemsPassed"`
	ItemsFlagged     int              `json:"itemsFlagged"`
	PendingReview    int              `json:"pendingReview"`
	StandardsChecked int              `json:"standardsChecked"`
	Risks            []Risk           `json:"risks"`
	ComplianceItems  []ComplianceItem `json:"complianceItems"`
}

// Document tracks one upload and its analysis lifecycle.
// AnalysisResults is set only once Status is ready, and Progress is 100 then.
type Document struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Size            int64           `json:"size"`
	Pages           int             `json:"pages,omitempty"`
	Status          DocumentStatus  `json:"status"`
	Progress        int             `json:"progress"`
	UploadedAt      time.Time       `json:"uploadedAt"`
	UploadedBy      string          `json:"uploadedBy"`
	AnalysisResults *AnalysisResult `json:"analysisResults,omitempty"`
}

// NewDocument is the caller-supplied part of a document; the store assigns ID and UploadedAt.
type NewDocument struct {
	Name       string
	Type       string
	Size       int64
	Pages      int
	Status     DocumentStatus
	Progress   int
	UploadedBy string
}

type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID      string   `json:"id"`
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is a citation returned by the query service. Every field is optional
// and decodes to its zero value when absent.
type Source struct {
	Title        string         `json:"title,omitempty"`
	Content      string         `json:"content,omitempty"`
	Filename     string         `json:"filename,omitempty"`
	SectionTitle string         `json:"section_title,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type Conversation struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	History string `json:"history"`
}

type ConversationDocument struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type ConversationDetail struct {
	Conversation
	Documents []ConversationDocument `json:"documents"`
}
