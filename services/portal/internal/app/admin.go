package app

import (
	"slices"
	"strings"

	"vietbuild/pkg/domain"
)

// AdminUser is one row of the admin user table.
type AdminUser struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Role              domain.UserRole `json:"role"`
	DocumentsUploaded int             `json:"documentsUploaded"`
	LastActive        string          `json:"lastActive"`
	CreatedAt         string          `json:"createdAt"`
	Status            string          `json:"status"`
}

// The account service exposes no listing endpoint, so the admin table is a
// fixed demo roster.
var demoUsers = []AdminUser{
	{ID: "1", Name: "Administrator", Email: "admin@vietbuild.ai", Role: domain.RoleAdmin, DocumentsUploaded: 0, LastActive: "Just now", CreatedAt: "2024-01-01", Status: "active"},
	{ID: "2", Name: "Nguyen Van A", Email: "nguyen.a@company.com", Role: domain.RoleUser, DocumentsUploaded: 12, LastActive: "2 hours ago", CreatedAt: "2024-06-15", Status: "active"},
	{ID: "3", Name: "Tran Thi B", Email: "tran.b@company.com", Role: domain.RoleUser, DocumentsUploaded: 8, LastActive: "1 day ago", CreatedAt: "2024-07-20", Status: "active"},
	{ID: "4", Name: "Le Van C", Email: "le.c@company.com", Role: domain.RoleUser, DocumentsUploaded: 5, LastActive: "3 hours ago", CreatedAt: "2024-08-10", Status: "active"},
	{ID: "5", Name: "Pham Thi D", Email: "pham.d@company.com", Role: domain.RoleUser, DocumentsUploaded: 15, LastActive: "5 minutes ago", CreatedAt: "2024-05-01", Status: "active"},
	{ID: "6", Name: "Hoang Van E", Email: "hoang.e@company.com", Role: domain.RoleUser, DocumentsUploaded: 3, LastActive: "1 week ago", CreatedAt: "2024-09-01", Status: "inactive"},
}

// UserStats summarizes the user table.
type UserStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Admins int `json:"admins"`
}

// SearchUsers filters the user table by case-insensitive name or email.
func SearchUsers(query string) ([]AdminUser, UserStats) {
	q := strings.ToLower(strings.TrimSpace(query))
	var stats UserStats
	out := make([]AdminUser, 0, len(demoUsers))
	for _, u := range demoUsers {
		stats.Total++
		if u.Status == "active" {
			stats.Active++
		}
		if u.Role == domain.RoleAdmin {
			stats.Admins++
		}
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, stats
}

// SearchDocuments filters every document by case-insensitive name or uploader.
func (a *App) SearchDocuments(query string) []domain.Document {
	all := a.docs.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return all
	}
	out := make([]domain.Document, 0, len(all))
	for _, d := range all {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.UploadedBy), q) {
			out = append(out, d)
		}
	}
	return out
}

// Settings are the non-secret runtime settings shown to admins.
type Settings struct {
	AppName           string     `json:"appName"`
	Company           string     `json:"company"`
	AdminEmail        string     `json:"adminEmail"`
	Language          string     `json:"language"`
	Timezone          string     `json:"timezone"`
	SessionTimeoutMin int        `json:"sessionTimeoutMinutes"`
	MaxFileSizeMB     int64      `json:"maxFileSizeMB"`
	AllowedExtensions []string   `json:"allowedExtensions"`
	UploadMode        UploadMode `json:"uploadMode"`
	ChatMode          ChatMode   `json:"chatMode"`
	Persistence       string     `json:"persistence"`
	Events            string     `json:"events"`
	ArchiveEnabled    bool       `json:"archiveEnabled"`
}

// DefaultSettings carries the product defaults; runtime fields are filled by
// App.Settings.
func DefaultSettings() Settings {
	return Settings{
		AppName:           "ConstructionIQ",
		Company:           "ConstructionIQ Corp",
		AdminEmail:        "admin@vietbuild.ai",
		Language:          "Vietnamese",
		Timezone:          "Asia/Ho_Chi_Minh (UTC+7)",
		SessionTimeoutMin: 30,
		Persistence:       "file",
		Events:            "none",
	}
}

// Settings merges base with the orchestrator's runtime configuration.
func (a *App) Settings(base Settings) Settings {
	base.UploadMode = a.uploadMode
	base.ChatMode = a.chatMode
	base.ArchiveEnabled = a.archive != nil
	if a.maxUploadBytes > 0 {
		base.MaxFileSizeMB = a.maxUploadBytes / (1 << 20)
	}
	base.AllowedExtensions = make([]string, 0, len(a.allowedExtensions))
	for ext := range a.allowedExtensions {
		base.AllowedExtensions = append(base.AllowedExtensions, ext)
	}
	slices.Sort(base.AllowedExtensions)
	return base
}
