package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vietbuild/internal/ratelimit"
	"vietbuild/internal/util"
	"vietbuild/pkg/domain"
	"vietbuild/pkg/events"
	"vietbuild/services/portal/internal/app"
	"vietbuild/services/portal/internal/store"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "vietbuild_session"

// StatusReader exposes the last lifecycle event recorded for a document.
type StatusReader interface {
	Status(ctx context.Context, documentID string) (events.Event, bool, error)
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Sessions *store.SessionStore
	Tokens   *store.TokenIssuer
	Statuses StatusReader

	// Rate limiting is enabled only when RedisAddr is set.
	RedisAddr                  string
	RedisPassword              string
	LoginRateLimitPerMinute    int
	RegisterRateLimitPerMinute int
	TrustedProxyCIDRs          []string

	CORSOrigins     []string
	SecureCookies   bool
	SessionTTL      time.Duration
	MaxRequestBytes int64
	Settings        app.Settings
}

// Server exposes the portal over HTTP.
type Server struct {
	app             *app.App
	sessions        *store.SessionStore
	tokens          *store.TokenIssuer
	statuses        StatusReader
	mux             *http.ServeMux
	loginLimiter    *ratelimit.FixedWindowLimiter
	registerLimiter *ratelimit.FixedWindowLimiter
	trusted         *util.TrustedProxies
	corsOrigins     []string
	secureCookies   bool
	sessionTTL      time.Duration
	maxRequestBytes int64
	settings        app.Settings
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil || cfg.Sessions == nil || cfg.Tokens == nil {
		return nil, errors.New("server: app, sessions and tokens are required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, fmt.Errorf("server: trusted proxies: %w", err)
	}
	s := &Server{
		app:             cfg.App,
		sessions:        cfg.Sessions,
		tokens:          cfg.Tokens,
		statuses:        cfg.Statuses,
		mux:             http.NewServeMux(),
		trusted:         trusted,
		corsOrigins:     cfg.CORSOrigins,
		secureCookies:   cfg.SecureCookies,
		sessionTTL:      cfg.SessionTTL,
		maxRequestBytes: cfg.MaxRequestBytes,
		settings:        cfg.Settings,
	}
	if s.maxRequestBytes <= 0 {
		s.maxRequestBytes = 256 << 20
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
			if limit <= 0 {
				return nil, nil
			}
			limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "vietbuild:portal:ratelimit:"+name, limit, time.Minute)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		if s.loginLimiter, err = newLimiter("login", cfg.LoginRateLimitPerMinute); err != nil {
			return nil, err
		}
		if s.registerLimiter, err = newLimiter("register", cfg.RegisterRateLimitPerMinute); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("portal", util.WithSecurityHeaders(util.WithCORS(s.corsOrigins, s.mux))))
}

// Close releases the rate limiter connections.
func (s *Server) Close() error {
	return errors.Join(s.loginLimiter.Close(), s.registerLimiter.Close())
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// documents & chat
	s.mux.Handle("/api/documents", s.authenticated(s.handleDocuments))
	s.mux.Handle("/api/documents/", s.authenticated(s.handleDocumentByID))
	s.mux.Handle("/api/chat/document", s.authenticated(s.handleDocumentChat))
	s.mux.Handle("/api/chat/assistant", s.authenticated(s.handleAssistantChat))
	s.mux.Handle("/api/conversations", s.authenticated(s.handleConversations))
	s.mux.Handle("/api/conversations/", s.authenticated(s.handleConversationByID))

	// admin
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/documents", s.adminOnly(s.handleAdminDocuments))
	s.mux.Handle("/api/admin/documents/", s.adminOnly(s.handleAdminDocumentStatus))
	s.mux.Handle("/api/admin/settings", s.adminOnly(s.handleAdminSettings))

	// pages
	s.mux.HandleFunc("/", s.handleRoot)
	for _, p := range []string{"/login", "/register"} {
		s.mux.HandleFunc(p, s.publicPage)
	}
	for _, p := range []string{"/dashboard", "/dashboard/chat", "/dashboard/documents", "/dashboard/profile"} {
		s.mux.HandleFunc(p, s.userPage)
	}
	for _, p := range []string{"/admin", "/admin/users", "/admin/documents", "/admin/settings"} {
		s.mux.HandleFunc(p, s.adminPage)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.Session)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, sess)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.authorize(r)
		if !ok {
			s.audit(r, "portal.admin.authorize", "fail", "reason", "unauthenticated")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !sess.IsAdmin() {
			s.audit(r, "portal.admin.authorize", "fail", "username", sess.Username, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "portal.admin.authorize", "success", "username", sess.Username)
		next(w, r, sess)
	})
}

func (s *Server) authorize(r *http.Request) (domain.Session, bool) {
	token, ok := requestToken(r)
	if !ok {
		return domain.Session{}, false
	}
	sess, err := s.tokens.Authorize(token, s.sessions)
	if err != nil {
		s.audit(r, "portal.token.verify", "fail", "reason", err.Error())
		return domain.Session{}, false
	}
	return sess, true
}

// auth handlers
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Plan     string `json:"plan"`
}

type authResponse struct {
	Token   string         `json:"token"`
	User    domain.Session `json:"user"`
	Landing string         `json:"landing"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "login", "too many login attempts") {
		s.audit(r, "portal.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "portal.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.app.Login(r.Context(), req.Username, req.Password, domain.ParsePlan(req.Plan))
	if err != nil {
		s.audit(r, "portal.login", "fail", "username", req.Username)
		writeAppError(w, err)
		return
	}
	s.audit(r, "portal.login", "success", "username", sess.Username, "role", sess.Role)
	s.writeSession(w, http.StatusOK, sess)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "register", "too many registration attempts") {
		s.audit(r, "portal.register", "rate_limited")
		return
	}
	var req app.RegisterInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "portal.register", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, err := s.app.Register(r.Context(), req)
	if err != nil {
		s.audit(r, "portal.register", "fail", "username", req.Username, "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "portal.register", "success", "username", sess.Username)
	s.writeSession(w, http.StatusCreated, sess)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, sess domain.Session) {
	token, err := s.tokens.Issue(sess)
	if err != nil {
		slog.Error("issue session token failed", "username", sess.Username, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	cookie := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if s.sessionTTL > 0 {
		cookie.MaxAge = int(s.sessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	writeJSON(w, status, authResponse{Token: token, User: sess, Landing: app.LandingPath(sess)})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := requestToken(r)
	if !ok {
		s.audit(r, "portal.logout", "fail", "reason", "missing_token")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// A token that no longer matches the active session has nothing to end.
	if _, err := s.tokens.Authorize(token, s.sessions); err != nil {
		s.audit(r, "portal.logout", "noop", "reason", err.Error())
	} else {
		if err := s.app.Logout(r.Context()); err != nil {
			slog.Error("logout failed", "err", err)
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		s.audit(r, "portal.logout", "success")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// /api/documents
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	switch r.Method {
	case http.MethodGet:
		docs := s.app.Documents(sess)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": docs,
			"count": len(docs),
		})
	case http.MethodPost:
		s.handleUpload(w, r, sess)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	var headers []*multipartFile
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			headers = append(headers, &multipartFile{header: fh})
		}
	}
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "files are required (field: files)")
		return
	}
	files := make([]app.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.read()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		files = append(files, f)
	}
	ids, err := s.app.Upload(r.Context(), sess, files)
	if err != nil {
		s.audit(r, "portal.upload", "fail", "username", sess.Username, "reason", err.Error())
		writeAppError(w, err)
		return
	}
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, err := s.app.Document(sess, id); err == nil {
			docs = append(docs, doc)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"ids":   ids,
		"items": docs,
	})
}

// /api/documents/{id} or /api/documents/{id}/{select,download}
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	id, action, ok := splitResource(r.URL.Path, "/api/documents/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			doc, err := s.app.Document(sess, id)
			if err != nil {
				writeAppError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, doc)
		case http.MethodDelete:
			if err := s.app.RemoveDocument(r.Context(), sess, id); err != nil {
				writeAppError(w, err)
				return
			}
			s.audit(r, "portal.document.delete", "success", "username", sess.Username, "document_id", id)
			writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		default:
			methodNotAllowed(w)
		}
	case "select":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		messages, err := s.app.SelectDocument(sess, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{ActiveDocument: id, Messages: messages})
	case "download":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		url, err := s.app.DownloadURL(r.Context(), sess, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	default:
		http.NotFound(w, r)
	}
}

// chat handlers
type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	ActiveDocument string               `json:"activeDocument,omitempty"`
	Messages       []domain.ChatMessage `json:"messages"`
}

func (s *Server) handleDocumentChat(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	switch r.Method {
	case http.MethodGet:
		active, messages := s.app.DocumentChat()
		writeJSON(w, http.StatusOK, chatResponse{ActiveDocument: active, Messages: messages})
	case http.MethodPost:
		var req chatRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		messages, err := s.app.AskDocument(r.Context(), sess, req.Message)
		if err != nil {
			writeAppError(w, err)
			return
		}
		active, _ := s.app.DocumentChat()
		writeJSON(w, http.StatusOK, chatResponse{ActiveDocument: active, Messages: messages})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, chatResponse{Messages: s.app.AssistantChat()})
	case http.MethodPost:
		var req chatRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		writeJSON(w, http.StatusOK, chatResponse{Messages: s.app.AskAssistant(r.Context(), req.Message)})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, sess domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.Conversations(r.Context(), sess)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	raw, action, ok := splitResource(r.URL.Path, "/api/conversations/")
	if !ok || action != "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}
	detail, err := s.app.Conversation(r.Context(), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// admin handlers
func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, stats := app.SearchUsers(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"count": len(users),
		"stats": stats,
	})
}

func (s *Server) handleAdminDocuments(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	docs := s.app.SearchDocuments(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, map[string]any{
		"items": docs,
		"count": len(docs),
	})
}

// /api/admin/documents/{id}/status
func (s *Server) handleAdminDocumentStatus(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	id, action, ok := splitResource(r.URL.Path, "/api/admin/documents/")
	if !ok || action != "status" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.statuses == nil {
		writeError(w, http.StatusNotFound, "event status is not recorded")
		return
	}
	ev, found, err := s.statuses.Status(r.Context(), id)
	if err != nil {
		slog.Error("read document status failed", "document_id", id, "err", err)
		writeError(w, http.StatusBadGateway, "event store unavailable")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleAdminSettings(w http.ResponseWriter, r *http.Request, _ domain.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Settings(s.settings))
}

// page gates
type pageResponse struct {
	Page    string          `json:"page"`
	Session *domain.Session `json:"session"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if sess, ok := s.authorize(r); ok {
		http.Redirect(w, r, app.LandingPath(sess), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) publicPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	resp := pageResponse{Page: r.URL.Path}
	if sess, ok := s.authorize(r); ok {
		resp.Session = &sess
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) userPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.authorize(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Page: r.URL.Path, Session: &sess})
}

func (s *Server) adminPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sess, ok := s.authorize(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	if !sess.IsAdmin() {
		s.audit(r, "portal.admin.page", "fail", "username", sess.Username, "reason", "forbidden")
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Page: r.URL.Path, Session: &sess})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeAppError(w http.ResponseWriter, err error) {
	var validation *app.ValidationError
	var registration *app.RegistrationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &registration):
		writeError(w, http.StatusBadRequest, registration.Message)
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusBadGateway, "upstream service unavailable")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, scope, msg string) bool {
	if limiter == nil {
		return true
	}
	if limiter.Allow(r.Context(), scope+":"+util.ClientIP(r, s.trusted)) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// requestToken reads the bearer header, falling back to the session cookie.
func requestToken(r *http.Request) (string, bool) {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		const prefix = "bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			if token := strings.TrimSpace(h[len(prefix):]); token != "" {
				return token, true
			}
		}
		return "", false
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func splitResource(path, prefix string) (id, action string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", false
	}
	if len(parts) == 2 {
		if parts[1] == "" || strings.Contains(parts[1], "/") {
			return "", "", false
		}
		return parts[0], parts[1], true
	}
	return parts[0], "", true
}
