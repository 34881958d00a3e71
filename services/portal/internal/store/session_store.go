package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unicode"
	"unicode/utf8"

	"vietbuild/pkg/auth"
	"vietbuild/pkg/domain"
	"vietbuild/pkg/localstore"
)

const adminDisplayName = "Administrator"

// Authenticator validates credentials against the remote account service.
type Authenticator interface {
	Login(ctx context.Context, phone, password string) (domain.Identity, error)
}

// SessionStore owns the single active session and its persisted copy.
type SessionStore struct {
	mu      sync.RWMutex
	records localstore.Store
	authn   Authenticator
	admin   auth.Credential
	current *domain.Session
}

// NewSessionStore wires the store. The admin credential bypasses remote validation.
func NewSessionStore(records localstore.Store, authn Authenticator, admin auth.Credential) *SessionStore {
	return &SessionStore{
		records: records,
		authn:   authn,
		admin:   admin,
	}
}

// Init restores the persisted session. A malformed record is treated as no session.
func (s *SessionStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil

	data, err := s.records.Get(ctx, localstore.KeySession)
	if errors.Is(err, localstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Warn("discarding malformed persisted session", "err", err)
		return nil
	}
	if !wellFormed(sess) {
		slog.Warn("discarding malformed persisted session", "username", sess.Username, "role", sess.Role, "plan", sess.Plan)
		return nil
	}
	if sess.Name == "" {
		sess.Name = displayName(sess.Username)
	}
	s.current = &sess
	return nil
}

// Dispose drops the in-memory session without touching the persisted copy.
func (s *SessionStore) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns the active session.
func (s *SessionStore) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Session{}, false
	}
	return *s.current, true
}

// Login establishes a session. The admin credential always yields an admin/pro
// session regardless of plan; any other pair is checked by the Authenticator and
// yields a user session with the requested plan. Failures are reported as false.
func (s *SessionStore) Login(ctx context.Context, identifier, secret string, plan domain.Plan) bool {
	var sess domain.Session
	switch {
	case s.admin.Matches(identifier, secret):
		sess = domain.Session{
			ID:       0,
			Username: s.admin.Username,
			Role:     domain.RoleAdmin,
			Plan:     domain.PlanPro,
			Name:     adminDisplayName,
		}
	case identifier == "" || secret == "":
		return false
	case s.authn == nil:
		slog.Warn("login rejected: no authenticator configured")
		return false
	default:
		identity, err := s.authn.Login(ctx, identifier, secret)
		if err != nil {
			slog.Warn("remote login failed", "err", err)
			return false
		}
		username := identity.Username
		if username == "" {
			username = identifier
		}
		if plan != domain.PlanPro {
			plan = domain.PlanNormal
		}
		sess = domain.Session{
			ID:       identity.ID,
			Username: username,
			Phone:    identity.Phone,
			Role:     domain.RoleUser,
			Plan:     plan,
			Name:     displayName(username),
		}
	}

	data, err := json.Marshal(sess)
	if err != nil {
		slog.Error("encode session", "err", err)
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.records.Put(ctx, localstore.KeySession, data); err != nil {
		slog.Error("persist session", "err", err)
		return false
	}
	s.current = &sess
	return true
}

// Logout removes the persisted session, then clears memory. The record is
// deleted even without an active session so a copy rejected by Init does not
// linger. The session stays active when the delete fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.records.Delete(ctx, localstore.KeySession); err != nil {
		return fmt.Errorf("remove persisted session: %w", err)
	}
	s.current = nil
	return nil
}

func wellFormed(sess domain.Session) bool {
	if sess.Username == "" {
		return false
	}
	if sess.Role != domain.RoleUser && sess.Role != domain.RoleAdmin {
		return false
	}
	return sess.Plan == domain.PlanNormal || sess.Plan == domain.PlanPro
}

func displayName(username string) string {
	r, size := utf8.DecodeRuneInString(username)
	if r == utf8.RuneError {
		return username
	}
	return string(unicode.ToUpper(r)) + username[size:]
}
