package store

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"vietbuild/internal/util"
	"vietbuild/pkg/domain"
)

const tokenIssuer = "vietbuild-portal"

// SessionClaims are the claims carried by a portal session token.
type SessionClaims struct {
	Role domain.UserRole `json:"role"`
	Plan domain.Plan     `json:"plan"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens. A token only proves who
// logged in; callers still compare its subject with the active session.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer. An empty secret gets a random per-process key,
// which invalidates tokens on restart.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	return &TokenIssuer{secret: key, ttl: ttl}, nil
}

// Issue signs a token for the session.
func (t *TokenIssuer) Issue(sess domain.Session) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		Role: sess.Role,
		Plan: sess.Plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        util.NewID(),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify checks signature, issuer and expiry and returns the claims.
func (t *TokenIssuer) Verify(token string) (SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// Authorize verifies token and resolves it against the active session.
func (t *TokenIssuer) Authorize(token string, sessions *SessionStore) (domain.Session, error) {
	claims, err := t.Verify(token)
	if err != nil {
		return domain.Session{}, err
	}
	sess, ok := sessions.Current()
	if !ok {
		return domain.Session{}, ErrNoSession
	}
	if sess.Username != claims.Subject {
		return domain.Session{}, fmt.Errorf("%w: subject does not match active session", ErrInvalidToken)
	}
	return sess, nil
}
