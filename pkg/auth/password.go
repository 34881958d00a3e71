package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash suitable for the admin.passwordHash setting.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword validates a password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	if strings.TrimSpace(hash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Credential is a fixed username/secret pair. When Hash is set it takes
// precedence over the plain Secret.
type Credential struct {
	Username string
	Secret   string
	Hash     string
}

// Matches reports whether the submitted pair equals the credential.
func (c Credential) Matches(username, secret string) bool {
	if c.Username == "" || username != c.Username {
		return false
	}
	if c.Hash != "" {
		return CheckPassword(secret, c.Hash)
	}
	return c.Secret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(c.Secret)) == 1
}
