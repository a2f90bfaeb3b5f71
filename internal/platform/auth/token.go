// Package auth holds the one piece of persistent client state: the bearer
// token issued at login, stored in a single file. Role and identity are read
// from the token's claims; the backend remains the verifier.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles as carried in the token's "role" claim.
const (
	RolePatient = "PACIENTE"
	RoleDoctor  = "MEDICO"
	RoleAdmin   = "ADMIN"
)

// TokenStore reads and writes the bearer token file.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token implements rest.TokenSource.
func (s *TokenStore) Token() (string, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no session: run login first")
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", s.path)
	}
	return token, nil
}

// Save persists the token, creating parent directories as needed. The file
// is owner-only: it is a credential.
func (s *TokenStore) Save(token string) error {
	if token == "" {
		return fmt.Errorf("refusing to save empty token")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Missing file is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Session is the identity the client derives from its bearer token.
type Session struct {
	UserID    string
	Name      string
	Role      string
	ExpiresAt time.Time
}

func (s Session) IsPatient() bool { return s.Role == RolePatient }
func (s Session) IsDoctor() bool  { return s.Role == RoleDoctor }

// Expired reports whether the token's exp claim has passed. A zero ExpiresAt
// (no exp claim) is treated as not expired; the backend rejects it if stale.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type sessionClaims struct {
	Name string `json:"nombre"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseSession extracts identity claims without verifying the signature.
// The client has no key material; verification is the backend's job, and
// every request is authorized server-side anyway.
func ParseSession(token string) (Session, error) {
	var claims sessionClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}
	sess := Session{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}
