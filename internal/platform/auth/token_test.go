package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, name, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":    "42",
		"nombre": name,
		"role":   role,
	}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := NewTokenStore(path)

	if _, err := store.Token(); err == nil {
		t.Fatal("expected error before any save")
	}

	if err := store.Save("abc.def.ghi"); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Token()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("expected saved token back, got %q", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Token(); err == nil {
		t.Fatal("expected error after clear")
	}
	// A second clear on a missing file is fine.
	if err := store.Clear(); err != nil {
		t.Errorf("repeat clear: %v", err)
	}
}

func TestTokenStore_RejectsEmptyToken(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "token"))
	if err := store.Save(""); err == nil {
		t.Fatal("expected error saving empty token")
	}
}

func TestParseSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	sess, err := ParseSession(mintToken(t, "Dra. García", RoleDoctor, exp))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sess.UserID != "42" {
		t.Errorf("expected subject 42, got %q", sess.UserID)
	}
	if sess.Name != "Dra. García" {
		t.Errorf("expected name claim, got %q", sess.Name)
	}
	if !sess.IsDoctor() || sess.IsPatient() {
		t.Errorf("expected doctor role, got %q", sess.Role)
	}
	if !sess.ExpiresAt.Equal(exp) {
		t.Errorf("expected exp %s, got %s", exp, sess.ExpiresAt)
	}
	if sess.Expired(time.Now()) {
		t.Error("session should not be expired yet")
	}
	if !sess.Expired(exp.Add(time.Minute)) {
		t.Error("session should be expired past exp")
	}
}

func TestParseSession_NoExpClaim(t *testing.T) {
	sess, err := ParseSession(mintToken(t, "Paciente", RolePatient, time.Time{}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sess.Expired(time.Now().Add(24 * time.Hour)) {
		t.Error("missing exp claim must not count as expired")
	}
}

func TestParseSession_Garbage(t *testing.T) {
	if _, err := ParseSession("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
