package auth

import (
	"errors"
	"testing"
	"time"

	xerrors "carlog-service/internal/pkg/errors"
)

func testManager(secret string) *Manager {
	return NewManager(Config{Secret: secret, Issuer: "carlog-service", TTL: time.Hour})
}

func TestGenerateAndVerify(t *testing.T) {
	m := testManager("test-secret")

	token, err := m.Generate("admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	subject, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if subject != "admin" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := testManager("secret-a").Generate("admin")
	if err != nil {
		t.Fatal(err)
	}

	_, err = testManager("secret-b").Verify(token)
	if err == nil {
		t.Fatal("expected a signature failure")
	}
	if !errors.Is(err, xerrors.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized sentinel", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	other := NewManager(Config{Secret: "s", Issuer: "someone-else", TTL: time.Hour})
	token, err := other.Generate("admin")
	if err != nil {
		t.Fatal(err)
	}

	m := NewManager(Config{Secret: "s", Issuer: "carlog-service", TTL: time.Hour})
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected an issuer failure")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager(Config{Secret: "s", Issuer: "carlog-service", TTL: -time.Minute})
	token, err := m.Generate("admin")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected an expiry failure")
	}
}

func TestDisabledManager(t *testing.T) {
	m := testManager("")
	if m.Enabled() {
		t.Fatal("empty secret must disable auth")
	}
	if _, err := m.Generate("admin"); err == nil {
		t.Fatal("disabled manager must refuse to mint tokens")
	}
}
