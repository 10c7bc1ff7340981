package main

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) (*Auth, *sqlStore) {
	t.Helper()
	s := newTestStore(t)
	a := NewAuth(s)
	a.bcryptCost = bcrypt.MinCost
	return a, s
}

func TestAuthRegisterLogin(t *testing.T) {
	a, _ := newTestAuth(t)
	id, token, err := a.Register("  maverick ", "secret")
	if err != nil {
		t.Fatal(err)
	}
	gotID, name, err := a.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if gotID != id || name != "maverick" {
		t.Errorf("token carries (%d, %q), want (%d, maverick)", gotID, name, id)
	}

	loginID, token2, err := a.Login("maverick", "secret", "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if loginID != id || token2 == "" {
		t.Errorf("login returned id %d token %q", loginID, token2)
	}
}

func TestAuthRejects(t *testing.T) {
	a, _ := newTestAuth(t)
	if _, _, err := a.Register("x", "secret"); err == nil {
		t.Error("one-letter name should be rejected")
	}
	if _, _, err := a.Register(strings.Repeat("n", maxNameLen+1), "secret"); err == nil {
		t.Error("long name should be rejected")
	}
	if _, _, err := a.Register("goose", "abc"); err == nil {
		t.Error("short password should be rejected")
	}

	if _, _, err := a.Register("goose", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := a.Register("goose", "other"); !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken, got %v", err)
	}
	if _, _, err := a.Login("goose", "wrong", "ip"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("wrong password: expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := a.Login("iceman", "secret", "ip"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown pilot: expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := a.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token should fail")
	}
}

func TestAuthSecretPersists(t *testing.T) {
	a, s := newTestAuth(t)
	_, token, err := a.Register("viper", "secret")
	if err != nil {
		t.Fatal(err)
	}
	// a restarted server loads the same secret and accepts old tokens
	b := NewAuth(s)
	if _, _, err := b.ValidateToken(token); err != nil {
		t.Errorf("token should survive a restart: %v", err)
	}

	other := NewAuth(newTestStore(t))
	if _, _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret should fail")
	}
}

func TestAuthLoginRateLimit(t *testing.T) {
	a, _ := newTestAuth(t)
	for i := 0; i < maxLoginAttempts; i++ {
		if _, _, err := a.Login("nobody", "pw", "9.9.9.9"); errors.Is(err, errTooManyAttempts) {
			t.Fatalf("attempt %d should not be limited", i+1)
		}
	}
	if _, _, err := a.Login("nobody", "pw", "9.9.9.9"); !errors.Is(err, errTooManyAttempts) {
		t.Errorf("expected rate limit, got %v", err)
	}
	if _, _, err := a.Login("nobody", "pw", "8.8.8.8"); errors.Is(err, errTooManyAttempts) {
		t.Error("other addresses are limited separately")
	}
}

func TestGuestName(t *testing.T) {
	n := GuestName()
	if !strings.HasPrefix(n, "Guest_") || len(n) != len("Guest_")+6 {
		t.Errorf("unexpected guest name %q", n)
	}
}
