package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/thewillhuang/middleman/internal/models"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("secret", "middleman", "middleman-api", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return m
}

func TestIssueAndResolve(t *testing.T) {
	m := newManager(t)
	token, err := m.Issue(models.Person{ID: "p1", IsClient: true})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	caller := m.Resolve(token)
	if caller.PersonID != "p1" || !caller.IsClient {
		t.Fatalf("unexpected caller %+v", caller)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	m := newManager(t)

	other, _ := NewTokenManager("other-secret", "middleman", "middleman-api", time.Hour)
	forged, _ := other.Issue(models.Person{ID: "p1"})

	wrongAud, _ := NewTokenManager("secret", "middleman", "someone-else", time.Hour)
	foreign, _ := wrongAud.Issue(models.Person{ID: "p1"})

	expired := newManager(t)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _ := expired.Issue(models.Person{ID: "p1"})

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"forged":   forged,
		"audience": foreign,
		"expired":  stale,
	} {
		t.Run(name, func(t *testing.T) {
			if c := m.Resolve(token); !c.Anonymous() {
				t.Fatalf("expected anonymous caller, got %+v", c)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	if got := BearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := BearerToken("bearer  xyz "); got != "xyz" {
		t.Fatalf("expected xyz, got %q", got)
	}
	if got := BearerToken("Basic abc"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestCallerContext(t *testing.T) {
	if !CallerFrom(context.Background()).Anonymous() {
		t.Fatalf("empty context must be anonymous")
	}
	ctx := WithCaller(context.Background(), Caller{PersonID: "p2"})
	if CallerFrom(ctx).PersonID != "p2" {
		t.Fatalf("caller lost in context")
	}
	if err := (Caller{}).Require(); !errors.Is(err, models.ErrAuthenticationRequired) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatalf("expected mismatch")
	}
	if CheckPassword("", "hunter22") {
		t.Fatalf("empty hash must never match")
	}
}
