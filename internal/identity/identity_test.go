package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-engine-service/internal/domain"
)

func TestIssueAndAuthenticateBearer(t *testing.T) {
	cfg := Config{Secret: "test-secret"}
	issuer, err := NewIssuer(cfg)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, exp, err := issuer.Issue(domain.User{ID: 42, Email: "ana@example.com", Firstname: "Ana", Lastname: "Lee", IsAdmin: true})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) < 6*24*time.Hour {
		t.Fatalf("expected default ttl of 7 days, expires %s", exp)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err := NewVerifier(cfg).Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != 42 || !id.IsAdmin || id.FullName != "Ana Lee" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if err := RequireAdmin(id); err != nil {
		t.Fatalf("expected admin, got %v", err)
	}
}

func TestCookieFallbackOnlyWhenEnabled(t *testing.T) {
	cfg := Config{Secret: "test-secret"}
	issuer, _ := NewIssuer(cfg)
	token, _, _ := issuer.Issue(domain.User{ID: 7})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: token})

	if _, err := NewVerifier(cfg).Authenticate(req); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected cookie ignored by default, got %v", err)
	}

	cfg.CookieFallback = true
	id, err := NewVerifier(cfg).Authenticate(req)
	if err != nil {
		t.Fatalf("authenticate with cookie: %v", err)
	}
	if id.UserID != 7 || id.IsAdmin {
		t.Fatalf("unexpected identity %+v", id)
	}
	if err := RequireAdmin(id); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}
}

func TestRejectsForeignAndExpiredTokens(t *testing.T) {
	other, _ := NewIssuer(Config{Secret: "other-secret"})
	foreign, _, _ := other.Issue(domain.User{ID: 1})

	v := NewVerifier(Config{Secret: "test-secret"})
	if _, err := v.Parse(foreign); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected foreign signature rejected, got %v", err)
	}

	issuer, _ := NewIssuer(Config{Secret: "test-secret", TokenTTL: time.Minute})
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, _ := issuer.Issue(domain.User{ID: 1})
	if _, err := v.Parse(expired); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}

	if _, err := v.Parse("not-a-token"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected garbage rejected, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer(Config{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
