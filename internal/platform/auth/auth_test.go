package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("doc-123", "jane@clinic.example")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Subject != "doc-123" {
		t.Errorf("expected subject doc-123, got %q", claims.Subject)
	}
	if claims.Email != "jane@clinic.example" {
		t.Errorf("expected email jane@clinic.example, got %q", claims.Email)
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.Issue("doc-123", "jane@clinic.example")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Error("expected error parsing token with wrong secret")
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue("doc-123", "jane@clinic.example")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	if _, err := issuer.Parse(token); err == nil {
		t.Error("expected error parsing expired token")
	}
}

func TestDoctorAuth_ValidToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("doc-123", "jane@clinic.example")
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	e := echo.New()
	handler := DoctorAuth(issuer)(func(c echo.Context) error {
		ctx := c.Request().Context()
		if got := DoctorIDFromContext(ctx); got != "doc-123" {
			t.Errorf("expected doctor ID doc-123, got %q", got)
		}
		if got := DoctorEmailFromContext(ctx); got != "jane@clinic.example" {
			t.Errorf("expected doctor email, got %q", got)
		}
		if got, _ := c.Get("doctor_id").(string); got != "doc-123" {
			t.Errorf("expected doctor_id on echo context, got %q", got)
		}
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestDoctorAuth_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	handler := DoctorAuth(issuer)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err == nil {
		t.Fatal("expected error for missing header")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestDoctorAuth_MalformedHeader(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	handler := DoctorAuth(issuer)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, header := range []string{"garbage", "Basic abc123", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler(c)
		if err == nil {
			t.Errorf("header %q: expected error", header)
			continue
		}
		httpErr, ok := err.(*echo.HTTPError)
		if !ok || httpErr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %v", header, err)
		}
	}
}

func TestDoctorAuth_InvalidToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	e := echo.New()
	handler := DoctorAuth(issuer)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	if err == nil {
		t.Fatal("expected error for invalid token")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestContextHelpers_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := req.Context()

	if got := DoctorIDFromContext(ctx); got != "" {
		t.Errorf("expected empty doctor ID, got %q", got)
	}
	if got := DoctorEmailFromContext(ctx); got != "" {
		t.Errorf("expected empty doctor email, got %q", got)
	}
}
