package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/corvus-faas/control-plane/auth"
)

// newGuardedHandler wraps a trivial 200 handler in requireAuth. The
// auth.Service is constructed over a nil database: every path tested
// here fails token validation before the user lookup, so the database
// is never touched.
func newGuardedHandler(secret string) http.Handler {
	authService := auth.NewService(nil, secret)
	guard := requireAuth(authService, testLogger())
	return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAuthMissingHeader(t *testing.T) {
	handler := newGuardedHandler("test-secret")

	request := httptest.NewRequest(http.MethodGet, "/list", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Missing authorization header") {
		t.Fatalf("body = %q, want the missing-header message", recorder.Body.String())
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	handler := newGuardedHandler("test-secret")

	for _, header := range []string{"Bearer", "Basic abc", "Bearer "} {
		request := httptest.NewRequest(http.MethodGet, "/list", nil)
		request.Header.Set("Authorization", header)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "Invalid authorization header format") {
			t.Fatalf("header %q: body = %q, want the malformed-header message", header, recorder.Body.String())
		}
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	secret := "test-secret"
	handler := newGuardedHandler(secret)

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "some-user-uuid",
		IssuedAt:  jwt.NewNumericDate(now.Add(-25 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	request := httptest.NewRequest(http.MethodGet, "/list", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Invalid or expired token") {
		t.Fatalf("body = %q, want the invalid-token message", recorder.Body.String())
	}
}

func TestRequireAuthWrongSecret(t *testing.T) {
	handler := newGuardedHandler("the-real-secret")

	claims := jwt.RegisteredClaims{
		Subject:   "some-user-uuid",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("a-different-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}

	request := httptest.NewRequest(http.MethodGet, "/list", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Invalid or expired token") {
		t.Fatalf("body = %q, want the invalid-token message", recorder.Body.String())
	}
}
