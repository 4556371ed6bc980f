package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	mw := NewMiddleware(newTestVerifier(t))

	token := signHS256(t, jwt.MapClaims{
		"sub": "operator-1", "scopes": []string{ScopeRead},
	})

	var called bool
	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw.RequireAuth(okHandler(&called))(rec, req)

	if !called {
		t.Error("handler not invoked")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthRejects(t *testing.T) {
	mw := NewMiddleware(newTestVerifier(t))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"bad token", "Bearer not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			req := httptest.NewRequest("GET", "/api/v1/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.RequireAuth(okHandler(&called))(rec, req)

			if called {
				t.Error("handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireAuthStoresClaims(t *testing.T) {
	mw := NewMiddleware(newTestVerifier(t))

	token := signHS256(t, jwt.MapClaims{
		"sub": "operator-1", "scopes": []string{ScopeRead},
	})

	var got *Claims
	handler := func(w http.ResponseWriter, r *http.Request) {
		got, _ = r.Context().Value(ClaimsKey).(*Claims)
	}

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw.RequireAuth(handler)(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("claims not stored in context")
	}
	if got.Subject != "operator-1" {
		t.Errorf("expected subject operator-1, got %q", got.Subject)
	}
}

func TestRequireScope(t *testing.T) {
	mw := NewMiddleware(newTestVerifier(t))

	readToken := signHS256(t, jwt.MapClaims{
		"sub": "x", "scopes": []string{ScopeRead},
	})
	bothToken := signHS256(t, jwt.MapClaims{
		"sub": "x", "scopes": []string{ScopeRead, ScopeTelemetry},
	})

	tests := []struct {
		name     string
		token    string
		scopes   []string
		wantCode int
	}{
		{"has scope", readToken, []string{ScopeRead}, http.StatusOK},
		{"missing scope", readToken, []string{ScopeTelemetry}, http.StatusForbidden},
		{"all scopes present", bothToken, []string{ScopeRead, ScopeTelemetry}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			handler := mw.RequireAuth(mw.RequireScope(tt.scopes...)(okHandler(&called)))

			req := httptest.NewRequest("GET", "/api/v1/telemetry", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if called != (tt.wantCode == http.StatusOK) {
				t.Errorf("handler called=%v, want %v", called, tt.wantCode == http.StatusOK)
			}
		})
	}
}

func TestRequireScopeWithoutAuthIsUnauthorized(t *testing.T) {
	mw := NewMiddleware(newTestVerifier(t))

	var called bool
	rec := httptest.NewRecorder()
	mw.RequireScope(ScopeRead)(okHandler(&called))(rec, httptest.NewRequest("GET", "/", nil))

	if called {
		t.Error("handler must not run without claims")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
