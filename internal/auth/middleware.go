package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ContextKey is used for storing claims in request context.
type ContextKey string

// ClaimsKey is the context key the verified claims are stored under.
const ClaimsKey ContextKey = "claims"

// Middleware guards handlers with bearer-token verification.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware creates the auth middleware around a verifier.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// RequireAuth wraps a handler with bearer-token verification.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		claims, err := m.verifier.VerifyToken(token)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireScope wraps a handler with a scope check. Must run inside
// RequireAuth.
func (m *Middleware) RequireScope(scopes ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(ClaimsKey).(*Claims)
			if claims == nil {
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !hasScopes(claims, scopes) {
				writeAuthError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
				return
			}
			next(w, r)
		}
	}
}

func hasScopes(claims *Claims, required []string) bool {
	for _, want := range required {
		found := false
		for _, have := range claims.Scopes {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", errMissingBearer
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

var errMissingBearer = &authError{"missing or malformed Authorization header"}

type authError struct{ msg string }

func (e *authError) Error() string { return e.msg }

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result":  "error",
		"code":    code,
		"message": message,
	})
}
