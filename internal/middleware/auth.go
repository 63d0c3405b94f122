package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/grocer/internal/auth"
)

// Authenticator verifies a bearer token.
type Authenticator interface {
	Authenticate(token string) (auth.Principal, error)
}

// RequireAuth verifies the bearer token and stores the principal in the
// request context. WebSocket upgrades may pass the token as the
// access_token query parameter, since browsers cannot set headers on them.
func RequireAuth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "not authenticated")
				return
			}

			p, err := a.Authenticate(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrExpired):
					unauthorized(w, "token has expired")
				case errors.Is(err, auth.ErrMissingSubject):
					unauthorized(w, "token has no subject")
				default:
					unauthorized(w, "could not validate credentials")
				}
				return
			}

			noteUser(r.Context(), p.Username)
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
