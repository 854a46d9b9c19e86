package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// authHeader is the header clients send the shared token in. The
// underscored spelling x_auth_token is also read.
const authHeader = "X-Auth-Token"

// authMiddleware enforces the shared token on protected routes. Preflight
// requests pass through. When auth is enabled but no token is configured,
// every request fails with 500.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	if s.config.Server.AuthDisabled {
		return next
	}
	want := s.config.Server.AuthToken

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if want == "" {
			s.logger.Error("auth: X_AUTH_TOKEN is not configured", zap.String("path", r.URL.Path))
			s.respondError(w, http.StatusInternalServerError, "Server missing X_AUTH_TOKEN")
			return
		}
		token := requestToken(r)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			s.logger.Warn("auth: rejected request",
				zap.String("path", r.URL.Path),
				zap.Bool("token_present", token != ""))
			w.Header().Set("WWW-Authenticate", `Bearer realm="docrag"`)
			s.respondError(w, http.StatusUnauthorized, "Invalid or missing X-Auth-Token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestToken returns the token from X-Auth-Token, x_auth_token or an
// "Authorization: Bearer" header, in that order.
func requestToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(authHeader)); t != "" {
		return t
	}
	if t := strings.TrimSpace(r.Header.Get("x_auth_token")); t != "" {
		return t
	}
	return bearerToken(r)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return ""
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
