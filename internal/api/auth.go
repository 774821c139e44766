package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdmin gates administrative handlers behind the shared secret.
// The comparison is constant time so the secret cannot be probed
// byte by byte.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminSecret)) != 1 {
			s.logger.Warn("unauthorized admin request", "path", r.URL.Path, "ip", clientIP(r, s.trustProxy))
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
