package httpserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// passwordAlphabet omits visually ambiguous glyphs (I, l, 0, O, 1).
const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// GeneratedPasswordLength is the private-mode password length.
const GeneratedPasswordLength = 12

// AuthConfig holds Basic Auth credentials with the expected token
// precomputed. Set once before the server starts; read-only afterwards.
type AuthConfig struct {
	User string
	Pass string

	expected string
}

// NewAuthConfig precomputes the expected Authorization token for user:pass.
func NewAuthConfig(user, pass string) *AuthConfig {
	return &AuthConfig{
		User:     user,
		Pass:     pass,
		expected: base64.StdEncoding.EncodeToString([]byte(user + ":" + pass)),
	}
}

// Authorize checks the request's Authorization header against the expected
// token. The comparison is constant-time.
func (a *AuthConfig) Authorize(r *http.Request) bool {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return false
	}
	token = strings.TrimSpace(token)
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.expected)) == 1
}

// GeneratePassword returns a cryptographically random password over the
// unambiguous alphabet.
func GeneratePassword(length int) (string, error) {
	rnd := make([]byte, length)
	if _, err := rand.Read(rnd); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	out := make([]byte, length)
	for i, b := range rnd {
		out[i] = passwordAlphabet[int(b)%len(passwordAlphabet)]
	}
	return string(out), nil
}

// writeUnauthorized emits the single 401 an unauthorized connection gets
// before it is closed. No other body may be written.
func writeUnauthorized(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Connection", "close")
	h.Set("WWW-Authenticate", `Basic realm="LANSCR"`)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte("Unauthorized"))
}

// withAuth enforces Basic Auth on every route before any response body is
// produced. A nil auth config disables the check.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth != nil && !s.auth.Authorize(r) {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
