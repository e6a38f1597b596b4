package blgw

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/beolink-bridge/internal/auth"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	ctxKeyRequestID contextKey = "request_id"
	ctxKeyUsername  contextKey = "username"
)

// headerAuth is the custom header some B&O clients send instead of a
// standard Basic header. The value is base64("user:pass").
const headerAuth = "X-BLGW-Auth"

// allowList are paths served without authentication. The services
// document must stay open so devices can discover the gateway before
// they have credentials.
var allowList = map[string]struct{}{
	"/ping":               {},
	"/blgwpservices.json": {},
}

// requestIDMiddleware generates a unique request ID for each request.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		elapsed := time.Since(start)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", r.Context().Value(ctxKeyRequestID),
		)
		s.telemetry.RecordRequest(r.Method, r.URL.Path, wrapped.status, elapsed)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", r.Context().Value(ctxKeyRequestID),
				)
				writeInternalError(w, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// authMiddleware guards everything outside the allow-list. Any one of
// a valid session cookie, Basic credentials, or the custom header
// grants access; credential logins also mint a session cookie so the
// client can drop Basic on later requests.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, open := allowList[r.URL.Path]; open {
			next.ServeHTTP(w, r)
			return
		}

		if username, ok := s.cookieAuth(r); ok {
			next.ServeHTTP(w, withUsername(r, username))
			return
		}

		if username, ok := s.credentialAuth(r); ok {
			s.issueSessionCookie(w, r, username)
			next.ServeHTTP(w, withUsername(r, username))
			return
		}

		writeUnauthorized(w, "authentication required")
	})
}

func (s *Server) cookieAuth(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return "", false
	}
	username, err := s.sessions.Validate(r.Context(), cookie.Value)
	if err != nil {
		s.logger.Debug("session cookie rejected", "error", err)
		return "", false
	}
	return username, true
}

// credentialAuth checks Basic credentials or the custom header.
func (s *Server) credentialAuth(r *http.Request) (string, bool) {
	username, password, ok := r.BasicAuth()
	if !ok {
		username, password, ok = headerCredentials(r)
	}
	if !ok {
		return "", false
	}

	valid, err := s.gw.ValidateCredentials(r.Context(), username, password)
	if err != nil {
		s.logger.Warn("credential check failed", "user", username, "error", err)
		return "", false
	}
	if !valid {
		s.logger.Warn("http login rejected", "user", username)
		return "", false
	}
	return username, true
}

func headerCredentials(r *http.Request) (string, string, bool) {
	value := r.Header.Get(headerAuth)
	if value == "" {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", "", false
	}
	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return username, password, true
}

func (s *Server) issueSessionCookie(w http.ResponseWriter, r *http.Request, username string) {
	token, err := s.sessions.Issue(r.Context(), username)
	if err != nil {
		s.logger.Warn("issuing session failed", "user", username, "error", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
}

func withUsername(r *http.Request, username string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKeyUsername, username))
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requestIDBytes is the number of random bytes used for request IDs.
const requestIDBytes = 8

// generateRequestID creates a random hex request ID.
func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
