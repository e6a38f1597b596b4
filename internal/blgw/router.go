package blgw

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The route shapes mirror what B&O apps and TVs request from a real
// gateway, so paths are not negotiable.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.authMiddleware)

	r.Get("/ping", s.handlePing)
	r.Get("/blgwpservices.json", s.handleServices)

	r.Get("/a/view/House/{zone}/CAMERA/{name}/mjpeg", s.handleCameraMJPEG)
	r.Get("/a/webview/{area}/{zone}/CAMERA/{name}/snapshot", s.handleCameraSnapshot)
	r.Get("/a/exe/{area}/{zone}/{type}/{resource}/{command}", s.handleExec)

	r.Get("/a/model/*", s.handleModel)
	r.Post("/a/model/*", s.handleModel)
	r.Put("/a/model/*", s.handleModel)

	return r
}

// handlePing returns the server health status.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// param returns a decoded URL parameter. Resource names and types
// carry percent-encoded spaces ("AV%20renderer"), which chi leaves
// escaped when the raw path differs from the decoded one.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
