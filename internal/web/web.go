// Package web provides an optional preview server for the build output,
// so the feed and problem report can be checked in a browser before the
// static files are published.
package web

import (
	"encoding/json"
	"net/http"
	"strings"

	appLog "oweek/internal/log"
)

// Server serves the output directory plus a health endpoint.
type Server struct {
	outDir string
	mux    *http.ServeMux
}

// NewServer constructs a Server over the given output directory.
func NewServer(outDir string) *Server {
	s := &Server{
		outDir: outDir,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/", s.outputFileServer())
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks serving on the given address.
func (s *Server) ListenAndServe(listen string) error {
	appLog.Info("preview server listening", "listen", "http://"+listen, "out", s.outDir)
	return http.ListenAndServe(listen, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		appLog.Error("failed to write health response", err)
	}
}

// outputFileServer serves the generated files. Directory listings are
// suppressed; the root redirects to the feed document.
func (s *Server) outputFileServer() http.Handler {
	fileServer := http.FileServer(http.Dir(s.outDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/api.json", http.StatusFound)
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}
