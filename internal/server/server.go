package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/semcore/semmem/internal/engine"
	"github.com/semcore/semmem/internal/store"
)

// Server is the semmem HTTP API server.
type Server struct {
	db      *store.DB
	memory  *engine.Memory
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over an open store and memory engine.
func New(db *store.DB, memory *engine.Memory, version string) *Server {
	s := &Server{
		db:      db,
		memory:  memory,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/compress", s.handleCompress)
		r.Post("/kernels", s.handleStore)
		r.Post("/kernels/batch", s.handleStoreBatch)
		r.Get("/kernels/{kernelID}", s.handleRetrieve)
		r.Put("/kernels/{kernelID}", s.handleUpdate)
		r.Delete("/kernels/{kernelID}", s.handleDelete)

		r.Post("/search", s.handleSearch)
		r.Post("/similar", s.handleSimilar)

		r.Post("/connections", s.handleConnect)
		r.Get("/kernels/{kernelID}/connections", s.handleConnected)
		r.Get("/path", s.handlePath)
		r.Get("/clusters", s.handleClusters)

		r.Post("/forget", s.handleForget)
		r.Get("/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
