package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/semcore/semmem/internal/engine"
	"github.com/semcore/semmem/internal/kernel"
	"github.com/semcore/semmem/internal/store"
)

// writeOpError maps domain failures onto HTTP statuses: validation is the
// caller's fault, an unknown kernel id is a 404, everything else is ours.
func writeOpError(w http.ResponseWriter, err error) {
	var verr *kernel.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrUnknownKernel):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string         `json:"text"`
		Language string         `json:"language"`
		Context  map[string]any `json:"context"`
		Store    bool           `json:"store"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	if req.Store {
		k, err := s.memory.Remember(req.Text, req.Language, req.Context)
		if err != nil {
			writeOpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, k)
		return
	}

	writeJSON(w, http.StatusOK, s.memory.Compress(req.Text, req.Language, req.Context))
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	var k kernel.Kernel
	if err := json.NewDecoder(r.Body).Decode(&k); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := s.memory.Store(&k); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": k.ID})
}

func (s *Server) handleStoreBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kernels []*kernel.Kernel `json:"kernels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ids, err := s.memory.StoreBatch(req.Kernels)
	if err != nil {
		// Partial progress still matters to the caller.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"stored": ids,
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"stored": ids})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "kernelID")
	activate := r.URL.Query().Get("activate") != "false"

	k, err := s.memory.Retrieve(id, activate)
	if err != nil {
		writeOpError(w, err)
		return
	}
	if k == nil {
		writeError(w, http.StatusNotFound, "kernel not found")
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "kernelID")

	var k kernel.Kernel
	if err := json.NewDecoder(r.Body).Decode(&k); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	k.ID = id

	ok, err := s.memory.Update(&k)
	if err != nil {
		writeOpError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "kernel not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "kernelID")

	ok, err := s.memory.Delete(id)
	if err != nil {
		writeOpError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "kernel not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q engine.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	results, err := s.memory.Search(q)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID            string  `json:"id"`
		Text          string  `json:"text"`
		Language      string  `json:"language"`
		Limit         int     `json:"limit"`
		MinSimilarity float64 `json:"min_similarity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var k *kernel.Kernel
	switch {
	case req.ID != "":
		var err error
		k, err = s.memory.Retrieve(req.ID, false)
		if err != nil {
			writeOpError(w, err)
			return
		}
		if k == nil {
			writeError(w, http.StatusNotFound, "kernel not found")
			return
		}
	case req.Text != "":
		k = s.memory.Compress(req.Text, req.Language, nil)
	default:
		writeError(w, http.StatusBadRequest, "id or text required")
		return
	}

	results, err := s.memory.FindSimilar(k, req.Limit, req.MinSimilarity)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From     string   `json:"from"`
		To       string   `json:"to"`
		Strength *float64 `json:"strength"`
		Type     string   `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, http.StatusBadRequest, "from and to required")
		return
	}

	// Absent strength defaults to a full-strength edge; an explicit 0 is a
	// valid (weakest) edge.
	strength := 1.0
	if req.Strength != nil {
		strength = *req.Strength
	}

	if err := s.memory.Connect(req.From, req.To, strength, req.Type); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "connected"})
}

func (s *Server) handleConnected(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "kernelID")
	minStrength, _ := strconv.ParseFloat(r.URL.Query().Get("min_strength"), 64)

	conns, err := s.memory.Connected(id, minStrength)
	if err != nil {
		writeOpError(w, err)
		return
	}

	type edge struct {
		Kernel   kernel.Kernel `json:"kernel"`
		Strength float64       `json:"strength"`
		Type     string        `json:"type"`
	}
	edges := make([]edge, 0, len(conns))
	for _, c := range conns {
		edges = append(edges, edge{Kernel: c.Kernel, Strength: c.Strength, Type: c.Type})
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": edges})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to required")
		return
	}
	maxDepth, _ := strconv.Atoi(r.URL.Query().Get("max_depth"))

	path, err := s.memory.FindPath(from, to, maxDepth)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"found": path != nil,
	})
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	minSize, _ := strconv.Atoi(r.URL.Query().Get("min_size"))

	clusters, err := s.memory.Clusters(minSize)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clusters": clusters})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MaxAgeDays int     `json:"max_age_days"`
		Threshold  float64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.MaxAgeDays <= 0 {
		req.MaxAgeDays = 30
	}
	if req.Threshold <= 0 {
		req.Threshold = 0.3
	}

	n, err := s.memory.Forget(req.MaxAgeDays, req.Threshold)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forgotten": n})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.memory.Stats()
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
