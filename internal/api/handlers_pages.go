package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/dgallion1/pagetree/internal/pagetree"
	"github.com/dgallion1/pagetree/internal/service"
	"github.com/go-chi/chi/v5"
)

// handleParse normalizes and indexes a raw document without storing it. The
// body is the raw input: a JSON array, or a textual blob embedding one.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxDocumentBytes)+1024)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	res := pagetree.ParseToResult(data, s.cfg.Limits())
	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadRequest
	}
	writeJSON(w, code, res)
}

type createPageRequest struct {
	Title    string          `json:"title"`
	Language string          `json:"language"`
	Data     json.RawMessage `json:"data"`
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxDocumentBytes)+64*1024)
	var req createPageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Data) == 0 {
		jsonError(w, "data is required", http.StatusBadRequest)
		return
	}

	id, res, err := s.svc.CreatePage(r.Context(), string(req.Data), req.Title, req.Language)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"doc_id":       id,
		"node_count":   len(res.Index),
		"duplicateIds": res.DuplicateIDs,
	})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.svc.ListPages(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeletePage(r.Context(), chi.URLParam(r, "docID")); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChunks(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	maxBytes := 0
	if v := r.URL.Query().Get("max_bytes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxBytes = n
		}
	}
	token := r.URL.Query().Get("token")

	chunks, err := s.svc.GetChunks(r.Context(), docID, maxBytes, token)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.GetStructure(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": entries})
}

type mutationsRequest struct {
	Ops []service.MutationOp `json:"ops"`
}

func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxDocumentBytes)+64*1024)
	var req mutationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Ops) == 0 {
		jsonError(w, "ops is required", http.StatusBadRequest)
		return
	}

	outcomes, err := s.svc.ApplyMutations(r.Context(), chi.URLParam(r, "docID"), req.Ops)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": outcomes})
}
