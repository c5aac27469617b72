package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/pagetree/internal/docstore"
	"github.com/dgallion1/pagetree/internal/pagetree"
	"github.com/dgallion1/pagetree/internal/service"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeEngineError maps the engine/store error taxonomy onto HTTP status
// codes so automated callers can branch on kind.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pagetree.ErrAmbiguousID):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, pagetree.ErrNotFound), errors.Is(err, docstore.ErrPageNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pagetree.ErrCycle):
		jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, pagetree.ErrSizeLimit):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, pagetree.ErrParse), errors.Is(err, pagetree.ErrStructural):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrCapabilityMissing):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
