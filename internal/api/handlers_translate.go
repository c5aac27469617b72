package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/pagetree/internal/service"
	"github.com/dgallion1/pagetree/internal/translate"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handlePageText(w http.ResponseWriter, r *http.Request) {
	text, err := s.svc.GetPageText(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, text)
}

type createTranslationRequest struct {
	TargetLanguage string                     `json:"targetLanguage"`
	Units          []translate.TranslatedUnit `json:"units"`
	// Texts is the compact id-keyed alternative to Units.
	Texts map[string]string `json:"texts,omitempty"`
}

func (req *createTranslationRequest) allUnits() []translate.TranslatedUnit {
	units := req.Units
	if len(req.Texts) > 0 {
		units = append(units, translate.UnitsFromMap(req.Texts)...)
	}
	return units
}

func (s *Server) handleCreateTranslation(w http.ResponseWriter, r *http.Request) {
	var req createTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.TargetLanguage == "" {
		jsonError(w, "targetLanguage is required", http.StatusBadRequest)
		return
	}
	units := req.allUnits()
	if len(units) == 0 {
		jsonError(w, "units is required", http.StatusBadRequest)
		return
	}

	res, err := s.svc.CreateTranslatedPage(r.Context(), chi.URLParam(r, "docID"), units, req.TargetLanguage)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type updateTranslationRequest struct {
	Units            []translate.TranslatedUnit `json:"units"`
	Texts            map[string]string          `json:"texts,omitempty"`
	FullUpdate       bool                       `json:"fullUpdate,omitempty"`
	SourceDocumentID string                     `json:"sourceDocumentId,omitempty"`
}

func (s *Server) handleUpdateTranslation(w http.ResponseWriter, r *http.Request) {
	var req updateTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	units := req.Units
	if len(req.Texts) > 0 {
		units = append(units, translate.UnitsFromMap(req.Texts)...)
	}
	if len(units) == 0 && !req.FullUpdate {
		jsonError(w, "units is required", http.StatusBadRequest)
		return
	}

	res, err := s.svc.UpdateTranslatedPage(r.Context(), chi.URLParam(r, "docID"), units, service.UpdateOptions{
		FullUpdate:       req.FullUpdate,
		SourceDocumentID: req.SourceDocumentID,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type batchRequest struct {
	Pages []service.PageUnits `json:"pages"`
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Pages) == 0 {
		jsonError(w, "pages is required", http.StatusBadRequest)
		return
	}

	job, err := s.batch.Submit(r.Context(), req.Pages)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": "/api/translations/batch/" + job.ID + "/status",
	})
}
