package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/pagetree/internal/config"
	"github.com/dgallion1/pagetree/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API over the page tree engine. It is a thin adapter:
// all tree logic lives in the engine and service packages.
type Server struct {
	router chi.Router
	svc    *service.Service
	batch  *service.Batcher
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(svc *service.Service, batch *service.Batcher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:   svc,
		batch: batch,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/parse", s.handleParse)

		r.Post("/api/pages", s.handleCreatePage)
		r.Get("/api/pages", s.handleListPages)
		r.Delete("/api/pages/{docID}", s.handleDeletePage)
		r.Get("/api/pages/{docID}/chunks", s.handleChunks)
		r.Get("/api/pages/{docID}/structure", s.handleStructure)
		r.Post("/api/pages/{docID}/mutations", s.handleMutations)

		r.Get("/api/pages/{docID}/text", s.handlePageText)
		r.Post("/api/pages/{docID}/translations", s.handleCreateTranslation)
		r.Put("/api/pages/{docID}/translations", s.handleUpdateTranslation)

		r.Post("/api/translations/batch", s.handleSubmitBatch)
		r.Get("/api/translations/batch/{jobID}/status", s.handleBatchStatus)

		r.Get("/api/fieldmap", s.handleFieldMap)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleFieldMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.FieldMap())
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.batch.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
