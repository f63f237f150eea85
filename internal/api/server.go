package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/contact-extractor/internal/config"
	"github.com/JakeFAU/contact-extractor/internal/contact"
	"github.com/JakeFAU/contact-extractor/internal/dispatcher"
	"github.com/JakeFAU/contact-extractor/internal/export"
	"github.com/JakeFAU/contact-extractor/internal/metrics"
)

// Submitter hands jobs to background execution.
type Submitter interface {
	Submit(job contact.Job) (*dispatcher.Handle, error)
	Active() int
}

// Server wires HTTP handlers to the dispatcher and job store.
type Server struct {
	router     chi.Router
	jobStore   contact.JobStore
	dispatcher Submitter
	idGen      contact.IDGenerator
	clock      contact.Clock
	cfg        config.Config
	version    string
	logger     *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithVersion sets the build version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	jobStore contact.JobStore,
	submitter Submitter,
	idGen contact.IDGenerator,
	clock contact.Clock,
	cfg config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		jobStore:   jobStore,
		dispatcher: submitter,
		idGen:      idGen,
		clock:      clock,
		cfg:        cfg,
		version:    "dev",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(corsMiddleware)
	r.Use(metrics.Middleware)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(cfg.Server.RequestTimeout))
	}

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/extract", s.submitExtraction)
		r.Get("/job/{jobId}", s.getJob)
		r.Get("/job/{jobId}/download", s.downloadJob)
	})

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

type extractRequest struct {
	URLs []string `json:"urls"`
}

type extractResponse struct {
	Success bool    `json:"success"`
	JobID   string  `json:"jobId"`
	Message string  `json:"message"`
	Limited *string `json:"limited"`
}

type jobResponse struct {
	contact.Job
	Progress int `json:"progress"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	ActiveJobs int    `json:"activeJobs"`
	Version    string `json:"version"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, healthResponse{
		Status:     "OK",
		Timestamp:  s.clock.Now().UTC().Format(timestampLayout),
		ActiveJobs: s.dispatcher.Active(),
		Version:    s.version,
	})
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *Server) submitExtraction(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, fmt.Errorf("decode request: %w: invalid JSON", contact.ErrValidation))
		return
	}
	urls, limited := capURLs(cleanURLs(req.URLs), s.cfg.Extract.MaxURLs)
	if len(urls) == 0 {
		s.writeErr(w, fmt.Errorf("%w: URLs are required", contact.ErrValidation))
		return
	}

	jobID, err := s.startJob(r, urls)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, extractResponse{
		Success: true,
		JobID:   jobID,
		Message: fmt.Sprintf("Extraction started for %d URLs", len(urls)),
		Limited: limited,
	})
}

func (s *Server) startJob(r *http.Request, urls []string) (string, error) {
	jobID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	job := contact.NewJob(jobID, urls, s.clock.Now())
	if err := s.jobStore.CreateJob(r.Context(), job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	if _, err := s.dispatcher.Submit(job); err != nil {
		if cerr := s.jobStore.CompleteJob(r.Context(), jobID, s.clock.Now()); cerr != nil {
			s.logger.Warn("close unsubmitted job failed", zap.String("job_id", jobID), zap.Error(cerr))
		}
		return "", fmt.Errorf("submit job: %w", err)
	}
	s.logger.Info("extraction job accepted",
		zap.String("job_id", jobID),
		zap.Int("urls", len(urls)),
		zap.String("request_id", requestIDFrom(r.Context())),
	)
	return jobID, nil
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobStore.GetJob(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, jobResponse{Job: job, Progress: job.Progress()})
}

func (s *Server) downloadJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := s.jobStore.GetJob(r.Context(), jobID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if !job.Completed() {
		s.writeErr(w, fmt.Errorf("download %s: %w", jobID, contact.ErrJobNotReady))
		return
	}
	body, err := export.CSV(job.Results)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=contacts.csv")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write csv failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// cleanURLs trims entries and drops blanks.
func cleanURLs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// capURLs keeps at most limit URLs. A non-positive limit disables the cap.
func capURLs(urls []string, limit int) ([]string, *string) {
	if limit <= 0 || len(urls) <= limit {
		return urls, nil
	}
	msg := fmt.Sprintf("Only the first %d of %d URLs will be processed", limit, len(urls))
	return urls[:limit], &msg
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, contact.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contact.ErrJobNotFound), errors.Is(err, contact.ErrJobNotReady):
		return http.StatusNotFound
	case errors.Is(err, dispatcher.ErrShuttingDown):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps client errors short and surfaces the full chain otherwise.
func publicMessage(err error, status int) string {
	switch {
	case errors.Is(err, contact.ErrJobNotReady):
		return "Job not found or not completed"
	case errors.Is(err, contact.ErrJobNotFound):
		return "Job not found"
	case status == http.StatusBadRequest:
		if _, detail, ok := strings.Cut(err.Error(), contact.ErrValidation.Error()+": "); ok {
			return detail
		}
	}
	return err.Error()
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	writeError(w, s.logger, status, publicMessage(err, status))
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}
