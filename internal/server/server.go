// Package server exposes the advisory pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"printssistant/internal/checklist"
	"printssistant/internal/core"
	"printssistant/internal/logger"
	"printssistant/internal/xmlmap"
)

const maxUploadBytes = 20 << 20

// Server handles advisory requests against one shop configuration.
type Server struct {
	runner      *core.Runner
	checklist   *checklist.Config
	mappingPath string
	configDir   string
	log         logger.Logger
	validate    *validator.Validate
	metrics     *metrics
}

// Option configures a Server.
type Option func(*Server)

// WithChecklist sets the checklist served by POST /checklist.
func WithChecklist(cfg *checklist.Config) Option {
	return func(s *Server) { s.checklist = cfg }
}

// WithMappingPath sets the XPath mapping used when a parse request names none.
func WithMappingPath(path string) Option {
	return func(s *Server) { s.mappingPath = path }
}

// WithConfigDir sets the directory a parse request may name mappings from.
// Without it only the default mapping is used.
func WithConfigDir(dir string) Option {
	return func(s *Server) { s.configDir = dir }
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a server around runner.
func New(runner *core.Runner, opts ...Option) *Server {
	s := &Server{
		runner:    runner,
		checklist: &checklist.Config{},
		log:       logger.Nop(),
		validate:  validator.New(),
		metrics:   newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/advise", s.handleAdvise)
	r.Post("/parse_xml", s.handleParseXML)
	r.Get("/presses", s.handlePresses)
	r.Post("/checklist", s.handleChecklist)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type adviseRequest struct {
	JobSpec map[string]any `json:"jobspec" validate:"required"`
	Message string         `json:"message" validate:"max=4000"`
	Machine string         `json:"machine" validate:"max=200"`
	Fold    string         `json:"fold" validate:"omitempty,oneof=roll z gate half tri accordion"`
	FoldIn  string         `json:"fold_in" validate:"omitempty,oneof=left right"`
	DebugML bool           `json:"debug_ml"`
}

type adviseResponse struct {
	ID string `json:"id"`
	*core.Advice
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	var req adviseRequest
	if err := s.decode(w, r, &req); err != nil {
		s.metrics.requests.WithLabelValues("bad_request").Inc()
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	advice, _, err := s.runner.AdviseRaw(r.Context(), req.JobSpec, req.Message, core.AdviseOptions{
		Fold:    req.Fold,
		FoldIn:  req.FoldIn,
		Machine: req.Machine,
		DebugML: req.DebugML,
	})
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.requests.WithLabelValues("error").Inc()
		s.writeFailure(w, err)
		return
	}
	s.metrics.observeAdvice(advice.Intents)
	writeJSON(w, http.StatusOK, adviseResponse{ID: uuid.NewString(), Advice: advice})
}

func (s *Server) handleParseXML(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	file, _, err := r.FormFile("xml")
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("missing 'xml' file: %w", err))
		return
	}
	defer file.Close()

	mappingPath := s.mappingPath
	if requested := r.FormValue("mapping_path"); requested != "" {
		mappingPath, err = s.configPath(requested)
		if err != nil {
			writeErr(w, http.StatusForbidden, err)
			return
		}
	}
	mapping, err := xmlmap.LoadMapping(mappingPath)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	job, err := xmlmap.Decode(file, mapping)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	core.Resolve(job, s.runner.Shop)
	writeJSON(w, http.StatusOK, job.Public())
}

var errOutsideConfigDir = errors.New("mapping_path must be inside the config directory")

// configPath resolves a client supplied path against the config directory
// and rejects anything that escapes it.
func (s *Server) configPath(requested string) (string, error) {
	if s.configDir == "" {
		return "", errOutsideConfigDir
	}
	base, err := filepath.Abs(s.configDir)
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	target := requested
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideConfigDir
	}
	return target, nil
}

func (s *Server) handlePresses(w http.ResponseWriter, _ *http.Request) {
	shop := s.runner.Shop
	writeJSON(w, http.StatusOK, map[string]any{
		"presses":    shop.PressKeys(),
		"categories": shop.Categories,
	})
}

type checklistRequest struct {
	JobSpec map[string]any `json:"jobspec" validate:"required"`
	Tips    []string       `json:"tips"`
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	var req checklistRequest
	if err := s.decode(w, r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	job, err := core.Normalize(req.JobSpec)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	core.Resolve(job, s.runner.Shop)
	writeJSON(w, http.StatusOK, s.checklist.Render(job, req.Tips))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// writeFailure maps configuration shape and malformed input errors to 400 and
// anything else to 500.
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrConfigFormat) || errors.Is(err, xmlmap.ErrMalformedXML) {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	s.log.Error("request failed", "error", err)
	writeErr(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}
