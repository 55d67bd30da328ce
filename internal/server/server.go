// Package server exposes a resolved dictionary over a read-only JSON API.
//
// The server resolves the corpus once at startup through a
// [pipeline.Runner] and answers lookups from the normalized export. A POST
// to /reload resolves again, for example after a new edition was published.
//
//	GET  /healthz
//	GET  /dictionary            complete export
//	GET  /sops                  SOP class records
//	GET  /sops/{uid}            one SOP class
//	GET  /sops/{uid}/tree       indented tree of one SOP class
//	GET  /iods/{keyword}
//	GET  /modules/{keyword}
//	GET  /attributes/{tag}      tag as (gggg,eeee) or keyword
//	POST /reload
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/matzehuels/dcmdict/pkg/dictionary"
	"github.com/matzehuels/dcmdict/pkg/errors"
	"github.com/matzehuels/dcmdict/pkg/pipeline"
	"github.com/matzehuels/dcmdict/pkg/report"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server answers dictionary lookups. It is safe for concurrent use.
type Server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger

	mu       sync.RWMutex
	snapshot *snapshot
}

// snapshot is one resolved dictionary indexed for lookups.
type snapshot struct {
	runID    string
	loaded   time.Time
	filtered *dictionary.Filtered
	export   *report.Export
	document []byte

	sops       map[string]report.SopRecord
	iods       map[string]report.IodRecord
	modules    map[string]report.ModuleRecord
	attributes map[string]report.AttributeRecord
}

// New creates a server resolving with runner. opts selects the SOP classes
// to serve; its formats are ignored.
func New(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	opts.Formats = []string{pipeline.FormatJSON}
	return &Server{runner: runner, opts: opts, logger: logger}
}

// Load resolves the dictionary and replaces the served snapshot. On failure
// the previous snapshot keeps being served.
func (s *Server) Load(ctx context.Context) error {
	result, err := s.runner.Execute(ctx, s.opts)
	if err != nil {
		return err
	}
	snap := newSnapshot(result)

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info("loaded dictionary",
		"run", result.RunID,
		"sops", len(snap.sops),
		"attributes", len(snap.attributes))
	return nil
}

func newSnapshot(result *pipeline.Result) *snapshot {
	f := result.Filtered()
	exp := report.NewExport(f)
	snap := &snapshot{
		runID:      result.RunID,
		loaded:     time.Now(),
		filtered:   f,
		export:     exp,
		document:   result.Artifacts[pipeline.FormatJSON],
		sops:       make(map[string]report.SopRecord, len(exp.Sops)),
		iods:       make(map[string]report.IodRecord, len(exp.Iods)),
		modules:    make(map[string]report.ModuleRecord, len(exp.Modules)),
		attributes: make(map[string]report.AttributeRecord, len(exp.Attributes)),
	}
	for _, r := range exp.Sops {
		snap.sops[r.UID] = r
	}
	for _, r := range exp.Iods {
		snap.iods[r.Keyword] = r
	}
	for _, r := range exp.Modules {
		snap.modules[r.Keyword] = r
	}
	for _, r := range exp.Attributes {
		snap.attributes[r.Tag] = r
	}
	return snap
}

func (s *Server) current() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, errors.New(errors.ErrCodeDocumentUnavailable, "dictionary not loaded")
	}
	return s.snapshot, nil
}

// =============================================================================
// Routing
// =============================================================================

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogging(s.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/dictionary", s.handleDictionary)
	r.Route("/sops", func(r chi.Router) {
		r.Get("/", s.handleSops)
		r.Get("/{uid}", s.handleSop)
		r.Get("/{uid}/tree", s.handleSopTree)
	})
	r.Get("/iods/{keyword}", s.handleIod)
	r.Get("/modules/{keyword}", s.handleModule)
	r.Get("/attributes/{tag}", s.handleAttribute)
	r.Post("/reload", s.handleReload)

	return r
}

// ListenAndServe serves the API on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string    `json:"status"`
	RunID  string    `json:"run_id,omitempty"`
	Loaded time.Time `json:"loaded,omitempty"`
	Sops   int       `json:"sops"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		RunID:  snap.runID,
		Loaded: snap.loaded,
		Sops:   len(snap.sops),
	})
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.document)
}

func (s *Server) handleSops(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.export.Sops)
}

func (s *Server) handleSop(w http.ResponseWriter, r *http.Request) {
	lookup(w, r, "uid", "SOP class", func(snap *snapshot, uid string) (report.SopRecord, bool) {
		rec, ok := snap.sops[uid]
		return rec, ok
	}, s.current)
}

func (s *Server) handleSopTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	if err != nil {
		writeError(w, err)
		return
	}
	uid := chi.URLParam(r, "uid")
	sop, ok := snap.filtered.Sop(uid)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown SOP class %s", uid))
		return
	}
	var buf bytes.Buffer
	if err := report.Tree(&buf, sop); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render tree"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleIod(w http.ResponseWriter, r *http.Request) {
	lookup(w, r, "keyword", "IOD", func(snap *snapshot, kw string) (report.IodRecord, bool) {
		rec, ok := snap.iods[kw]
		return rec, ok
	}, s.current)
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	lookup(w, r, "keyword", "module", func(snap *snapshot, kw string) (report.ModuleRecord, bool) {
		rec, ok := snap.modules[kw]
		return rec, ok
	}, s.current)
}

func (s *Server) handleAttribute(w http.ResponseWriter, r *http.Request) {
	tag, err := dictionary.ParseMandatoryTag(chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, err)
		return
	}
	lookup(w, r, "tag", "attribute", func(snap *snapshot, _ string) (report.AttributeRecord, bool) {
		rec, ok := snap.attributes[tag.String()]
		return rec, ok
	}, s.current)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Load(r.Context()); err != nil {
		s.logger.Error("reload failed", "request_id", RequestID(r.Context()), "err", err)
		writeError(w, err)
		return
	}
	s.handleHealth(w, r)
}

// lookup answers a keyed record request.
func lookup[T any](w http.ResponseWriter, r *http.Request, param, kind string,
	find func(*snapshot, string) (T, bool), current func() (*snapshot, error)) {
	snap, err := current()
	if err != nil {
		writeError(w, err)
		return
	}
	key := chi.URLParam(r, param)
	rec, ok := find(snap, key)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "unknown %s %s", kind, key))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidUID, errors.ErrCodeInvalidPattern,
		errors.ErrCodeMalformedTag:
		return http.StatusBadRequest
	case errors.ErrCodeDocumentUnavailable, errors.ErrCodeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
