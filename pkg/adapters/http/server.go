package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/internal/compiler"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/internal/presentation/graph"
	"github.com/imovia/fluxo/internal/validator"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/ports"
	"github.com/imovia/fluxo/pkg/runner"
	"github.com/imovia/fluxo/pkg/session"
)

// Server exposes the session manager to the editor's test panel.
type Server struct {
	Manager  *session.Manager
	Loader   ports.FlowLoader
	Streams  *StreamManager
	Defaults domain.RunConfig

	logger    *slog.Logger
	metrics   http.Handler
	limiter   *RateLimiter
	sanitizer runner.Sanitizer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLoader enables starting runs by flow name.
func WithLoader(loader ports.FlowLoader) Option {
	return func(s *Server) {
		s.Loader = loader
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithRateLimit caps requests under /runs. A non-positive rps disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = NewRateLimiter(rps, burst)
		}
	}
}

// WithMaxInputSize sets the byte limit for replies sent to /runs/{id}/input.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.sanitizer = runner.NewSanitizer(n)
	}
}

// WithDefaults sets the run config applied when a request leaves fields unset.
func WithDefaults(cfg domain.RunConfig) Option {
	return func(s *Server) {
		s.Defaults = cfg
	}
}

// NewServer creates a Server over manager.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	return NewServer(manager, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/flows", s.listFlows)

	r.Route("/runs", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Handler)
		}
		r.Post("/", s.createRun)
		r.Get("/", s.listRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Delete("/", s.deleteRun)
			r.Post("/input", s.sendInput)
			r.Post("/reset", s.resetRun)
			r.Get("/graph", s.getGraph)
			r.Get("/events", s.subscribeEvents)
			r.Get("/transcript", s.getTranscript)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateRunRequest starts a run from a named flow or an inline definition.
type CreateRunRequest struct {
	ID         string             `json:"id,omitempty"`
	Flow       string             `json:"flow,omitempty"`
	Definition *compiler.Document `json:"definition,omitempty"`
	Config     *domain.RunConfig  `json:"config,omitempty"`
}

// InputRequest carries a user reply.
type InputRequest struct {
	Text string `json:"text"`
}

// RunView is the JSON shape of a run.
type RunView struct {
	ID            string            `json:"id"`
	Status        domain.RunStatus  `json:"status"`
	CurrentNodeID string            `json:"currentNodeId,omitempty"`
	Variables     map[string]any    `json:"variables"`
	Messages      []domain.Message  `json:"messages"`
	ExecutionLog  []domain.LogEntry `json:"executionLog"`
	VisitedNodes  []string          `json:"visitedNodes"`
	Error         string            `json:"error,omitempty"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Report *validator.Report `json:"report,omitempty"`
}

func viewOf(run *fluxo.Run) RunView {
	st := run.Snapshot()
	return RunView{
		ID:            run.ID(),
		Status:        st.Status,
		CurrentNodeID: st.CurrentNodeID,
		Variables:     st.Variables,
		Messages:      st.Messages,
		ExecutionLog:  st.ExecutionLog,
		VisitedNodes:  st.VisitedNodes.IDs(),
		Error:         st.Error,
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": fluxo.Version})
}

func (s *Server) listFlows(w http.ResponseWriter, r *http.Request) {
	if s.Loader == nil {
		s.writeJSON(w, http.StatusOK, []string{})
		return
	}
	names, err := s.Loader.List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var body CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}

	def, name, err := s.resolveDefinition(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if report := validator.Validate(def); report.Err() != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "invalid flow", Report: report})
		return
	}

	cfg := s.Defaults
	if body.Config != nil {
		cfg = mergeConfig(s.Defaults, *body.Config)
	}

	run, err := s.Manager.Create(r.Context(), body.ID, def, cfg, session.WithFlowName(name))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(run.ID(), domain.NewRunState(), run)
	s.writeJSON(w, http.StatusCreated, viewOf(run))
}

func (s *Server) resolveDefinition(body CreateRunRequest) (*domain.Definition, string, error) {
	if body.Definition != nil {
		def, err := body.Definition.Definition()
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", errBadRequest, err)
		}
		return def, body.Definition.Name, nil
	}
	if body.Flow == "" {
		return nil, "", fmt.Errorf("%w: flow or definition is required", errBadRequest)
	}
	if s.Loader == nil {
		return nil, "", fmt.Errorf("%w: no flow loader configured", errBadRequest)
	}
	def, err := s.Loader.Load(body.Flow)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errFlowNotFound, err)
	}
	return def, body.Flow, nil
}

// mergeConfig fills the request's unset policies from the server defaults.
func mergeConfig(defaults, req domain.RunConfig) domain.RunConfig {
	if req.EffectFailurePolicy == "" {
		req.EffectFailurePolicy = defaults.EffectFailurePolicy
	}
	if req.UnmatchedBranchPolicy == "" {
		req.UnmatchedBranchPolicy = defaults.UnmatchedBranchPolicy
	}
	return req
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Manager.List())
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, viewOf(run))
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendInput(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body InputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	text, err := s.sanitizer.Clean(body.Text)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	run, err := s.Manager.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	before := run.Snapshot()
	if err := s.Manager.SendInput(r.Context(), id, text); err != nil {
		s.writeError(w, err)
		return
	}
	s.publish(id, &before, run)
	s.writeJSON(w, http.StatusOK, viewOf(run))
}

// resetRun clears the run and starts it again unless ?restart=false.
func (s *Server) resetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.Manager.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	before := run.Snapshot()
	if err := s.Manager.Reset(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	if r.URL.Query().Get("restart") != "false" {
		if err := s.Manager.Start(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.publish(id, &before, run)
	s.writeJSON(w, http.StatusOK, viewOf(run))
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	run, err := s.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	st := run.Snapshot()
	out := graph.GenerateMermaid(run.Definition(), &graph.GraphOverlay{
		VisitedNodes: st.VisitedNodes.IDs(),
		CurrentNode:  st.CurrentNodeID,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(out))
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	t, err := s.Manager.Transcript(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

// subscribeEvents streams RunDiff JSON as server-sent events.
// ?watch=messages,variables,status keeps only diffs touching those fields.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Manager.Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("sse subscribed", "run_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "run_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !watched(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func watched(msg string, fields []string) bool {
	var diff domain.RunDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "messages":
			if len(diff.Messages) > 0 || diff.Reset {
				return true
			}
		case "variables":
			if len(diff.Variables) > 0 {
				return true
			}
		case "status":
			if diff.Status != nil || diff.CurrentNodeID != nil {
				return true
			}
		case "log":
			if len(diff.Log) > 0 {
				return true
			}
		}
	}
	return false
}

func (s *Server) publish(id string, before *domain.RunState, run *fluxo.Run) {
	after := run.Snapshot()
	diff := domain.Diff(id, before, &after)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("failed to encode run diff", "run_id", id, "err", err)
		return
	}
	s.Streams.Broadcast(id, string(data))
}

var (
	errBadRequest   = errors.New("bad request")
	errFlowNotFound = errors.New("flow not found")
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunNotFound), errors.Is(err, errFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotWaiting), errors.Is(err, domain.ErrNotIdle),
		errors.Is(err, domain.ErrBusy), errors.Is(err, session.ErrConversationExists):
		return http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrDuplicateNode):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
