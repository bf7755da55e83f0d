package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/internal/presentation/codegen"
	"github.com/aretw0/flowcanvas/internal/presentation/graph"
	"github.com/aretw0/flowcanvas/pkg/adapters/file"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request bodies, including whole graph documents.
const maxBodyBytes = 4 << 20

// Server exposes workspaces managed by a session.Manager over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the workspaces of sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		logger:   logging.NewJSON(os.Stderr, slog.LevelInfo),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/workspaces", s.ListWorkspaces)
	r.Route("/workspaces/{id}", func(r chi.Router) {
		r.Delete("/", s.DeleteWorkspace)

		r.Get("/graph", s.GetGraph)
		r.Put("/graph", s.PutGraph)
		r.Post("/nodes", s.AddNode)
		r.Delete("/nodes/{nodeID}", s.RemoveNode)
		r.Post("/edges", s.Connect)
		r.Delete("/edges/{edgeID}", s.Disconnect)
		r.Post("/undo", s.Undo)
		r.Post("/redo", s.Redo)
		r.Post("/save", s.Save)

		r.Get("/run", s.GetRun)
		r.Post("/run", s.StartRun)
		r.Post("/run/pause", s.PauseRun)
		r.Post("/run/resume", s.ResumeRun)
		r.Post("/run/stop", s.StopRun)
		r.Get("/events", s.SubscribeEvents)

		r.Get("/mermaid", s.GetMermaid)
		r.Get("/code/{lang}", s.GetCode)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowcanvas-http",
		"version": flowcanvas.Version,
	})
}

// ListWorkspaces handles GET /workspaces.
func (s *Server) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, "list workspaces", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"workspaces": ids})
}

// DeleteWorkspace handles DELETE /workspaces/{id}.
func (s *Server) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, "delete workspace", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGraph handles GET /workspaces/{id}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ws.Graph())
}

// PutGraph handles PUT /workspaces/{id}/graph.
// The body is a native workflow or a canvas export, in JSON or YAML.
func (s *Server) PutGraph(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	wf, err := file.Decode(data, ws.Name)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid graph: %v", err), http.StatusBadRequest)
		s.logger.Warn("PutGraph: invalid graph", "workspace", ws.Name, "err", err)
		return
	}
	ws.LoadWorkflow(wf)
	s.graphChanged(ws)
	s.writeJSON(w, http.StatusOK, ws.Graph())
}

type addNodeRequest struct {
	Type     domain.NodeType `json:"type"`
	Label    string          `json:"label"`
	Position domain.Position `json:"position"`
}

// AddNode handles POST /workspaces/{id}/nodes.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body addNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Type == "" {
		http.Error(w, "Node type is required", http.StatusBadRequest)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	node := ws.Editor().AddNode(body.Type, body.Label, body.Position)
	s.graphChanged(ws)
	s.writeJSON(w, http.StatusCreated, node)
}

// RemoveNode handles DELETE /workspaces/{id}/nodes/{nodeID}.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if !ws.Editor().RemoveNode(chi.URLParam(r, "nodeID")) {
		http.Error(w, "Node not found", http.StatusNotFound)
		return
	}
	s.graphChanged(ws)
	w.WriteHeader(http.StatusNoContent)
}

type connectRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle"`
}

// Connect handles POST /workspaces/{id}/edges.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body connectRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Source == "" || body.Target == "" {
		http.Error(w, "Source and target are required", http.StatusBadRequest)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	edge := ws.Editor().Connect(body.Source, body.Target, body.SourceHandle)
	s.graphChanged(ws)
	s.writeJSON(w, http.StatusCreated, edge)
}

// Disconnect handles DELETE /workspaces/{id}/edges/{edgeID}.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if !ws.Editor().Disconnect(chi.URLParam(r, "edgeID")) {
		http.Error(w, "Edge not found", http.StatusNotFound)
		return
	}
	s.graphChanged(ws)
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Changed bool         `json:"changed"`
	Graph   domain.Graph `json:"graph"`
}

// Undo handles POST /workspaces/{id}/undo.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, func(ws *flowcanvas.Workspace) bool { return ws.Editor().Undo() })
}

// Redo handles POST /workspaces/{id}/redo.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, func(ws *flowcanvas.Workspace) bool { return ws.Editor().Redo() })
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, step func(*flowcanvas.Workspace) bool) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	changed := step(ws)
	if changed {
		s.graphChanged(ws)
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Changed: changed, Graph: ws.Graph()})
}

// Save handles POST /workspaces/{id}/save.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.workspace(w, r); !ok {
		return
	}
	if err := s.Sessions.Save(r.Context(), id); err != nil {
		s.writeError(w, "save workspace", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRun handles GET /workspaces/{id}/run.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ws.State())
}

type runRequest struct {
	Input string `json:"input"`
}

// StartRun handles POST /workspaces/{id}/run.
// An active run is a conflict unless the restart query parameter is set.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if !s.decode(w, r, &body) {
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	start := ws.Start
	if r.URL.Query().Get("restart") == "true" {
		start = ws.Run
	}
	// The run outlives the request.
	if err := start(context.WithoutCancel(r.Context()), body.Input); err != nil {
		s.writeError(w, "start run", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, ws.State())
}

// PauseRun handles POST /workspaces/{id}/run/pause.
func (s *Server) PauseRun(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, (*flowcanvas.Workspace).Pause)
}

// ResumeRun handles POST /workspaces/{id}/run/resume.
func (s *Server) ResumeRun(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, (*flowcanvas.Workspace).Resume)
}

// StopRun handles POST /workspaces/{id}/run/stop.
func (s *Server) StopRun(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, (*flowcanvas.Workspace).Stop)
}

func (s *Server) control(w http.ResponseWriter, r *http.Request, fn func(*flowcanvas.Workspace)) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	fn(ws)
	s.writeJSON(w, http.StatusOK, ws.State())
}

// GetMermaid handles GET /workspaces/{id}/mermaid.
// Run progress is overlaid unless the simulation is idle.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var overlay *graph.GraphOverlay
	if st := ws.State(); st.Status != domain.StatusIdle {
		overlay = graph.OverlayFromState(st)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(ws.Graph(), overlay))
}

// GetCode handles GET /workspaces/{id}/code/{lang}.
func (s *Server) GetCode(w http.ResponseWriter, r *http.Request) {
	lang, err := codegen.ParseLanguage(chi.URLParam(r, "lang"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}
	code, err := codegen.Generate(lang, ws.Graph(), ws.Name)
	if err != nil {
		s.writeError(w, "generate code", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, code)
}

// SubscribeEvents handles GET /workspaces/{id}/events (SSE).
// "state" events carry a domain.StateDiff against the previously sent state;
// "graph" events carry the whole graph after an edit.
// The optional watch parameter (status, steps, nodes, graph) filters what is sent.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}
	ws, ok := s.workspace(w, r)
	if !ok {
		return
	}

	var watch map[string]bool
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = make(map[string]bool)
		for _, f := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(f)] = true
		}
	}

	ctx := r.Context()
	states := ws.Watch(ctx)
	graphs, unsubscribe := s.Streams.Subscribe(ws.Name)
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: client subscribed", "workspace", ws.Name)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")

	last := ws.State()
	s.sendDiff(w, domain.Diff(nil, &last), watch)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SSE: client disconnected", "workspace", ws.Name)
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			diff := domain.Diff(&last, &st)
			last = st
			if s.sendDiff(w, diff, watch) {
				flusher.Flush()
			}
		case msg, ok := <-graphs:
			if !ok {
				return
			}
			if watch == nil || watch["graph"] {
				fmt.Fprintf(w, "event: graph\ndata: %s\n\n", msg)
				flusher.Flush()
			}
		}
	}
}

func (s *Server) sendDiff(w io.Writer, diff *domain.StateDiff, watch map[string]bool) bool {
	if diff == nil || !wanted(diff, watch) {
		return false
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("SSE: diff encode failed", "err", err)
		return false
	}
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return true
}

func wanted(diff *domain.StateDiff, watch map[string]bool) bool {
	if watch == nil || diff.Reset {
		return true
	}
	switch {
	case watch["status"] && (diff.Status != nil || diff.FinalOutput != nil || diff.Error != nil):
		return true
	case watch["steps"] && len(diff.Steps) > 0:
		return true
	case watch["nodes"] && (len(diff.NodeStatuses) > 0 || diff.CurrentNodeID != nil):
		return true
	}
	return false
}

// -- Helpers --

// workspace resolves the {id} parameter, opening the workspace if needed.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) (*flowcanvas.Workspace, bool) {
	id := chi.URLParam(r, "id")
	if err := file.ValidateName(id); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	ws, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, "open workspace", err)
		return nil, false
	}
	return ws, true
}

func (s *Server) graphChanged(ws *flowcanvas.Workspace) {
	if s.Streams.Subscribers(ws.Name) == 0 {
		return
	}
	data, err := json.Marshal(ws.Graph())
	if err != nil {
		s.logger.Error("graph encode failed", "workspace", ws.Name, "err", err)
		return
	}
	s.Streams.Broadcast(ws.Name, string(data))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrWorkflowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrRunActive), errors.Is(err, domain.ErrNotReset):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNoStartNode), errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
