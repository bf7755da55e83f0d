package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/flowcanvas"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/internal/presentation/codegen"
	"github.com/aretw0/flowcanvas/internal/presentation/graph"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkspace is used when a tool call names no workspace.
const DefaultWorkspace = "default"

const (
	graphURI          = "flowcanvas://graph"
	workspaceTemplate = "flowcanvas://workspaces/{id}"
	workspacePrefix   = "flowcanvas://workspaces/"
)

// SimulateResult is the outcome of the simulate tool.
type SimulateResult struct {
	Status      domain.SimulationStatus `json:"status" jsonschema_description:"Terminal status of the run"`
	Steps       []domain.SimulationStep `json:"steps" jsonschema_description:"Executed steps in order"`
	FinalOutput string                  `json:"final_output,omitempty" jsonschema_description:"Output of the last node"`
	Error       string                  `json:"error,omitempty" jsonschema_description:"Failure message"`
}

type simulateArgs struct {
	Workspace string `json:"workspace"`
	Input     string `json:"input"`
}

type historyResult struct {
	Changed bool         `json:"changed"`
	Graph   domain.Graph `json:"graph"`
}

// Server exposes workspace editing and simulation as MCP tools.
type Server struct {
	sessions  *session.Manager
	logger    *slog.Logger
	timeout   time.Duration
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSimulateTimeout bounds a simulate call. The default is one minute.
func WithSimulateTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// NewServer creates a new MCP Server over the workspaces of sessions.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		timeout:   time.Minute,
		mcpServer: server.NewMCPServer("flowcanvas-mcp", flowcanvas.Version, server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func workspaceParam() mcp.ToolOption {
	return mcp.WithString("workspace", mcp.Description("Workspace id (defaults to \""+DefaultWorkspace+"\")"))
}

func (s *Server) registerTools() {
	types := make([]string, len(domain.NodeTypes))
	for i, t := range domain.NodeTypes {
		types[i] = string(t)
	}

	s.mcpServer.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Add a node to the workflow graph."),
		workspaceParam(),
		mcp.WithString("type", mcp.Required(), mcp.Enum(types...), mcp.Description("Node type")),
		mcp.WithString("label", mcp.Description("Display label")),
		mcp.WithNumber("x", mcp.Description("Canvas x position")),
		mcp.WithNumber("y", mcp.Description("Canvas y position")),
	), s.handleAddNode)

	s.mcpServer.AddTool(mcp.NewTool("connect",
		mcp.WithDescription("Connect two nodes with a directed edge."),
		workspaceParam(),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node id")),
		mcp.WithString("source_handle", mcp.Description("Branch handle of a condition node (true/false)")),
	), s.handleConnect)

	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a node and every edge touching it."),
		workspaceParam(),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
	), s.handleRemoveNode)

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last graph edit."),
		workspaceParam(),
	), s.historyHandler(func(ws *flowcanvas.Workspace) bool { return ws.Editor().Undo() }))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone graph edit."),
		workspaceParam(),
	), s.historyHandler(func(ws *flowcanvas.Workspace) bool { return ws.Editor().Redo() }))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the full graph definition."),
		workspaceParam(),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("get_mermaid",
		mcp.WithDescription("Render the graph as a Mermaid flowchart."),
		workspaceParam(),
	), s.handleGetMermaid)

	s.mcpServer.AddTool(mcp.NewTool("generate_code",
		mcp.WithDescription("Generate an agent program skeleton from the graph."),
		workspaceParam(),
		mcp.WithString("language", mcp.Required(), mcp.Enum(string(codegen.Python), string(codegen.TypeScript))),
	), s.handleGenerateCode)

	s.mcpServer.AddTool(mcp.NewTool("save",
		mcp.WithDescription("Persist the workspace graph."),
		workspaceParam(),
	), s.handleSave)

	s.mcpServer.AddTool(mcp.NewTool("simulate",
		mcp.WithDescription("Simulate the workflow without delays and return the finished run."),
		workspaceParam(),
		mcp.WithString("input", mcp.Description("User input passed to the start node")),
		mcp.WithOutputSchema[SimulateResult](),
	), mcp.NewStructuredToolHandler(s.handleSimulate))
}

func (s *Server) workspace(ctx context.Context, id string) (*flowcanvas.Workspace, error) {
	if id == "" {
		id = DefaultWorkspace
	}
	return s.sessions.Get(ctx, id)
}

func (s *Server) open(ctx context.Context, request mcp.CallToolRequest) (*flowcanvas.Workspace, *mcp.CallToolResult) {
	ws, err := s.workspace(ctx, request.GetString("workspace", ""))
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("open workspace failed: %v", err))
	}
	return ws, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAddNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeType, err := request.RequireString("type")
	if err != nil || nodeType == "" {
		return mcp.NewToolResultError("type is required"), nil
	}
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	pos := domain.Position{X: request.GetFloat("x", 0), Y: request.GetFloat("y", 0)}
	node := ws.Editor().AddNode(domain.NodeType(nodeType), request.GetString("label", ""), pos)
	return jsonResult(node)
}

func (s *Server) handleConnect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err1 := request.RequireString("source")
	target, err2 := request.RequireString("target")
	if err1 != nil || err2 != nil {
		return mcp.NewToolResultError("source and target are required"), nil
	}
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	edge := ws.Editor().Connect(source, target, request.GetString("source_handle", ""))
	return jsonResult(edge)
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required"), nil
	}
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	if !ws.Editor().RemoveNode(id) {
		return mcp.NewToolResultError(fmt.Sprintf("node %q not found", id)), nil
	}
	return jsonResult(ws.Graph())
}

func (s *Server) historyHandler(step func(*flowcanvas.Workspace) bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ws, failed := s.open(ctx, request)
		if failed != nil {
			return failed, nil
		}
		changed := step(ws)
		return jsonResult(historyResult{Changed: changed, Graph: ws.Graph()})
	}
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return jsonResult(ws.Graph())
}

func (s *Server) handleGetMermaid(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(ws.Graph(), nil)), nil
}

func (s *Server) handleGenerateCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lang, err := codegen.ParseLanguage(request.GetString("language", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	code, err := codegen.Generate(lang, ws.Graph(), ws.Name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(code), nil
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ws, failed := s.open(ctx, request)
	if failed != nil {
		return failed, nil
	}
	if err := s.sessions.Save(ctx, ws.Name); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("workspace %q saved", ws.Name)), nil
}

// handleSimulate runs a zero-delay copy of the workspace graph so that the live
// workspace and its run are left untouched.
func (s *Server) handleSimulate(ctx context.Context, request mcp.CallToolRequest, args simulateArgs) (SimulateResult, error) {
	ws, err := s.workspace(ctx, args.Workspace)
	if err != nil {
		return SimulateResult{}, fmt.Errorf("open workspace failed: %w", err)
	}

	sim := flowcanvas.New(ws.Name, flowcanvas.WithStepDelay(0), flowcanvas.WithLogger(s.logger))
	sim.LoadWorkflow(ws.Workflow())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := sim.Run(ctx, args.Input); err != nil {
		return SimulateResult{Status: domain.StatusError, Error: err.Error()}, nil
	}
	st, err := sim.Wait(ctx)
	if err != nil {
		sim.Stop()
		return SimulateResult{}, fmt.Errorf("simulation did not finish: %w", err)
	}

	res := SimulateResult{Status: st.Status, Steps: st.Steps}
	if st.FinalOutput != nil {
		res.FinalOutput = *st.FinalOutput
	}
	if st.Error != nil {
		res.Error = *st.Error
	}
	return res, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Default Workspace Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.graphContents(ctx, graphURI, DefaultWorkspace)
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(workspaceTemplate, "Workspace Graph",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		id := strings.TrimPrefix(uri, workspacePrefix)
		if id == uri || id == "" {
			return nil, fmt.Errorf("invalid workspace uri %q", uri)
		}
		return s.graphContents(ctx, uri, id)
	})
}

func (s *Server) graphContents(ctx context.Context, uri, id string) ([]mcp.ResourceContents, error) {
	ws, err := s.workspace(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace: %w", err)
	}
	data, err := json.Marshal(ws.Graph())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
