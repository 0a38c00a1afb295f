package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/imovia/fluxo"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/internal/presentation/graph"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/ports"
	"github.com/imovia/fluxo/pkg/runner"
	"github.com/imovia/fluxo/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RunResponse is the structured output of every run tool.
type RunResponse struct {
	ID            string           `json:"id" jsonschema_description:"Conversation id"`
	Status        domain.RunStatus `json:"status" jsonschema_description:"idle, running, waiting_input, completed or error"`
	CurrentNodeID string           `json:"current_node_id,omitempty" jsonschema_description:"Node the run is suspended on"`
	Variables     map[string]any   `json:"variables" jsonschema_description:"Variable store"`
	Messages      []domain.Message `json:"messages" jsonschema_description:"Transcript entries (all, or only new ones for send_input)"`
	Error         string           `json:"error,omitempty" jsonschema_description:"Failure reason when status is error"`
}

// Server exposes the session manager as MCP tools.
type Server struct {
	manager   *session.Manager
	loader    ports.FlowLoader
	defaults  domain.RunConfig
	logger    *slog.Logger
	sanitizer runner.Sanitizer
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDefaults sets the run config used by start_run.
func WithDefaults(cfg domain.RunConfig) Option {
	return func(s *Server) {
		s.defaults = cfg
	}
}

// WithMaxInputSize sets the byte limit for send_input replies.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.sanitizer = runner.NewSanitizer(n)
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, loader ports.FlowLoader, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		loader:    loader,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("fluxo-mcp", fluxo.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
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
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_run",
		mcp.WithDescription("Start a conversation on a named flow. Returns the transcript so far."),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow name, as returned by list_flows")),
		mcp.WithString("id", mcp.Description("Conversation id (optional, generated when omitted)")),
		mcp.WithString("contact_name", mcp.Description("Seeds the 'nome' variable")),
		mcp.WithString("contact_phone", mcp.Description("Seeds the 'telefone' variable")),
		mcp.WithBoolean("use_real_integrations", mcp.Description("Send effects to real backends instead of the mock")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleStartRun))

	s.mcpServer.AddTool(mcp.NewTool("send_input",
		mcp.WithDescription("Answer the input or condition node a conversation is waiting on. Returns only the new messages."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithString("text", mcp.Required(), mcp.Description("User reply")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleSendInput))

	s.mcpServer.AddTool(mcp.NewTool("reset_run",
		mcp.WithDescription("Discard a conversation's data. Starts it again unless restart is false."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithBoolean("restart", mcp.Description("Start again after reset (default true)")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleResetRun))

	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the full state of a conversation."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetRun))

	s.mcpServer.AddTool(mcp.NewTool("list_flows",
		mcp.WithDescription("List the flows available to start_run."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.loader.List()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the Mermaid diagram of a conversation's flow with visited and current nodes highlighted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Conversation id")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		run, err := s.manager.Get(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		st := run.Snapshot()
		return mcp.NewToolResultText(graph.GenerateMermaid(run.Definition(), &graph.GraphOverlay{
			VisitedNodes: st.VisitedNodes.IDs(),
			CurrentNode:  st.CurrentNodeID,
		})), nil
	})
}

func (s *Server) handleStartRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	flow, _ := args["flow"].(string)
	if flow == "" {
		return RunResponse{}, errors.New("flow is required")
	}
	def, err := s.loader.Load(flow)
	if err != nil {
		return RunResponse{}, fmt.Errorf("load flow: %w", err)
	}

	cfg := s.defaults
	cfg.ContactName, _ = args["contact_name"].(string)
	cfg.ContactPhone, _ = args["contact_phone"].(string)
	if useReal, ok := args["use_real_integrations"].(bool); ok {
		cfg.UseRealIntegrations = useReal
	}
	id, _ := args["id"].(string)

	run, err := s.manager.Create(ctx, id, def, cfg, session.WithFlowName(flow))
	if err != nil {
		return RunResponse{}, fmt.Errorf("start failed: %w", err)
	}
	s.logger.Info("MCP run started", "run_id", run.ID(), "flow", flow)
	return responseFor(run, 0), nil
}

func (s *Server) handleSendInput(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	id, _ := args["id"].(string)
	text, _ := args["text"].(string)

	clean, err := s.sanitizer.Clean(text)
	if err != nil {
		s.logger.Warn("MCP send_input: input rejected", "err", err, "size", len(text))
		return RunResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	run, err := s.manager.Get(id)
	if err != nil {
		return RunResponse{}, err
	}
	seen := len(run.Messages())
	if err := s.manager.SendInput(ctx, id, clean); err != nil {
		return RunResponse{}, fmt.Errorf("send_input failed: %w", err)
	}
	return responseFor(run, seen), nil
}

func (s *Server) handleResetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	id, _ := args["id"].(string)
	run, err := s.manager.Get(id)
	if err != nil {
		return RunResponse{}, err
	}
	if err := s.manager.Reset(ctx, id); err != nil {
		return RunResponse{}, err
	}
	if restart, ok := args["restart"].(bool); !ok || restart {
		if err := s.manager.Start(ctx, id); err != nil {
			return RunResponse{}, fmt.Errorf("restart failed: %w", err)
		}
	}
	return responseFor(run, 0), nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	id, _ := args["id"].(string)
	run, err := s.manager.Get(id)
	if err != nil {
		return RunResponse{}, err
	}
	return responseFor(run, 0), nil
}

// responseFor snapshots run, keeping messages from index from onward.
func responseFor(run *fluxo.Run, from int) RunResponse {
	st := run.Snapshot()
	msgs := st.Messages[min(from, len(st.Messages)):]
	return RunResponse{
		ID:            run.ID(),
		Status:        st.Status,
		CurrentNodeID: st.CurrentNodeID,
		Variables:     st.Variables,
		Messages:      msgs,
		Error:         st.Error,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("fluxo://flows", "Available flows",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.loader.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "fluxo://flows",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
