package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/reflex"
	"github.com/aretw0/reflex/internal/logging"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/ports"
)

const (
	resourceRules  = "reflex://rules"
	resourceMemory = "reflex://memory"
)

// RulesResult describes the running rule set.
type RulesResult struct {
	Text  string   `json:"text" jsonschema_description:"Rule text held by the engine"`
	Rules []string `json:"rules" jsonschema_description:"Canonical form of every running rule"`
}

// ReloadResult reports how a rule text parsed.
type ReloadResult struct {
	Accepted int      `json:"accepted" jsonschema_description:"Number of rules that parsed"`
	Skipped  []string `json:"skipped,omitempty" jsonschema_description:"Errors of rule blocks that were dropped"`
}

// ParamResult is one state parameter.
type ParamResult struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
	Found bool   `json:"found"`
}

// HistoryResult lists historic values of one parameter.
type HistoryResult struct {
	Name    string              `json:"name"`
	Entries []domain.StateEntry `json:"entries"`
}

// TextArgs carries rule text.
type TextArgs struct {
	Text string `json:"text"`
}

// ParamArgs names a parameter and optionally a value to store.
type ParamArgs struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// HistoryArgs names a parameter and an optional RFC 3339 window.
type HistoryArgs struct {
	Name  string `json:"name"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// AsrArgs carries a speech recognition result.
type AsrArgs struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Server wraps the Reflex engine and exposes it as an MCP Server.
type Server struct {
	engine    ports.Controller
	source    ports.RuleSource
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSource enables the reload_rules tool.
func WithSource(src ports.RuleSource) Option {
	return func(s *Server) {
		s.source = src
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine ports.Controller, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("reflex-mcp", strings.TrimSpace(reflex.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+host))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_rules",
		mcp.WithDescription("Get the rule text and the canonical form of every running rule."),
		mcp.WithOutputSchema[RulesResult](),
	), mcp.NewStructuredToolHandler(s.handleGetRules))

	s.mcpServer.AddTool(mcp.NewTool("validate_rules",
		mcp.WithDescription("Parse rule text without loading it and report dropped blocks."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Rule text")),
		mcp.WithOutputSchema[ReloadResult](),
	), mcp.NewStructuredToolHandler(s.handleValidateRules))

	s.mcpServer.AddTool(mcp.NewTool("set_rules",
		mcp.WithDescription("Replace the running rules. The loop swaps rule sets on its next tick."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Rule text")),
		mcp.WithOutputSchema[ReloadResult](),
	), mcp.NewStructuredToolHandler(s.handleSetRules))

	if s.source != nil {
		s.mcpServer.AddTool(mcp.NewTool("reload_rules",
			mcp.WithDescription("Reload rules from the configured source (file or URL)."),
			mcp.WithOutputSchema[ReloadResult](),
		), mcp.NewStructuredToolHandler(s.handleReloadRules))
	}

	s.mcpServer.AddTool(mcp.NewTool("get_memory",
		mcp.WithDescription("Get the current value of every state parameter."),
	), s.handleGetMemory)

	s.mcpServer.AddTool(mcp.NewTool("get_param",
		mcp.WithDescription("Get the current value of one state parameter."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Parameter name (case-sensitive)")),
		mcp.WithOutputSchema[ParamResult](),
	), mcp.NewStructuredToolHandler(s.handleGetParam))

	s.mcpServer.AddTool(mcp.NewTool("set_param",
		mcp.WithDescription("Set a state parameter to a string value."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Parameter name")),
		mcp.WithString("value", mcp.Required(), mcp.Description("New value")),
		mcp.WithOutputSchema[ParamResult](),
	), mcp.NewStructuredToolHandler(s.handleSetParam))

	s.mcpServer.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Get the historic values of a state parameter."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Parameter name")),
		mcp.WithString("start", mcp.Description("Inclusive RFC 3339 lower bound (optional)")),
		mcp.WithString("end", mcp.Description("Inclusive RFC 3339 upper bound (optional)")),
		mcp.WithOutputSchema[HistoryResult](),
	), mcp.NewStructuredToolHandler(s.handleGetHistory))

	s.mcpServer.AddTool(mcp.NewTool("clear_history",
		mcp.WithDescription("Drop all parameter history, keeping current values."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.engine.Memory().ClearHistory(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("clear history failed: %v", err)), nil
		}
		return mcp.NewToolResultText("history cleared"), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("reset_memory",
		mcp.WithDescription("Drop all parameters and their history."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.engine.Memory().Reset(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("memory reset"), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("send_asr",
		mcp.WithDescription("Inject a speech recognition result as if the robot heard it."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Recognized text")),
		mcp.WithString("language", mcp.Description("Language tag, default en-US")),
	), mcp.NewTypedToolHandler(s.handleSendAsr))

	s.mcpServer.AddTool(mcp.NewTool("send_wakeup",
		mcp.WithDescription("Inject a wakeup word event."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.engine.OnWakeupWord(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("wakeup failed: %v", err)), nil
		}
		return mcp.NewToolResultText("wakeup recorded"), nil
	})
}

func (s *Server) handleGetRules(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (RulesResult, error) {
	rules := s.engine.Rules()
	res := RulesResult{Text: s.engine.RuleText(), Rules: make([]string, len(rules))}
	for i, rule := range rules {
		res.Rules[i] = rule.String()
	}
	return res, nil
}

func (s *Server) handleValidateRules(ctx context.Context, request mcp.CallToolRequest, args TextArgs) (ReloadResult, error) {
	rules, err := reflex.Validate(args.Text)
	return reloadResult(len(rules), err), nil
}

func (s *Server) handleSetRules(ctx context.Context, request mcp.CallToolRequest, args TextArgs) (ReloadResult, error) {
	return s.reload(args.Text), nil
}

func (s *Server) handleReloadRules(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (ReloadResult, error) {
	text, err := s.source.Load(ctx)
	if err != nil {
		return ReloadResult{}, fmt.Errorf("load failed: %w", err)
	}
	return s.reload(text), nil
}

func (s *Server) reload(text string) ReloadResult {
	rules, _ := reflex.Validate(text)
	res := reloadResult(len(rules), s.engine.Reload(text))
	s.logger.Info("Rules replaced over MCP", "accepted", res.Accepted, "skipped", len(res.Skipped))
	return res
}

func reloadResult(accepted int, err error) ReloadResult {
	res := ReloadResult{Accepted: accepted}
	if err == nil {
		return res
	}
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		res.Skipped = append(res.Skipped, e.Error())
	}
	return res
}

func (s *Server) handleGetMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.engine.Memory().GetState(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get state failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(state)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetParam(ctx context.Context, request mcp.CallToolRequest, args ParamArgs) (ParamResult, error) {
	v, ok, err := s.engine.Memory().GetStateParam(ctx, args.Name)
	if err != nil {
		return ParamResult{}, fmt.Errorf("get param failed: %w", err)
	}
	return ParamResult{Name: args.Name, Value: v.Any(), Found: ok}, nil
}

func (s *Server) handleSetParam(ctx context.Context, request mcp.CallToolRequest, args ParamArgs) (ParamResult, error) {
	if args.Name == "" {
		return ParamResult{}, fmt.Errorf("name is required")
	}
	if err := s.engine.Memory().SetStateParam(ctx, args.Name, domain.String(args.Value)); err != nil {
		return ParamResult{}, fmt.Errorf("set param failed: %w", err)
	}
	return ParamResult{Name: args.Name, Value: args.Value, Found: true}, nil
}

func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest, args HistoryArgs) (HistoryResult, error) {
	var window domain.Window
	for _, b := range []struct {
		raw string
		dst **time.Time
	}{{args.Start, &window.Start}, {args.End, &window.End}} {
		if b.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, b.raw)
		if err != nil {
			return HistoryResult{}, fmt.Errorf("invalid bound %q: %w", b.raw, err)
		}
		*b.dst = &t
	}

	entries, _, err := s.engine.Memory().GetStateParamHistory(ctx, args.Name, window)
	if err != nil {
		return HistoryResult{}, fmt.Errorf("get history failed: %w", err)
	}
	if entries == nil {
		entries = []domain.StateEntry{}
	}
	return HistoryResult{Name: args.Name, Entries: entries}, nil
}

func (s *Server) handleSendAsr(ctx context.Context, request mcp.CallToolRequest, args AsrArgs) (*mcp.CallToolResult, error) {
	language := args.Language
	if language == "" {
		language = reflex.DefaultLanguage
	}
	if err := s.engine.OnAsrResult(ctx, args.Text, language); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("asr event failed: %v", err)), nil
	}
	return mcp.NewToolResultText("asr result recorded"), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(resourceRules, "Current Rule Text",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      resourceRules,
				MIMEType: "text/plain",
				Text:     s.engine.RuleText(),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(resourceMemory, "Current Memory State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		state, err := s.engine.Memory().GetState(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read memory: %w", err)
		}
		jsonBytes, _ := json.Marshal(state)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      resourceMemory,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
