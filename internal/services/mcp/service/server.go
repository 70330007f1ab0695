package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/bimbridge/internal/bridge"
	"github.com/louisbranch/bimbridge/internal/platform/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "bimbridge"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// ParseTransportKind validates a transport name. Empty means stdio.
func ParseTransportKind(value string) (TransportKind, error) {
	switch kind := TransportKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case "":
		return TransportStdio, nil
	case TransportStdio, TransportHTTP:
		return kind, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// CommandRouter is the part of the bridge router the MCP surface needs.
type CommandRouter interface {
	Commands() []bridge.Descriptor
	ExecuteJSON(ctx context.Context, name string, raw []byte) bridge.Result
}

// HistoryReader reads the command audit log.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]bridge.AuditRecord, error)
	ListByRequestID(ctx context.Context, requestID string) ([]bridge.AuditRecord, error)
}

// Options configures the MCP server.
type Options struct {
	// History enables the list_command_history tool when set.
	History HistoryReader
	Logger  *zap.Logger
}

// Config configures how Run serves the MCP server.
type Config struct {
	Transport TransportKind
	HTTP      HTTPConfig
}

// Server hosts the MCP server for one bridge router.
type Server struct {
	mcpServer *mcp.Server
	router    CommandRouter
	logger    *zap.Logger
}

// New creates an MCP server with one tool per router command.
func New(router CommandRouter, opts Options) (*Server, error) {
	if router == nil {
		return nil, errors.New("command router is required")
	}
	logger := logging.OrNop(opts.Logger)
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Instructions: "Each tool forwards its arguments to the host application as a parameter envelope. " +
			"Arguments may be given directly or wrapped in a \"data\" field. " +
			"Lengths are millimetres and angles are degrees. " +
			"A timed-out call may still complete on the host; check list_command_history before retrying mutations.",
	})

	server := &Server{mcpServer: mcpServer, router: router, logger: logger}
	for _, descriptor := range router.Commands() {
		mcpServer.AddTool(commandTool(descriptor), server.commandHandler(descriptor.Name))
	}
	if opts.History != nil {
		mcp.AddTool(mcpServer, historyTool(), historyHandler(opts.History))
	}
	mcpServer.AddResource(commandsResource(), commandsResourceHandler(router))
	return server, nil
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *mcp.Server {
	if s == nil {
		return nil
	}
	return s.mcpServer
}

// Run serves the MCP server on the configured transport until ctx ends.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	switch cfg.Transport {
	case TransportStdio:
		return s.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		transport, err := NewHTTPTransport(cfg.HTTP, s.mcpServer, s.logger)
		if err != nil {
			return err
		}
		return transport.Start(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// serveWithTransport runs the server on one connection. Context cancellation
// is a normal stop.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.logger.Info("serving MCP", zap.String("transport", fmt.Sprintf("%T", transport)))
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
