package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/bimbridge/internal/platform/logging"
	"github.com/louisbranch/bimbridge/internal/platform/timeouts"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var listenTCP = net.Listen

// DefaultHTTPAddr keeps the default footprint on loopback.
const DefaultHTTPAddr = "localhost:8081"

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	Addr string
	// AllowedHosts extends the loopback hosts accepted in Host and Origin.
	AllowedHosts []string
	// AuthToken is a static bearer token.
	AuthToken string
	// JWTSecret verifies HS256 bearer tokens.
	JWTSecret string
	// JWTAudience, when set, must appear in the token audience.
	JWTAudience string
}

// HTTPTransport serves one MCP server over streamable HTTP on /mcp.
type HTTPTransport struct {
	addr         string
	allowedHosts map[string]struct{}
	auth         *bearerAuth
	mcpHandler   http.Handler
	logger       *zap.Logger
	httpServer   *http.Server
}

// NewHTTPTransport builds the HTTP transport for server.
func NewHTTPTransport(cfg HTTPConfig, server *mcp.Server, logger *zap.Logger) (*HTTPTransport, error) {
	if server == nil {
		return nil, errors.New("MCP server is required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	auth, err := newBearerAuth(cfg.AuthToken, cfg.JWTSecret, cfg.JWTAudience, time.Now)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{
		addr:         addr,
		allowedHosts: parseAllowedHosts(cfg.AllowedHosts),
		auth:         auth,
		mcpHandler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, nil),
		logger: logging.OrNop(logger),
	}, nil
}

// Handler returns the routes served by the transport.
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", t.handleMCP)
	mux.HandleFunc("/mcp/health", t.handleHealth)
	return mux
}

func (t *HTTPTransport) handleMCP(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if !t.authorizeRequest(w, r) {
		return
	}
	t.mcpHandler.ServeHTTP(w, r)
}

// handleHealth handles GET /mcp/health.
func (t *HTTPTransport) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := t.validateLocalRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		t.logger.Warn("write health response", zap.Error(err))
	}
}

// Start listens on the configured address and blocks until ctx ends or the
// server fails.
func (t *HTTPTransport) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	listener, err := listenTCP("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", t.addr, err)
	}
	return t.serve(ctx, listener)
}

func (t *HTTPTransport) serve(ctx context.Context, listener net.Listener) error {
	t.httpServer = &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	t.logger.Info("starting MCP HTTP server",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("auth", t.auth != nil),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := t.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		t.logger.Info("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := t.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	}
}
