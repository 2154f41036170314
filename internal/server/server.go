package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"linkmcp/internal/api"
	"linkmcp/internal/config"
	"linkmcp/internal/oauth"
	"linkmcp/pkg/logging"
)

// Server exposes the registered tool provider over MCP and carries the
// HTTP surface the OAuth flow lands on. The HTTP listener runs for every
// transport, stdio included, because the provider redirects the member's
// browser to /callback on this process.
type Server struct {
	config  config.ServerConfig
	version string
	auth    *oauth.Handler

	server *server.MCPServer

	// Transport-specific servers
	sseServer            *server.SSEServer
	streamableHTTPServer *server.StreamableHTTPServer
	stdioServer          *server.StdioServer

	// HTTP server for the web surface and the HTTP transports
	httpServer *http.Server
	listener   net.Listener

	// Lifecycle management. The group collects the serving goroutines so
	// Stop can surface the first failure.
	group      *errgroup.Group
	ctx        context.Context
	cancelFunc context.CancelFunc
	mu         sync.RWMutex
}

// New creates a server for the given configuration. The auth handler may
// be nil, in which case the /auth and /callback routes are not mounted.
func New(cfg config.ServerConfig, version string, auth *oauth.Handler) *Server {
	return &Server{
		config:  cfg,
		version: version,
		auth:    auth,
	}
}

// Start starts the MCP server on the configured transport and the HTTP
// listener. It returns once both are running; serving continues in the
// background until Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return fmt.Errorf("server already started")
	}

	provider := api.GetToolProvider()
	if provider == nil {
		s.mu.Unlock()
		return fmt.Errorf("no tool provider registered")
	}

	s.ctx, s.cancelFunc = context.WithCancel(ctx)
	s.group = &errgroup.Group{}

	mcpServer := server.NewMCPServer(
		"linkmcp",
		s.version,
		server.WithToolCapabilities(true),
	)
	s.server = mcpServer

	tools := createServerTools(provider)
	mcpServer.AddTools(tools...)
	logging.Info("Server", "Registered %d tools", len(tools))

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	if s.auth != nil {
		s.auth.RegisterRoutes(mux)
	}

	addr := s.config.ListenAddr()

	switch s.config.Transport {
	case config.MCPTransportSSE:
		logging.Info("Server", "Starting MCP server with SSE transport on %s", addr)
		s.sseServer = server.NewSSEServer(
			mcpServer,
			server.WithBaseURL(s.config.BaseURL()),
			server.WithSSEEndpoint("/sse"),
			server.WithMessageEndpoint("/message"),
			server.WithKeepAlive(true),
			server.WithKeepAliveInterval(30*time.Second),
		)
		mux.Handle("/sse", s.sseServer)
		mux.Handle("/message", s.sseServer)

	case config.MCPTransportStdio:
		logging.Info("Server", "Starting MCP server with stdio transport")
		s.stdioServer = server.NewStdioServer(mcpServer)
		stdioServer := s.stdioServer
		stdioCtx := s.ctx
		s.group.Go(func() error {
			err := stdioServer.Listen(stdioCtx, os.Stdin, os.Stdout)
			// Client closing stdin and Stop cancelling the context are both
			// orderly exits, not failures.
			if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
				logging.Error("Server", err, "Stdio server error")
				return err
			}
			return nil
		})

	case config.MCPTransportStreamableHTTP:
		fallthrough
	default:
		logging.Info("Server", "Starting MCP server with streamable-http transport on %s", addr)
		s.streamableHTTPServer = server.NewStreamableHTTPServer(mcpServer)
		mux.Handle("/mcp", s.streamableHTTPServer)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		// Unwind so a later Start can try again; the cancel stops the
		// stdio goroutine if one was launched.
		s.cancelFunc()
		s.server = nil
		s.sseServer = nil
		s.streamableHTTPServer = nil
		s.stdioServer = nil
		s.group = nil
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	group := s.group
	s.mu.Unlock()

	group.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server", err, "HTTP server error")
			return err
		}
		return nil
	})

	logging.Info("Server", "HTTP endpoints available on %s", listener.Addr().String())
	return nil
}

// Stop stops the server, draining in-flight requests for up to five
// seconds. It returns the first error the serving goroutines hit since
// Start, if any.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.server == nil {
		s.mu.Unlock()
		return fmt.Errorf("server not started")
	}

	logging.Info("Server", "Stopping MCP server")

	cancelFunc := s.cancelFunc
	sseServer := s.sseServer
	streamableServer := s.streamableHTTPServer
	httpServer := s.httpServer
	group := s.group
	s.mu.Unlock()

	if cancelFunc != nil {
		cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if sseServer != nil {
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down SSE server")
		}
	}

	if streamableServer != nil {
		if err := streamableServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down streamable HTTP server")
		}
	}

	// Stdio server stops on context cancellation, no explicit shutdown needed.

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Server", err, "Error shutting down HTTP server")
		}
	}

	// All members exit once their server is shut down or the context above
	// is cancelled, so this does not block past the drain.
	err := group.Wait()

	s.mu.Lock()
	s.server = nil
	s.sseServer = nil
	s.streamableHTTPServer = nil
	s.stdioServer = nil
	s.httpServer = nil
	s.listener = nil
	s.group = nil
	s.mu.Unlock()

	return err
}

// Addr returns the address the HTTP listener is bound to, which differs
// from the configured address when port 0 was requested.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Endpoint returns the MCP endpoint URL for the configured transport.
func (s *Server) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.config.Transport {
	case config.MCPTransportSSE:
		return s.config.BaseURL() + "/sse"
	case config.MCPTransportStdio:
		return "stdio"
	default:
		return s.config.BaseURL() + "/mcp"
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// The "/" pattern matches every path the mux has no better route
	// for; anything but the root itself is a miss.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{
		"message": "MCP Server is running",
		"version": s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":      "healthy",
		"server_type": "mcp",
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Server", err, "Failed to encode response")
	}
}
