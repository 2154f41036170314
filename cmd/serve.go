package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkmcp/internal/api"
	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/internal/oauth"
	"linkmcp/internal/server"
	"linkmcp/internal/store"
	"linkmcp/internal/tools"
	"linkmcp/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

// serveShutdownTimeout bounds how long shutdown waits for in-flight
// requests before the process exits anyway.
const serveShutdownTimeout = 10 * time.Second

var (
	serveConfigFile string
	serveTransport  string
	serveHost       string
	servePort       int
	serveDBPath     string
	serveDebug      bool
)

// serveCmd defines the serve command structure.
// This is the main command of linkmcp: it starts the MCP server together
// with the HTTP endpoints for the LinkedIn OAuth flow.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LinkedIn MCP server",
	Long: `Starts the LinkedIn MCP server.

The server exposes the LinkedIn tools (authorization, profile retrieval,
compliance-checked post creation) to MCP clients over the selected
transport:

  stdio            JSON-RPC over stdin/stdout (default, for desktop clients)
  sse              Server-Sent Events at /sse with messages at /message
  streamable-http  Streamable HTTP at /mcp

Regardless of transport, an HTTP listener runs for the OAuth endpoints:
/auth starts a browser authorization and /callback receives LinkedIn's
redirect. The callback path must match the redirect URI registered with
the LinkedIn application.

Configuration comes from linkmcp.yaml (or --config), overridden by
environment variables (LINKEDIN_CLIENT_ID, LINKEDIN_CLIENT_SECRET,
LINKEDIN_REDIRECT_URI, LINKMCP_*) and finally by the flags below. A .env
file in the working directory is honored.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	// Stdio transport owns stdout for JSON-RPC framing, so logs always go
	// to stderr. Initialized twice: once so config loading can log, then
	// again with the configured level.
	logging.Init(logging.LevelInfo, os.Stderr)

	cfg, err := config.Load(serveConfigFile)
	if err != nil {
		return err
	}

	if serveTransport != "" {
		cfg.Server.Transport = serveTransport
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveDBPath != "" {
		cfg.Database.Path = serveDBPath
	}
	if serveDebug {
		cfg.Logging.Level = "debug"
	}
	logging.Init(logging.ParseLevel(cfg.Logging.Level), os.Stderr)

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error("Serve", err, "Failed to close token store")
		}
	}()

	states := oauth.NewStateStore()
	defer states.Stop()

	client := linkedin.New(cfg.LinkedIn, st)
	api.RegisterToolProvider(tools.NewProvider(client, states))
	defer api.RegisterToolProvider(nil)

	srv := server.New(cfg.Server, GetVersion(), oauth.NewHandler(client, states))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	logging.Info("Serve", "MCP endpoint: %s", srv.Endpoint())
	logging.Info("Serve", "OAuth callback: %s/callback", cfg.Server.BaseURL())

	// Report readiness to systemd. Outside a systemd unit this is a no-op.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logging.Warn("Serve", "systemd notification failed: %v", err)
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logging.Info("Serve", "Received signal %s, shutting down", sig)
	case <-ctx.Done():
		logging.Info("Serve", "Context cancelled, shutting down")
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logging.Info("Serve", "Shutdown complete")
	return nil
}

// init registers the serve command and its flags with the root command.
// This is called automatically when the package is imported.
func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveConfigFile, "config", "", "Path to a linkmcp.yaml configuration file")
	serveCmd.Flags().StringVar(&serveTransport, "transport", "", "MCP transport: stdio, sse or streamable-http")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind the HTTP listener to")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port for the HTTP listener")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to the SQLite token database")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
