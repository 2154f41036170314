package config

import (
	"fmt"
	"strings"
)

const (
	// MCPTransportStreamableHTTP is the streamable HTTP transport.
	MCPTransportStreamableHTTP = "streamable-http"
	// MCPTransportSSE is the Server-Sent Events transport.
	MCPTransportSSE = "sse"
	// MCPTransportStdio is the standard I/O transport.
	MCPTransportStdio = "stdio"
)

// DefaultScope is the OAuth scope requested when the caller does not
// supply one. It covers profile read and member post creation.
const DefaultScope = "openid profile email w_member_social"

// Config is the top-level configuration for linkmcp.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the HTTP listener and the MCP transport.
// The HTTP listener always runs during serve because the OAuth redirect
// lands there; the transport selects how MCP clients connect.
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`      // Host to bind to (default: 0.0.0.0)
	Port      int    `yaml:"port,omitempty"`      // Port for the HTTP endpoints (default: 8000)
	Transport string `yaml:"transport,omitempty"` // stdio, sse or streamable-http (default: stdio)
}

// LinkedInConfig carries the OAuth application credentials. All three
// values are required; startup fails without them.
type LinkedInConfig struct {
	ClientID     string `yaml:"clientId,omitempty"`
	ClientSecret string `yaml:"clientSecret,omitempty"`
	RedirectURI  string `yaml:"redirectUri,omitempty"`
}

// DatabaseConfig locates the SQLite credential database.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"` // default: linkedin_tokens.db
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn or error (default: info)
}

// Default returns the built-in configuration. File and environment values
// are layered on top of this.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8000,
			Transport: MCPTransportStdio,
		},
		Database: DatabaseConfig{
			Path: "linkedin_tokens.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ListenAddr returns the host:port pair for the HTTP listener.
func (s ServerConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the externally reachable base URL of the HTTP listener.
func (s ServerConfig) BaseURL() string {
	host := s.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

// Validate checks that the configuration can actually run. Missing
// LinkedIn credentials are reported together so the user can fix the
// environment in one pass instead of replaying startup per variable.
func (c *Config) Validate() error {
	var missing []string
	if c.LinkedIn.ClientID == "" {
		missing = append(missing, "LINKEDIN_CLIENT_ID")
	}
	if c.LinkedIn.ClientSecret == "" {
		missing = append(missing, "LINKEDIN_CLIENT_SECRET")
	}
	if c.LinkedIn.RedirectURI == "" {
		missing = append(missing, "LINKEDIN_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Server.Transport {
	case MCPTransportStdio, MCPTransportSSE, MCPTransportStreamableHTTP:
	default:
		return fmt.Errorf("invalid transport %q (must be %s, %s or %s)",
			c.Server.Transport, MCPTransportStdio, MCPTransportSSE, MCPTransportStreamableHTTP)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	return nil
}
