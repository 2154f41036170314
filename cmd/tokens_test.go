package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"linkmcp/internal/store"
)

func TestTokensCommandStructure(t *testing.T) {
	t.Run("tokens command exists", func(t *testing.T) {
		if tokensCmd == nil {
			t.Fatal("tokensCmd should not be nil")
		}
		if tokensCmd.Use != "tokens" {
			t.Errorf("expected Use 'tokens', got %q", tokensCmd.Use)
		}
	})

	t.Run("tokens has subcommands", func(t *testing.T) {
		expectedSubcommands := []string{"list", "delete", "cleanup"}
		foundCommands := make(map[string]bool)
		for _, cmd := range tokensCmd.Commands() {
			foundCommands[cmd.Name()] = true
		}

		for _, expected := range expectedSubcommands {
			if !foundCommands[expected] {
				t.Errorf("expected subcommand %q to be registered", expected)
			}
		}
	})

	t.Run("delete requires exactly one argument", func(t *testing.T) {
		if err := tokensDeleteCmd.Args(tokensDeleteCmd, []string{}); err == nil {
			t.Error("expected an error for missing user argument")
		}
		if err := tokensDeleteCmd.Args(tokensDeleteCmd, []string{"alice"}); err != nil {
			t.Errorf("expected one argument to be accepted, got %v", err)
		}
	})
}

func TestTruncateToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "short token is kept",
			token:    "abc",
			expected: "abc",
		},
		{
			name:     "boundary length is kept",
			token:    "123456789012345",
			expected: "123456789012345",
		},
		{
			name:     "long token is truncated",
			token:    "AQVsecretsecretsecretsecret",
			expected: "AQVsecretsecret...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateToken(tt.token); got != tt.expected {
				t.Errorf("truncateToken(%q) = %q, want %q", tt.token, got, tt.expected)
			}
		})
	}
}

func TestWriteTokenTable(t *testing.T) {
	scope := "openid profile"
	expiresAt := time.Now().Add(30 * time.Minute)
	creds := []store.Credential{
		{
			UserID:      "alice",
			AccessToken: "AQVsecretsecretsecretsecret",
			TokenType:   "Bearer",
			Scope:       &scope,
			ExpiresAt:   &expiresAt,
			UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			UserID:      "default_user",
			AccessToken: "short",
			TokenType:   "Bearer",
			UpdatedAt:   time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	writeTokenTable(&buf, creds)
	output := buf.String()

	if !strings.Contains(output, "USER") {
		t.Error("expected table header to contain USER")
	}
	for _, want := range []string{"alice", "default_user", "openid profile", "AQVsecretsecret..."} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
	if strings.Contains(output, "AQVsecretsecretsecretsecret") {
		t.Error("full token value must not be rendered")
	}
	// A credential without expiry never lapses.
	if !strings.Contains(output, "never") {
		t.Errorf("expected missing expiry to render as never, got:\n%s", output)
	}
}
