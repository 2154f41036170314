package repl

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"linkmcp/internal/api"
	"linkmcp/internal/tools"
)

type recordingProvider struct {
	lastTool string
	lastArgs map[string]interface{}
	calls    int
	result   *api.CallToolResult
	err      error
}

func (p *recordingProvider) GetTools() []api.ToolMetadata {
	return []api.ToolMetadata{
		{
			Name:        "linkedin_create_post",
			Description: "Create a post",
			Parameters: []api.ParameterMetadata{
				{Name: "content", Type: "string", Required: true},
				{Name: "user_id", Type: "string"},
			},
		},
	}
}

func (p *recordingProvider) ExecuteTool(ctx context.Context, toolName string, args map[string]interface{}) (*api.CallToolResult, error) {
	p.calls++
	p.lastTool = toolName
	p.lastArgs = args
	if p.err != nil {
		return nil, p.err
	}
	if p.result != nil {
		return p.result, nil
	}
	return &api.CallToolResult{Content: []interface{}{"ok"}}, nil
}

func newTestREPL(provider *recordingProvider) (*REPL, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := New(provider)
	r.out = out
	return r, out
}

func TestExecuteCommandDispatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTool string
		wantArgs map[string]interface{}
	}{
		{
			name:     "status without user",
			input:    "status",
			wantTool: tools.ToolCheckAuthStatus,
			wantArgs: map[string]interface{}{},
		},
		{
			name:     "status with user",
			input:    "status u1",
			wantTool: tools.ToolCheckAuthStatus,
			wantArgs: map[string]interface{}{"user_id": "u1"},
		},
		{
			name:     "profile with user",
			input:    "profile alice",
			wantTool: tools.ToolGetProfile,
			wantArgs: map[string]interface{}{"user_id": "alice"},
		},
		{
			name:     "auth-url",
			input:    "auth-url",
			wantTool: tools.ToolGetAuthURL,
			wantArgs: map[string]interface{}{},
		},
		{
			name:     "exchange with code and user",
			input:    "exchange abc123 u2",
			wantTool: tools.ToolExchangeCode,
			wantArgs: map[string]interface{}{"code": "abc123", "user_id": "u2"},
		},
		{
			name:     "post plain",
			input:    "post Hello world",
			wantTool: tools.ToolCreatePost,
			wantArgs: map[string]interface{}{"content": "Hello world"},
		},
		{
			name:     "post with user flag",
			input:    "post --user u3 Hello from u3",
			wantTool: tools.ToolCreatePost,
			wantArgs: map[string]interface{}{"content": "Hello from u3", "user_id": "u3"},
		},
		{
			name:     "guidelines",
			input:    "guidelines",
			wantTool: tools.ToolPostingGuidelines,
			wantArgs: map[string]interface{}{},
		},
		{
			name:     "command is case insensitive",
			input:    "STATUS u1",
			wantTool: tools.ToolCheckAuthStatus,
			wantArgs: map[string]interface{}{"user_id": "u1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &recordingProvider{}
			r, _ := newTestREPL(provider)

			if err := r.executeCommand(tt.input); err != nil {
				t.Fatalf("executeCommand(%q) returned error: %v", tt.input, err)
			}

			if provider.lastTool != tt.wantTool {
				t.Errorf("tool = %q, want %q", provider.lastTool, tt.wantTool)
			}
			if len(provider.lastArgs) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", provider.lastArgs, tt.wantArgs)
			}
			for k, want := range tt.wantArgs {
				if got := provider.lastArgs[k]; got != want {
					t.Errorf("args[%q] = %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestExecuteCommandUsageErrors(t *testing.T) {
	tests := []struct {
		input  string
		errMsg string
	}{
		{"exchange", "usage: exchange"},
		{"post", "usage: post"},
		{"post --user u1", "usage: post"},
		{"bogus", "unknown command"},
	}

	for _, tt := range tests {
		provider := &recordingProvider{}
		r, _ := newTestREPL(provider)

		err := r.executeCommand(tt.input)
		if err == nil {
			t.Errorf("executeCommand(%q) expected error", tt.input)
			continue
		}
		if !strings.Contains(err.Error(), tt.errMsg) {
			t.Errorf("executeCommand(%q) error = %q, want containing %q", tt.input, err, tt.errMsg)
		}
		if provider.calls != 0 {
			t.Errorf("executeCommand(%q) called provider %d times, want 0", tt.input, provider.calls)
		}
	}
}

func TestExecuteCommandExit(t *testing.T) {
	r, _ := newTestREPL(&recordingProvider{})

	if err := r.executeCommand("exit"); err != errExit {
		t.Errorf("exit returned %v, want errExit", err)
	}
	if err := r.executeCommand("quit"); err != errExit {
		t.Errorf("quit returned %v, want errExit", err)
	}
}

func TestExecuteCommandHelp(t *testing.T) {
	r, out := newTestREPL(&recordingProvider{})

	if err := r.executeCommand("help"); err != nil {
		t.Fatalf("help returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Available commands") {
		t.Error("help output missing command list")
	}

	out.Reset()
	if err := r.executeCommand("?"); err != nil {
		t.Fatalf("? returned error: %v", err)
	}
	if !strings.Contains(out.String(), "Available commands") {
		t.Error("? output missing command list")
	}
}

func TestExecuteCommandTools(t *testing.T) {
	r, out := newTestREPL(&recordingProvider{})

	if err := r.executeCommand("tools"); err != nil {
		t.Fatalf("tools returned error: %v", err)
	}
	if !strings.Contains(out.String(), "linkedin_create_post") {
		t.Error("tools output missing tool name")
	}
	if !strings.Contains(out.String(), "content*") {
		t.Error("tools output missing required parameter marker")
	}
}

func TestExecuteCommandProviderError(t *testing.T) {
	provider := &recordingProvider{err: fmt.Errorf("boom")}
	r, _ := newTestREPL(provider)

	err := r.executeCommand("status")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestPrintResult(t *testing.T) {
	r, out := newTestREPL(&recordingProvider{})

	r.printResult(&api.CallToolResult{Content: []interface{}{"line one", "line two"}})
	if !strings.Contains(out.String(), "line one") || !strings.Contains(out.String(), "line two") {
		t.Errorf("printResult output = %q", out.String())
	}

	out.Reset()
	r.printResult(&api.CallToolResult{Content: []interface{}{map[string]interface{}{"post_id": "999"}}})
	if !strings.Contains(out.String(), `"post_id": "999"`) {
		t.Errorf("printResult structured output = %q", out.String())
	}
}

func TestParsePostArgs(t *testing.T) {
	tests := []struct {
		rest        string
		wantUser    string
		wantContent string
	}{
		{" Hello world", "", "Hello world"},
		{" --user u1 Hello", "u1", "Hello"},
		{" --user u1 Hello   spaced  out", "u1", "Hello   spaced  out"},
		{" --user u1", "u1", ""},
		{" contains --user in body", "", "contains --user in body"},
	}

	for _, tt := range tests {
		user, content := parsePostArgs(tt.rest)
		if user != tt.wantUser || content != tt.wantContent {
			t.Errorf("parsePostArgs(%q) = (%q, %q), want (%q, %q)",
				tt.rest, user, content, tt.wantUser, tt.wantContent)
		}
	}
}
