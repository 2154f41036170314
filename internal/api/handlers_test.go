package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) GetTools() []ToolMetadata {
	return []ToolMetadata{{Name: s.name}}
}

func (s *stubProvider) ExecuteTool(ctx context.Context, toolName string, args map[string]interface{}) (*CallToolResult, error) {
	return &CallToolResult{Content: []interface{}{"ok"}}, nil
}

func TestRegisterToolProvider(t *testing.T) {
	t.Cleanup(func() { RegisterToolProvider(nil) })

	RegisterToolProvider(nil)
	assert.Nil(t, GetToolProvider())

	first := &stubProvider{name: "first"}
	RegisterToolProvider(first)
	got := GetToolProvider()
	require.NotNil(t, got)
	assert.Equal(t, "first", got.GetTools()[0].Name)

	// A later registration replaces the earlier one.
	second := &stubProvider{name: "second"}
	RegisterToolProvider(second)
	assert.Equal(t, "second", GetToolProvider().GetTools()[0].Name)
}
