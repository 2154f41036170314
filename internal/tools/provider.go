// Package tools exposes the LinkedIn operations as agent-callable tools.
// Each tool maps 1:1 onto a client operation, formats the outcome as
// caller-readable text and adds no behavior of its own.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"linkmcp/internal/api"
	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/internal/oauth"
	"linkmcp/pkg/logging"
)

// Tool names exposed to MCP clients.
const (
	ToolGetAuthURL        = "linkedin_get_auth_url"
	ToolExchangeCode      = "linkedin_exchange_code"
	ToolCheckAuthStatus   = "linkedin_check_auth_status"
	ToolGetProfile        = "linkedin_get_profile"
	ToolCreatePost        = "linkedin_create_post"
	ToolPostingGuidelines = "linkedin_posting_guidelines"
)

// LinkedInAPI is the slice of the LinkedIn client the tools call.
type LinkedInAPI interface {
	BuildAuthorizationURL(scope, state string) string
	ExchangeCode(ctx context.Context, userID, code string) (*linkedin.TokenGrant, error)
	HasValidToken(ctx context.Context, userID string) (bool, error)
	FetchProfile(ctx context.Context, userID string) (*linkedin.ProfileWithGuidelines, error)
	CreatePost(ctx context.Context, userID, content string) (*linkedin.PostResult, error)
}

// Provider implements api.ToolProvider for the LinkedIn tools.
type Provider struct {
	client LinkedInAPI
	states *oauth.StateStore
}

// NewProvider creates the tool provider. The state store must be the same
// one the HTTP callback validates against, otherwise authorization URLs
// issued here cannot be linked back to their user.
func NewProvider(client LinkedInAPI, states *oauth.StateStore) *Provider {
	return &Provider{client: client, states: states}
}

// GetTools returns metadata for the LinkedIn tools.
func (p *Provider) GetTools() []api.ToolMetadata {
	userIDArg := api.ParameterMetadata{
		Name:        "user_id",
		Type:        "string",
		Required:    false,
		Description: "User identity the credential is stored under",
		Default:     linkedin.DefaultUserID,
	}

	return []api.ToolMetadata{
		{
			Name:        ToolGetAuthURL,
			Description: "Generate a LinkedIn OAuth authorization URL. The user must open it in a browser and approve access; the token is stored automatically when LinkedIn redirects back.",
			Parameters: []api.ParameterMetadata{
				{
					Name:        "scope",
					Type:        "string",
					Required:    false,
					Description: "Space-delimited OAuth scopes to request",
					Default:     config.DefaultScope,
				},
				userIDArg,
			},
		},
		{
			Name:        ToolExchangeCode,
			Description: "Exchange a LinkedIn authorization code for an access token and store it. Only needed when the redirect was captured manually; the callback endpoint normally performs this step.",
			Parameters: []api.ParameterMetadata{
				{
					Name:        "code",
					Type:        "string",
					Required:    true,
					Description: "Single-use authorization code from the OAuth redirect",
				},
				userIDArg,
			},
		},
		{
			Name:        ToolCheckAuthStatus,
			Description: "Check whether a valid LinkedIn access token is stored for the user. Performs no network calls.",
			Parameters:  []api.ParameterMetadata{userIDArg},
		},
		{
			Name:        ToolGetProfile,
			Description: "Fetch the authenticated user's LinkedIn profile, including the posting guidelines.",
			Parameters:  []api.ParameterMetadata{userIDArg},
		},
		{
			Name:        ToolCreatePost,
			Description: "Publish a public text post on LinkedIn. Content is validated against the posting guidelines before anything is sent.",
			Parameters: []api.ParameterMetadata{
				{
					Name:        "content",
					Type:        "string",
					Required:    true,
					Description: "Post text, up to 3000 characters and at most 10 mentions",
				},
				userIDArg,
			},
		},
		{
			Name:        ToolPostingGuidelines,
			Description: "Return LinkedIn's posting limits and content rules. No authentication required.",
			Parameters:  []api.ParameterMetadata{},
		},
	}
}

// ExecuteTool executes a LinkedIn tool by name.
func (p *Provider) ExecuteTool(ctx context.Context, toolName string, args map[string]interface{}) (*api.CallToolResult, error) {
	logging.Debug("Tools", "Executing tool %s", toolName)

	switch toolName {
	case ToolGetAuthURL:
		return p.handleGetAuthURL(args)
	case ToolExchangeCode:
		return p.handleExchangeCode(ctx, args)
	case ToolCheckAuthStatus:
		return p.handleCheckAuthStatus(ctx, args)
	case ToolGetProfile:
		return p.handleGetProfile(ctx, args)
	case ToolCreatePost:
		return p.handleCreatePost(ctx, args)
	case ToolPostingGuidelines:
		return p.handleGuidelines()
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
}

func (p *Provider) handleGetAuthURL(args map[string]interface{}) (*api.CallToolResult, error) {
	scope := stringArg(args, "scope")
	if scope == "" {
		scope = config.DefaultScope
	}
	userID := userIDArg(args)

	state, err := p.states.Generate(userID, scope)
	if err != nil {
		return errorResult(fmt.Errorf("failed to generate state: %w", err)), nil
	}

	authURL := p.client.BuildAuthorizationURL(scope, state)
	return textResult(fmt.Sprintf(
		"Open this URL in a browser to authorize the application:\n\n%s\n\n"+
			"After approval LinkedIn redirects to the configured callback and the token is stored for user %q.",
		authURL, userID)), nil
}

func (p *Provider) handleExchangeCode(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	code := stringArg(args, "code")
	if code == "" {
		return &api.CallToolResult{
			Content: []interface{}{"Error: 'code' argument is required and must be a string"},
			IsError: true,
		}, nil
	}
	userID := userIDArg(args)

	grant, err := p.client.ExchangeCode(ctx, userID, code)
	if err != nil {
		return errorResult(err), nil
	}

	expires := "not specified"
	if grant.ExpiresIn > 0 {
		expires = fmt.Sprintf("%d seconds", grant.ExpiresIn)
	}
	scope := grant.Scope
	if scope == "" {
		scope = "not specified"
	}
	return textResult(fmt.Sprintf(
		"Token stored successfully for user %q.\nToken type: %s\nExpires in: %s\nScope: %s",
		userID, grant.TokenType, expires, scope)), nil
}

func (p *Provider) handleCheckAuthStatus(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	userID := userIDArg(args)

	ok, err := p.client.HasValidToken(ctx, userID)
	if err != nil {
		return errorResult(err), nil
	}

	if !ok {
		// Not an error: absence of a credential is a normal state the
		// caller resolves by starting the authorization flow.
		return textResult(fmt.Sprintf(
			"User %q is not authenticated. Use %s to start the authorization flow.",
			userID, ToolGetAuthURL)), nil
	}
	return textResult(fmt.Sprintf("User %q is authenticated with a valid access token.", userID)), nil
}

func (p *Provider) handleGetProfile(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	userID := userIDArg(args)

	profile, err := p.client.FetchProfile(ctx, userID)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(profile)
}

func (p *Provider) handleCreatePost(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	content, ok := args["content"].(string)
	if !ok {
		return &api.CallToolResult{
			Content: []interface{}{"Error: 'content' argument is required and must be a string"},
			IsError: true,
		}, nil
	}
	userID := userIDArg(args)

	result, err := p.client.CreatePost(ctx, userID, content)
	if err != nil {
		return errorResult(err), nil
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post result: %w", err)
	}
	return textResult(fmt.Sprintf("Post created successfully!\n\n%s", payload)), nil
}

func (p *Provider) handleGuidelines() (*api.CallToolResult, error) {
	return jsonResult(linkedin.Guidelines())
}

// stringArg returns the string value of key, or "" when absent or not a
// string.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// userIDArg resolves the optional user_id argument. The single-tenant
// default is substituted here, at the tool boundary, and nowhere deeper.
func userIDArg(args map[string]interface{}) string {
	if v := stringArg(args, "user_id"); v != "" {
		return v
	}
	return linkedin.DefaultUserID
}

func textResult(text string) *api.CallToolResult {
	return &api.CallToolResult{Content: []interface{}{text}}
}

func jsonResult(v interface{}) (*api.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return textResult(string(payload)), nil
}

func errorResult(err error) *api.CallToolResult {
	return &api.CallToolResult{
		Content: []interface{}{"Error: " + err.Error()},
		IsError: true,
	}
}
