package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"

	"linkmcp/internal/config"
	"linkmcp/internal/store"
	"linkmcp/pkg/logging"
)

// LinkedIn endpoints. The api base serves authenticated calls; the www
// endpoints serve the OAuth flow and the public post URLs.
const (
	defaultAuthURL    = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenURL   = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultAPIBaseURL = "https://api.linkedin.com/v2"

	postURLPrefix = "https://www.linkedin.com/feed/update/"
)

// Error message prefixes surfaced to callers.
const (
	msgExchangeFailed    = "Token exchange failed"
	msgProfileFailed     = "Failed to get profile"
	msgPostFailed        = "Failed to create post"
	msgAuthorFetchFailed = "Failed to get user profile for posting"
)

// TokenStore is the credential persistence surface the client needs.
// *store.Store satisfies it.
type TokenStore interface {
	Put(ctx context.Context, p store.PutParams) error
	GetValid(ctx context.Context, userID string) (*store.Credential, error)
}

// Client performs the OAuth code exchange and the authenticated LinkedIn
// API calls. All methods return errors from the taxonomy in errors.go and
// none of them retries on its own.
type Client struct {
	clientID     string
	clientSecret string
	redirectURI  string

	tokens     TokenStore
	httpClient *http.Client

	authURL    string
	tokenURL   string
	apiBaseURL string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all provider calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides the provider endpoints, for example to route
// calls through a local stand-in server.
func WithEndpoints(authURL, tokenURL, apiBaseURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
		c.tokenURL = tokenURL
		c.apiBaseURL = apiBaseURL
	}
}

// New returns a client bound to the given OAuth application credentials
// and token store.
func New(cfg config.LinkedInConfig, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		tokens:       tokens,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		apiBaseURL:   defaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// oauthConfig assembles the oauth2 configuration for the given scope.
// LinkedIn expects the client credentials in the POST body, not in a
// basic-auth header.
func (c *Client) oauthConfig(scope string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  c.redirectURI,
		Scopes:       strings.Fields(scope),
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.authURL,
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// BuildAuthorizationURL returns the URL the user must visit to authorize
// the application. Pure string construction: deterministic for the same
// inputs, no network access, no stored state.
func (c *Client) BuildAuthorizationURL(scope, state string) string {
	return c.oauthConfig(scope).AuthCodeURL(state)
}

// ExchangeCode trades a single-use authorization code for an access token
// and persists the grant for userID. Authorization codes burn on first
// use, so a failed exchange is never retried here. Exactly one store write
// happens per successful exchange.
func (c *Client) ExchangeCode(ctx context.Context, userID, code string) (*TokenGrant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauthConfig("").Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &ProviderError{
				Operation:  msgExchangeFailed,
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
			}
		}
		return nil, &TransportError{Operation: msgExchangeFailed, Err: err}
	}

	grant := &TokenGrant{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		RefreshToken: tok.RefreshToken,
	}
	if v, ok := tok.Extra("expires_in").(float64); ok {
		grant.ExpiresIn = int64(v)
	}
	if v, ok := tok.Extra("scope").(string); ok {
		grant.Scope = v
	}

	if err := c.tokens.Put(ctx, store.PutParams{
		UserID:       userID,
		AccessToken:  grant.AccessToken,
		ExpiresIn:    grant.ExpiresIn,
		TokenType:    grant.TokenType,
		Scope:        grant.Scope,
		RefreshToken: grant.RefreshToken,
	}); err != nil {
		return nil, &StorageError{Err: err}
	}

	logging.Info("LinkedIn", "Stored access token for user %s (expires in %ds)", userID, grant.ExpiresIn)
	return grant, nil
}

// GetAccessToken returns the stored token for userID. It performs no
// network I/O. An absent or expired credential yields AuthRequiredError; a
// store failure yields StorageError, never a silent "not authenticated".
func (c *Client) GetAccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := c.tokens.GetValid(ctx, userID)
	if err != nil {
		return "", &StorageError{Err: err}
	}
	if cred == nil {
		return "", &AuthRequiredError{UserID: userID}
	}
	return cred.AccessToken, nil
}

// HasValidToken reports whether userID currently holds a usable
// credential. It never touches the network.
func (c *Client) HasValidToken(ctx context.Context, userID string) (bool, error) {
	cred, err := c.tokens.GetValid(ctx, userID)
	if err != nil {
		return false, &StorageError{Err: err}
	}
	return cred != nil, nil
}

// FetchProfile returns the member profile for userID augmented with the
// posting guidelines.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*ProfileWithGuidelines, error) {
	token, err := c.GetAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := c.getProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	return &ProfileWithGuidelines{
		Profile:           *profile,
		PostingGuidelines: Guidelines(),
	}, nil
}

// getProfile issues the authenticated profile GET and decodes the fields
// the server uses.
func (c *Client) getProfile(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/people/~", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: msgProfileFailed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Operation: msgProfileFailed, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Operation: msgProfileFailed, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}
	if profile.ID == "" {
		return nil, fmt.Errorf("profile response is missing the member id")
	}
	return &profile, nil
}

// CreatePost validates content, resolves the author reference and
// publishes a public text post for userID.
//
// Validation runs before any store read or network call, so rejected
// content costs nothing and fails deterministically. The author id comes
// from a profile fetch because the post endpoint names the author by
// member id, not by token. Provider rejections, including rate limits,
// surface verbatim; whether to retry later is the caller's decision.
func (c *Client) CreatePost(ctx context.Context, userID, content string) (*PostResult, error) {
	if err := ValidatePostContent(content); err != nil {
		return nil, err
	}

	token, err := c.GetAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := c.getProfile(ctx, token)
	if err != nil {
		var providerErr *ProviderError
		if errors.As(err, &providerErr) {
			return nil, &ProviderError{
				Operation:  msgAuthorFetchFailed,
				StatusCode: providerErr.StatusCode,
				Body:       providerErr.Body,
			}
		}
		return nil, err
	}

	payload, err := json.Marshal(ugcPost{
		Author:         "urn:li:person:" + profile.ID,
		LifecycleState: "PUBLISHED",
		SpecificContent: specificContent{
			ShareContent: shareContent{
				ShareCommentary:    shareCommentary{Text: content},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: postVisibility{MemberNetwork: "PUBLIC"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/ugcPosts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: msgPostFailed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Operation: msgPostFailed, Err: err}
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, &ProviderError{Operation: msgPostFailed, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode post response: %w", err)
	}

	logging.Info("LinkedIn", "Created post %s for user %s", created.ID, userID)

	return &PostResult{
		PostID:          created.ID,
		PostURL:         postURLPrefix + created.ID,
		Content:         content,
		CharacterCount:  utf8.RuneCountInString(content),
		ComplianceCheck: "passed",
	}, nil
}
