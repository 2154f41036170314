package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkmcp/internal/config"
	"linkmcp/internal/store"
)

type fakeStore struct {
	putCalls int
	getCalls int
	lastPut  store.PutParams

	cred   *store.Credential
	getErr error
	putErr error
}

func (f *fakeStore) Put(ctx context.Context, p store.PutParams) error {
	f.putCalls++
	f.lastPut = p
	return f.putErr
}

func (f *fakeStore) GetValid(ctx context.Context, userID string) (*store.Credential, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cred, nil
}

func newTestClient(t *testing.T, tokens TokenStore, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(config.LinkedInConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/callback",
	}, tokens)
	c.httpClient = srv.Client()
	c.tokenURL = srv.URL + "/oauth/v2/accessToken"
	c.apiBaseURL = srv.URL + "/v2"
	return c
}

func validCredential(token string) *store.Credential {
	return &store.Credential{UserID: "u1", AccessToken: token, TokenType: "Bearer"}
}

func TestBuildAuthorizationURL(t *testing.T) {
	c := New(config.LinkedInConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8000/callback",
	}, &fakeStore{})

	rawURL := c.BuildAuthorizationURL("openid profile email w_member_social", "state-123")

	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "www.linkedin.com", u.Host)
	assert.Equal(t, "/oauth/v2/authorization", u.Path)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email w_member_social", q.Get("scope"))
	assert.Equal(t, "state-123", q.Get("state"))

	// Same inputs, same URL.
	assert.Equal(t, rawURL, c.BuildAuthorizationURL("openid profile email w_member_social", "state-123"))
}

func TestExchangeCodeStoresGrant(t *testing.T) {
	var form url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok_abc","token_type":"Bearer","expires_in":3600,"scope":"openid profile"}`)
	})

	tokens := &fakeStore{}
	c := newTestClient(t, tokens, mux)

	grant, err := c.ExchangeCode(context.Background(), "u1", "code-123")
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", grant.AccessToken)
	assert.Equal(t, "Bearer", grant.TokenType)
	assert.Equal(t, int64(3600), grant.ExpiresIn)
	assert.Equal(t, "openid profile", grant.Scope)

	// The token request is a form POST carrying the full wire contract.
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "code-123", form.Get("code"))
	assert.Equal(t, "http://localhost:8000/callback", form.Get("redirect_uri"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))

	require.Equal(t, 1, tokens.putCalls)
	assert.Equal(t, "u1", tokens.lastPut.UserID)
	assert.Equal(t, "tok_abc", tokens.lastPut.AccessToken)
	assert.Equal(t, int64(3600), tokens.lastPut.ExpiresIn)
	assert.Equal(t, "openid profile", tokens.lastPut.Scope)
}

func TestExchangeCodeProviderRejection(t *testing.T) {
	const body = `{"error":"invalid_grant","error_description":"authorization code expired"}`
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, body)
	})

	tokens := &fakeStore{}
	c := newTestClient(t, tokens, mux)

	grant, err := c.ExchangeCode(context.Background(), "u1", "stale-code")
	require.Error(t, err)
	assert.Nil(t, grant)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Equal(t, body, providerErr.Body)
	assert.Equal(t, "Token exchange failed: "+body, err.Error())

	// A failed exchange must leave the store untouched.
	assert.Zero(t, tokens.putCalls)
}

func TestExchangeCodeTransportFailure(t *testing.T) {
	tokens := &fakeStore{}
	c := newTestClient(t, tokens, http.NotFoundHandler())
	// Point the token endpoint at a port nothing listens on.
	c.tokenURL = "http://127.0.0.1:1/accessToken"

	_, err := c.ExchangeCode(context.Background(), "u1", "code-123")
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, tokens.putCalls)
}

func TestExchangeCodeStorageFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v2/accessToken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok_abc","token_type":"Bearer","expires_in":3600}`)
	})

	tokens := &fakeStore{putErr: errors.New("disk full")}
	c := newTestClient(t, tokens, mux)

	_, err := c.ExchangeCode(context.Background(), "u1", "code-123")
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
}

func TestGetAccessToken(t *testing.T) {
	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, http.NotFoundHandler())

	token, err := c.GetAccessToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", token)
}

func TestGetAccessTokenAbsent(t *testing.T) {
	tokens := &fakeStore{}
	c := newTestClient(t, tokens, http.NotFoundHandler())

	_, err := c.GetAccessToken(context.Background(), "u1")
	require.Error(t, err)

	var authErr *AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "u1", authErr.UserID)
	assert.Equal(t, "No valid access token found. Please authenticate first.", err.Error())
}

func TestGetAccessTokenStorageFailureIsNotAuthRequired(t *testing.T) {
	tokens := &fakeStore{getErr: errors.New("database is locked")}
	c := newTestClient(t, tokens, http.NotFoundHandler())

	_, err := c.GetAccessToken(context.Background(), "u1")
	require.Error(t, err)

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	var authErr *AuthRequiredError
	assert.False(t, errors.As(err, &authErr), "a store failure must not read as missing authentication")
}

func TestHasValidToken(t *testing.T) {
	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, http.NotFoundHandler())

	ok, err := c.HasValidToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	tokens.cred = nil
	ok, err = c.HasValidToken(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetchProfile(t *testing.T) {
	var authHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"AbC123","localizedFirstName":"Ada","localizedLastName":"Lovelace"}`)
	})

	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, mux)

	profile, err := c.FetchProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok_abc", authHeader)
	assert.Equal(t, "AbC123", profile.ID)
	assert.Equal(t, "Ada", profile.LocalizedFirstName)
	assert.Equal(t, "Lovelace", profile.LocalizedLastName)

	// Every profile read carries the posting policy.
	assert.Equal(t, 3000, profile.PostingGuidelines.MaxPostLength)
	assert.Equal(t, "1 post per minute", profile.PostingGuidelines.RateLimit)
	assert.Len(t, profile.PostingGuidelines.ContentRules, 4)
}

func TestFetchProfileProviderRejection(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "EXPIRED_TOKEN")
	})

	tokens := &fakeStore{cred: validCredential("tok_old")}
	c := newTestClient(t, tokens, mux)

	_, err := c.FetchProfile(context.Background(), "u1")
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.Equal(t, "EXPIRED_TOKEN", providerErr.Body)
	assert.Equal(t, "Failed to get profile: EXPIRED_TOKEN", err.Error())
}

func TestFetchProfileRequiresToken(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	tokens := &fakeStore{}
	c := newTestClient(t, tokens, handler)

	_, err := c.FetchProfile(context.Background(), "u1")
	require.Error(t, err)

	var authErr *AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, requests)
}

func TestCreatePost(t *testing.T) {
	content := "Hello world"

	var envelope ugcPost
	var contentType string
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"AbC123"}`)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"999"}`)
	})

	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, mux)

	result, err := c.CreatePost(context.Background(), "u1", content)
	require.NoError(t, err)

	assert.Equal(t, "999", result.PostID)
	assert.Equal(t, "https://www.linkedin.com/feed/update/999", result.PostURL)
	assert.Equal(t, content, result.Content)
	assert.Equal(t, 11, result.CharacterCount)
	assert.Equal(t, "passed", result.ComplianceCheck)

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "urn:li:person:AbC123", envelope.Author)
	assert.Equal(t, "PUBLISHED", envelope.LifecycleState)
	assert.Equal(t, content, envelope.SpecificContent.ShareContent.ShareCommentary.Text)
	assert.Equal(t, "NONE", envelope.SpecificContent.ShareContent.ShareMediaCategory)
	assert.Equal(t, "PUBLIC", envelope.Visibility.MemberNetwork)
}

func TestCreatePostTenMentionsPasses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"AbC123"}`)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"1000"}`)
	})

	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, mux)

	result, err := c.CreatePost(context.Background(), "u1", strings.Repeat("@x ", 10))
	require.NoError(t, err)
	assert.Equal(t, "1000", result.PostID)
}

func TestCreatePostRejectsInvalidContentWithoutCalls(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  RejectReason
	}{
		{"too long", strings.Repeat("x", 3001), RejectTooLong},
		{"empty", "", RejectEmpty},
		{"whitespace only", "   \n ", RejectEmpty},
		{"eleven mentions", "@a @b @c @d @e @f @g @h @i @j @k", RejectTooManyMentions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
			})

			tokens := &fakeStore{cred: validCredential("tok_abc")}
			c := newTestClient(t, tokens, handler)

			_, err := c.CreatePost(context.Background(), "u1", tt.content)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.reason, validationErr.Reason)

			// Validation precedes the token lookup and every network call.
			assert.Zero(t, requests)
			assert.Zero(t, tokens.getCalls)
		})
	}
}

func TestCreatePostElevenMentionsReportsCount(t *testing.T) {
	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, http.NotFoundHandler())

	_, err := c.CreatePost(context.Background(), "u1", "@a @b @c @d @e @f @g @h @i @j @k")
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 11, validationErr.MentionCount)
	assert.Equal(t, "Too many mentions (11). LinkedIn limit is 10 per post.", err.Error())
}

func TestCreatePostAuthRequiredWithoutCalls(t *testing.T) {
	requests := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	tokens := &fakeStore{}
	c := newTestClient(t, tokens, handler)

	_, err := c.CreatePost(context.Background(), "u1", "Hello world")
	require.Error(t, err)

	var authErr *AuthRequiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "No valid access token found. Please authenticate first.", err.Error())
	assert.Zero(t, requests)
}

func TestCreatePostAuthorFetchFailure(t *testing.T) {
	postRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "upstream profile outage")
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		postRequests++
	})

	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, mux)

	_, err := c.CreatePost(context.Background(), "u1", "Hello world")
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusInternalServerError, providerErr.StatusCode)
	assert.Equal(t, "Failed to get user profile for posting: upstream profile outage", err.Error())

	// The post must not be attempted when the author lookup fails.
	assert.Zero(t, postRequests)
}

func TestCreatePostProviderRejection(t *testing.T) {
	const body = `{"message":"Rate limit exceeded","status":429}`
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/people/~", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"AbC123"}`)
	})
	mux.HandleFunc("/v2/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, body)
	})

	tokens := &fakeStore{cred: validCredential("tok_abc")}
	c := newTestClient(t, tokens, mux)

	_, err := c.CreatePost(context.Background(), "u1", "Hello world")
	require.Error(t, err)

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusTooManyRequests, providerErr.StatusCode)
	assert.Equal(t, body, providerErr.Body)
	assert.Equal(t, "Failed to create post: "+body, err.Error())
}
