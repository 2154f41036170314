package oauth

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/pkg/logging"
)

// Exchanger is the slice of the LinkedIn client the OAuth endpoints use.
type Exchanger interface {
	BuildAuthorizationURL(scope, state string) string
	ExchangeCode(ctx context.Context, userID, code string) (*linkedin.TokenGrant, error)
}

// Handler serves the browser-facing endpoints of the authorization flow:
// /auth starts it with a redirect to LinkedIn, /callback receives the
// authorization code and completes the exchange.
type Handler struct {
	exchanger Exchanger
	states    *StateStore
}

// NewHandler creates an OAuth handler backed by the given exchanger and
// state store.
func NewHandler(exchanger Exchanger, states *StateStore) *Handler {
	return &Handler{exchanger: exchanger, states: states}
}

// RegisterRoutes attaches the OAuth endpoints to mux. The callback path
// must match the redirect URI registered with the LinkedIn application.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/auth", h.handleAuth)
	mux.HandleFunc("/callback", h.handleCallback)
}

// handleAuth issues a state parameter and redirects the browser to the
// LinkedIn authorization page.
func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	scope := query.Get("scope")
	if scope == "" {
		scope = config.DefaultScope
	}
	userID := query.Get("user_id")
	if userID == "" {
		userID = linkedin.DefaultUserID
	}

	state, err := h.states.Generate(userID, scope)
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	logging.Info("OAuth", "Redirecting user %s to LinkedIn authorization", userID)
	http.Redirect(w, r, h.exchanger.BuildAuthorizationURL(scope, state), http.StatusFound)
}

// handleCallback completes the flow: it validates the state, exchanges the
// authorization code and reports the outcome as an HTML page.
//
// A callback with an unrecognized state still proceeds, attributed to the
// user_id query parameter or the default user. LinkedIn applications may
// be configured to redirect here from flows this process did not start;
// states this process did issue are consumed on first use.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		logging.Warn("OAuth", "Authorization denied: %s - %s", errCode, desc)
		h.renderErrorPage(w, http.StatusBadRequest, fmt.Sprintf("LinkedIn OAuth error: %s - %s", errCode, desc))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.renderErrorPage(w, http.StatusBadRequest, "No authorization code received")
		return
	}

	userID := query.Get("user_id")
	if userID == "" {
		userID = linkedin.DefaultUserID
	}
	if state := h.states.Validate(query.Get("state")); state != nil {
		userID = state.UserID
	} else {
		logging.Warn("OAuth", "Callback carried an unrecognized state, storing token for user %s", userID)
	}

	grant, err := h.exchanger.ExchangeCode(r.Context(), userID, code)
	if err != nil {
		logging.Error("OAuth", err, "Code exchange failed for user %s", userID)
		h.renderErrorPage(w, http.StatusInternalServerError, err.Error())
		return
	}

	expires := "Not specified"
	if grant.ExpiresIn > 0 {
		expires = time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second).Format(time.RFC3339)
	}
	scope := grant.Scope
	if scope == "" {
		scope = "Not specified"
	}

	logging.Info("OAuth", "Completed authorization for user %s", userID)
	h.renderSuccessPage(w, userID, grant.TokenType, expires, scope)
}

// setSecurityHeaders sets recommended security headers for HTML responses.
// The success page carries an inline auto-close script, so inline script
// must stay allowed by the CSP.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; script-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
}

// renderSuccessPage renders an HTML page confirming the stored credential.
func (h *Handler) renderSuccessPage(w http.ResponseWriter, userID, tokenType, expires, scope string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>LinkedIn Authentication Complete</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .success { color: green; font-size: 24px; margin-bottom: 20px; }
        .details { background: #f5f5f5; padding: 20px; border-radius: 5px; max-width: 600px; margin: 0 auto; text-align: left; }
    </style>
</head>
<body>
    <div class="success">&#9989; LinkedIn Authentication Successful!</div>
    <div class="details">
        <p><strong>User ID:</strong> %s</p>
        <p><strong>Token Type:</strong> %s</p>
        <p><strong>Expires:</strong> %s</p>
        <p><strong>Scope:</strong> %s</p>
        <hr>
        <p>You can now close this window. Your LinkedIn token has been securely stored and you can use the LinkedIn tools.</p>
    </div>
    <script>
        setTimeout(() => {
            if (window.opener) {
                window.close();
            } else {
                document.body.innerHTML += '<p style="color: blue; margin-top: 20px;">You can now close this tab manually.</p>';
            }
        }, 2000);
    </script>
</body>
</html>`,
		html.EscapeString(userID), html.EscapeString(tokenType),
		html.EscapeString(expires), html.EscapeString(scope))

	_, _ = w.Write([]byte(htmlContent))
}

// renderErrorPage renders an HTML page describing a failed authorization.
func (h *Handler) renderErrorPage(w http.ResponseWriter, status int, message string) {
	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>LinkedIn Authentication Failed</title>
    <style>
        body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
        .error { color: #c0392b; font-size: 24px; margin-bottom: 20px; }
        .details { background: #f5f5f5; padding: 20px; border-radius: 5px; max-width: 600px; margin: 0 auto; }
    </style>
</head>
<body>
    <div class="error">&#10060; LinkedIn Authentication Failed</div>
    <div class="details">
        <p>%s</p>
        <p>Close this window and try authenticating again.</p>
    </div>
</body>
</html>`, html.EscapeString(message))

	_, _ = w.Write([]byte(htmlContent))
}
