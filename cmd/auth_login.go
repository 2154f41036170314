package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/internal/oauth"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginScope   string
	loginTimeout time.Duration
	loginNoOpen  bool
)

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize LinkedIn access through the browser",
	Long: `Run the LinkedIn OAuth authorization flow.

This command starts a temporary local HTTP server on the port of the
registered redirect URI, opens the LinkedIn consent page in the browser
and waits for the redirect carrying the authorization code. The code is
exchanged for an access token, which is stored for the selected user.

The redirect URI registered with the LinkedIn application must point at
localhost for this to work (for example http://localhost:8000/callback).
In deployments where the redirect points at a running server, use
'linkmcp serve' and start the flow at its /auth endpoint instead.

Examples:
  linkmcp auth login                   # Authorize the default user
  linkmcp auth login --user alice      # Store the token under "alice"
  linkmcp auth login --no-browser      # Print the URL, never spawn a browser`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	// Login-specific flags (only on login subcommand)
	authLoginCmd.Flags().StringVar(&loginScope, "scope", config.DefaultScope, "OAuth scopes to request")
	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", oauth.CallbackTimeout, "How long to wait for the browser authorization")
	authLoginCmd.Flags().BoolVar(&loginNoOpen, "no-browser", false, "Print the authorization URL instead of opening a browser")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, st, err := openStore(ctx, authConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := cfg.Validate(); err != nil {
		return err
	}

	user := resolveUser()
	client := linkedin.New(cfg.LinkedIn, st)

	states := oauth.NewStateStore()
	defer states.Stop()

	state, err := states.Generate(user, loginScope)
	if err != nil {
		return fmt.Errorf("failed to generate state: %w", err)
	}
	authURL := client.BuildAuthorizationURL(loginScope, state)

	callback, err := oauth.NewCallbackServer(cfg.LinkedIn.RedirectURI)
	if err != nil {
		return fmt.Errorf("cannot receive the redirect locally: %w (use 'linkmcp serve' and its /auth endpoint instead)", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	if err := callback.Start(waitCtx); err != nil {
		return err
	}
	defer callback.Stop()

	authPrint("Listening for the OAuth callback on %s\n", callback.URL())
	if loginNoOpen {
		fmt.Printf("Open this URL to authorize:\n\n  %s\n\n", authURL)
	} else {
		authPrintln("Opening browser for LinkedIn authorization...")
		if err := oauth.OpenBrowser(authURL); err != nil {
			fmt.Printf("Could not open a browser (%v). Open this URL manually:\n\n  %s\n\n", err, authURL)
		}
	}

	result, err := waitForCallback(waitCtx, callback)
	if err != nil {
		return err
	}

	validated := states.Validate(result.State)
	if validated == nil {
		return &AuthFailedError{Reason: "callback state did not match the issued state"}
	}

	// The wait timeout no longer applies once the code is in hand.
	grant, err := client.ExchangeCode(ctx, validated.UserID, result.Code)
	if err != nil {
		return &AuthFailedError{Reason: "code exchange rejected", Err: err}
	}

	authPrintln()
	fmt.Printf("%s LinkedIn access authorized.\n", text.FgGreen.Sprint("Success:"))
	authPrint("  User:    %s\n", validated.UserID)
	if grant.Scope != "" {
		authPrint("  Scope:   %s\n", grant.Scope)
	}
	if grant.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second)
		authPrint("  Expires: %s\n", formatExpiry(&expiresAt))
	}
	return nil
}

// waitForCallback waits for the browser redirect, showing a spinner while
// the user works through the consent screen.
func waitForCallback(ctx context.Context, callback *oauth.CallbackServer) (*oauth.CallbackResult, error) {
	if !authQuiet {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Waiting for authorization in the browser..."
		s.Start()
		defer s.Stop()
	}

	result, err := callback.WaitForCallback(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &AuthFailedError{Reason: "timed out waiting for the browser authorization"}
		}
		return nil, err
	}
	if result.IsError() {
		reason := result.Error
		if result.ErrorDescription != "" {
			reason = fmt.Sprintf("%s (%s)", result.Error, result.ErrorDescription)
		}
		return nil, &AuthFailedError{Reason: "LinkedIn denied the authorization: " + reason}
	}
	return result, nil
}
