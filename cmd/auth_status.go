package cmd

import (
	"context"
	"time"

	"linkmcp/internal/linkedin"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show LinkedIn authentication status",
	Long: `Show the stored credential state for a user.

The status is read directly from the token store. No LinkedIn request is
made; a token reported as authenticated here can still be revoked on the
provider side, which surfaces as an API error on first use.

Exit code 2 means no usable token is stored, so scripts can trigger a
login without parsing output.

Examples:
  linkmcp auth status                  # Status for the default user
  linkmcp auth status --user alice     # Status for a specific user
  linkmcp auth status -q               # Exit code only`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
	// The command prints its own guidance; the auth-required error exists
	// for the exit code, not for another line on stderr.
	SilenceErrors: true,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, st, err := openStore(ctx, authConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user := resolveUser()
	cred, err := st.Get(ctx, user)
	if err != nil {
		return err
	}

	authPrintln("LinkedIn Authentication Status")
	authPrintln("==============================")
	authPrint("  User:      %s\n", user)

	if cred == nil {
		authPrint("  Status:    %s\n", text.FgYellow.Sprint("Not authenticated"))
		authPrintln()
		authPrintln("To authenticate, run:")
		authPrintln("  linkmcp auth login")
		return &linkedin.AuthRequiredError{UserID: user}
	}

	expired := cred.ExpiresAt != nil && !cred.ExpiresAt.After(time.Now())
	if expired {
		authPrint("  Status:    %s\n", text.FgRed.Sprint("Expired"))
	} else {
		authPrint("  Status:    %s\n", text.FgGreen.Sprint("Authenticated"))
	}
	authPrint("  Type:      %s\n", cred.TokenType)
	if cred.Scope != nil {
		authPrint("  Scope:     %s\n", *cred.Scope)
	}
	authPrint("  Expires:   %s\n", formatExpiry(cred.ExpiresAt))
	authPrint("  Updated:   %s\n", cred.UpdatedAt.Format(time.RFC3339))

	if expired {
		authPrintln()
		authPrintln("To re-authenticate, run:")
		authPrintln("  linkmcp auth login")
		return &linkedin.AuthRequiredError{UserID: user}
	}
	return nil
}
