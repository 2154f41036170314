package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"linkmcp/internal/store"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var tokensConfigFile string

// tokensCmd represents the tokens command group
var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage stored LinkedIn tokens",
	Long: `Inspect and maintain the SQLite token store.

These commands operate on stored credentials only and never call
LinkedIn. Deleting a token does not revoke it with the provider; it only
removes this machine's access.

Examples:
  linkmcp tokens list                  # List all stored tokens
  linkmcp tokens delete alice          # Remove the token stored for "alice"
  linkmcp tokens cleanup               # Remove all expired tokens`,
}

// tokensListCmd lists every stored credential.
var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Args:  cobra.NoArgs,
	RunE:  runTokensList,
}

// tokensDeleteCmd removes one user's credential.
var tokensDeleteCmd = &cobra.Command{
	Use:   "delete <user>",
	Short: "Delete the token stored for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokensDelete,
}

// tokensCleanupCmd removes all expired credentials.
var tokensCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired tokens",
	Long: `Remove every credential whose expiry has passed.

Expired rows are kept by default so 'auth status' can tell "expired"
apart from "never authenticated". Run cleanup to reclaim them.`,
	Args: cobra.NoArgs,
	RunE: runTokensCleanup,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.AddCommand(tokensListCmd)
	tokensCmd.AddCommand(tokensDeleteCmd)
	tokensCmd.AddCommand(tokensCleanupCmd)

	tokensCmd.PersistentFlags().StringVar(&tokensConfigFile, "config", "", "Path to a linkmcp.yaml configuration file")
}

func runTokensList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, st, err := openStore(ctx, tokensConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	creds, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		fmt.Println("No stored tokens.")
		return nil
	}

	writeTokenTable(os.Stdout, creds)
	return nil
}

// writeTokenTable renders stored credentials with the secret truncated.
// Full token values never reach the terminal.
func writeTokenTable(out io.Writer, creds []store.Credential) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(table.Row{"USER", "TOKEN", "TYPE", "SCOPE", "EXPIRES", "UPDATED"})
	for _, cred := range creds {
		scope := ""
		if cred.Scope != nil {
			scope = *cred.Scope
		}
		tw.AppendRow(table.Row{
			cred.UserID,
			truncateToken(cred.AccessToken),
			cred.TokenType,
			scope,
			formatExpiry(cred.ExpiresAt),
			cred.UpdatedAt.Format(time.RFC3339),
		})
	}
	tw.Render()
}

// truncateToken keeps enough of the secret to recognize it and no more.
func truncateToken(token string) string {
	if len(token) <= 15 {
		return token
	}
	return token[:15] + "..."
}

func runTokensDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, st, err := openStore(ctx, tokensConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	user := args[0]
	removed, err := st.Delete(ctx, user)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("No token stored for user %s.\n", user)
		return nil
	}
	fmt.Printf("Deleted token for user %s.\n", user)
	return nil
}

func runTokensCleanup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, st, err := openStore(ctx, tokensConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	removed, err := st.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired token(s).\n", removed)
	return nil
}
