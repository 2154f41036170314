package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	authConfigFile string
	authUser       string
	authQuiet      bool
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LinkedIn authentication",
	Long: `Manage LinkedIn OAuth authentication from the command line.

The auth command group runs the browser-based authorization flow and
inspects the stored credential state, per user identity. Tokens obtained
here land in the same SQLite store the MCP server reads, so a login from
the terminal authenticates the linkedin_* tools as well.

Examples:
  linkmcp auth login                   # Authorize the default user
  linkmcp auth login --user alice      # Authorize a specific user identity
  linkmcp auth status                  # Show authentication status
  linkmcp auth status --user alice     # Status for a specific user`,
}

// authPrint prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrint(format string, args ...interface{}) {
	if !authQuiet {
		fmt.Printf(format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func authPrintln(a ...interface{}) {
	if !authQuiet {
		fmt.Println(a...)
	}
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)

	// Common flags for auth commands (shared across subcommands)
	authCmd.PersistentFlags().StringVar(&authConfigFile, "config", "", "Path to a linkmcp.yaml configuration file")
	authCmd.PersistentFlags().StringVar(&authUser, "user", "", "User identity the credential belongs to (default: default_user)")
	authCmd.PersistentFlags().BoolVarP(&authQuiet, "quiet", "q", false, "Suppress non-essential output")
}
