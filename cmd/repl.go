package cmd

import (
	"context"
	"fmt"
	"os"

	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/internal/oauth"
	"linkmcp/internal/repl"
	"linkmcp/internal/store"
	"linkmcp/internal/tools"
	"linkmcp/pkg/logging"

	"github.com/spf13/cobra"
)

var replConfigFile string

// replCmd runs the interactive shell against the same tool provider the
// MCP server exposes.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive shell for the LinkedIn tools",
	Long: `Start an interactive shell that drives the LinkedIn tools directly,
without an MCP client.

The shell talks to the same tool implementations 'linkmcp serve' exposes.
An authorization code obtained in the browser can be pasted into the
'exchange' command; afterwards 'profile' and 'post' use the stored token.

Type 'help' inside the shell for the command list.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replConfigFile, "config", "", "Path to a linkmcp.yaml configuration file")
}

func runREPL(cmd *cobra.Command, args []string) error {
	// The shell owns stdout; keep routine logs out of the prompt.
	logging.Init(logging.LevelWarn, os.Stderr)

	cfg, err := config.Load(replConfigFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer func() { _ = st.Close() }()

	states := oauth.NewStateStore()
	defer states.Stop()

	provider := tools.NewProvider(linkedin.New(cfg.LinkedIn, st), states)
	return repl.New(provider).Run(ctx)
}
