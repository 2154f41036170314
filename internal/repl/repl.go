// Package repl provides an interactive shell over the tool provider. It
// drives the same six tools MCP clients call, which makes it a convenient
// way to run the OAuth flow and post without an MCP client attached.
package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"linkmcp/internal/api"
	"linkmcp/internal/tools"
)

const prompt = "linkmcp> "

// commandExecutionTimeout bounds a single command so a hung provider call
// cannot wedge the shell.
const commandExecutionTimeout = 2 * time.Minute

// errExit signals a clean exit from the command loop.
var errExit = fmt.Errorf("exit")

// REPL is the interactive shell.
type REPL struct {
	provider api.ToolProvider
	rl       *readline.Instance
	out      io.Writer
}

// New creates a REPL that executes commands against the given provider.
func New(provider api.ToolProvider) *REPL {
	return &REPL{
		provider: provider,
		out:      os.Stdout,
	}
}

// Run starts the shell and processes commands until exit, EOF or context
// cancellation.
func (r *REPL) Run(ctx context.Context) error {
	historyFile := filepath.Join(os.TempDir(), ".linkmcp_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		AutoComplete:    createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	r.rl = rl

	fmt.Fprintln(r.out, "LinkedIn MCP shell. Type 'help' for available commands. Use TAB for completion.")
	fmt.Fprintln(r.out)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := r.executeCommand(input); err != nil {
			if err == errExit {
				fmt.Fprintln(r.out, "Goodbye!")
				return nil
			}
			fmt.Fprintln(r.out, text.FgRed.Sprintf("Error: %v", err))
		}

		fmt.Fprintln(r.out)
	}
}

// executeCommand parses one input line and dispatches it.
func (r *REPL) executeCommand(input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	if command == "?" {
		command = "help"
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandExecutionTimeout)
	defer cancel()

	switch command {
	case "help":
		r.printHelp()
		return nil

	case "exit", "quit":
		return errExit

	case "tools":
		r.printTools()
		return nil

	case "auth-url":
		toolArgs := map[string]interface{}{}
		if len(args) > 0 {
			toolArgs["user_id"] = args[0]
		}
		return r.callTool(ctx, tools.ToolGetAuthURL, toolArgs)

	case "exchange":
		if len(args) == 0 {
			return fmt.Errorf("usage: exchange <code> [user_id]")
		}
		toolArgs := map[string]interface{}{"code": args[0]}
		if len(args) > 1 {
			toolArgs["user_id"] = args[1]
		}
		return r.callTool(ctx, tools.ToolExchangeCode, toolArgs)

	case "status":
		toolArgs := map[string]interface{}{}
		if len(args) > 0 {
			toolArgs["user_id"] = args[0]
		}
		return r.callTool(ctx, tools.ToolCheckAuthStatus, toolArgs)

	case "profile":
		toolArgs := map[string]interface{}{}
		if len(args) > 0 {
			toolArgs["user_id"] = args[0]
		}
		return r.callTool(ctx, tools.ToolGetProfile, toolArgs)

	case "post":
		userID, content := parsePostArgs(strings.TrimPrefix(input, parts[0]))
		if content == "" {
			return fmt.Errorf("usage: post [--user <id>] <content>")
		}
		toolArgs := map[string]interface{}{"content": content}
		if userID != "" {
			toolArgs["user_id"] = userID
		}
		return r.callTool(ctx, tools.ToolCreatePost, toolArgs)

	case "guidelines":
		return r.callTool(ctx, tools.ToolPostingGuidelines, map[string]interface{}{})

	default:
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}
}

// parsePostArgs splits an optional "--user <id>" prefix off the post body.
// The body keeps its original spacing; field-splitting would collapse it.
func parsePostArgs(rest string) (userID, content string) {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "--user ") {
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "--user "))
		if i := strings.IndexByte(rest, ' '); i > 0 {
			return rest[:i], strings.TrimSpace(rest[i+1:])
		}
		return rest, ""
	}
	return "", rest
}

func (r *REPL) callTool(ctx context.Context, toolName string, args map[string]interface{}) error {
	result, err := r.provider.ExecuteTool(ctx, toolName, args)
	if err != nil {
		return err
	}
	r.printResult(result)
	return nil
}

func (r *REPL) printResult(result *api.CallToolResult) {
	for _, content := range result.Content {
		s, ok := content.(string)
		if !ok {
			raw, err := json.MarshalIndent(content, "", "  ")
			if err != nil {
				continue
			}
			s = string(raw)
		}
		if result.IsError {
			s = text.FgRed.Sprint(s)
		}
		fmt.Fprintln(r.out, s)
	}
}

func (r *REPL) printTools() {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.AppendHeader(table.Row{"Tool", "Parameters", "Description"})

	for _, tool := range r.provider.GetTools() {
		params := make([]string, 0, len(tool.Parameters))
		for _, p := range tool.Parameters {
			name := p.Name
			if p.Required {
				name += "*"
			}
			params = append(params, name)
		}
		tw.AppendRow(table.Row{tool.Name, strings.Join(params, ", "), tool.Description})
	}

	tw.Render()
}

func (r *REPL) printHelp() {
	help := `Available commands:
  auth-url [user_id]          Print the LinkedIn authorization URL
  exchange <code> [user_id]   Exchange an authorization code for a token
  status [user_id]            Show whether a stored token is valid
  profile [user_id]           Fetch the member profile and posting guidelines
  post [--user <id>] <text>   Create a LinkedIn post
  guidelines                  Print the posting guidelines
  tools                       List the tools this server exposes
  help, ?                     Show this help
  exit, quit                  Leave the shell`
	fmt.Fprintln(r.out, help)
}

// createCompleter creates the tab completion configuration.
func createCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("?"),
		readline.PcItem("auth-url"),
		readline.PcItem("exchange"),
		readline.PcItem("status"),
		readline.PcItem("profile"),
		readline.PcItem("post", readline.PcItem("--user")),
		readline.PcItem("guidelines"),
		readline.PcItem("tools"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// filterInput filters input characters for readline
func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
