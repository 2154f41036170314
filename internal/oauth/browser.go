package oauth

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// OpenBrowser opens the specified URL in the user's web browser. The
// BROWSER environment variable takes precedence over the platform default.
// Returns an error if the browser could not be started.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	if browser := os.Getenv("BROWSER"); browser != "" {
		cmd = exec.Command(browser, url)
	} else {
		switch runtime.GOOS {
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("cmd", "/c", "start", url)
		default:
			return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
		}
	}

	// Start without waiting; the browser keeps running on its own.
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
