package cmd

import (
	"context"
	"fmt"
	"time"

	"linkmcp/internal/config"
	"linkmcp/internal/linkedin"
	"linkmcp/internal/store"

	"github.com/jedib0t/go-pretty/v6/text"
)

// AuthFailedError indicates the OAuth authorization flow itself failed:
// the user denied consent, the state did not match, the callback timed
// out or the code exchange was rejected. It maps to ExitCodeAuthFailed.
type AuthFailedError struct {
	Reason string
	Err    error
}

func (e *AuthFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthFailedError) Unwrap() error {
	return e.Err
}

// openStore loads the configuration and opens the credential store.
// Commands that only inspect stored tokens call this without validating
// the LinkedIn application credentials, so status and token maintenance
// work in environments that never run the OAuth flow.
func openStore(ctx context.Context, configFile string) (config.Config, *store.Store, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to open token store: %w", err)
	}

	return cfg, st, nil
}

// resolveUser maps the --user flag to the stored user identity.
func resolveUser() string {
	if authUser != "" {
		return authUser
	}
	return linkedin.DefaultUserID
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiry formats a credential expiry as "in X" or "expired X ago".
// LinkedIn may omit expires_in, stored as a NULL expiry that never lapses.
func formatExpiry(expiresAt *time.Time) string {
	if expiresAt == nil {
		return "never (no expiry reported)"
	}
	remaining := time.Until(*expiresAt)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	expiredAgo := -remaining
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(expiredAgo))
}
