// Package main implements the taskctl CLI, a terminal client for the
// taskdeck API.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "taskctl",
	Short:         "Manage your taskdeck tasks and profile",
	SilenceUsage: true,
}

var (
	apiURL      string
	sessionPath string
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("TASKDECK_API", "http://localhost:8080"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session-file", "", "Session file (default $XDG_CONFIG_HOME/taskdeck/session.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of tables")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// resolveSessionPath returns the session file location.
func resolveSessionPath() (string, error) {
	if sessionPath != "" {
		return sessionPath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "taskdeck", "session.toml"), nil
}

// newClient builds a client from the stored session. Session changes made
// by the client, such as token refreshes, are written back to disk.
func newClient() (*client.Client, error) {
	path, err := resolveSessionPath()
	if err != nil {
		return nil, err
	}
	stored, err := loadSession(path)
	if err != nil {
		return nil, err
	}

	c := client.New(apiURL)
	if stored != nil && stored.API == apiURL {
		c.SetSession(stored.toSession())
	}

	c.OnAuthChange(func(event model.AuthEvent, s *model.Session) {
		var err error
		if event == model.AuthEventSignedOut || s == nil {
			err = removeSession(path)
		} else {
			err = saveSession(path, newSessionFile(apiURL, s))
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	})
	return c, nil
}

// requireSession returns a client that holds a session.
func requireSession() (*client.Client, error) {
	c, err := newClient()
	if err != nil {
		return nil, err
	}
	if c.Session() == nil {
		return nil, fmt.Errorf("not logged in; run `taskctl login`")
	}
	return c, nil
}
