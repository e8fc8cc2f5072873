package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/taskdeck/taskdeck/internal/model"
)

// sessionFile is the on-disk form of a signed-in session.
type sessionFile struct {
	API          string    `toml:"api"`
	UserID       string    `toml:"user_id"`
	Email        string    `toml:"email"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	ExpiresAt    time.Time `toml:"expires_at"`
}

func newSessionFile(api string, s *model.Session) sessionFile {
	return sessionFile{
		API:          api,
		UserID:       s.User.UserID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt.UTC(),
	}
}

func (f sessionFile) toSession() *model.Session {
	return &model.Session{
		AccessToken:  f.AccessToken,
		RefreshToken: f.RefreshToken,
		ExpiresAt:    f.ExpiresAt,
		User:         model.Identity{UserID: f.UserID, Email: f.Email},
	}
}

// loadSession reads the session file. A missing file yields nil.
func loadSession(path string) (*sessionFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file %s: %w", path, err)
	}

	var f sessionFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", path, err)
	}
	if f.RefreshToken == "" {
		return nil, nil
	}
	return &f, nil
}

// saveSession writes the file with owner-only permissions.
func saveSession(path string, f sessionFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.toml")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		tmp.Close()
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
