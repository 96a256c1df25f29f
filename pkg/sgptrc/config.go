// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sgptrc reads and writes the persisted shell-gpt configuration
// file (~/.config/shell_gpt/.sgptrc).
//
// The file is a flat list of KEY=value lines with no quoting or
// escaping. It is created whole on install; the only later mutation is
// swapping the DEFAULT_MODEL line, which must leave every other line
// byte-for-byte intact.
package sgptrc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfigMissing is returned when an operation needs a persisted
// config that has not been created yet.
var ErrConfigMissing = errors.New("config file does not exist, run the full install first")

// APIBaseURL is recorded in the config so shell-gpt talks to the same
// endpoint this tool validated against.
const APIBaseURL = "https://api.siliconflow.cn"

// Summary is the subset of config fields surfaced to the user.
type Summary struct {
	DefaultModel string
	APIKey       string
	APIBaseURL   string
}

// Store resolves and accesses the per-user config location.
//
// The zero value is not usable; construct with NewStore (real home
// directory) or NewStoreAt (tests).
type Store struct {
	homeDir string
}

// NewStore creates a store rooted at the current user's home directory.
func NewStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return &Store{homeDir: home}, nil
}

// NewStoreAt creates a store rooted at an explicit directory. Tests use
// this with t.TempDir().
func NewStoreAt(homeDir string) *Store {
	return &Store{homeDir: homeDir}
}

// Dir returns the config directory path.
func (s *Store) Dir() string {
	return filepath.Join(s.homeDir, ".config", "shell_gpt")
}

// Path returns the config file path.
func (s *Store) Path() string {
	return filepath.Join(s.Dir(), ".sgptrc")
}

// Exists reports whether the config file has been created.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Path())
	return err == nil && !info.IsDir()
}

// Username resolves the login name the way pip-era shell tooling does:
// LOGNAME, then USER, then a fixed default.
func Username() string {
	if name := os.Getenv("LOGNAME"); name != "" {
		return name
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "default_user"
}

// Render produces the full config file content for a fresh install.
// Derived paths are recomputed from the current user identity on every
// install, overwriting whatever was there before.
func (s *Store) Render(apiKey, defaultModel string) string {
	username := Username()
	lines := []string{
		"CHAT_CACHE_PATH=/tmp/chat_cache_" + username,
		"CACHE_PATH=/tmp/cache_" + username,
		"CHAT_CACHE_LENGTH=100",
		"CACHE_LENGTH=100",
		"REQUEST_TIMEOUT=60",
		"DEFAULT_MODEL=" + defaultModel,
		"DEFAULT_COLOR=magenta",
		"ROLE_STORAGE_PATH=" + filepath.Join(s.homeDir, ".config", "shell_gpt", "roles"),
		"DEFAULT_EXECUTE_SHELL_CMD=false",
		"DISABLE_STREAMING=false",
		"CODE_THEME=dracula",
		"OPENAI_FUNCTIONS_PATH=" + filepath.Join(s.homeDir, ".config", "shell_gpt", "functions"),
		"OPENAI_USE_FUNCTIONS=true",
		"SHOW_FUNCTIONS_OUTPUT=false",
		"API_BASE_URL=" + APIBaseURL,
		"PRETTIFY_MARKDOWN=true",
		"USE_LITELLM=false",
		"OPENAI_API_KEY=" + apiKey,
		"SHELL_INTERACTION=true",
		"OS_NAME=auto",
		"SHELL_NAME=auto",
	}
	return strings.Join(lines, "\n") + "\n"
}

// Write creates (or overwrites) the config file for a fresh install.
func (s *Store) Write(apiKey, defaultModel string) error {
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", s.Dir(), err)
	}
	if err := os.WriteFile(s.Path(), []byte(s.Render(apiKey, defaultModel)), 0o600); err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// CacheDirs returns the cache directories the config points at.
func (s *Store) CacheDirs() []string {
	username := Username()
	return []string{
		"/tmp/chat_cache_" + username,
		"/tmp/cache_" + username,
	}
}

// EnsureCacheDirs creates the cache directories best-effort. Failures
// are returned for warning display, not treated as install failures;
// shell-gpt recreates them at runtime anyway.
func (s *Store) EnsureCacheDirs() []error {
	var warnings []error
	for _, dir := range s.CacheDirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			warnings = append(warnings, fmt.Errorf("cannot create cache directory %s: %w", dir, err))
		}
	}
	return warnings
}

// RewriteDefaultModel replaces only the DEFAULT_MODEL line, keeping
// every other line exactly as found, in original order.
func (s *Store) RewriteDefaultModel(model string) error {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigMissing
		}
		return fmt.Errorf("cannot read config file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	found := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "DEFAULT_MODEL=") {
			lines[i] = "DEFAULT_MODEL=" + model
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config file has no DEFAULT_MODEL line: %s", s.Path())
	}

	if err := os.WriteFile(s.Path(), []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		return fmt.Errorf("cannot update config file: %w", err)
	}
	return nil
}

// ReadAPIKey returns the persisted credential, if any. A missing file
// or missing key both report false; callers fall through to the next
// acquisition source.
func (s *Store) ReadAPIKey() (string, bool) {
	summary, err := s.Read()
	if err != nil || summary.APIKey == "" {
		return "", false
	}
	return summary.APIKey, true
}

// Read parses the config file and returns the user-facing fields.
func (s *Store) Read() (*Summary, error) {
	if !s.Exists() {
		return nil, ErrConfigMissing
	}

	v := viper.New()
	v.SetConfigFile(s.Path())
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	return &Summary{
		DefaultModel: v.GetString("DEFAULT_MODEL"),
		APIKey:       v.GetString("OPENAI_API_KEY"),
		APIBaseURL:   v.GetString("API_BASE_URL"),
	}, nil
}
