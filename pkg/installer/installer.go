// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package installer runs pip against a chosen mirror to install
// packages. All exec.Command calls go through the ProcessRunner
// interface to enable mocking in unit tests.
package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sgpt-tools/sgpt-setup/pkg/mirror"
)

// Package is the distribution this tool exists to install.
const Package = "shell-gpt"

// ProcessRunner abstracts external process execution.
type ProcessRunner interface {
	// Run executes a command and returns captured stdout, stderr, and
	// the error from exec (non-nil on non-zero exit).
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// DefaultRunner executes commands with os/exec.
type DefaultRunner struct{}

func NewDefaultRunner() *DefaultRunner {
	return &DefaultRunner{}
}

func (r *DefaultRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// MockRunner is a configurable ProcessRunner for testing.
type MockRunner struct {
	RunFunc func(ctx context.Context, name string, args ...string) (string, string, error)
	Calls   [][]string
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	m.Calls = append(m.Calls, append([]string{name}, args...))
	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return "", "", nil
}

// Installer installs pip packages from a selected mirror.
type Installer struct {
	runner ProcessRunner
	python string
}

// New creates an installer that shells out to python3's pip module.
func New(runner ProcessRunner) *Installer {
	return &Installer{runner: runner, python: "python3"}
}

// Install runs pip install for pkg against the given mirror. The
// mirror's host is passed via --trusted-host so http-only campus
// mirrors work too. On failure the returned error carries pip's stderr
// as diagnostic text.
func (i *Installer) Install(ctx context.Context, m mirror.Candidate, pkg string) error {
	args := []string{
		"-m", "pip", "install",
		"-i", m.URL,
		"--trusted-host", mirror.TrustedHost(m.URL),
		pkg,
	}

	_, stderr, err := i.runner.Run(ctx, i.python, args...)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			return fmt.Errorf("pip install %s failed: %w", pkg, err)
		}
		return fmt.Errorf("pip install %s failed: %w\n%s", pkg, err, msg)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ ProcessRunner = (*DefaultRunner)(nil)
	_ ProcessRunner = (*MockRunner)(nil)
)
