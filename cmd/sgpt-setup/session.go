// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sgpt-tools/sgpt-setup/pkg/capability"
	"github.com/sgpt-tools/sgpt-setup/pkg/installer"
	"github.com/sgpt-tools/sgpt-setup/pkg/logging"
	"github.com/sgpt-tools/sgpt-setup/pkg/mirror"
	"github.com/sgpt-tools/sgpt-setup/pkg/sgptrc"
	"github.com/sgpt-tools/sgpt-setup/pkg/ux"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State identifies what the session is currently doing. Transitions
// always return to StateMainMenu except StateExiting, which is
// terminal.
type State int

const (
	StateMainMenu State = iota
	StateInstalling
	StateSwitchingModel
	StateSettingKey
	StateShowingConfig
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main_menu"
	case StateInstalling:
		return "installing"
	case StateSwitchingModel:
		return "switching_model"
	case StateSettingKey:
		return "setting_key"
	case StateShowingConfig:
		return "showing_config"
	case StateExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// =============================================================================
// DEPENDENCIES
// =============================================================================

// CatalogClient validates credentials and lists models.
type CatalogClient interface {
	Validate(ctx context.Context, apiKey string) (bool, *capability.Failure)
	FetchCatalog(ctx context.Context, apiKey string) ([]string, *capability.Failure)
}

// PackageInstaller installs a pip package via a chosen mirror.
type PackageInstaller interface {
	Install(ctx context.Context, m mirror.Candidate, pkg string) error
}

// Prompter reads one line of visible input.
type Prompter interface {
	Prompt(label string) (string, error)
}

// SecretFunc reads one line of masked input.
type SecretFunc func(prompt string) (string, error)

// Deps bundles everything a Session needs. All fields are required.
type Deps struct {
	Client    CatalogClient
	Selector  *mirror.Selector
	Installer PackageInstaller
	Store     *sgptrc.Store
	Input     Prompter
	Secret    SecretFunc
	Logger    *logging.Logger
}

var _ CatalogClient = (*capability.Client)(nil)
var _ PackageInstaller = (*installer.Installer)(nil)
var _ Prompter = (*ux.LineReader)(nil)

// Session drives the setup workflow. The credential held in apiKey is
// the single source of truth for every operation; it is only replaced
// after a successful validation.
type Session struct {
	deps   Deps
	state  State
	apiKey string
}

func NewSession(deps Deps) *Session {
	return &Session{deps: deps, state: StateMainMenu}
}

func (s *Session) transition(next State) {
	s.deps.Logger.Debug("session transition", "from", s.state.String(), "to", next.String())
	s.state = next
}

// =============================================================================
// MENU LOOP
// =============================================================================

// Run is the interactive menu loop. Operation failures are reported and
// return to the menu; only option 0 (or closed stdin) ends the loop.
func (s *Session) Run(ctx context.Context) error {
	for {
		s.transition(StateMainMenu)
		printMenu()

		choice, err := s.deps.Input.Prompt("Enter an option (0-4): ")
		if err != nil {
			// Closed stdin counts as a normal exit.
			s.transition(StateExiting)
			fmt.Println()
			ux.Info("Goodbye!")
			return nil
		}

		switch strings.TrimSpace(choice) {
		case "0":
			s.transition(StateExiting)
			ux.Info("Goodbye!")
			return nil
		case "1":
			s.transition(StateInstalling)
			if err := s.install(ctx); err != nil {
				ux.Errorf("Install failed: %v", err)
			}
		case "2":
			s.transition(StateSwitchingModel)
			s.switchModel(ctx)
		case "3":
			s.transition(StateSettingKey)
			s.resetKey(ctx)
		case "4":
			s.transition(StateShowingConfig)
			s.showConfig()
		default:
			ux.Error("Invalid choice, enter a number between 0 and 4")
		}
	}
}

// RunAuto performs a single install and exits. Unlike the menu loop, a
// failed install here is fatal.
func (s *Session) RunAuto(ctx context.Context) error {
	s.transition(StateInstalling)
	if err := s.install(ctx); err != nil {
		ux.Errorf("Install failed: %v", err)
		return err
	}
	s.transition(StateExiting)
	return nil
}

func printMenu() {
	fmt.Println()
	ux.Title("Choose an operation")
	fmt.Println("  1. Install and configure Shell-GPT")
	fmt.Println("  2. Select / switch model")
	fmt.Println("  3. Reset API key")
	fmt.Println("  4. Show current configuration")
	fmt.Println("  0. Exit")
	ux.Divider()
}

// =============================================================================
// INSTALL
// =============================================================================

// install runs the full pipeline: catalog fetch, mirror selection, pip
// install, config write. The config file is only written after a
// successful install, so a pip failure leaves any previous
// configuration untouched.
func (s *Session) install(ctx context.Context) error {
	ux.Title("Installing Shell-GPT")

	// Step 1: model catalog. A failed or empty fetch degrades to the
	// hardcoded default rather than aborting.
	ux.Info("Fetching available models...")
	defaultModel := capability.FallbackModel
	catalog, failure := s.deps.Client.FetchCatalog(ctx, s.apiKey)
	if failure != nil {
		ux.Stderr(failure.Diagnostic())
		ux.Warning("Could not fetch the model catalog, using the default configuration")
	} else {
		curated := capability.Curate(catalog)
		if len(curated) == 0 {
			ux.Warning("No supported models in the catalog, using the default configuration")
		} else {
			defaultModel = capability.SelectDefault(curated)
			ux.Successf("Found %d usable models", len(curated))
		}
	}

	// Step 2: fastest mirror. Selection is cached for the process, so
	// reinstalling from the menu skips the probes.
	chosen := s.selectMirror(ctx)

	// Step 3: pip install through the chosen mirror.
	spinner := ux.NewSpinner(fmt.Sprintf("Installing %s via %s...", installer.Package, chosen.Name))
	spinner.Start()
	err := s.deps.Installer.Install(ctx, chosen, installer.Package)
	if err != nil {
		spinner.Stop()
		s.deps.Logger.Error("pip install failed", "mirror", chosen.Name, "error", err)
		return err
	}

	// Step 4: write the config file.
	spinner.UpdateMessage("Writing configuration...")
	writeErr := s.deps.Store.Write(s.apiKey, defaultModel)
	spinner.Stop()
	ux.Successf("%s installed successfully", installer.Package)
	if writeErr != nil {
		return writeErr
	}
	ux.Successf("Configuration written: %s", s.deps.Store.Path())
	ux.Infof("Default model: %s", defaultModel)
	ux.Infof("Username: %s", sgptrc.Username())

	for _, warn := range s.deps.Store.EnsureCacheDirs() {
		ux.Warningf("%v", warn)
	}

	printQuickStart()
	return nil
}

// selectMirror reports probe progress line by line and the ranked
// summary once all probes finish.
func (s *Session) selectMirror(ctx context.Context) mirror.Candidate {
	if cached, ok := s.deps.Selector.Selected(); ok {
		ux.Infof("Reusing fastest mirror: %s", cached.Name)
		return cached
	}

	ux.Info("Probing pip mirrors...")
	return s.deps.Selector.Select(ctx,
		func(r mirror.ProbeResult) {
			s.deps.Logger.Debug("mirror probe finished",
				"probe_id", r.ID, "mirror", r.Name,
				"latency_ms", r.Latency.Milliseconds(), "unreachable", r.Unreachable)
			if r.Unreachable {
				fmt.Printf("  %-20s unreachable\n", r.Name)
				return
			}
			fmt.Printf("  %-20s %dms\n", r.Name, r.Latency.Milliseconds())
		},
		func(ranked []mirror.ProbeResult) {
			fmt.Println("\nMirror speed ranking:")
			for _, line := range formatMirrorRanking(ranked) {
				fmt.Println("  " + line)
			}
			if len(ranked) > 0 && !ranked[0].Unreachable {
				s.deps.Logger.Debug("mirror selected",
					"mirror", ranked[0].Name, "probe_id", ranked[0].ID,
					"latency_ms", ranked[0].Latency.Milliseconds())
				ux.Successf("Fastest mirror: %s", ranked[0].Name)
				return
			}
			ux.Warningf("All mirrors unreachable, falling back to %s", mirror.Fallback.Name)
		})
}

// formatMirrorRanking renders the post-probe speed table, fastest
// first, one line per candidate.
func formatMirrorRanking(ranked []mirror.ProbeResult) []string {
	lines := make([]string, 0, len(ranked))
	for i, r := range ranked {
		if r.Unreachable {
			lines = append(lines, fmt.Sprintf("%2d. %-20s unreachable", i+1, r.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%2d. %-20s %dms", i+1, r.Name, r.Latency.Milliseconds()))
	}
	return lines
}

var quickStartExamples = []string{
	"sgpt --code 'solve fizz buzz problem using python'",
	"sgpt --shell 'create ten files whose names start with file'",
	"sgpt --shell 'count the gene rows in the third column of annotations.gff3.gz'",
	"sgpt --shell 'run fastqc from the conda rna env on reads.1.fq.gz and reads.2.fq.gz'",
	"sgpt --shell 'merge the fastqc reports in Data with multiqc'",
}

func printQuickStart() {
	fmt.Println()
	ux.Success("Setup complete!")
	lines := make([]string, len(quickStartExamples))
	for i, example := range quickStartExamples {
		lines[i] = ux.IconArrow.Render() + " " + example
	}
	ux.Box("Try these", strings.Join(lines, "\n"))
}

// =============================================================================
// SWITCH MODEL
// =============================================================================

// cancelToken reports whether the input asks to return to the menu.
func cancelToken(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "0", "back", "cancel":
		return true
	}
	return false
}

// switchModel lists the curated catalog and rewrites DEFAULT_MODEL in
// place. Requires an existing config file; unlike install, an empty
// catalog aborts instead of degrading.
func (s *Session) switchModel(ctx context.Context) {
	ux.Title("Select / switch model")

	ux.Info("Fetching available models...")
	catalog, failure := s.deps.Client.FetchCatalog(ctx, s.apiKey)
	if failure != nil {
		ux.Stderr(failure.Diagnostic())
		ux.Error("Could not fetch the model catalog")
		return
	}
	models := capability.Curate(catalog)
	if len(models) == 0 {
		ux.Error("No supported models found")
		return
	}

	fmt.Printf("\nAvailable models (%d):\n", len(models))
	for i, m := range models {
		fmt.Printf("%2d. %s\n", i+1, m)
	}
	if rec := capability.Recommended(models); len(rec) > 0 {
		fmt.Println("\nRecommended:")
		for _, m := range rec {
			fmt.Printf("  %s %s\n", ux.IconStar.Render(), m)
		}
	}

	selected := ""
	for selected == "" {
		choice, err := s.deps.Input.Prompt(fmt.Sprintf(
			"Enter a model number (1-%d) or a model name (0/back/cancel to return): ", len(models)))
		if err != nil || cancelToken(choice) {
			ux.Info("Returning to the main menu")
			return
		}
		choice = strings.TrimSpace(choice)

		if idx, numErr := strconv.Atoi(choice); numErr == nil {
			if idx >= 1 && idx <= len(models) {
				selected = models[idx-1]
			} else {
				ux.Error("Number out of range, try again")
			}
			continue
		}
		for _, m := range models {
			if m == choice {
				selected = m
				break
			}
		}
		if selected == "" {
			ux.Error("No such model, try again")
		}
	}

	if err := s.deps.Store.RewriteDefaultModel(selected); err != nil {
		if errors.Is(err, sgptrc.ErrConfigMissing) {
			ux.Error("Config file does not exist, run the full install first")
			return
		}
		ux.Errorf("Could not update the config file: %v", err)
		return
	}
	ux.Successf("Model switched to: %s", selected)
}

// =============================================================================
// RESET KEY / SHOW CONFIG
// =============================================================================

// resetKey replaces the in-memory credential after validation. A
// cancelled prompt keeps the previous key. The config file is not
// touched; the new key lands there on the next install.
func (s *Session) resetKey(ctx context.Context) {
	key, err := s.promptForKey(ctx, true)
	if err != nil {
		ux.Info("Cancelled, keeping the previous key")
		return
	}
	s.apiKey = key
	ux.Success("API key updated and verified")
}

// showConfig prints the persisted configuration, or the in-memory
// session credential when no file exists yet. The raw key is never
// shown.
func (s *Session) showConfig() {
	ux.Title("Current configuration")

	summary, err := s.deps.Store.Read()
	if err != nil {
		if !errors.Is(err, sgptrc.ErrConfigMissing) {
			ux.Errorf("Could not read the config file: %v", err)
			return
		}
		ux.Warning("Config file has not been created yet")
		if s.apiKey != "" {
			ux.Infof("Session API key: %s", maskKey(s.apiKey))
			ux.Muted("Held in memory only, not yet saved to the config file")
		}
		ux.Muted("Choose option 1 to install and save the configuration")
		return
	}

	ux.Infof("Model: %s", summary.DefaultModel)
	ux.Infof("API key: %s", maskKey(summary.APIKey))
	ux.Infof("API base URL: %s", summary.APIBaseURL)
	ux.Mutedf("Config file: %s", s.deps.Store.Path())
}
