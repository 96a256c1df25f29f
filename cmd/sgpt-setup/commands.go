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

	"github.com/spf13/cobra"

	"github.com/sgpt-tools/sgpt-setup/pkg/capability"
	"github.com/sgpt-tools/sgpt-setup/pkg/installer"
	"github.com/sgpt-tools/sgpt-setup/pkg/logging"
	"github.com/sgpt-tools/sgpt-setup/pkg/mirror"
	"github.com/sgpt-tools/sgpt-setup/pkg/sgptrc"
	"github.com/sgpt-tools/sgpt-setup/pkg/ux"
)

const version = "1.3.0"

// --- Global Command Variables ---
var (
	flagAPIKey string
	flagAuto   bool

	rootCmd = &cobra.Command{
		Use:   "sgpt-setup",
		Short: "Install and configure the Shell-GPT command-line AI assistant",
		Long: `sgpt-setup installs Shell-GPT from the fastest reachable pip mirror,
validates your SiliconFlow API key, and writes a ready-to-use
configuration with a sensible default model.

Without flags it starts an interactive menu. With --auto it performs
a one-shot install and exits.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSetup,
	}
)

func init() {
	rootCmd.Flags().StringVarP(&flagAPIKey, "key", "k", "", "SiliconFlow API key (skips the config-file lookup)")
	rootCmd.Flags().BoolVarP(&flagAuto, "auto", "a", false, "Non-interactive mode: install once and exit")
}

// runSetup wires the session dependencies and drives either the
// one-shot auto install or the interactive menu loop.
//
// Exit status is 0 on clean completion or user-initiated exit, 1 when
// no usable credential could be obtained or an auto-mode install
// failed; cobra maps a returned error to status 1 in main.
func runSetup(cmd *cobra.Command, args []string) error {
	logger := logging.Default()
	defer logger.Close()

	store, err := sgptrc.NewStore()
	if err != nil {
		ux.Errorf("Cannot locate configuration directory: %v", err)
		return err
	}

	input := ux.NewLineReader()
	session := NewSession(Deps{
		Client:    capability.NewClient(),
		Selector:  mirror.NewSelector(mirror.NewDefaultProber()),
		Installer: installer.New(installer.NewDefaultRunner()),
		Store:     store,
		Input:     input,
		Secret:    input.ReadSecret,
		Logger:    logger,
	})

	printBanner()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := session.AcquireCredential(ctx, flagAPIKey); err != nil {
		if errors.Is(err, errNoCredential) {
			ux.Error("A valid API key is required, exiting")
		}
		return err
	}

	if flagAuto {
		return session.RunAuto(ctx)
	}
	return session.Run(ctx)
}

// printBanner shows the startup header.
func printBanner() {
	ux.Title(fmt.Sprintf("Shell-GPT setup v%s", version))
	ux.Muted("Privacy friendly · picks the fastest pip mirror automatically")
	ux.Divider()
}
