// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sgpt-tools/sgpt-setup/pkg/ux"
)

func main() {
	// SIGINT is consumed by the active prompt and unwinds to the menu
	// (or ends the session when the menu itself is interrupted), so
	// only SIGTERM terminates directly.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM)
	go func() {
		<-sigs
		ux.Stderr("")
		ux.Muted("Session interrupted, goodbye!")
		os.Exit(0)
	}()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
