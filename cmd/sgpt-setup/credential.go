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
	"strings"

	"github.com/sgpt-tools/sgpt-setup/pkg/ux"
)

// minKeyLength rejects obvious typos before spending an API call.
const minKeyLength = 10

// errNoCredential is returned when no valid key could be obtained and
// interactive entry was abandoned. The process exits with status 1.
var errNoCredential = errors.New("no valid API key available")

// maskKey renders a credential safe for display. Short keys show only
// the first characters; longer keys keep the head and tail so the user
// can recognize which key is loaded.
func maskKey(key string) string {
	if len(key) <= 9 {
		n := len(key)
		if n > 3 {
			n = 3
		}
		return key[:n] + "***"
	}
	return key[:5] + "***" + key[len(key)-4:]
}

// AcquireCredential resolves the session API key. Priority order is
// the --key flag, then the existing config file, then interactive
// entry. A found key is validated before use; an invalid one falls
// through to the prompt rather than failing outright.
func (s *Session) AcquireCredential(ctx context.Context, flagKey string) error {
	key := strings.TrimSpace(flagKey)
	if key == "" {
		if stored, ok := s.deps.Store.ReadAPIKey(); ok {
			key = stored
		}
	}

	if key != "" {
		ux.Infof("Found API key: %s", maskKey(key))
		ux.Info("Validating...")
		ok, failure := s.deps.Client.Validate(ctx, key)
		if ok {
			ux.Success("API connection OK")
			s.apiKey = key
			return nil
		}
		ux.Stderr(failure.Diagnostic())
	}

	ux.Error("A valid API key is needed")
	printKeyHelp()

	key, err := s.promptForKey(ctx, false)
	if err != nil {
		return errNoCredential
	}
	s.apiKey = key
	return nil
}

func printKeyHelp() {
	ux.Muted("How to get an API key:")
	ux.Muted(ux.IconBullet.Render() + " Sign up at https://cloud.siliconflow.cn")
	ux.Muted(ux.IconBullet.Render() + " Create a key under API Keys and paste it here")
}

// promptForKey reads masked input until a key validates. With
// allowCancel the literal word "cancel" (or a cancelled prompt) aborts
// and returns ux.ErrCancelled; without it, only a failed read aborts.
func (s *Session) promptForKey(ctx context.Context, allowCancel bool) (string, error) {
	ux.Title("Set API key")
	ux.Muted("Input is masked with asterisks")
	if allowCancel {
		ux.Muted("Type 'cancel' to abort")
	}

	for {
		raw, err := s.deps.Secret("Enter your API key: ")
		if err != nil {
			if allowCancel {
				return "", ux.ErrCancelled
			}
			return "", err
		}
		key := strings.TrimSpace(raw)

		if allowCancel && strings.EqualFold(key, "cancel") {
			return "", ux.ErrCancelled
		}
		if len(key) < minKeyLength {
			ux.Errorf("API key looks too short (at least %d characters), try again", minKeyLength)
			continue
		}

		ux.Successf("Key received: %s", maskKey(key))
		ux.Info("Validating API key...")
		ok, failure := s.deps.Client.Validate(ctx, key)
		if !ok {
			ux.Stderr(failure.Diagnostic())
			continue
		}
		ux.Success("API key verified")
		return key, nil
	}
}
