// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// ErrCancelled is returned when the user aborts a prompt with Ctrl+C or
// Escape.
var ErrCancelled = errors.New("input cancelled")

// =============================================================================
// Line Reader
// =============================================================================

// LineReader reads whitespace-trimmed lines from stdin through a
// single owning goroutine. Reads are issued on demand: nothing is
// consumed from stdin until a caller asks for a line, so the masked
// secret prompt can take over the descriptor between line reads
// without racing a parked read.
//
// SIGINT while a read is pending surfaces as ErrCancelled instead of
// killing the process, so callers can unwind to a stable state.
type LineReader struct {
	requests   chan struct{}
	lines      chan string
	errs       chan error
	interrupts chan os.Signal
}

// NewLineReader creates the reader over os.Stdin. Construct it once and
// reuse it; a second LineReader would compete for the same descriptor.
func NewLineReader() *LineReader {
	r := &LineReader{
		requests:   make(chan struct{}),
		lines:      make(chan string, 1),
		errs:       make(chan error, 1),
		interrupts: make(chan os.Signal, 1),
	}
	signal.Notify(r.interrupts, os.Interrupt)

	go func() {
		reader := bufio.NewReader(os.Stdin)
		for range r.requests {
			line, err := reader.ReadString('\n')
			if err != nil {
				r.errs <- err
				return
			}
			r.lines <- strings.TrimSpace(line)
		}
	}()
	return r
}

// ReadLine blocks until a full line is available and returns it with
// surrounding whitespace trimmed. Returns io.EOF when stdin closes and
// ErrCancelled on SIGINT. A read abandoned by an interrupt stays
// outstanding; its line, if any, satisfies the next caller.
func (r *LineReader) ReadLine() (string, error) {
	// Skip the request when an abandoned read is still outstanding.
	select {
	case r.requests <- struct{}{}:
	default:
	}

	select {
	case line := <-r.lines:
		return line, nil
	case err := <-r.errs:
		r.errs <- err
		return "", err
	case <-r.interrupts:
		fmt.Println()
		return "", ErrCancelled
	}
}

// Prompt prints a label and reads one line.
func (r *LineReader) Prompt(label string) (string, error) {
	fmt.Print(label)
	return r.ReadLine()
}

// =============================================================================
// Masked Secret Input
// =============================================================================

// secretModel is the bubbletea model behind ReadSecret: a single
// password-mode text input that quits on Enter or cancel keys.
type secretModel struct {
	input     textinput.Model
	cancelled bool
}

func newSecretModel(prompt string) secretModel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Focus()
	return secretModel{input: ti}
}

func (m secretModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m secretModel) View() string {
	return m.input.View()
}

// ReadSecret prompts for a secret, echoing an asterisk per typed
// character. Ctrl+C and Escape return ErrCancelled.
//
// In non-TTY environments (piped input, CI) it degrades to a plain
// line read on the shared reader so scripted use keeps working and no
// second stdin consumer is created.
func (r *LineReader) ReadSecret(prompt string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		fmt.Print(prompt)
		return r.ReadLine()
	}

	p := tea.NewProgram(newSecretModel(prompt))
	final, err := p.Run()
	if err != nil {
		return "", err
	}

	m, ok := final.(secretModel)
	if !ok || m.cancelled {
		return "", ErrCancelled
	}
	return strings.TrimSpace(m.input.Value()), nil
}
