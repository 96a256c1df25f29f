// Copyright (C) 2025 sgpt-tools contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling and input readers for the
// sgpt-setup CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// sgpt-setup color palette - magenta accents to match shell-gpt's
// default theme, gold for warnings, red for errors.
var (
	ColorMagenta     = lipgloss.Color("#D33682") // Primary brand color
	ColorMagentaSoft = lipgloss.Color("#B0568C") // Secondary elements
	ColorViolet      = lipgloss.Color("#6C71C4") // Interactive highlights
	ColorSlate       = lipgloss.Color("#586E75") // Muted text, borders

	ColorSuccess = lipgloss.Color("#2AA198")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorMagenta),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorMagentaSoft),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorViolet).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMagentaSoft).
		Padding(0, 1),
}

// Icon provides themed status icons.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
	IconStar    Icon = "★"
)

// Render returns the icon with appropriate styling.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	case IconStar:
		return Styles.Highlight.Render(string(i))
	default:
		return string(i)
	}
}

// Title prints a styled title.
func Title(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark.
func Success(text string) {
	fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Successf prints a formatted success message.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func Warning(text string) {
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Warningf prints a formatted warning message.
func Warningf(format string, args ...any) {
	Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func Error(text string) {
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Errorf prints a formatted error message.
func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func Info(text string) {
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Infof prints a formatted informational message.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Muted prints muted/secondary text.
func Muted(text string) {
	fmt.Println(Styles.Muted.Render(text))
}

// Mutedf prints formatted muted/secondary text.
func Mutedf(format string, args ...any) {
	Muted(fmt.Sprintf(format, args...))
}

// Box prints content in a rounded box with a title line.
func Box(title, content string) {
	boxStyle := Styles.Box.Width(60)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// Divider prints a muted horizontal rule.
func Divider() {
	fmt.Println(Styles.Muted.Render("──────────────────────────────"))
}

// Stderr prints a plain line to stderr, for diagnostics that should not
// pollute stdout.
func Stderr(text string) {
	fmt.Fprintln(os.Stderr, text)
}
