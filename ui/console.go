// Copyright IBM Corp. 2024, 2025
// SPDX-License-Identifier: MPL-2.0

// Package ui implements the user facing message sink on top of a terminal.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Console writes styled one line messages to a writer. Colors are only
// emitted when the writer is a terminal.
type Console struct {
	l   sync.Mutex
	out io.Writer

	prefix  string
	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
}

// NewConsole returns a console writing to out. A non empty prefix, usually
// the machine name, is put in front of every message.
func NewConsole(out io.Writer, prefix string) *Console {
	r := lipgloss.NewRenderer(out)

	return &Console{
		out:     out,
		prefix:  prefix,
		info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		success: r.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (c *Console) Info(msg string) {
	c.print(c.info, msg)
}

func (c *Console) Success(msg string) {
	c.print(c.success, msg)
}

func (c *Console) Warn(msg string) {
	c.print(c.warn, msg)
}

func (c *Console) print(style lipgloss.Style, msg string) {
	c.l.Lock()
	defer c.l.Unlock()

	if c.prefix != "" {
		msg = "==> " + c.prefix + ": " + msg
	}

	// The sink is fire and forget, write errors are dropped.
	_, _ = fmt.Fprintln(c.out, style.Render(msg))
}
