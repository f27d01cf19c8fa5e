package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	styleSaved   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	styleFailed  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

// stdoutIsTTY gates styling and progress rendering; piped output stays
// plain.
func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func styled(style lipgloss.Style, s string, tty bool) string {
	if !tty {
		return s
	}
	return style.Render(s)
}
