package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/sentineltools/safecheck/pkg/verify"
)

var (
	styleClean   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleFatal   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func renderSummary(res verify.Result) string {
	line := fmt.Sprintf("%s: %s", res.Product, res.Severity)
	switch res.Severity {
	case verify.Success:
		return styleClean.Render(line)
	case verify.Warning:
		return styleWarning.Render(line)
	case verify.Fatal:
		return styleFatal.Render(line)
	default:
		return styleError.Render(line)
	}
}
