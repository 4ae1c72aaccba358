package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/avelis/cloudlab/internal/workflow"
)

var (
	statusColorGreen  = lipgloss.Color("#22c55e")
	statusColorRed    = lipgloss.Color("#ef4444")
	statusColorYellow = lipgloss.Color("#eab308")
	statusColorDim    = lipgloss.Color("#6b7280")
	statusColorWhite  = lipgloss.Color("#f9fafb")
)

var (
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(statusColorWhite)

	statusDimStyle = lipgloss.NewStyle().
			Foreground(statusColorDim)

	statusReadyStyle = lipgloss.NewStyle().
				Foreground(statusColorGreen)

	statusPendingStyle = lipgloss.NewStyle().
				Foreground(statusColorYellow)

	statusFailedStyle = lipgloss.NewStyle().
				Foreground(statusColorRed)
)

// renderStatus produces a lipgloss-styled status report string.
func renderStatus(labName, region string, rows []resourceStatus) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(statusTitleStyle.Render(fmt.Sprintf("  cloudlab status: %s", labName)))
	b.WriteString(statusDimStyle.Render(fmt.Sprintf("  (%s)", region)))
	b.WriteString("\n")
	b.WriteString(statusDimStyle.Render("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(statusDimStyle.Render("  no resources defined"))
		b.WriteString("\n")
		return b.String()
	}

	for _, row := range rows {
		b.WriteString(fmt.Sprintf("    %-8s %-24s %s", row.Kind, row.Key, styleStatus(row.Status)))
		if row.ID != "" {
			b.WriteString(statusDimStyle.Render("  " + row.ID))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	return b.String()
}

func styleStatus(status string) string {
	switch status {
	case string(workflow.StatusReady):
		return statusReadyStyle.Render(status)
	case string(workflow.StatusPending):
		return statusPendingStyle.Render(status)
	case string(workflow.StatusFailed), "conflict":
		return statusFailedStyle.Render(status)
	default:
		return statusDimStyle.Render(status)
	}
}
