package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonRed     = lipgloss.Color("#FF3131")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().Foreground(neonCyan).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(neonCyan).Width(12)
	valueStyle = lipgloss.NewStyle().Foreground(neonYellow)
	okStyle    = lipgloss.NewStyle().Foreground(neonGreen).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(neonRed).Bold(true)
)

// RunSummary holds the counts printed at the end of a run
type RunSummary struct {
	UserID    string
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	Elapsed   time.Duration
}

// RenderSummary lays the summary out as a bordered panel
func RenderSummary(s RunSummary) string {
	row := func(label string, value string) string {
		return labelStyle.Render(label) + value
	}

	failed := valueStyle.Render(fmt.Sprint(s.Failed))
	if s.Failed > 0 {
		failed = failStyle.Render(fmt.Sprint(s.Failed))
	}

	lines := []string{
		titleStyle.Render("Download summary"),
		"",
		row("User", valueStyle.Render(s.UserID)),
		row("Total", valueStyle.Render(fmt.Sprint(s.Total))),
		row("Succeeded", okStyle.Render(fmt.Sprint(s.Succeeded))),
		row("Failed", failed),
	}
	if s.Skipped > 0 {
		lines = append(lines, row("Skipped", valueStyle.Render(fmt.Sprintf("%d (already on disk)", s.Skipped))))
	}
	if s.Elapsed > 0 {
		lines = append(lines, row("Elapsed", valueStyle.Render(s.Elapsed.Round(time.Second).String())))
	}
	if s.Cancelled {
		lines = append(lines, "", failStyle.Render("Interrupted before all files were downloaded"))
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

// PrintSummary writes the summary panel to Out. The plain count lines are
// always emitted so the result stays greppable when output is piped.
func PrintSummary(s RunSummary) {
	if IsQuietMode() {
		return
	}
	fmt.Fprintf(Out, "\nTotal files: %d\n", s.Total)
	fmt.Fprintf(Out, "Successfully downloaded: %d\n", s.Succeeded)
	fmt.Fprintf(Out, "Failed downloads: %d\n", s.Failed)
	if IsTerminal(Out) {
		fmt.Fprintln(Out, RenderSummary(s))
	}
}
