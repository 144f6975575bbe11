package main

import (
	"fmt"
	"strings"

	"crateapi/internal/recommend"
	"crateapi/internal/review"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorBorder = lipgloss.Color("#30363d")
	colorMuted  = lipgloss.Color("#8b949e")
	colorAccent = lipgloss.Color("#58a6ff")
	colorWarn   = lipgloss.Color("#d29922")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	titleStyle   = lipgloss.NewStyle().Bold(true)
	creatorStyle = lipgloss.NewStyle().Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	badgeStyle   = lipgloss.NewStyle().
			Foreground(colorMuted).
			Border(lipgloss.NormalBorder(), false, true).
			BorderForeground(colorBorder).
			Padding(0, 1)
	warnStyle = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)
)

// renderCard formats a served recommendation for the terminal.
func renderCard(res recommend.Result) string {
	c := res.Candidate
	lines := []string{
		titleStyle.Render(c.Title),
		creatorStyle.Render(c.PrimaryCreator),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top,
			badgeStyle.Render(string(c.Kind)),
			badgeStyle.Render(string(res.Mode)),
			badgeStyle.Render(fmt.Sprintf("%d attempt(s)", res.Attempts)),
		),
	}
	if len(c.Genres) > 0 {
		lines = append(lines, mutedStyle.Render(strings.Join(c.Genres, " · ")))
	}
	if c.Popularity != nil {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("popularity %d/100", *c.Popularity)))
	}
	lines = append(lines, "", c.PlayableURL)
	if c.ReviewURL != "" {
		lines = append(lines, mutedStyle.Render("reviewed by "+c.Reviewer+": "+c.ReviewURL))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// renderAudit summarizes an audit run.
func renderAudit(run *review.AuditRun) string {
	status := titleStyle.Render(run.Status)
	if run.Status != review.RunStatusCompleted {
		status = warnStyle.Render(run.Status)
	}
	lines := []string{
		status + mutedStyle.Render("  run "+run.ID),
		fmt.Sprintf("checked       %d", run.RowsChecked),
		fmt.Sprintf("resolvable    %d", run.RowsResolvable),
		fmt.Sprintf("unresolvable  %d", run.RowsUnresolvable),
		fmt.Sprintf("errored       %d", run.RowsErrored),
	}
	if run.Error != "" {
		lines = append(lines, warnStyle.Render(run.Error))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}
