package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/SEMOSS/procode-training/internal/appctx"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	labelStyle     = lipgloss.NewStyle().Bold(true)
	codeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("150"))
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

var severityStyles = map[appctx.Severity]lipgloss.Style{
	appctx.SeveritySuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	appctx.SeverityInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	appctx.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	appctx.SeverityError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

func renderMessage(m appctx.Message) string {
	if m.Text == "" {
		return ""
	}
	style, ok := severityStyles[m.Severity]
	if !ok {
		style = mutedStyle
	}
	return style.Render(m.Text)
}
