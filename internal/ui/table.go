package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Row is one object in a status table
type Row struct {
	ID     uint16
	Name   string
	State  string
	Level  Level
	Detail string
}

// Table renders rows as aligned columns: id, name, state and detail
type Table struct {
	Title string
	Rows  []Row
}

// Render returns the styled table
func (t *Table) Render() string {
	nameWidth, stateWidth := len("NAME"), len("STATE")
	for _, r := range t.Rows {
		nameWidth = max(nameWidth, lipgloss.Width(r.Name))
		stateWidth = max(stateWidth, lipgloss.Width(r.State))
	}

	idCol := lipgloss.NewStyle().Width(6)
	nameCol := lipgloss.NewStyle().Width(nameWidth + 2)
	stateCol := lipgloss.NewStyle().Width(stateWidth + 2)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(HeaderTitleStyle.UnsetPaddingLeft().Render(strings.ToUpper(t.Title)))
		b.WriteString("\n")
	}
	b.WriteString(TableHeadStyle.Render(idCol.Render("ID") + nameCol.Render("NAME") + stateCol.Render("STATE") + "DETAIL"))
	b.WriteString("\n")

	for _, r := range t.Rows {
		b.WriteString(idCol.Render(strconv.Itoa(int(r.ID))))
		b.WriteString(nameCol.Render(r.Name))
		b.WriteString(stateCol.Inherit(StateStyle(r.Level)).Render(r.State))
		b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(r.Detail))
		b.WriteString("\n")
	}
	if len(t.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render("(none)"))
		b.WriteString("\n")
	}
	return b.String()
}
