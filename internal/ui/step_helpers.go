package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// helpersState is the cursor and category filter of the helpers step.
// An empty filter shows every helper.
type helpersState struct {
	cursor int
	filter string
}

func (m Model) handleHelpersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.wiz.HelpersByCategory(m.helpers.filter)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.helpers.cursor > 0 {
			m.helpers.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.helpers.cursor < len(visible)-1 {
			m.helpers.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.helpers.cursor < len(visible) {
			m.wiz.ToggleHelper(visible[m.helpers.cursor].ID)
		}
	case key.Matches(msg, m.keys.CycleFilter):
		m.helpers.filter = nextFilter(m.wiz.HelperCategories(), m.helpers.filter)
		m.helpers.cursor = 0
	}
	return m, nil
}

// nextFilter cycles "" → first category → … → last category → "".
func nextFilter(categories []string, current string) string {
	if current == "" {
		if len(categories) == 0 {
			return ""
		}
		return categories[0]
	}
	for i, c := range categories {
		if c == current && i+1 < len(categories) {
			return categories[i+1]
		}
	}
	return ""
}

func (m Model) renderHelpers() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(" Helpers"))
	b.WriteString("  ")
	filter := m.helpers.filter
	if filter == "" {
		filter = "All"
	}
	b.WriteString(styles.FaintText.Render("category: " + filter))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(" " + pluralize(m.wiz.EnabledHelpers(), "helper", "helpers") + " enabled"))
	b.WriteString("\n\n")

	visible := m.wiz.HelpersByCategory(m.helpers.filter)
	if len(visible) == 0 {
		b.WriteString(styles.FaintText.Render(" No helpers in this category"))
		return b.String()
	}
	for i, h := range visible {
		line := checkbox(h.Enabled) + " " + padRight(h.Name, 26) + padRight(h.Category, 12)
		if i == m.helpers.cursor {
			b.WriteString(styles.Selected.Render("› " + line))
		} else {
			b.WriteString(styles.Text.Render("  " + line))
		}
		b.WriteString("\n")
		if i == m.helpers.cursor {
			b.WriteString(styles.FaintText.Render("    " + h.Description))
			b.WriteString("\n")
		}
	}
	return b.String()
}
