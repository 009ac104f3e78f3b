package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nidia/composer/internal/wizard"
)

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Refresh) {
		return m, loadActivityCmd(m.logFile)
	}
	return m, nil
}

func (m Model) renderReview() string {
	styles := m.theme.Styles()
	progress := m.wiz.Progress(m.areaSnap.Items)
	p := m.wiz.Profile

	var b strings.Builder
	heading := func(title string) {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render(" " + title))
		b.WriteString("\n")
	}

	b.WriteString(styles.Text.Bold(true).Render(fmt.Sprintf(" %s · %s", p.Name, p.HomeType)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(fmt.Sprintf(" %s · %s · %s energy · priorities %s",
		pluralize(p.Floors, "floor", "floors"), p.Timezone, p.EnergyMode, chips(p.Priorities, "none"))))
	b.WriteString("\n")

	heading(fmt.Sprintf("Progress %d/%d (%d%%)", progress.Done, progress.Total, progress.Percent))
	for _, step := range wizard.Steps {
		if step == wizard.StepReview {
			continue
		}
		if progress.Complete[step] {
			b.WriteString(styles.Badge(badgeComplete).Render("done"))
		} else {
			b.WriteString(styles.Badge(badgePending).Render("todo"))
		}
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(step.String()))
		b.WriteString("\n")
	}

	heading("Rooms")
	groups := wizard.RoomsByFloor(m.floorSnap.Items, m.areaSnap.Items)
	if len(groups) == 0 {
		b.WriteString(styles.FaintText.Render(" No floors or rooms yet"))
		b.WriteString("\n")
	}
	for _, g := range groups {
		names := make([]string, len(g.Areas))
		for i, a := range g.Areas {
			names[i] = a.Name
		}
		b.WriteString(styles.Text.Render(" " + padRight(g.Name, 18)))
		b.WriteString(styles.MutedText.Render(chips(names, "empty")))
		b.WriteString("\n")
	}

	heading("Automation")
	b.WriteString(styles.Text.Render(fmt.Sprintf(" %s enabled · map %s",
		pluralize(m.wiz.EnabledHelpers(), "helper", "helpers"), mapStatus(m.wiz.Map))))
	b.WriteString("\n")
	dash := m.wiz.Dashboards
	templateName := dash.SelectedTemplate
	if t, ok := wizard.TemplateByID(templateName); ok {
		templateName = t.Name
	}
	b.WriteString(styles.Text.Render(fmt.Sprintf(" %s → %s · %s",
		templateName, dash.PublishTarget, pluralize(m.wiz.EnabledWidgets(), "widget", "widgets"))))
	b.WriteString("\n")

	heading("Recent activity")
	switch {
	case !m.activityOK && m.activity == nil:
		b.WriteString(styles.FaintText.Render(" Activity unavailable"))
		b.WriteString("\n")
	case len(m.activity) == 0:
		b.WriteString(styles.FaintText.Render(" No registry changes yet"))
		b.WriteString("\n")
	}
	for _, e := range m.activity {
		style := styles.MutedText
		if e.Level == "error" || e.Level == "warning" {
			style = styles.WarningText
		}
		b.WriteString(style.Render(" " + truncate(e.Summary(), max(m.width-2, 40))))
		b.WriteString("\n")
	}
	return b.String()
}

func mapStatus(s wizard.MapState) string {
	if s.BlueprintReady && s.ZonesDefined {
		return "ready"
	}
	return "incomplete"
}
