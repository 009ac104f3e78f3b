package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nidia/composer/internal/wizard"
)

const (
	mapFieldBlueprint = iota
	mapFieldZones
	mapFieldAutomations
	mapFieldNotes
)

func newMapForm(s wizard.MapState) form {
	return newForm(
		toggleField("Blueprint ready", s.BlueprintReady),
		toggleField("Zones defined", s.ZonesDefined),
		toggleField("Automation preview", s.AutomationsPreview),
		textField("Notes", s.Notes, "anything the installer should know"),
	)
}

func (m Model) handleMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd := m.mapForm.handleKey(msg, m.keys)
	fields := m.mapForm.fields
	blueprint := fields[mapFieldBlueprint].on
	zones := fields[mapFieldZones].on
	automations := fields[mapFieldAutomations].on
	notes := fields[mapFieldNotes].value()
	m.wiz.UpdateMap(wizard.MapPatch{
		BlueprintReady:     &blueprint,
		ZonesDefined:       &zones,
		AutomationsPreview: &automations,
		Notes:              &notes,
	})
	return m, cmd
}

func (m Model) renderMap() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(" Floor plan"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(" Check off the map work before helpers are generated."))
	b.WriteString("\n\n")
	b.WriteString(m.mapForm.view(styles, 20))
	b.WriteString("\n")

	if m.wiz.Map.BlueprintReady && m.wiz.Map.ZonesDefined {
		b.WriteString(styles.SuccessText.Render(" Map ready"))
	} else {
		b.WriteString(styles.WarningText.Render(" Blueprint and zones are both required"))
	}
	b.WriteString("\n")

	groups := wizard.RoomsByFloor(m.floorSnap.Items, m.areaSnap.Items)
	if len(groups) > 0 {
		b.WriteString("\n")
		for _, g := range groups {
			b.WriteString(styles.Text.Render(" " + padRight(g.Name, 20)))
			b.WriteString(styles.FaintText.Render(pluralize(len(g.Areas), "room", "rooms")))
			b.WriteString("\n")
		}
	}
	return b.String()
}
