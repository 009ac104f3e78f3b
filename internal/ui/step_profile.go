package ui

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nidia/composer/internal/wizard"
)

const (
	profileFieldName = iota
	profileFieldHomeType
	profileFieldFloors
	profileFieldTimezone
	profileFieldLocale
	profileFieldEnergy
	profileFieldPriorities
	profileFieldNotes
	profileFieldAdvanced
)

func newProfileForm(p wizard.Profile) form {
	return newForm(
		textField("Home name", p.Name, "Casa Principale"),
		pickerField("Home type", wizard.HomeTypes, nil, p.HomeType),
		textField("Floors", strconv.Itoa(p.Floors), "1"),
		textField("Timezone", p.Timezone, "Europe/Rome"),
		textField("Locale", p.Locale, "it-IT"),
		pickerField("Energy mode", wizard.EnergyModes, nil, p.EnergyMode),
		textField("Priorities", strings.Join(p.Priorities, ", "), "Comfort, Automation"),
		textField("Notes", p.Notes, "optional"),
		toggleField("Advanced mode", p.EnableAdvanced),
	)
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd := m.profile.handleKey(msg, m.keys)
	m.wiz.UpdateProfile(profilePatch(m.profile))
	return m, cmd
}

// profilePatch reads every field back. A floors value that is not a number
// leaves the stored count alone until it parses.
func profilePatch(f form) wizard.ProfilePatch {
	fields := f.fields
	name := strings.TrimSpace(fields[profileFieldName].value())
	homeType := fields[profileFieldHomeType].value()
	timezone := strings.TrimSpace(fields[profileFieldTimezone].value())
	locale := strings.TrimSpace(fields[profileFieldLocale].value())
	energy := fields[profileFieldEnergy].value()
	notes := fields[profileFieldNotes].value()
	advanced := fields[profileFieldAdvanced].on

	patch := wizard.ProfilePatch{
		Name:           &name,
		HomeType:       &homeType,
		Timezone:       &timezone,
		Locale:         &locale,
		EnergyMode:     &energy,
		Priorities:     splitList(fields[profileFieldPriorities].value()),
		Notes:          &notes,
		EnableAdvanced: &advanced,
	}
	if n, err := strconv.Atoi(strings.TrimSpace(fields[profileFieldFloors].value())); err == nil {
		patch.Floors = &n
	}
	return patch
}

// splitList parses a comma separated list, dropping blanks. It never
// returns nil so an emptied field clears the list.
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(" Home profile"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(" Describe the home so helpers and dashboards can be tailored."))
	b.WriteString("\n\n")
	b.WriteString(m.profile.view(styles, 16))

	p := m.wiz.Profile
	if p.Floors > 0 {
		b.WriteString("\n")
		b.WriteString(styles.FaintText.Render(" " + pluralize(p.Floors, "floor", "floors") +
			" planned · " + pluralize(len(m.floorSnap.Items), "floor", "floors") + " in Home Assistant"))
		b.WriteString("\n")
	}
	return b.String()
}
