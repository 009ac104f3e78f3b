package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nidia/composer/internal/wizard"
)

// Dashboard form rows: the template picker, one toggle per widget, then
// the publish target.
const dashFieldTemplate = 0

func newDashboardForm(d wizard.Dashboards) form {
	ids := make([]string, len(wizard.Templates))
	names := make([]string, len(wizard.Templates))
	for i, t := range wizard.Templates {
		ids[i], names[i] = t.ID, t.Name
	}
	fields := []formField{pickerField("Template", ids, names, d.SelectedTemplate)}
	for _, w := range d.Widgets {
		fields = append(fields, toggleField(w.Label, w.Enabled))
	}
	fields = append(fields, textField("Publish to", d.PublishTarget, wizard.DefaultPublishTarget))
	return newForm(fields...)
}

func (m Model) handleDashboardsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd := m.dashForm.handleKey(msg, m.keys)
	fields := m.dashForm.fields

	m.wiz.SelectDashboardTemplate(fields[dashFieldTemplate].value())
	for i, w := range m.wiz.Dashboards.Widgets {
		if fields[1+i].on != w.Enabled {
			m.wiz.ToggleDashboardWidget(w.ID)
		}
	}
	m.wiz.UpdateDashboardTarget(fields[len(fields)-1].value())
	return m, cmd
}

func (m Model) renderDashboards() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(" Dashboards"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(" Pick a layout and the card groups to publish."))
	b.WriteString("\n\n")
	b.WriteString(m.dashForm.view(styles, 22))

	if t, ok := wizard.TemplateByID(m.wiz.Dashboards.SelectedTemplate); ok {
		b.WriteString("\n")
		b.WriteString(styles.Text.Bold(true).Render(" " + t.Name))
		b.WriteString("\n ")
		b.WriteString(styles.MutedText.Render(truncate(t.Description, max(m.width-4, 20))))
		b.WriteString("\n ")
		b.WriteString(styles.InfoText.Render(chips(t.Highlights, "")))
		b.WriteString("\n")
	}

	if f := m.dashForm.fields[m.dashForm.focus]; f.kind == fieldToggle {
		for _, w := range m.wiz.Dashboards.Widgets {
			if w.Label == f.label {
				b.WriteString("\n ")
				b.WriteString(styles.FaintText.Render(w.Description))
				b.WriteString("\n")
			}
		}
	}

	if m.wiz.EnabledWidgets() == 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render(" Enable at least one widget"))
		b.WriteString("\n")
	}
	return b.String()
}
