package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nidia/composer/internal/state"
)

type deletedMsg struct {
	dialog uint64
	err    error
}

// confirmDialog asks before a delete. With warnings present the confirm key
// stays inert until the user acknowledges them.
type confirmDialog struct {
	id       uint64
	title    string
	prompt   string
	warnings []string
	fallback string
	run      func() error

	acknowledged bool
	busy         bool
	err          string
}

func newDeleteDialog(ctx context.Context, noun, name, id string, warnings []string, del func(ctx context.Context, id string) error) *confirmDialog {
	return &confirmDialog{
		id:       nextDialogID(),
		title:    "Delete " + noun,
		prompt:   "Delete " + noun + " “" + name + "”? This cannot be undone.",
		warnings: warnings,
		fallback: "Failed to delete " + noun,
		run:      func() error { return del(ctx, id) },
	}
}

func (d *confirmDialog) armed() bool {
	return len(d.warnings) == 0 || d.acknowledged
}

func (d *confirmDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case deletedMsg:
		if msg.dialog != d.id {
			return d, nil, false
		}
		d.busy = false
		if msg.err != nil && !errors.Is(msg.err, state.ErrDiscarded) {
			d.err = state.ErrorMessage(msg.err, d.fallback)
			return d, nil, false
		}
		return d, nil, true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Cancel), msg.String() == "n":
			return d, nil, true
		case key.Matches(msg, keys.Acknowledge) && len(d.warnings) > 0:
			d.acknowledged = !d.acknowledged
			return d, nil, false
		case key.Matches(msg, keys.Confirm):
			if d.busy || !d.armed() {
				return d, nil, false
			}
			d.busy, d.err = true, ""
			run, id := d.run, d.id
			return d, func() tea.Msg {
				return deletedMsg{dialog: id, err: run()}
			}, false
		}
	}
	return d, nil, false
}

func (d *confirmDialog) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render(d.title))
	if d.busy {
		b.WriteString("  ")
		b.WriteString(styles.Badge(badgeBusy).Render("deleting…"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(d.prompt))
	b.WriteString("\n")
	if len(d.warnings) > 0 {
		b.WriteString("\n")
		for _, w := range d.warnings {
			b.WriteString(styles.WarningText.Render("! " + w))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(checkbox(d.acknowledged) + " I understand"))
		b.WriteString("\n")
	}
	if d.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(d.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	hint := "y confirm · n/esc cancel"
	if len(d.warnings) > 0 {
		hint = "a acknowledge · " + hint
	}
	b.WriteString(styles.FaintText.Render(hint))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Padding(1, 2).
		Width(DialogWidth).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)))
}
