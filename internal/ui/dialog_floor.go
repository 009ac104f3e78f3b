package ui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

const (
	floorFieldName = iota
	floorFieldIcon
	floorFieldLevel
	floorFieldAliases
)

type floorSavedMsg struct {
	dialog uint64
	floor  registry.Floor
	err    error
}

var errLevelNotNumber = errors.New("level is not a whole number")

// floorDialog creates or edits a floor. The draft lives only as long as the
// dialog.
type floorDialog struct {
	id     uint64
	ctx    context.Context
	floors Registry[registry.Floor]

	original *registry.Floor // nil when creating
	draft    registry.FloorDraft
	form     form
	busy     bool
	err      string
}

func newCreateFloorDialog(ctx context.Context, floors Registry[registry.Floor], existing []registry.Floor) *floorDialog {
	return newFloorDialog(ctx, floors, nil, registry.NewFloorDraft(existing))
}

func newEditFloorDialog(ctx context.Context, floors Registry[registry.Floor], f registry.Floor) *floorDialog {
	return newFloorDialog(ctx, floors, &f, registry.EditFloorDraft(f))
}

func newFloorDialog(ctx context.Context, floors Registry[registry.Floor], original *registry.Floor, draft registry.FloorDraft) *floorDialog {
	level := ""
	if draft.Level != nil {
		level = strconv.Itoa(*draft.Level)
	}
	return &floorDialog{
		id:       nextDialogID(),
		ctx:      ctx,
		floors:   floors,
		original: original,
		draft:    draft,
		form: newForm(
			textField("Name", draft.Name, "Ground floor"),
			textField("Icon", draft.Icon, registry.DefaultFloorIcon),
			textField("Level", level, "0"),
			listField("Aliases", draft.Aliases, "type and press enter"),
		),
	}
}

func (d *floorDialog) title() string {
	if d.original == nil {
		return "New floor"
	}
	return "Edit floor"
}

func (d *floorDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case floorSavedMsg:
		if msg.dialog != d.id {
			return d, nil, false
		}
		d.busy = false
		if msg.err != nil {
			if errors.Is(msg.err, state.ErrDiscarded) {
				return d, nil, true
			}
			d.err = state.ErrorMessage(msg.err, d.fallback())
			return d, nil, false
		}
		return d, nil, true

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Cancel):
			return d, nil, true
		case d.busy:
			return d, nil, false
		case key.Matches(msg, keys.RemoveEntry) && d.form.focus == floorFieldAliases:
			if n := len(d.draft.Aliases); n > 0 {
				d.draft.RemoveAlias(d.draft.Aliases[n-1])
				d.form.fields[floorFieldAliases].entries = d.draft.Aliases
			}
			return d, nil, false
		case key.Matches(msg, keys.AddEntry) && d.form.focus == floorFieldAliases &&
			strings.TrimSpace(d.form.focused().input.Value()) != "":
			d.addAlias()
			return d, nil, false
		case key.Matches(msg, keys.Submit):
			cmd, done := d.submit()
			return d, cmd, done
		}
		return d, d.form.handleKey(msg, keys), false
	}
	return d, nil, false
}

func (d *floorDialog) addAlias() {
	field := &d.form.fields[floorFieldAliases]
	if err := d.draft.AddAlias(field.input.Value()); err != nil {
		d.err = entryError("Alias", err)
		return
	}
	d.err = ""
	field.entries = d.draft.Aliases
	field.input.SetValue("")
}

func (d *floorDialog) syncDraft() error {
	d.draft.Name = d.form.fields[floorFieldName].value()
	d.draft.Icon = d.form.fields[floorFieldIcon].value()
	raw := strings.TrimSpace(d.form.fields[floorFieldLevel].value())
	if raw == "" {
		d.draft.Level = nil
		return nil
	}
	level, err := strconv.Atoi(raw)
	if err != nil {
		return errLevelNotNumber
	}
	d.draft.Level = &level
	return nil
}

// submit validates locally and starts the remote call. An edit without
// changes closes the dialog without a call.
func (d *floorDialog) submit() (tea.Cmd, bool) {
	if d.busy {
		return nil, false
	}
	if err := d.syncDraft(); err != nil {
		d.err = formError(err)
		return nil, false
	}
	if err := d.draft.Validate(); err != nil {
		d.err = formError(err)
		return nil, false
	}

	ctx, floors, id := d.ctx, d.floors, d.id
	if d.original == nil {
		req := d.draft.CreateRequest()
		d.busy, d.err = true, ""
		return func() tea.Msg {
			f, err := floors.Create(ctx, req)
			return floorSavedMsg{dialog: id, floor: f, err: err}
		}, false
	}

	patch := d.draft.PatchFrom(*d.original)
	if patch.Empty() {
		return nil, true
	}
	floorID := d.original.FloorID
	d.busy, d.err = true, ""
	return func() tea.Msg {
		f, err := floors.Update(ctx, floorID, patch)
		return floorSavedMsg{dialog: id, floor: f, err: err}
	}, false
}

func (d *floorDialog) fallback() string {
	if d.original == nil {
		return "Failed to create floor"
	}
	return "Failed to update floor"
}

func (d *floorDialog) View(theme Theme, width, height int) string {
	return renderDialog(theme, width, height, d.title(), d.form, d.busy, d.err,
		"enter save · tab next field · ctrl+x remove alias · esc close")
}

// renderDialog draws a bordered form centered on screen.
func renderDialog(theme Theme, width, height int, title string, f form, busy bool, errMsg, hint string) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	if busy {
		b.WriteString("  ")
		b.WriteString(styles.Badge(badgeBusy).Render("saving…"))
	}
	b.WriteString("\n\n")
	b.WriteString(f.view(styles, 10))
	if errMsg != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(errMsg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(hint))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(1, 2).
		Width(DialogWidth).
		Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)))
}

// formError words a local validation failure for display.
func formError(err error) string {
	switch {
	case errors.Is(err, registry.ErrNameRequired):
		return "Name is required"
	case errors.Is(err, errLevelNotNumber):
		return "Level must be a whole number"
	default:
		return err.Error()
	}
}

func entryError(field string, err error) string {
	switch {
	case errors.Is(err, registry.ErrDuplicateEntry):
		return field + " already added"
	case errors.Is(err, registry.ErrBlankEntry):
		return field + " cannot be blank"
	default:
		return err.Error()
	}
}
