package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

const (
	areaFieldName = iota
	areaFieldIcon
	areaFieldFloor
	areaFieldPurpose
	areaFieldLabels
	areaFieldAliases
)

type areaSavedMsg struct {
	dialog uint64
	area   registry.Area
	err    error
}

// areaDialog creates or edits a room.
type areaDialog struct {
	id    uint64
	ctx   context.Context
	areas Registry[registry.Area]

	original *registry.Area
	draft    registry.AreaDraft
	form     form
	busy     bool
	err      string
}

func newCreateAreaDialog(ctx context.Context, areas Registry[registry.Area], floors []registry.Floor, floorID string) *areaDialog {
	draft := registry.NewAreaDraft()
	draft.FloorID = floorID
	return newAreaDialog(ctx, areas, floors, nil, draft)
}

func newEditAreaDialog(ctx context.Context, areas Registry[registry.Area], floors []registry.Floor, a registry.Area) *areaDialog {
	return newAreaDialog(ctx, areas, floors, &a, registry.EditAreaDraft(a))
}

func newAreaDialog(ctx context.Context, areas Registry[registry.Area], floors []registry.Floor, original *registry.Area, draft registry.AreaDraft) *areaDialog {
	floorIDs := []string{""}
	floorNames := []string{"No floor"}
	known := draft.FloorID == ""
	for _, f := range floors {
		floorIDs = append(floorIDs, f.FloorID)
		floorNames = append(floorNames, f.Name)
		if f.FloorID == draft.FloorID {
			known = true
		}
	}
	if !known {
		// Keep a dangling reference selectable so an edit does not clear it.
		floorIDs = append(floorIDs, draft.FloorID)
		floorNames = append(floorNames, draft.FloorID+" (missing)")
	}

	purposes := append([]string{""}, registry.AreaPurposes...)
	purposeLabels := append([]string{"Not set"}, registry.AreaPurposes...)

	return &areaDialog{
		id:       nextDialogID(),
		ctx:      ctx,
		areas:    areas,
		original: original,
		draft:    draft,
		form: newForm(
			textField("Name", draft.Name, "Kitchen"),
			textField("Icon", draft.Icon, "mdi:sofa"),
			pickerField("Floor", floorIDs, floorNames, draft.FloorID),
			pickerField("Purpose", purposes, purposeLabels, draft.Purpose),
			listField("Labels", draft.Labels, "type and press enter"),
			listField("Aliases", draft.Aliases, "type and press enter"),
		),
	}
}

func (d *areaDialog) title() string {
	if d.original == nil {
		return "New room"
	}
	return "Edit room"
}

func (d *areaDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case areaSavedMsg:
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
		onList := d.form.focus == areaFieldLabels || d.form.focus == areaFieldAliases
		switch {
		case key.Matches(msg, keys.Cancel):
			return d, nil, true
		case d.busy:
			return d, nil, false
		case key.Matches(msg, keys.RemoveEntry) && onList:
			d.removeLast()
			return d, nil, false
		case key.Matches(msg, keys.AddEntry) && onList &&
			strings.TrimSpace(d.form.focused().input.Value()) != "":
			d.addEntry()
			return d, nil, false
		case key.Matches(msg, keys.Submit):
			cmd, done := d.submit()
			return d, cmd, done
		}
		return d, d.form.handleKey(msg, keys), false
	}
	return d, nil, false
}

// addEntry adds the focused list input's text as a label or alias.
// Duplicates are rejected here, before anything is sent.
func (d *areaDialog) addEntry() {
	field := d.form.focused()
	var err error
	var entries []string
	name := "Label"
	if d.form.focus == areaFieldLabels {
		err = d.draft.AddLabel(field.input.Value())
		entries = d.draft.Labels
	} else {
		name = "Alias"
		err = d.draft.AddAlias(field.input.Value())
		entries = d.draft.Aliases
	}
	if err != nil {
		d.err = entryError(name, err)
		return
	}
	d.err = ""
	field.entries = entries
	field.input.SetValue("")
}

func (d *areaDialog) removeLast() {
	field := d.form.focused()
	if d.form.focus == areaFieldLabels {
		if n := len(d.draft.Labels); n > 0 {
			d.draft.RemoveLabel(d.draft.Labels[n-1])
		}
		field.entries = d.draft.Labels
		return
	}
	if n := len(d.draft.Aliases); n > 0 {
		d.draft.RemoveAlias(d.draft.Aliases[n-1])
	}
	field.entries = d.draft.Aliases
}

func (d *areaDialog) syncDraft() {
	d.draft.Name = d.form.fields[areaFieldName].value()
	d.draft.Icon = d.form.fields[areaFieldIcon].value()
	d.draft.FloorID = d.form.fields[areaFieldFloor].value()
	d.draft.Purpose = d.form.fields[areaFieldPurpose].value()
}

func (d *areaDialog) submit() (tea.Cmd, bool) {
	if d.busy {
		return nil, false
	}
	d.syncDraft()
	if err := d.draft.Validate(); err != nil {
		d.err = formError(err)
		return nil, false
	}

	ctx, areas, id := d.ctx, d.areas, d.id
	if d.original == nil {
		req := d.draft.CreateRequest()
		d.busy, d.err = true, ""
		return func() tea.Msg {
			a, err := areas.Create(ctx, req)
			return areaSavedMsg{dialog: id, area: a, err: err}
		}, false
	}

	patch := d.draft.PatchFrom(*d.original)
	if patch.Empty() {
		return nil, true
	}
	areaID := d.original.ID
	d.busy, d.err = true, ""
	return func() tea.Msg {
		a, err := areas.Update(ctx, areaID, patch)
		return areaSavedMsg{dialog: id, area: a, err: err}
	}, false
}

func (d *areaDialog) fallback() string {
	if d.original == nil {
		return "Failed to create room"
	}
	return "Failed to update room"
}

func (d *areaDialog) View(theme Theme, width, height int) string {
	return renderDialog(theme, width, height, d.title(), d.form, d.busy, d.err,
		"enter save · ←/→ pick · ctrl+x remove entry · esc close")
}
