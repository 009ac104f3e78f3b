package registry

import (
	"errors"
	"slices"
	"strings"
)

// DefaultFloorIcon is preselected for new floors.
const DefaultFloorIcon = "mdi:floor-plan"

// Local validation errors. They never reach the remote side.
var (
	ErrNameRequired   = errors.New("name is required")
	ErrBlankEntry     = errors.New("entry is blank")
	ErrDuplicateEntry = errors.New("entry already present")
)

// AreaPurposes lists the purposes offered by the room dialog.
var AreaPurposes = []string{
	"Living Room",
	"Bedroom",
	"Kitchen",
	"Bathroom",
	"Office",
	"Hallway",
	"Garage",
	"Storage",
	"Outdoor",
	"Dining Room",
	"Laundry",
	"Basement",
	"Attic",
	"Balcony",
	"Other",
}

// FloorDraft holds the unsaved form data of a floor dialog.
type FloorDraft struct {
	Name    string
	Icon    string
	Level   *int
	Aliases []string
}

// NewFloorDraft seeds a create dialog from the existing floors.
func NewFloorDraft(existing []Floor) FloorDraft {
	return FloorDraft{
		Icon:  DefaultFloorIcon,
		Level: ptr(NextFloorLevel(existing)),
	}
}

// EditFloorDraft seeds an edit dialog. The draft never aliases f's slices.
func EditFloorDraft(f Floor) FloorDraft {
	d := FloorDraft{
		Name:    f.Name,
		Icon:    IconOrEmpty(f.Icon),
		Aliases: slices.Clone(f.Aliases),
	}
	if f.Level != nil {
		d.Level = ptr(*f.Level)
	}
	return d
}

// Validate checks required fields.
func (d FloorDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// AddAlias appends a trimmed alias.
func (d *FloorDraft) AddAlias(raw string) error {
	next, err := addEntry(d.Aliases, raw)
	if err != nil {
		return err
	}
	d.Aliases = next
	return nil
}

// RemoveAlias drops alias if present.
func (d *FloorDraft) RemoveAlias(alias string) {
	d.Aliases = removeEntry(d.Aliases, alias)
}

// CreateRequest builds the floors/create payload.
func (d FloorDraft) CreateRequest() FloorCreate {
	req := FloorCreate{
		Name:    strings.TrimSpace(d.Name),
		Aliases: slices.Clone(d.Aliases),
	}
	if icon := strings.TrimSpace(d.Icon); icon != "" {
		req.Icon = &icon
	}
	if d.Level != nil {
		req.Level = ptr(*d.Level)
	}
	return req
}

// PatchFrom diffs the draft against the floor it was seeded from.
func (d FloorDraft) PatchFrom(orig Floor) FloorPatch {
	var p FloorPatch
	if name := strings.TrimSpace(d.Name); name != orig.Name {
		p.Name = Set(name)
	}
	p.Icon = diffOptionalString(orig.Icon, d.Icon)
	switch {
	case d.Level == nil && orig.Level != nil:
		p.Level = Clear[int]()
	case d.Level != nil && (orig.Level == nil || *orig.Level != *d.Level):
		p.Level = Set(*d.Level)
	}
	if !slices.Equal(nonNil(d.Aliases), nonNil(orig.Aliases)) {
		p.Aliases = Set(nonNil(slices.Clone(d.Aliases)))
	}
	return p
}

// AreaDraft holds the unsaved form data of a room dialog. Purpose stays local
// to the draft.
type AreaDraft struct {
	Name    string
	Icon    string
	FloorID string
	Purpose string
	Labels  []string
	Aliases []string
}

// NewAreaDraft seeds a create dialog.
func NewAreaDraft() AreaDraft {
	return AreaDraft{}
}

// EditAreaDraft seeds an edit dialog. The draft never aliases a's slices.
func EditAreaDraft(a Area) AreaDraft {
	return AreaDraft{
		Name:    a.Name,
		Icon:    IconOrEmpty(a.Icon),
		FloorID: a.FloorKey(),
		Labels:  slices.Clone(a.Labels),
		Aliases: slices.Clone(a.Aliases),
	}
}

// Validate checks required fields.
func (d AreaDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// AddLabel appends a trimmed label.
func (d *AreaDraft) AddLabel(raw string) error {
	next, err := addEntry(d.Labels, raw)
	if err != nil {
		return err
	}
	d.Labels = next
	return nil
}

// RemoveLabel drops label if present.
func (d *AreaDraft) RemoveLabel(label string) {
	d.Labels = removeEntry(d.Labels, label)
}

// AddAlias appends a trimmed alias.
func (d *AreaDraft) AddAlias(raw string) error {
	next, err := addEntry(d.Aliases, raw)
	if err != nil {
		return err
	}
	d.Aliases = next
	return nil
}

// RemoveAlias drops alias if present.
func (d *AreaDraft) RemoveAlias(alias string) {
	d.Aliases = removeEntry(d.Aliases, alias)
}

// CreateRequest builds the areas/create payload.
func (d AreaDraft) CreateRequest() AreaCreate {
	req := AreaCreate{
		Name:    strings.TrimSpace(d.Name),
		Labels:  slices.Clone(d.Labels),
		Aliases: slices.Clone(d.Aliases),
	}
	if icon := strings.TrimSpace(d.Icon); icon != "" {
		req.Icon = &icon
	}
	if floorID := strings.TrimSpace(d.FloorID); floorID != "" {
		req.FloorID = &floorID
	}
	return req
}

// PatchFrom diffs the draft against the area it was seeded from.
func (d AreaDraft) PatchFrom(orig Area) AreaPatch {
	var p AreaPatch
	if name := strings.TrimSpace(d.Name); name != orig.Name {
		p.Name = Set(name)
	}
	p.Icon = diffOptionalString(orig.Icon, d.Icon)
	p.FloorID = diffOptionalString(orig.FloorID, d.FloorID)
	if !slices.Equal(nonNil(d.Labels), nonNil(orig.Labels)) {
		p.Labels = Set(nonNil(slices.Clone(d.Labels)))
	}
	if !slices.Equal(nonNil(d.Aliases), nonNil(orig.Aliases)) {
		p.Aliases = Set(nonNil(slices.Clone(d.Aliases)))
	}
	return p
}

func diffOptionalString(orig *string, draft string) Field[string] {
	draft = strings.TrimSpace(draft)
	current := ""
	if orig != nil {
		current = *orig
	}
	switch {
	case draft == current:
		return Field[string]{}
	case draft == "":
		return Clear[string]()
	default:
		return Set(draft)
	}
}

func addEntry(list []string, raw string) ([]string, error) {
	entry := strings.TrimSpace(raw)
	if entry == "" {
		return list, ErrBlankEntry
	}
	if slices.Contains(list, entry) {
		return list, ErrDuplicateEntry
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, entry), nil
}

func removeEntry(list []string, entry string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != entry {
			out = append(out, v)
		}
	}
	return out
}
