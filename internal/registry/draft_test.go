package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestNewFloorDraft_SuggestsNextLevel(t *testing.T) {
	cases := []struct {
		name   string
		floors []Floor
		want   int
	}{
		{"no floors", nil, 0},
		{"levels 0 and 1", []Floor{{Level: intPtr(0)}, {Level: intPtr(1)}}, 2},
		{"missing level counts as zero", []Floor{{Level: nil}}, 1},
		{"negative basement", []Floor{{Level: intPtr(-1)}}, 0},
		{"unordered", []Floor{{Level: intPtr(3)}, {Level: intPtr(1)}}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewFloorDraft(tc.floors)
			require.NotNil(t, d.Level)
			assert.Equal(t, tc.want, *d.Level)
			assert.Equal(t, DefaultFloorIcon, d.Icon)
			assert.Empty(t, d.Name)
		})
	}
}

func TestFloorDraft_ValidateRequiresName(t *testing.T) {
	assert.ErrorIs(t, FloorDraft{Name: "   "}.Validate(), ErrNameRequired)
	assert.NoError(t, FloorDraft{Name: "Attic"}.Validate())
	assert.ErrorIs(t, AreaDraft{}.Validate(), ErrNameRequired)
}

func TestFloorDraft_CreateRequestPayload(t *testing.T) {
	d := NewFloorDraft([]Floor{{Level: intPtr(0)}, {Level: intPtr(1)}})
	d.Name = "  Attic "

	payload := d.CreateRequest().Payload()
	assert.Equal(t, "Attic", payload["name"])
	assert.Equal(t, DefaultFloorIcon, payload["icon"])
	assert.Equal(t, 2, payload["level"])
	assert.Equal(t, []string{}, payload["aliases"])
}

func TestEditFloorDraft_DoesNotAliasResource(t *testing.T) {
	f := Floor{FloorID: "ground", Name: "Ground", Level: intPtr(0), Aliases: []string{"downstairs"}}
	d := EditFloorDraft(f)
	require.NoError(t, d.AddAlias("main"))
	*d.Level = 5

	assert.Equal(t, []string{"downstairs"}, f.Aliases)
	assert.Equal(t, 0, *f.Level)
}

func TestFloorDraft_PatchOnlyChangedFields(t *testing.T) {
	f := Floor{FloorID: "ground", Name: "Ground", Icon: strPtr("mdi:home"), Level: intPtr(0), Aliases: []string{"downstairs"}}

	d := EditFloorDraft(f)
	assert.True(t, d.PatchFrom(f).Empty())

	d.Name = "Ground floor"
	d.Icon = ""
	payload := d.PatchFrom(f).Payload()
	assert.Equal(t, map[string]any{"name": "Ground floor", "icon": nil}, payload)

	d = EditFloorDraft(f)
	d.Level = nil
	require.NoError(t, d.AddAlias("main"))
	payload = d.PatchFrom(f).Payload()
	assert.Equal(t, map[string]any{"level": nil, "aliases": []string{"downstairs", "main"}}, payload)
}

func TestAddEntry_TrimsAndRejects(t *testing.T) {
	var d AreaDraft
	require.NoError(t, d.AddLabel("  kitchen "))
	assert.ErrorIs(t, d.AddLabel("kitchen"), ErrDuplicateEntry)
	assert.ErrorIs(t, d.AddLabel(" kitchen"), ErrDuplicateEntry)
	assert.ErrorIs(t, d.AddLabel("   "), ErrBlankEntry)
	require.NoError(t, d.AddLabel("cooking"))
	assert.Equal(t, []string{"kitchen", "cooking"}, d.Labels)

	d.RemoveLabel("kitchen")
	assert.Equal(t, []string{"cooking"}, d.Labels)

	require.NoError(t, d.AddAlias("cucina"))
	assert.ErrorIs(t, d.AddAlias("cucina"), ErrDuplicateEntry)
	d.RemoveAlias("cucina")
	assert.Empty(t, d.Aliases)
}

func TestAreaDraft_CreateAndPatch(t *testing.T) {
	d := NewAreaDraft()
	d.Name = "Kitchen"
	d.FloorID = "ground"
	d.Purpose = "Kitchen"
	payload := d.CreateRequest().Payload()
	assert.Equal(t, map[string]any{
		"name":     "Kitchen",
		"floor_id": "ground",
		"labels":   []string{},
		"aliases":  []string{},
	}, payload)

	a := Area{ID: "a1", Name: "Kitchen", FloorID: strPtr("ground"), Labels: []string{"food"}}
	edit := EditAreaDraft(a)
	edit.FloorID = ""
	require.NoError(t, edit.AddLabel("kitchen"))
	assert.Equal(t, map[string]any{
		"floor_id": nil,
		"labels":   []string{"food", "kitchen"},
	}, edit.PatchFrom(a).Payload())
	assert.Equal(t, []string{"food"}, a.Labels)
}

func TestAreasOnFloorAndFloorName(t *testing.T) {
	floors := []Floor{{FloorID: "ground", Name: "Ground"}, {FloorID: "first", Name: "First"}}
	areas := []Area{
		{ID: "a1", FloorID: strPtr("ground")},
		{ID: "a2", FloorID: strPtr("first")},
		{ID: "a3", FloorID: strPtr("ground")},
		{ID: "a4"},
	}

	on := AreasOnFloor(areas, "ground")
	require.Len(t, on, 2)
	assert.Equal(t, "a1", on[0].ID)
	assert.Equal(t, "a3", on[1].ID)
	assert.Empty(t, AreasOnFloor(areas, ""))

	assert.Equal(t, "First", FloorName(floors, "first"))
	assert.Equal(t, "gone", FloorName(floors, "gone"))
	assert.Equal(t, "", FloorName(floors, ""))
}
