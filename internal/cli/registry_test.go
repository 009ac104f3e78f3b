package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidia/composer/internal/app"
	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

// fakeHA is an in-memory floor and area registry speaking the composer
// message contract.
type fakeHA struct {
	mu        sync.Mutex
	floors    []registry.Floor
	areas     []registry.Area
	ops       []string
	nextID    int
	createErr error
}

func (f *fakeHA) SendMessage(_ context.Context, msgType string, payload map[string]any, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	op := strings.TrimPrefix(msgType, state.DefaultDomain+"/")
	f.ops = append(f.ops, op)

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var result any
	switch op {
	case "floors/list":
		result = map[string]any{"floors": f.floors}
	case "areas/list":
		result = map[string]any{"areas": f.areas}
	case "floors/create":
		var fl registry.Floor
		if err := json.Unmarshal(raw, &fl); err != nil {
			return err
		}
		f.nextID++
		fl.FloorID = fmt.Sprintf("floor_%d", f.nextID)
		f.floors = append(f.floors, fl)
		result = map[string]any{"floor": fl}
	case "areas/create":
		if f.createErr != nil {
			return f.createErr
		}
		var a registry.Area
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		f.nextID++
		a.ID = fmt.Sprintf("area_%d", f.nextID)
		f.areas = append(f.areas, a)
		result = map[string]any{"area": a}
	case "floors/update":
		id, name := payload["floor_id"].(string), payload["name"].(string)
		for i := range f.floors {
			if f.floors[i].FloorID == id {
				f.floors[i].Name = name
				result = map[string]any{"floor": f.floors[i]}
			}
		}
	case "areas/update":
		id, name := payload["area_id"].(string), payload["name"].(string)
		for i := range f.areas {
			if f.areas[i].ID == id {
				f.areas[i].Name = name
				result = map[string]any{"area": f.areas[i]}
			}
		}
	case "floors/delete":
		id := payload["floor_id"].(string)
		var kept []registry.Floor
		for _, fl := range f.floors {
			if fl.FloorID != id {
				kept = append(kept, fl)
			}
		}
		f.floors = kept
		result = map[string]any{"success": true, "floor_id": id}
	case "areas/delete":
		id := payload["area_id"].(string)
		var kept []registry.Area
		for _, a := range f.areas {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		f.areas = kept
		result = map[string]any{"success": true, "area_id": id}
	default:
		return &hass.ResultError{Code: "unknown_command", Message: "Unknown command."}
	}

	if dest == nil {
		return nil
	}
	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(out, dest)
}

func (f *fakeHA) calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, o := range f.ops {
		if o == op {
			n++
		}
	}
	return n
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

// execute runs the command tree against fake with a throwaway config.
func execute(t *testing.T, conn hass.Conn, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("token = \"test-token\"\nlog_level = \"error\"\n"), 0o644))

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(context.Background(), Options{
		Out:    &out,
		ErrOut: &errOut,
		Session: app.SessionOptions{
			Dial: func(context.Context) (hass.Conn, error) { return conn, nil },
		},
	})
	cmd.SetArgs(append([]string{"--config", path}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestFloorsList_Empty(t *testing.T) {
	out, err := execute(t, &fakeHA{}, "floors", "list")
	require.NoError(t, err)
	assert.Equal(t, "No floors\n", out)
}

func TestFloorsList_OrderedByLevel(t *testing.T) {
	fake := &fakeHA{
		floors: []registry.Floor{
			{FloorID: "first", Name: "First", Level: intPtr(1), Aliases: []string{}},
			{FloorID: "ground", Name: "Ground", Level: intPtr(0), Aliases: []string{"piano terra"}},
		},
		areas: []registry.Area{
			{ID: "kitchen", Name: "Kitchen", FloorID: strPtr("ground"), Labels: []string{}, Aliases: []string{}},
		},
	}
	out, err := execute(t, fake, "floors", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "piano terra")
	assert.Less(t, strings.Index(out, "Ground"), strings.Index(out, "First"))
}

func TestFloorsCreate_UsesDialogDefaults(t *testing.T) {
	fake := &fakeHA{
		floors: []registry.Floor{
			{FloorID: "ground", Name: "Ground", Level: intPtr(0), Aliases: []string{}},
			{FloorID: "first", Name: "First", Level: intPtr(1), Aliases: []string{}},
		},
	}
	out, err := execute(t, fake, "floors", "create", "Attic", "--alias", "loft")
	require.NoError(t, err)
	assert.Equal(t, "Created floor Attic (floor_1)\n", out)

	require.Len(t, fake.floors, 3)
	created := fake.floors[2]
	require.NotNil(t, created.Level)
	assert.Equal(t, 2, *created.Level)
	assert.Equal(t, registry.DefaultFloorIcon, registry.IconOrEmpty(created.Icon))
	assert.Equal(t, []string{"loft"}, created.Aliases)
}

func TestFloorsCreate_DuplicateAliasSendsNothing(t *testing.T) {
	fake := &fakeHA{}
	_, err := execute(t, fake, "floors", "create", "Ground", "--alias", "main", "--alias", " main ")
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrDuplicateEntry)
	assert.Zero(t, fake.calls("floors/create"))
}

func TestFloorsCreate_BlankNameIsRejected(t *testing.T) {
	fake := &fakeHA{}
	_, err := execute(t, fake, "floors", "create", "   ")
	assert.ErrorIs(t, err, registry.ErrNameRequired)
	assert.Zero(t, fake.calls("floors/create"))
}

func TestFloorsRename(t *testing.T) {
	fake := &fakeHA{floors: []registry.Floor{{FloorID: "ground", Name: "Ground", Aliases: []string{}}}}

	out, err := execute(t, fake, "floors", "rename", "ground", "Piano terra")
	require.NoError(t, err)
	assert.Equal(t, "Renamed floor ground to Piano terra\n", out)
	assert.Equal(t, "Piano terra", fake.floors[0].Name)

	out, err = execute(t, fake, "floors", "rename", "ground", "Piano terra")
	require.NoError(t, err)
	assert.Contains(t, out, "already named")
	assert.Equal(t, 1, fake.calls("floors/update"))
}

func TestFloorsDelete_AssignedRoomsNeedForce(t *testing.T) {
	fake := &fakeHA{
		floors: []registry.Floor{{FloorID: "ground", Name: "Ground", Aliases: []string{}}},
		areas: []registry.Area{
			{ID: "kitchen", Name: "Kitchen", FloorID: strPtr("ground"), Labels: []string{}, Aliases: []string{}},
			{ID: "living", Name: "Living", FloorID: strPtr("ground"), Labels: []string{}, Aliases: []string{}},
		},
	}

	_, err := execute(t, fake, "floors", "delete", "ground")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 assigned rooms")
	assert.Contains(t, err.Error(), "--force")
	assert.Zero(t, fake.calls("floors/delete"))

	out, err := execute(t, fake, "floors", "delete", "ground", "--force")
	require.NoError(t, err)
	assert.Equal(t, "Deleted floor ground\n", out)
	assert.Empty(t, fake.floors)
}

func TestFloorsDelete_UnknownID(t *testing.T) {
	_, err := execute(t, &fakeHA{}, "floors", "delete", "cellar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `floor "cellar" not found`)
}

func TestAreasCreate(t *testing.T) {
	fake := &fakeHA{floors: []registry.Floor{{FloorID: "ground", Name: "Ground", Aliases: []string{}}}}

	out, err := execute(t, fake, "areas", "create", "Kitchen", "--floor", "ground", "--label", "cooking", "--icon", "mdi:stove")
	require.NoError(t, err)
	assert.Equal(t, "Created room Kitchen (area_1)\n", out)

	require.Len(t, fake.areas, 1)
	a := fake.areas[0]
	assert.Equal(t, "ground", a.FloorKey())
	assert.Equal(t, []string{"cooking"}, a.Labels)
	assert.Equal(t, []string{}, a.Aliases)
	assert.Equal(t, "mdi:stove", registry.IconOrEmpty(a.Icon))
}

func TestAreasCreate_UnknownFloor(t *testing.T) {
	fake := &fakeHA{}
	_, err := execute(t, fake, "areas", "create", "Kitchen", "--floor", "cellar")
	require.Error(t, err)
	assert.Zero(t, fake.calls("areas/create"))
}

func TestAreasCreate_ServerErrorUsesCode(t *testing.T) {
	fake := &fakeHA{createErr: &hass.ResultError{Code: "duplicate_name"}}
	_, err := execute(t, fake, "areas", "create", "Kitchen")
	require.Error(t, err)
	assert.Equal(t, "Failed to create room (duplicate_name)", err.Error())
}

func TestAreasListAndRename(t *testing.T) {
	fake := &fakeHA{
		floors: []registry.Floor{{FloorID: "ground", Name: "Ground", Aliases: []string{}}},
		areas: []registry.Area{
			{ID: "garden", Name: "Garden", Labels: []string{}, Aliases: []string{}},
			{ID: "kitchen", Name: "Kitchen", FloorID: strPtr("ground"), Labels: []string{"cooking"}, Aliases: []string{}},
		},
	}

	out, err := execute(t, fake, "areas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "cooking")
	assert.Less(t, strings.Index(out, "Kitchen"), strings.Index(out, "Garden"))

	out, err = execute(t, fake, "rooms", "rename", "kitchen", "Cucina")
	require.NoError(t, err)
	assert.Equal(t, "Renamed room kitchen to Cucina\n", out)

	out, err = execute(t, fake, "areas", "delete", "garden")
	require.NoError(t, err)
	assert.Equal(t, "Deleted room garden\n", out)
	require.Len(t, fake.areas, 1)
}

func TestCheck(t *testing.T) {
	out, err := execute(t, &fakeHA{}, "check")
	require.NoError(t, err)
	assert.Equal(t, "Connected to http://homeassistant.local:8123\n", out)
}
