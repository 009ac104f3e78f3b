package registry

import (
	"cmp"
	"slices"
	"strings"
)

// Floor mirrors a floor registry entry.
type Floor struct {
	FloorID string   `json:"floor_id"`
	Name    string   `json:"name"`
	Icon    *string  `json:"icon,omitempty"`
	Level   *int     `json:"level,omitempty"`
	Aliases []string `json:"aliases"`
}

// Area mirrors an area registry entry; the UI calls areas rooms.
type Area struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Icon    *string  `json:"icon,omitempty"`
	FloorID *string  `json:"floor_id,omitempty"`
	Labels  []string `json:"labels"`
	Aliases []string `json:"aliases"`
}

// FloorKey returns the floor id of the area, or "" when unassigned.
func (a Area) FloorKey() string {
	if a.FloorID == nil {
		return ""
	}
	return strings.TrimSpace(*a.FloorID)
}

// LevelOrZero returns the floor level, treating a missing level as zero.
func (f Floor) LevelOrZero() int {
	if f.Level == nil {
		return 0
	}
	return *f.Level
}

// IconOrEmpty dereferences an optional icon.
func IconOrEmpty(icon *string) string {
	if icon == nil {
		return ""
	}
	return *icon
}

// AreasOnFloor returns the areas referencing floorID, in list order.
func AreasOnFloor(areas []Area, floorID string) []Area {
	var out []Area
	for _, a := range areas {
		if floorID != "" && a.FloorKey() == floorID {
			out = append(out, a)
		}
	}
	return out
}

// FloorName resolves a floor id for display. Dangling references are shown
// as the raw id.
func FloorName(floors []Floor, floorID string) string {
	if floorID == "" {
		return ""
	}
	for _, f := range floors {
		if f.FloorID == floorID {
			return f.Name
		}
	}
	return floorID
}

// NextFloorLevel suggests the level of a new floor: one above the highest
// existing level, or zero for the first floor.
func NextFloorLevel(floors []Floor) int {
	if len(floors) == 0 {
		return 0
	}
	highest := floors[0].LevelOrZero()
	for _, f := range floors[1:] {
		if lvl := f.LevelOrZero(); lvl > highest {
			highest = lvl
		}
	}
	return highest + 1
}

// SortFloors returns a copy of floors ordered by level, then name. Floors
// without a level sort as level zero.
func SortFloors(floors []Floor) []Floor {
	out := slices.Clone(floors)
	slices.SortStableFunc(out, func(a, b Floor) int {
		if c := cmp.Compare(a.LevelOrZero(), b.LevelOrZero()); c != 0 {
			return c
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func ptr[T any](v T) *T {
	return &v
}
