package wizard

import (
	"slices"
	"strings"

	"github.com/nidia/composer/internal/registry"
)

// UnassignedGroup names the room group for areas without a known floor.
const UnassignedGroup = "Unassigned"

// Progress summarizes step completion.
type Progress struct {
	Complete map[Step]bool
	Done     int
	Total    int
	Percent  int
}

// Progress evaluates every step. Review counts as complete once all other
// steps are; it is excluded from the percentage.
func (s *State) Progress(areas []registry.Area) Progress {
	p := Progress{Complete: make(map[Step]bool, len(Steps))}
	for _, step := range Steps {
		if step == StepReview {
			continue
		}
		ok := s.stepComplete(step, areas)
		p.Complete[step] = ok
		p.Total++
		if ok {
			p.Done++
		}
	}
	p.Complete[StepReview] = p.Done == p.Total
	if p.Total > 0 {
		p.Percent = p.Done * 100 / p.Total
	}
	return p
}

func (s *State) stepComplete(step Step, areas []registry.Area) bool {
	switch step {
	case StepProfile:
		pr := s.Profile
		return strings.TrimSpace(pr.Name) != "" &&
			pr.Floors > 0 &&
			strings.TrimSpace(pr.Timezone) != "" &&
			strings.TrimSpace(pr.Locale) != ""
	case StepRooms:
		return len(areas) > 0
	case StepMap:
		return s.Map.BlueprintReady && s.Map.ZonesDefined
	case StepHelpers:
		return s.EnabledHelpers() > 0
	case StepDashboards:
		_, known := TemplateByID(s.Dashboards.SelectedTemplate)
		return known && s.Dashboards.PublishTarget != "" && s.EnabledWidgets() > 0
	}
	return false
}

// EnabledHelpers counts enabled helpers.
func (s *State) EnabledHelpers() int {
	n := 0
	for _, h := range s.Helpers {
		if h.Enabled {
			n++
		}
	}
	return n
}

// EnabledWidgets counts enabled dashboard widgets.
func (s *State) EnabledWidgets() int {
	n := 0
	for _, w := range s.Dashboards.Widgets {
		if w.Enabled {
			n++
		}
	}
	return n
}

// HelperCategories returns the distinct helper categories in catalogue order.
func (s *State) HelperCategories() []string {
	var out []string
	for _, h := range s.Helpers {
		if !slices.Contains(out, h.Category) {
			out = append(out, h.Category)
		}
	}
	return out
}

// HelpersByCategory filters helpers; an empty category matches all.
func (s *State) HelpersByCategory(category string) []Helper {
	out := make([]Helper, 0, len(s.Helpers))
	for _, h := range s.Helpers {
		if category == "" || strings.EqualFold(h.Category, category) {
			out = append(out, h)
		}
	}
	return out
}

// FloorGroup is the set of rooms on one floor.
type FloorGroup struct {
	FloorID string // "" for the unassigned group
	Name    string
	Level   *int
	Areas   []registry.Area
}

// RoomsByFloor groups areas under their floors, floors ordered by level then
// name. Areas without a floor, or pointing at a floor that no longer exists,
// land in a trailing Unassigned group. Floors without rooms are kept so the
// overview shows them; the Unassigned group appears only when non-empty.
func RoomsByFloor(floors []registry.Floor, areas []registry.Area) []FloorGroup {
	ordered := registry.SortFloors(floors)

	groups := make([]FloorGroup, 0, len(ordered)+1)
	index := make(map[string]int, len(ordered))
	for _, f := range ordered {
		index[f.FloorID] = len(groups)
		groups = append(groups, FloorGroup{FloorID: f.FloorID, Name: f.Name, Level: f.Level})
	}

	var unassigned []registry.Area
	for _, a := range areas {
		if i, ok := index[a.FloorKey()]; ok && a.FloorKey() != "" {
			groups[i].Areas = append(groups[i].Areas, a)
			continue
		}
		unassigned = append(unassigned, a)
	}
	if len(unassigned) > 0 {
		groups = append(groups, FloorGroup{Name: UnassignedGroup, Areas: unassigned})
	}
	return groups
}
