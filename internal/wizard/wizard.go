package wizard

import (
	"slices"
	"strings"
)

// Step identifies one page of the wizard.
type Step int

// Steps in presentation order.
const (
	StepProfile Step = iota
	StepRooms
	StepMap
	StepHelpers
	StepDashboards
	StepReview
)

// Steps lists every step in order.
var Steps = []Step{StepProfile, StepRooms, StepMap, StepHelpers, StepDashboards, StepReview}

func (s Step) String() string {
	switch s {
	case StepProfile:
		return "Profile"
	case StepRooms:
		return "Rooms"
	case StepMap:
		return "Map"
	case StepHelpers:
		return "Helpers"
	case StepDashboards:
		return "Dashboards"
	case StepReview:
		return "Review"
	default:
		return "Unknown"
	}
}

// ParseStep resolves a step name case-insensitively. Unknown names map to
// StepProfile.
func ParseStep(name string) Step {
	name = strings.TrimSpace(name)
	for _, s := range Steps {
		if strings.EqualFold(s.String(), name) {
			return s
		}
	}
	return StepProfile
}

// Next returns the following step, staying on the last one.
func (s Step) Next() Step {
	if s >= StepReview {
		return StepReview
	}
	return s + 1
}

// Prev returns the preceding step, staying on the first one.
func (s Step) Prev() Step {
	if s <= StepProfile {
		return StepProfile
	}
	return s - 1
}

// Energy modes offered by the profile step.
const (
	EnergyBalanced = "balanced"
	EnergyEco      = "eco"
	EnergyComfort  = "comfort"
)

// EnergyModes lists the valid energy modes in cycling order.
var EnergyModes = []string{EnergyBalanced, EnergyEco, EnergyComfort}

// HomeTypes lists the home types offered by the profile step.
var HomeTypes = []string{"apartment", "house", "villa", "loft", "office"}

// Profile describes the home being configured.
type Profile struct {
	Name           string
	HomeType       string
	Floors         int
	Timezone       string
	Locale         string
	EnergyMode     string
	Priorities     []string
	Notes          string
	EnableAdvanced bool
}

// ProfilePatch carries the profile fields to change. Nil fields are kept.
type ProfilePatch struct {
	Name           *string
	HomeType       *string
	Floors         *int
	Timezone       *string
	Locale         *string
	EnergyMode     *string
	Priorities     []string
	Notes          *string
	EnableAdvanced *bool
}

// MapState tracks the floor plan checklist.
type MapState struct {
	BlueprintReady     bool
	ZonesDefined       bool
	AutomationsPreview bool
	Notes              string
}

// MapPatch carries the map fields to change. Nil fields are kept.
type MapPatch struct {
	BlueprintReady     *bool
	ZonesDefined       *bool
	AutomationsPreview *bool
	Notes              *string
}

// Helper is one generated helper entity bundle.
type Helper struct {
	ID          string
	Name        string
	Description string
	Category    string
	Enabled     bool
}

// Widget is one dashboard card group.
type Widget struct {
	ID          string
	Label       string
	Description string
	Enabled     bool
}

// Template is a dashboard layout preset.
type Template struct {
	ID          string
	Name        string
	Description string
	Highlights  []string
}

// Dashboards holds the dashboard choices.
type Dashboards struct {
	SelectedTemplate string
	PublishTarget    string
	Widgets          []Widget
}

// Templates is the fixed dashboard template catalogue.
var Templates = []Template{
	{
		ID:          "starter",
		Name:        "Starter layout",
		Description: "Curated overview of the rooms, energy usage, and quick actions to get you moving fast.",
		Highlights:  []string{"Room summary", "Energy usage", "Scene shortcuts"},
	},
	{
		ID:          "energy-first",
		Name:        "Energy insights",
		Description: "Focus on solar production, batteries, and consumption trends with actionable alerts.",
		Highlights:  []string{"Solar forecast", "Battery status", "Tariff automation"},
	},
	{
		ID:          "wellness",
		Name:        "Comfort & wellness",
		Description: "Track climate comfort, air quality, and household routines at a glance.",
		Highlights:  []string{"Climate comfort", "Air quality", "Routine tracker"},
	},
}

// DefaultPublishTarget is the dashboard url path used until the user edits it.
const DefaultPublishTarget = "lovelace_magic_composer"

// State is the local, unsynchronized part of the wizard. It is owned by the
// UI goroutine; operations mutate it in place and never share slices with
// callers.
type State struct {
	Profile    Profile
	Map        MapState
	Helpers    []Helper
	Dashboards Dashboards
}

// New returns the wizard with its default selections.
func New() *State {
	return &State{
		Profile: Profile{
			Name:       "Casa Principale",
			HomeType:   "apartment",
			Floors:     1,
			Timezone:   "Europe/Rome",
			Locale:     "it-IT",
			EnergyMode: EnergyBalanced,
			Priorities: []string{"Comfort", "Automation"},
		},
		Helpers: []Helper{
			{
				ID:          "scene_scheduler",
				Name:        "Scene scheduler",
				Description: "Preload daily scenes aligned with sunrise, sunset, and occupancy.",
				Category:    "Automation",
				Enabled:     true,
			},
			{
				ID:          "energy_guard",
				Name:        "Energy guard",
				Description: "Pause heavy loads when energy demand spikes or tariffs change.",
				Category:    "Energy",
			},
			{
				ID:          "presence_orchestrator",
				Name:        "Presence orchestrator",
				Description: "Blend sensors and device activity to detect true presence.",
				Category:    "Automation",
				Enabled:     true,
			},
			{
				ID:          "air_quality_watch",
				Name:        "Air quality watch",
				Description: "Notify when CO₂ or humidity crosses thresholds and suggest actions.",
				Category:    "Comfort",
			},
			{
				ID:          "night_security",
				Name:        "Night security routine",
				Description: "Arm selected areas and dim path lights automatically at night.",
				Category:    "Security",
			},
		},
		Dashboards: Dashboards{
			SelectedTemplate: "starter",
			PublishTarget:    DefaultPublishTarget,
			Widgets: []Widget{
				{ID: "energy", Label: "Energy overview", Description: "Live grid, solar, and battery balance with trends.", Enabled: true},
				{ID: "comfort", Label: "Climate comfort", Description: "Temperature and humidity insights with quick adjustments.", Enabled: true},
				{ID: "automation", Label: "Automation status", Description: "Monitor currently running automations and queued jobs."},
				{ID: "rooms", Label: "Room quick actions", Description: "Favourite rooms with lighting, blinds, and media controls.", Enabled: true},
			},
		},
	}
}

// UpdateProfile applies the non-nil fields of patch.
func (s *State) UpdateProfile(patch ProfilePatch) {
	p := &s.Profile
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.HomeType != nil {
		p.HomeType = *patch.HomeType
	}
	if patch.Floors != nil {
		p.Floors = max(*patch.Floors, 0)
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.Locale != nil {
		p.Locale = *patch.Locale
	}
	if patch.EnergyMode != nil && slices.Contains(EnergyModes, *patch.EnergyMode) {
		p.EnergyMode = *patch.EnergyMode
	}
	if patch.Priorities != nil {
		p.Priorities = slices.Clone(patch.Priorities)
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.EnableAdvanced != nil {
		p.EnableAdvanced = *patch.EnableAdvanced
	}
}

// UpdateMap applies the non-nil fields of patch.
func (s *State) UpdateMap(patch MapPatch) {
	if patch.BlueprintReady != nil {
		s.Map.BlueprintReady = *patch.BlueprintReady
	}
	if patch.ZonesDefined != nil {
		s.Map.ZonesDefined = *patch.ZonesDefined
	}
	if patch.AutomationsPreview != nil {
		s.Map.AutomationsPreview = *patch.AutomationsPreview
	}
	if patch.Notes != nil {
		s.Map.Notes = *patch.Notes
	}
}

// ToggleHelper flips the helper with id. Unknown ids are ignored.
func (s *State) ToggleHelper(id string) bool {
	for i := range s.Helpers {
		if s.Helpers[i].ID == id {
			s.Helpers[i].Enabled = !s.Helpers[i].Enabled
			return true
		}
	}
	return false
}

// SelectDashboardTemplate picks a template from the catalogue. Unknown ids
// are rejected.
func (s *State) SelectDashboardTemplate(id string) bool {
	if _, ok := TemplateByID(id); !ok {
		return false
	}
	s.Dashboards.SelectedTemplate = id
	return true
}

// ToggleDashboardWidget flips the widget with id. Unknown ids are ignored.
func (s *State) ToggleDashboardWidget(id string) bool {
	for i := range s.Dashboards.Widgets {
		if s.Dashboards.Widgets[i].ID == id {
			s.Dashboards.Widgets[i].Enabled = !s.Dashboards.Widgets[i].Enabled
			return true
		}
	}
	return false
}

// UpdateDashboardTarget sets the publish target.
func (s *State) UpdateDashboardTarget(target string) {
	s.Dashboards.PublishTarget = strings.TrimSpace(target)
}

// TemplateByID looks up a dashboard template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}
