package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nidia/composer/internal/app"
	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
)

// userError turns a synchronizer error into the message the wizard would
// show for the same failure.
func userError(err error, fallback string) error {
	return errors.New(state.ErrorMessage(err, fallback))
}

// withSession opens a session, loads both registries and runs fn.
func (e *env) withSession(fn func(s *app.Session) error) error {
	s, err := e.open()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Floors.Refresh(e.ctx); err != nil {
		return userError(err, "Failed to load floors")
	}
	if err := s.Areas.Refresh(e.ctx); err != nil {
		return userError(err, "Failed to load rooms")
	}
	return fn(s)
}

func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func newFloorsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "floors",
		Aliases: []string{"floor"},
		Short:   "List and edit floors",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List floors ordered by level",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				areas := s.Areas.Items()
				var rows [][]string
				for _, f := range registry.SortFloors(s.Floors.Items()) {
					rows = append(rows, []string{
						f.FloorID,
						f.Name,
						levelString(f.Level),
						registry.IconOrEmpty(f.Icon),
						strconv.Itoa(len(registry.AreasOnFloor(areas, f.FloorID))),
						strings.Join(f.Aliases, ", "),
					})
				}
				if len(rows) == 0 {
					fmt.Fprintln(e.out, "No floors")
					return nil
				}
				fmt.Fprintln(e.out, renderTable([]string{"ID", "NAME", "LEVEL", "ICON", "ROOMS", "ALIASES"}, rows))
				return nil
			})
		},
	}

	var (
		icon    string
		level   int
		aliases []string
	)
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a floor",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				draft := registry.NewFloorDraft(s.Floors.Items())
				draft.Name = args[0]
				if c.Flags().Changed("icon") {
					draft.Icon = icon
				}
				if c.Flags().Changed("level") {
					draft.Level = &level
				}
				for _, a := range aliases {
					if err := draft.AddAlias(a); err != nil {
						return fmt.Errorf("alias %q: %w", a, err)
					}
				}
				if err := draft.Validate(); err != nil {
					return err
				}
				floor, err := s.Floors.Create(e.ctx, draft.CreateRequest())
				if err != nil {
					return userError(err, "Failed to create floor")
				}
				fmt.Fprintf(e.out, "Created floor %s (%s)\n", floor.Name, floor.FloorID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&icon, "icon", registry.DefaultFloorIcon, "floor icon")
	create.Flags().IntVar(&level, "level", 0, "floor level (default: one above the highest floor)")
	create.Flags().StringArrayVar(&aliases, "alias", nil, "alias (repeatable)")

	rename := &cobra.Command{
		Use:   "rename FLOOR_ID NAME",
		Short: "Rename a floor",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				floor, ok := s.Floors.Get(args[0])
				if !ok {
					return fmt.Errorf("floor %q not found", args[0])
				}
				draft := registry.EditFloorDraft(floor)
				draft.Name = args[1]
				if err := draft.Validate(); err != nil {
					return err
				}
				patch := draft.PatchFrom(floor)
				if patch.Empty() {
					fmt.Fprintf(e.out, "Floor %s is already named %s\n", floor.FloorID, floor.Name)
					return nil
				}
				updated, err := s.Floors.Update(e.ctx, floor.FloorID, patch)
				if err != nil {
					return userError(err, "Failed to update floor")
				}
				fmt.Fprintf(e.out, "Renamed floor %s to %s\n", updated.FloorID, updated.Name)
				return nil
			})
		},
	}

	var force bool
	del := &cobra.Command{
		Use:   "delete FLOOR_ID",
		Short: "Delete a floor",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				floor, ok := s.Floors.Get(args[0])
				if !ok {
					return fmt.Errorf("floor %q not found", args[0])
				}
				if assigned := registry.AreasOnFloor(s.Areas.Items(), floor.FloorID); len(assigned) > 0 && !force {
					return fmt.Errorf("floor %s has %d assigned rooms that would become unassigned; rerun with --force", floor.FloorID, len(assigned))
				}
				if err := s.Floors.Delete(e.ctx, floor.FloorID); err != nil {
					return userError(err, "Failed to delete floor")
				}
				fmt.Fprintf(e.out, "Deleted floor %s\n", floor.FloorID)
				return nil
			})
		},
	}
	del.Flags().BoolVar(&force, "force", false, "delete even when rooms are assigned")

	cmd.AddCommand(list, create, rename, del)
	return cmd
}

func newAreasCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "areas",
		Aliases: []string{"area", "rooms"},
		Short:   "List and edit rooms",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List rooms grouped by floor",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				floors := s.Floors.Items()
				var rows [][]string
				for _, f := range registry.SortFloors(floors) {
					for _, a := range registry.AreasOnFloor(s.Areas.Items(), f.FloorID) {
						rows = append(rows, areaRow(a, f.Name))
					}
				}
				for _, a := range s.Areas.Items() {
					if key := a.FloorKey(); key == "" || !hasFloor(floors, key) {
						rows = append(rows, areaRow(a, registry.FloorName(floors, key)))
					}
				}
				if len(rows) == 0 {
					fmt.Fprintln(e.out, "No rooms")
					return nil
				}
				fmt.Fprintln(e.out, renderTable([]string{"ID", "NAME", "FLOOR", "ICON", "LABELS", "ALIASES"}, rows))
				return nil
			})
		},
	}

	var (
		icon    string
		floorID string
		labels  []string
		aliases []string
	)
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				if floorID != "" {
					if _, ok := s.Floors.Get(floorID); !ok {
						return fmt.Errorf("floor %q not found", floorID)
					}
				}
				draft := registry.NewAreaDraft()
				draft.Name = args[0]
				draft.Icon = icon
				draft.FloorID = floorID
				for _, l := range labels {
					if err := draft.AddLabel(l); err != nil {
						return fmt.Errorf("label %q: %w", l, err)
					}
				}
				for _, a := range aliases {
					if err := draft.AddAlias(a); err != nil {
						return fmt.Errorf("alias %q: %w", a, err)
					}
				}
				if err := draft.Validate(); err != nil {
					return err
				}
				area, err := s.Areas.Create(e.ctx, draft.CreateRequest())
				if err != nil {
					return userError(err, "Failed to create room")
				}
				fmt.Fprintf(e.out, "Created room %s (%s)\n", area.Name, area.ID)
				return nil
			})
		},
	}
	create.Flags().StringVar(&icon, "icon", "", "room icon")
	create.Flags().StringVar(&floorID, "floor", "", "floor id")
	create.Flags().StringArrayVar(&labels, "label", nil, "label (repeatable)")
	create.Flags().StringArrayVar(&aliases, "alias", nil, "alias (repeatable)")

	rename := &cobra.Command{
		Use:   "rename AREA_ID NAME",
		Short: "Rename a room",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				area, ok := s.Areas.Get(args[0])
				if !ok {
					return fmt.Errorf("room %q not found", args[0])
				}
				draft := registry.EditAreaDraft(area)
				draft.Name = args[1]
				if err := draft.Validate(); err != nil {
					return err
				}
				patch := draft.PatchFrom(area)
				if patch.Empty() {
					fmt.Fprintf(e.out, "Room %s is already named %s\n", area.ID, area.Name)
					return nil
				}
				updated, err := s.Areas.Update(e.ctx, area.ID, patch)
				if err != nil {
					return userError(err, "Failed to update room")
				}
				fmt.Fprintf(e.out, "Renamed room %s to %s\n", updated.ID, updated.Name)
				return nil
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete AREA_ID",
		Short: "Delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return e.withSession(func(s *app.Session) error {
				area, ok := s.Areas.Get(args[0])
				if !ok {
					return fmt.Errorf("room %q not found", args[0])
				}
				if err := s.Areas.Delete(e.ctx, area.ID); err != nil {
					return userError(err, "Failed to delete room")
				}
				fmt.Fprintf(e.out, "Deleted room %s\n", area.ID)
				return nil
			})
		},
	}

	cmd.AddCommand(list, create, rename, del)
	return cmd
}

func areaRow(a registry.Area, floor string) []string {
	if floor == "" {
		floor = "-"
	}
	return []string{
		a.ID,
		a.Name,
		floor,
		registry.IconOrEmpty(a.Icon),
		strings.Join(a.Labels, ", "),
		strings.Join(a.Aliases, ", "),
	}
}

func hasFloor(floors []registry.Floor, id string) bool {
	for _, f := range floors {
		if f.FloorID == id {
			return true
		}
	}
	return false
}

func levelString(level *int) string {
	if level == nil {
		return "-"
	}
	return strconv.Itoa(*level)
}
