package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/wizard"
)

const (
	paneFloors = iota
	paneRooms
)

// roomsState is the selection on the rooms step. Cursors index the
// overview order, not the synchronizer order.
type roomsState struct {
	pane        int
	floorCursor int
	roomCursor  int
}

// orderedFloors returns the floors in overview order.
func (m Model) orderedFloors() []registry.Floor {
	return registry.SortFloors(m.floorSnap.Items)
}

// orderedRooms returns the rooms flattened in overview order.
func (m Model) orderedRooms() []registry.Area {
	var out []registry.Area
	for _, g := range wizard.RoomsByFloor(m.floorSnap.Items, m.areaSnap.Items) {
		out = append(out, g.Areas...)
	}
	return out
}

func (m Model) selectedFloor() (registry.Floor, bool) {
	floors := m.orderedFloors()
	if m.rooms.floorCursor < 0 || m.rooms.floorCursor >= len(floors) {
		return registry.Floor{}, false
	}
	return floors[m.rooms.floorCursor], true
}

func (m Model) selectedRoom() (registry.Area, bool) {
	rooms := m.orderedRooms()
	if m.rooms.roomCursor < 0 || m.rooms.roomCursor >= len(rooms) {
		return registry.Area{}, false
	}
	return rooms[m.rooms.roomCursor], true
}

func (m *Model) clampCursors() {
	clamp := func(cursor, n int) int {
		return max(0, min(cursor, n-1))
	}
	m.rooms.floorCursor = clamp(m.rooms.floorCursor, len(m.floorSnap.Items))
	m.rooms.roomCursor = clamp(m.rooms.roomCursor, len(m.areaSnap.Items))
}

func (m Model) handleRoomsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.floors == nil || m.areas == nil {
		return m, nil
	}
	ctx := m.roomsCtx()
	switch {
	case key.Matches(msg, m.keys.Left):
		m.rooms.pane = paneFloors
	case key.Matches(msg, m.keys.Right):
		m.rooms.pane = paneRooms

	case key.Matches(msg, m.keys.Up):
		if m.rooms.pane == paneFloors {
			m.rooms.floorCursor--
		} else {
			m.rooms.roomCursor--
		}
		m.clampCursors()
	case key.Matches(msg, m.keys.Down):
		if m.rooms.pane == paneFloors {
			m.rooms.floorCursor++
		} else {
			m.rooms.roomCursor++
		}
		m.clampCursors()

	case key.Matches(msg, m.keys.Add):
		if m.rooms.pane == paneFloors {
			m.modal = newCreateFloorDialog(ctx, m.floors, m.floorSnap.Items)
			return m, nil
		}
		floorID := ""
		if f, ok := m.selectedFloor(); ok {
			floorID = f.FloorID
		}
		m.modal = newCreateAreaDialog(ctx, m.areas, m.orderedFloors(), floorID)

	case key.Matches(msg, m.keys.Edit):
		if m.rooms.pane == paneFloors {
			if f, ok := m.selectedFloor(); ok {
				m.modal = newEditFloorDialog(ctx, m.floors, f)
			}
			return m, nil
		}
		if a, ok := m.selectedRoom(); ok {
			m.modal = newEditAreaDialog(ctx, m.areas, m.orderedFloors(), a)
		}

	case key.Matches(msg, m.keys.Delete):
		if m.rooms.pane == paneFloors {
			if f, ok := m.selectedFloor(); ok {
				m.modal = newDeleteDialog(ctx, "floor", f.Name, f.FloorID, floorDeleteWarnings(f, m.areaSnap.Items), m.floors.Delete)
			}
			return m, nil
		}
		if a, ok := m.selectedRoom(); ok {
			m.modal = newDeleteDialog(ctx, "room", a.Name, a.ID, nil, m.areas.Delete)
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshAll(ctx)

	case key.Matches(msg, m.keys.DismissError):
		m.floors.ClearError()
		m.areas.ClearError()
		m.syncSnapshots()
	}
	return m, nil
}

// floorDeleteWarnings lists the rooms that lose their floor.
func floorDeleteWarnings(f registry.Floor, areas []registry.Area) []string {
	assigned := registry.AreasOnFloor(areas, f.FloorID)
	if len(assigned) == 0 {
		return nil
	}
	names := make([]string, len(assigned))
	for i, a := range assigned {
		names[i] = a.Name
	}
	verb := "are"
	if len(assigned) == 1 {
		verb = "is"
	}
	return []string{
		fmt.Sprintf("%s %s assigned to this floor; they will become unassigned", pluralize(len(assigned), "room", "rooms"), verb),
		strings.Join(names, ", "),
	}
}

func (m Model) renderRooms() string {
	styles := m.theme.Styles()

	if len(m.floorSnap.Items) == 0 && len(m.areaSnap.Items) == 0 && (m.floorSnap.Loading || m.areaSnap.Loading) {
		return styles.MutedText.Render(" Loading floors and rooms…")
	}

	compact := m.width < LayoutCompactWidth
	floorWidth, roomWidth := max(m.width/3, 30), max(m.width-m.width/3-6, 30)
	if compact {
		floorWidth, roomWidth = max(m.width-4, 30), max(m.width-4, 30)
	}

	floorPanel, roomPanel := styles.Panel, styles.Panel
	if m.rooms.pane == paneFloors {
		floorPanel = styles.FocusPanel
	} else {
		roomPanel = styles.FocusPanel
	}
	left := floorPanel.Width(floorWidth).Render(m.renderFloorList(styles, floorWidth-2))
	right := roomPanel.Width(roomWidth).Render(m.renderRoomList(styles, roomWidth-2))

	if compact {
		return lipgloss.JoinVertical(lipgloss.Left, left, right)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) renderFloorList(styles Styles, width int) string {
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Floors"))
	b.WriteString("\n")

	floors := m.orderedFloors()
	if len(floors) == 0 {
		b.WriteString(styles.FaintText.Render("No floors yet. Press a to add one."))
		return b.String()
	}
	for i, f := range floors {
		count := len(registry.AreasOnFloor(m.areaSnap.Items, f.FloorID))
		line := padRight(levelText(f.Level), 4) + truncate(f.Name, max(width-16, 8))
		line = padRight(line, max(width-10, 12)) + pluralize(count, "room", "rooms")
		if i == m.rooms.floorCursor && m.rooms.pane == paneFloors {
			b.WriteString(styles.Selected.Render(line))
		} else if i == m.rooms.floorCursor {
			b.WriteString(styles.AccentText.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRoomList(styles Styles, width int) string {
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Rooms"))
	b.WriteString("\n")

	if len(m.areaSnap.Items) == 0 {
		b.WriteString(styles.FaintText.Render("No rooms yet. Press a to add one."))
		return b.String()
	}

	i := 0
	for _, g := range wizard.RoomsByFloor(m.floorSnap.Items, m.areaSnap.Items) {
		if len(g.Areas) == 0 {
			continue
		}
		b.WriteString(styles.MutedText.Render(g.Name))
		b.WriteString("\n")
		for _, a := range g.Areas {
			line := "  " + truncate(a.Name, max(width/2, 10))
			if icon := registry.IconOrEmpty(a.Icon); icon != "" {
				line = padRight(line, max(width/2, 12)) + icon
			}
			if i == m.rooms.roomCursor && m.rooms.pane == paneRooms {
				b.WriteString(styles.Selected.Render(line))
			} else {
				b.WriteString(styles.Text.Render(line))
			}
			b.WriteString("\n")
			if len(a.Labels) > 0 {
				b.WriteString(styles.InfoText.Render("    " + chips(a.Labels, "")))
				b.WriteString("\n")
			}
			i++
		}
	}
	return b.String()
}
