package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/wizard"
)

// Banner texts for the two connection states in which calls cannot be made.
const (
	waitingBanner     = "Waiting for Home Assistant connection…"
	unavailableBanner = "Home Assistant unavailable"
)

// renderHeader renders the status bar: logo, connection badge, progress.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bar := newBarPainter(m.theme.Surface)

	progress := m.wiz.Progress(m.areaSnap.Items)
	parts := []string{
		bar.segment("composer", styles.Logo),
		m.connBadge(styles),
		bar.segment(fmt.Sprintf("%d%% complete", progress.Percent), styles.Text),
		bar.segment(pluralize(len(m.floorSnap.Items), "floor", "floors")+" · "+
			pluralize(len(m.areaSnap.Items), "room", "rooms"), styles.MutedText),
	}
	if m.floorSnap.Loading || m.areaSnap.Loading {
		parts = append(parts, bar.segment("syncing…", styles.InfoText))
	}
	parts = append(parts, bar.segment(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bar.join(parts, "  "))
}

// barPainter keeps the header background continuous. Lipgloss resets the
// background after each styled run, so gaps between words and segments are
// painted explicitly.
type barPainter struct {
	bg  lipgloss.Color
	gap lipgloss.Style
}

func newBarPainter(color string) barPainter {
	bg := lipgloss.Color(color)
	return barPainter{bg: bg, gap: lipgloss.NewStyle().Background(bg)}
}

func (p barPainter) segment(text string, style lipgloss.Style) string {
	style = style.Background(p.bg)
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = style.Render(w)
	}
	return strings.Join(words, p.gap.Render(" "))
}

func (p barPainter) join(parts []string, sep string) string {
	return strings.Join(parts, p.gap.Render(sep))
}

func (m Model) connBadge(styles Styles) string {
	switch m.connState {
	case hass.StateReady:
		return styles.Badge(badgeReady).Render("CONNECTED")
	case hass.StateUnavailable:
		return styles.Badge(badgeUnavailable).Render("OFFLINE")
	default:
		return styles.Badge(badgeConnecting).Render("CONNECTING")
	}
}

// renderSteps renders the step tabs with completion marks.
func (m Model) renderSteps() string {
	styles := m.theme.Styles()
	progress := m.wiz.Progress(m.areaSnap.Items)

	tabs := make([]string, 0, len(wizard.Steps))
	for i, step := range wizard.Steps {
		mark := "○"
		if progress.Complete[step] {
			mark = "●"
		}
		label := fmt.Sprintf("%d %s %s", i+1, mark, step)
		switch {
		case step == m.step:
			tabs = append(tabs, styles.Badge(badgeCurrent).Render(label))
		case progress.Complete[step]:
			tabs = append(tabs, styles.SuccessText.Padding(0, 1).Render(label))
		default:
			tabs = append(tabs, styles.MutedText.Padding(0, 1).Render(label))
		}
	}
	return " " + lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderBanner shows connection problems and synchronizer errors. The
// waiting state is kept distinct from a connection that gave up.
func (m Model) renderBanner() string {
	styles := m.theme.Styles()
	var lines []string
	switch m.connState {
	case hass.StateUnresolved:
		lines = append(lines, styles.WarningText.Render(" "+waitingBanner))
	case hass.StateUnavailable:
		text := unavailableBanner
		if m.connErr != nil {
			text += ": " + m.connErr.Error()
		}
		lines = append(lines, styles.DangerText.Render(" "+text))
	}
	for _, msg := range m.syncErrors() {
		lines = append(lines, styles.DangerText.Render(" "+msg)+styles.FaintText.Render("  (x to dismiss)"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) syncErrors() []string {
	var out []string
	if m.floorSnap.LastError != "" {
		out = append(out, m.floorSnap.LastError)
	}
	if m.areaSnap.LastError != "" && m.areaSnap.LastError != m.floorSnap.LastError {
		out = append(out, m.areaSnap.LastError)
	}
	return out
}

// renderFooter renders key hints for the current step.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	var hints string
	switch m.step {
	case wizard.StepProfile:
		hints = "↑/↓ field · ←/→ choose · space toggle"
	case wizard.StepRooms:
		hints = "←/→ pane · a add · e edit · d delete · r reload"
	case wizard.StepMap:
		hints = "↑/↓ item · space toggle"
	case wizard.StepHelpers:
		hints = "↑/↓ helper · space toggle · f category"
	case wizard.StepDashboards:
		hints = "↑/↓ row · ←/→ template · space toggle widget"
	case wizard.StepReview:
		hints = "r reload activity"
	}
	hints += " · tab next step · ? help · q quit"
	return styles.Footer.Width(m.width).Render(hints)
}
