package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nidia/composer/internal/hass"
	"github.com/nidia/composer/internal/logging"
	"github.com/nidia/composer/internal/logtail"
	"github.com/nidia/composer/internal/prefs"
	"github.com/nidia/composer/internal/registry"
	"github.com/nidia/composer/internal/state"
	"github.com/nidia/composer/internal/wizard"
)

// Registry is the synchronizer surface the UI drives.
// *state.Synchronizer implements it.
type Registry[T any] interface {
	Refresh(ctx context.Context) error
	Create(ctx context.Context, req state.Payloader) (T, error)
	Update(ctx context.Context, id string, patch state.Payloader) (T, error)
	Delete(ctx context.Context, id string) error
	Snapshot() state.Snapshot[T]
	ClearError()
}

// ConnStatus reports connection availability. *hass.Provider implements it.
type ConnStatus interface {
	State() hass.ConnState
	Err() error
	Settled() <-chan struct{}
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Conn        ConnStatus
	Floors      Registry[registry.Floor]
	Areas       Registry[registry.Area]
	Wizard      *wizard.State
	Prefs       *prefs.Store
	LogFile     string
	AutoRefresh time.Duration
	Logger      logrus.FieldLogger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx         context.Context
	conn        ConnStatus
	floors      Registry[registry.Floor]
	areas       Registry[registry.Area]
	wiz         *wizard.State
	prefs       *prefs.Store
	logFile     string
	autoRefresh time.Duration
	log         logrus.FieldLogger
	keys        keyMap

	theme    Theme
	step     wizard.Step
	width    int
	height   int
	ready    bool
	showHelp bool

	connState hass.ConnState
	connErr   error

	floorSnap state.Snapshot[registry.Floor]
	areaSnap  state.Snapshot[registry.Area]

	// viewCtx scopes the rooms step; leaving the step cancels it so late
	// results are dropped.
	viewCtx    context.Context
	viewCancel context.CancelFunc

	modal Modal

	rooms      roomsState
	profile    form
	mapForm    form
	dashForm   form
	helpers    helpersState
	activity   []logtail.Entry
	activityOK bool
}

// New creates the root model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	wiz := opts.Wizard
	if wiz == nil {
		wiz = wizard.New()
	}
	var logger logrus.FieldLogger = opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	themeName, step := "", wizard.StepProfile
	if opts.Prefs != nil {
		p := opts.Prefs.Get()
		themeName, step = p.Theme, wizard.ParseStep(p.LastStep)
	}

	m := Model{
		ctx:         ctx,
		conn:        opts.Conn,
		floors:      opts.Floors,
		areas:       opts.Areas,
		wiz:         wiz,
		prefs:       opts.Prefs,
		logFile:     opts.LogFile,
		autoRefresh: opts.AutoRefresh,
		log:         logger.WithField("component", "ui"),
		keys:        DefaultKeyMap(),
		theme:       GetTheme(themeName),
		step:        step,
		profile:     newProfileForm(wiz.Profile),
		mapForm:     newMapForm(wiz.Map),
		dashForm:    newDashboardForm(wiz.Dashboards),
	}
	if opts.Conn != nil {
		m.connState = opts.Conn.State()
		m.connErr = opts.Conn.Err()
	}
	if step == wizard.StepRooms {
		m.viewCtx, m.viewCancel = context.WithCancel(ctx)
	}
	m.syncSnapshots()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("composer"),
		waitForConnCmd(m.ctx, m.conn),
	}
	if m.step == wizard.StepReview {
		cmds = append(cmds, loadActivityCmd(m.logFile))
	}
	if m.autoRefresh > 0 {
		cmds = append(cmds, autoRefreshCmd(m.autoRefresh))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case connSettledMsg:
		m.connState, m.connErr = msg.state, msg.err
		if msg.state != hass.StateReady {
			m.log.WithError(msg.err).Warn("home assistant unavailable")
			return m, nil
		}
		m.log.Info("home assistant connection ready")
		return m, m.refreshAll(m.roomsCtx())

	case refreshedMsg:
		m.syncSnapshots()
		if msg.err != nil && !errors.Is(msg.err, state.ErrDiscarded) {
			m.log.WithError(msg.err).WithField("kind", msg.kind).Debug("refresh failed")
		}
		return m, nil

	case activityMsg:
		m.activity = msg.entries
		m.activityOK = msg.err == nil
		return m, nil

	case autoRefreshMsg:
		cmds := []tea.Cmd{autoRefreshCmd(m.autoRefresh)}
		if m.connState == hass.StateReady && m.modal == nil {
			cmds = append(cmds, m.refreshAll(m.ctx))
		}
		return m, tea.Batch(cmds...)

	case floorSavedMsg, areaSavedMsg, deletedMsg:
		m.syncSnapshots()
		m.clampCursors()
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, done := m.modal.Update(msg, m.keys)
	if done {
		m.modal = nil
		m.syncSnapshots()
		m.clampCursors()
		return m, cmd
	}
	m.modal = next
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n")
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.leaveStep()
		return m, tea.Quit
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.updateModal(msg)
	}

	if !(m.textFocused() && isTyping(msg)) {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.leaveStep()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.CycleTheme):
			m.theme = GetTheme(NextTheme(m.theme.Name))
			m.savePrefs()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.NextStep):
		return m.goTo(m.step.Next())
	case key.Matches(msg, m.keys.PrevStep):
		return m.goTo(m.step.Prev())
	}

	switch m.step {
	case wizard.StepProfile:
		return m.handleProfileKey(msg)
	case wizard.StepRooms:
		return m.handleRoomsKey(msg)
	case wizard.StepMap:
		return m.handleMapKey(msg)
	case wizard.StepHelpers:
		return m.handleHelpersKey(msg)
	case wizard.StepDashboards:
		return m.handleDashboardsKey(msg)
	case wizard.StepReview:
		return m.handleReviewKey(msg)
	}
	return m, nil
}

// textFocused reports whether printable keys go to a text input.
func (m Model) textFocused() bool {
	switch m.step {
	case wizard.StepProfile:
		return m.profile.focused().editsText()
	case wizard.StepMap:
		return m.mapForm.focused().editsText()
	case wizard.StepDashboards:
		return m.dashForm.focused().editsText()
	}
	return false
}

// goTo switches steps. Entering the rooms step opens a fresh view context
// and reloads both registries; leaving it cancels that context.
func (m Model) goTo(step wizard.Step) (tea.Model, tea.Cmd) {
	if step == m.step {
		return m, nil
	}
	m.leaveStep()
	m.step = step
	m.savePrefs()

	switch step {
	case wizard.StepRooms:
		m.viewCtx, m.viewCancel = context.WithCancel(m.ctx)
		return m, m.refreshAll(m.viewCtx)
	case wizard.StepReview:
		return m, loadActivityCmd(m.logFile)
	}
	return m, nil
}

func (m *Model) leaveStep() {
	if m.viewCancel != nil {
		m.viewCancel()
		m.viewCtx, m.viewCancel = nil, nil
	}
}

func (m Model) roomsCtx() context.Context {
	if m.viewCtx != nil {
		return m.viewCtx
	}
	return m.ctx
}

func (m *Model) syncSnapshots() {
	if m.floors != nil {
		m.floorSnap = m.floors.Snapshot()
	}
	if m.areas != nil {
		m.areaSnap = m.areas.Snapshot()
	}
}

func (m Model) refreshAll(ctx context.Context) tea.Cmd {
	var cmds []tea.Cmd
	if m.floors != nil {
		cmds = append(cmds, refreshCmd(ctx, "floors", m.floors.Refresh))
	}
	if m.areas != nil {
		cmds = append(cmds, refreshCmd(ctx, "areas", m.areas.Refresh))
	}
	return tea.Batch(cmds...)
}

func (m Model) savePrefs() {
	if m.prefs == nil {
		return
	}
	theme, step := m.theme.Name, m.step.String()
	if err := m.prefs.Update(func(p *prefs.Prefs) {
		p.Theme = theme
		p.LastStep = step
	}); err != nil {
		m.log.WithError(err).Warn("save preferences")
	}
}

func (m Model) renderContent() string {
	switch m.step {
	case wizard.StepProfile:
		return m.renderProfile()
	case wizard.StepRooms:
		return m.renderRooms()
	case wizard.StepMap:
		return m.renderMap()
	case wizard.StepHelpers:
		return m.renderHelpers()
	case wizard.StepDashboards:
		return m.renderDashboards()
	case wizard.StepReview:
		return m.renderReview()
	}
	return ""
}

// Messages

type connSettledMsg struct {
	state hass.ConnState
	err   error
}

type refreshedMsg struct {
	kind string
	err  error
}

type activityMsg struct {
	entries []logtail.Entry
	err     error
}

type autoRefreshMsg time.Time

// Commands

func waitForConnCmd(ctx context.Context, conn ConnStatus) tea.Cmd {
	if conn == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-conn.Settled():
			return connSettledMsg{state: conn.State(), err: conn.Err()}
		case <-ctx.Done():
			return nil
		}
	}
}

func refreshCmd(ctx context.Context, kind string, refresh func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{kind: kind, err: refresh(ctx)}
	}
}

func loadActivityCmd(path string) tea.Cmd {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.Activity(path, ActivityLimit, ActivityWindow)
		return activityMsg{entries: entries, err: err}
	}
}

func autoRefreshCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return autoRefreshMsg(t)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
