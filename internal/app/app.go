// Package app provides the Bubble Tea survey dashboard.
//
// The model owns view routing. Every view change goes through
// session.Resolve, and every command that can fail with
// api.ErrSessionExpired is funneled through handleExpiry.
package app

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/qsurvey/internal/api"
	"github.com/verte-zerg/qsurvey/internal/download"
	"github.com/verte-zerg/qsurvey/internal/filter"
	"github.com/verte-zerg/qsurvey/internal/logger"
	"github.com/verte-zerg/qsurvey/internal/model"
	"github.com/verte-zerg/qsurvey/internal/session"
)

const (
	defaultUser     = "Admin"
	sessionEndedMsg = "Your session has expired. Please log in again."
)

// Backend is the part of the API client the dashboard uses.
type Backend interface {
	session.Authenticator
	SurveyData(ctx context.Context, params url.Values) ([]model.SurveyRecord, error)
	ExportExcel(ctx context.Context, from, to string, others url.Values) (api.Download, error)
	DownloadImages(ctx context.Context, projectID string, files []string) (api.Download, error)
}

// Preferences persists UI settings.
type Preferences interface {
	Theme(ctx context.Context) (string, bool, error)
	SetTheme(ctx context.Context, theme string) error
}

// Options configures a Model.
type Options struct {
	Gate        *session.Gate
	Backend     Backend
	Prefs       Preferences
	DownloadDir string
	// Theme is used when no preference has been saved.
	Theme  string
	Logger *logger.Logger
	// Now returns the reference day for freshness. Defaults to time.Now.
	Now func() time.Time
}

type startedMsg struct {
	status session.Status
	theme  string
	err    error
}

type loginDoneMsg struct {
	err error
}

type logoutDoneMsg struct {
	err error
}

type queryDoneMsg struct {
	seq     int
	epoch   int
	records []model.SurveyRecord
	err     error
}

type exportDoneMsg struct {
	epoch int
	path  string
	size  int
	err   error
}

type downloadDoneMsg struct {
	epoch int
	id    string
	path  string
	size  int
	err   error
}

type themeSavedMsg struct {
	err error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	ctx     context.Context
	gate    *session.Gate
	backend Backend
	prefs   Preferences
	log     *logger.Logger
	now     func() time.Time
	dir     string

	route  session.Route
	theme  string
	styles styles

	width  int
	height int

	spinner spinner.Model

	// login view
	loginInputs []textinput.Model
	loginIndex  int
	loggingIn   bool
	loginErr    string
	loginInfo   string

	// dashboard view; epoch invalidates results of a previous session
	epoch        int
	dashReady    bool
	user         string
	form         filter.Form
	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterErr    string

	records  []model.SurveyRecord
	rows     []model.Row
	results  table.Model
	seq      int
	querying bool
	queryErr string

	exporting bool
	tracker   *download.Tracker
	status    string
	notice    string
}

// New constructs the dashboard model.
func New(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	theme := NormalizeTheme(opts.Theme)
	m := &Model{
		ctx:     context.Background(),
		gate:    opts.Gate,
		backend: opts.Backend,
		prefs:   opts.Prefs,
		log:     log,
		now:     now,
		dir:     opts.DownloadDir,
		route:   session.Resolve(opts.Gate.Status(), session.RouteHome),
		theme:   theme,
		styles:  newStyles(theme),
		tracker: download.NewTracker(),
	}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	m.initLoginInputs()
	m.initFilterInputs()
	m.initResults()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case spinner.TickMsg:
		if m.route != session.RouteLoading && !m.querying && !m.loggingIn {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case startedMsg:
		return m, m.handleStarted(msg)
	case loginDoneMsg:
		return m, m.handleLoginDone(msg)
	case logoutDoneMsg:
		if msg.err != nil {
			m.log.Warnw("logout failed to erase token", "error", msg.err)
		}
		m.resetDashboard()
		return m, m.navigate(session.RouteLogin)
	case queryDoneMsg:
		return m, m.handleQueryDone(msg)
	case exportDoneMsg:
		return m, m.handleExportDone(msg)
	case downloadDoneMsg:
		return m, m.handleDownloadDone(msg)
	case themeSavedMsg:
		if msg.err != nil {
			m.log.Warnw("failed to save theme", "error", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.route {
		case session.RouteLogin:
			return m.updateLogin(msg)
		case session.RouteHome:
			return m.updateDashboard(msg)
		default:
			if msg.String() == "q" {
				return m, tea.Quit
			}
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.route {
	case session.RouteLogin:
		return m.viewLogin()
	case session.RouteHome:
		return m.viewDashboard()
	default:
		return m.viewLoading()
	}
}

// Route returns the active view.
func (m *Model) Route() session.Route {
	return m.route
}

func (m *Model) viewLoading() string {
	line := m.spinner.View() + " " + m.styles.muted.Render("Loading...")
	if m.width == 0 || m.height == 0 {
		return line
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, line)
}

func (m *Model) startCmd() tea.Cmd {
	gate, prefs, ctx := m.gate, m.prefs, m.ctx
	return func() tea.Msg {
		status, err := gate.Start(ctx)
		msg := startedMsg{status: status, err: err}
		if prefs != nil {
			if theme, ok, perr := prefs.Theme(ctx); perr == nil && ok {
				msg.theme = theme
			}
		}
		return msg
	}
}

func (m *Model) handleStarted(msg startedMsg) tea.Cmd {
	if msg.err != nil {
		m.log.Warnw("session check failed", "error", msg.err)
	}
	if msg.theme != "" {
		m.setTheme(msg.theme)
	}
	m.log.Debugw("session resolved", "status", msg.status.String())
	return m.navigate(session.RouteHome)
}

// navigate moves to the view the gate allows for requested. Entering the
// dashboard issues the initial unfiltered query.
func (m *Model) navigate(requested session.Route) tea.Cmd {
	prev := m.route
	m.route = session.Resolve(m.gate.Status(), requested)
	switch m.route {
	case session.RouteHome:
		if !m.dashReady {
			return m.enterDashboard()
		}
	case session.RouteLogin:
		if prev != session.RouteLogin {
			return m.enterLogin()
		}
	}
	return nil
}

// handleExpiry ends the session when err reports a rejected token.
func (m *Model) handleExpiry(err error) (tea.Cmd, bool) {
	if !errors.Is(err, api.ErrSessionExpired) {
		return nil, false
	}
	if eerr := m.gate.Expire(m.ctx); eerr != nil {
		m.log.Warnw("failed to expire session", "error", eerr)
	}
	m.log.Infow("session expired", "route", m.route.String())
	m.resetDashboard()
	cmd := m.navigate(session.RouteLogin)
	m.loginInfo = sessionEndedMsg
	return cmd, true
}

func (m *Model) setTheme(theme string) {
	m.theme = NormalizeTheme(theme)
	m.styles = newStyles(m.theme)
	m.results.SetStyles(m.styles.table)
}

func (m *Model) toggleThemeCmd() tea.Cmd {
	m.setTheme(toggleTheme(m.theme))
	if m.prefs == nil {
		return nil
	}
	prefs, ctx, theme := m.prefs, m.ctx, m.theme
	return func() tea.Msg {
		return themeSavedMsg{err: prefs.SetTheme(ctx, theme)}
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	for i := range m.loginInputs {
		promptWidth := lipgloss.Width(m.loginInputs[i].Prompt)
		m.loginInputs[i].Width = maxInt(10, minInt(40, m.width-promptWidth-8))
	}
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
	m.resizeResults()
}
