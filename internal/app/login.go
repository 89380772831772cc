package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/qsurvey/internal/session"
)

const (
	loginUsername = iota
	loginPassword
)

func (m *Model) initLoginInputs() {
	username := newInput("Username: ")
	password := newInput("Password: ")
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	m.loginInputs = []textinput.Model{username, password}
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) enterLogin() tea.Cmd {
	m.loggingIn = false
	m.loginErr = ""
	m.loginInfo = ""
	m.loginInputs[loginPassword].SetValue("")
	return m.setLoginIndex(loginUsername)
}

func (m *Model) setLoginIndex(idx int) tea.Cmd {
	count := len(m.loginInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.loginIndex = idx
	var cmd tea.Cmd
	for i := range m.loginInputs {
		if i == idx {
			cmd = m.loginInputs[i].Focus()
		} else {
			m.loginInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loggingIn {
		return m, nil
	}
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		return m, m.setLoginIndex(m.loginIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setLoginIndex(m.loginIndex - 1)
	case tea.KeyEnter:
		if m.loginIndex == loginUsername && m.loginInputs[loginPassword].Value() == "" {
			return m, m.setLoginIndex(loginPassword)
		}
		return m, m.submitLogin()
	}
	var cmd tea.Cmd
	m.loginInputs[m.loginIndex], cmd = m.loginInputs[m.loginIndex].Update(msg)
	return m, cmd
}

func (m *Model) submitLogin() tea.Cmd {
	username := strings.TrimSpace(m.loginInputs[loginUsername].Value())
	password := m.loginInputs[loginPassword].Value()
	if username == "" || password == "" {
		m.loginErr = session.ErrMissingCredentials.Error()
		return nil
	}
	m.loggingIn = true
	m.loginErr = ""
	m.loginInfo = ""
	gate, backend, ctx := m.gate, m.backend, m.ctx
	login := func() tea.Msg {
		return loginDoneMsg{err: gate.Login(ctx, backend, username, password)}
	}
	return tea.Batch(login, m.spinner.Tick)
}

func (m *Model) handleLoginDone(msg loginDoneMsg) tea.Cmd {
	m.loggingIn = false
	if msg.err != nil {
		m.log.Infow("login failed", "error", msg.err)
		m.loginErr = m.gate.Message()
		if m.loginErr == "" || errors.Is(msg.err, session.ErrNotReady) {
			m.loginErr = session.ErrInvalidCredentials.Error()
		}
		m.loginInputs[loginPassword].SetValue("")
		return m.setLoginIndex(loginPassword)
	}
	m.loginInputs[loginPassword].SetValue("")
	return m.navigate(session.RouteHome)
}

func (m *Model) viewLogin() string {
	s := m.styles
	lines := []string{
		s.title.Render("Survey Analytics Dashboard"),
		s.header.Render("Sign in to continue"),
		"",
	}
	for _, input := range m.loginInputs {
		lines = append(lines, input.View())
	}
	lines = append(lines, "")
	switch {
	case m.loggingIn:
		lines = append(lines, m.spinner.View()+" "+s.muted.Render("Logging in..."))
	case m.loginErr != "":
		lines = append(lines, s.err.Render(m.loginErr))
	case m.loginInfo != "":
		lines = append(lines, s.accent.Render(m.loginInfo))
	default:
		lines = append(lines, s.header.Render("enter: login  tab: next field  esc: quit"))
	}
	box := s.modal.Width(modalWidth(m.width)).Render(strings.Join(lines, "\n"))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
