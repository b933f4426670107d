package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fahmaliyi/credvault/vault"
)

type viewState int

const (
	stateTable viewState = iota
	stateShow
	stateAdd
)

const revealFor = 5 * time.Second

type model struct {
	session *Session
	entries []vault.Record
	cursor  int
	state   viewState
	inputs  []textinput.Model
	focus   int
	reveal  bool
	msg     string
}

// clearMsg hides a revealed password and the status line.
type clearMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// RunTUI starts the interactive TUI
func RunTUI(s *Session) error {
	_, err := tea.NewProgram(newModel(s)).Run()
	return err
}

func newModel(s *Session) model {
	limits := s.Vault.Store().Limits()
	inputs := make([]textinput.Model, 3)
	for i, f := range []struct {
		placeholder string
		limit       int
	}{
		{"Site", limits.Site},
		{"Username", limits.Username},
		{"Password", limits.Password},
	} {
		ti := textinput.New()
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		inputs[i] = ti
	}
	inputs[2].EchoMode = textinput.EchoPassword
	inputs[2].EchoCharacter = '*'

	return model{
		session: s,
		entries: s.Vault.ListAccounts(),
		state:   stateTable,
		inputs:  inputs,
	}
}

// --- Tea Model interface ---
func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(clearMsg); ok {
		m.reveal = false
		m.msg = ""
		return m, nil
	}
	switch m.state {
	case stateShow:
		return updateShow(m, msg)
	case stateAdd:
		return updateAdd(m, msg)
	default:
		return updateTable(m, msg)
	}
}

func (m model) View() string {
	var s string
	switch m.state {
	case stateShow:
		s = viewShow(m)
	case stateAdd:
		s = viewAdd(m)
	default:
		s = viewTable(m)
	}
	if m.msg != "" {
		s += "\n" + m.msg + "\n"
	}
	return s
}

func clearLater(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearMsg{} })
}

func (m *model) refresh() {
	m.entries = m.session.Vault.ListAccounts()
	if m.cursor >= len(m.entries) {
		m.cursor = len(m.entries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) status(err error, ok string) {
	if err != nil {
		m.msg = errStyle.Render(Describe(err))
		return
	}
	m.msg = msgStyle.Render(ok)
}

func (m *model) copySelected() {
	if _, err := m.session.CopyPassword(m.cursor); err != nil {
		m.msg = errStyle.Render("Cannot copy password: " + err.Error())
		return
	}
	if m.session.ClearAfter > 0 {
		m.msg = msgStyle.Render(fmt.Sprintf("Password copied! (clears in %s)", m.session.ClearAfter))
		return
	}
	m.msg = msgStyle.Render("Password copied!")
}

// --- Table ---
func updateTable(m model, msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.entries) > 0 {
			m.state = stateShow
			m.msg = ""
		}
	case "a":
		m.state = stateAdd
		m.msg = ""
		for i := range m.inputs {
			m.inputs[i].SetValue("")
			m.inputs[i].Blur()
		}
		m.focus = 0
		return m, m.inputs[0].Focus()
	case "d":
		if len(m.entries) == 0 {
			break
		}
		m.status(DeleteEntry(m.session, m.cursor), "Entry deleted!")
		m.refresh()
	case "c":
		if len(m.entries) > 0 {
			m.copySelected()
		}
	case "w":
		m.status(m.session.Save(), "Accounts saved to file.")
	case "r":
		m.status(m.session.Load(), "Accounts loaded from file.")
		m.refresh()
	}
	return m, nil
}

func viewTable(m model) string {
	s := titleStyle.Render("Vault Entries") + "\n\n"
	if len(m.entries) == 0 {
		s += "No accounts found.\n"
	}
	for i, e := range m.entries {
		line := fmt.Sprintf("%3d  %-40s  %-30s", i+1, e.Site, e.Username)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s += line + "\n"
	}
	s += "\n" + helpStyle.Render("j/k=move, enter=show, a=add, d=delete, c=copy, w=save, r=reload, q=quit")
	return s
}

// --- Show Entry ---
func updateShow(m model, msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "q":
		m.state = stateTable
		m.reveal = false
	case "ctrl+c":
		return m, tea.Quit
	case "v":
		m.reveal = true
		return m, clearLater(revealFor)
	case "c":
		m.copySelected()
	}
	return m, nil
}

func viewShow(m model) string {
	e := m.entries[m.cursor]
	secret := strings.Repeat("*", 8)
	if m.reveal {
		secret = e.Password
	}
	s := fmt.Sprintf("Site: %s\nUsername: %s\nPassword: %s\n", e.Site, e.Username, secret)
	s += "\n" + helpStyle.Render("v=reveal, c=copy, esc=back")
	return s
}

// --- Add Entry ---
func updateAdd(m model, msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.state = stateTable
			return m, nil
		case "tab", "down":
			return m, m.focusNext(false)
		case "shift+tab", "up":
			return m, m.focusNext(true)
		case "enter":
			if m.focus < len(m.inputs)-1 {
				return m, m.focusNext(false)
			}
			return saveAddEntry(m), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// Focus next or previous input
func (m *model) focusNext(backward bool) tea.Cmd {
	n := len(m.inputs)
	m.inputs[m.focus].Blur()
	if backward {
		m.focus = (m.focus - 1 + n) % n
	} else {
		m.focus = (m.focus + 1) % n
	}
	return m.inputs[m.focus].Focus()
}

// Save the entry to vault
func saveAddEntry(m model) model {
	site := m.inputs[0].Value()
	username := m.inputs[1].Value()
	password := []byte(m.inputs[2].Value())

	if err := AddEntry(m.session, site, username, password); err != nil {
		m.status(err, "")
		return m
	}
	m.refresh()
	m.cursor = len(m.entries) - 1
	m.state = stateTable
	m.status(nil, "Account added successfully.")

	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	return m
}

func viewAdd(m model) string {
	s := titleStyle.Render("Add New Entry") + "\n\n"
	for _, ti := range m.inputs {
		s += fmt.Sprintf("%-9s %s\n", ti.Placeholder+":", ti.View())
	}
	s += "\n" + helpStyle.Render("tab=next field, enter=save, esc=cancel")
	return s
}
