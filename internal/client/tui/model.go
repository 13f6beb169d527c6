// Package tui renders the interactive research interface: a chat view backed
// by the dispatcher and transcript, plus sessions, library and usage panels.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/ilmai/ilmcli/internal/client/api"
	"github.com/ilmai/ilmcli/internal/client/auth"
	"github.com/ilmai/ilmcli/internal/client/chat"
	"github.com/ilmai/ilmcli/internal/client/library"
	"github.com/ilmai/ilmcli/internal/client/models"
	"github.com/ilmai/ilmcli/internal/client/session"
	"github.com/ilmai/ilmcli/internal/client/usage"
	"github.com/ilmai/ilmcli/internal/logging"
)

// Deps are the assembled client services the TUI renders.
type Deps struct {
	Client       api.Client
	Auth         *auth.Manager
	Transcript   *chat.Transcript
	Registry     *session.Registry
	Dispatcher   *chat.Dispatcher
	Usage        *usage.Monitor
	Library      *library.Service
	Log          logging.Logger
	PollInterval time.Duration
}

type view int

const (
	viewChat view = iota
	viewSessions
	viewLibrary
	viewUsage
)

func (v view) title() string {
	switch v {
	case viewSessions:
		return "Sessions"
	case viewLibrary:
		return "Library"
	case viewUsage:
		return "Usage"
	default:
		return "Research"
	}
}

// libraryFilters cycles with the f key in the library view.
var libraryFilters = []string{"", "quran", "hadith", "fiqh"}

type Model struct {
	deps Deps
	ctx  context.Context

	view     view
	input    textinput.Model
	vp       viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	width, height int
	ready         bool
	busy          bool
	status        string
	cursor        int
	libFilter     int
}

func NewModel(ctx context.Context, deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about Quran, Hadith, or Fiqh..."
	ti.CharLimit = 2000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		deps:  deps,
		ctx:   ctx,
		input: ti,
		spin:  sp,
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, deps Deps) error {
	p := tea.NewProgram(NewModel(ctx, deps), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.pollUsage(), m.schedulePoll())
}

type (
	queryDoneMsg     struct{}
	sessionsDoneMsg  struct{ err error }
	historyDoneMsg   struct{ err error }
	libraryDoneMsg   struct{ err error }
	usagePolledMsg   struct{}
	usageTickMsg     struct{}
	upgradeDoneMsg  struct{ err error }
	deleteDoneMsg   struct{ err error }
	sourcesSavedMsg struct {
		saved int
		err   error
	}
)

func (m Model) dispatch(text string) tea.Cmd {
	return func() tea.Msg {
		m.deps.Dispatcher.Dispatch(m.ctx, text)
		return queryDoneMsg{}
	}
}

func (m Model) loadSessions() tea.Cmd {
	return func() tea.Msg {
		return sessionsDoneMsg{err: m.deps.Registry.List(m.ctx)}
	}
}

func (m Model) openSession(id int64) tea.Cmd {
	return func() tea.Msg {
		history, err := m.deps.Client.History(m.ctx, id)
		if err != nil {
			return historyDoneMsg{err: err}
		}
		m.deps.Registry.Open(id)
		m.deps.Transcript.Replace(history)
		return historyDoneMsg{}
	}
}

func (m Model) deleteSession(id int64) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{err: m.deps.Registry.Delete(m.ctx, id)}
	}
}

func (m Model) loadLibrary() tea.Cmd {
	return func() tea.Msg {
		return libraryDoneMsg{err: m.deps.Library.Refresh(m.ctx)}
	}
}

func (m Model) deleteCitation(id int64) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{err: m.deps.Library.Delete(m.ctx, id)}
	}
}

// saveLatestSources promotes every Source of the most recent assistant
// answer into the library, best-effort.
func (m Model) saveLatestSources() tea.Cmd {
	msgs := m.deps.Transcript.Messages()
	var sources []models.Source
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleAssistant && len(msgs[i].Sources) > 0 {
			sources = msgs[i].Sources
			break
		}
	}
	return func() tea.Msg {
		saved := 0
		var firstErr error
		for _, s := range sources {
			if _, err := m.deps.Library.Save(m.ctx, s.Type, s.ID); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			saved++
		}
		return sourcesSavedMsg{saved: saved, err: firstErr}
	}
}

func (m Model) pollUsage() tea.Cmd {
	return func() tea.Msg {
		_ = m.deps.Usage.Poll(m.ctx)
		return usagePolledMsg{}
	}
}

func (m Model) schedulePoll() tea.Cmd {
	interval := m.deps.PollInterval
	if interval <= 0 {
		interval = time.Minute
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return usageTickMsg{} })
}

func (m Model) upgrade() tea.Cmd {
	return func() tea.Msg {
		return upgradeDoneMsg{err: m.deps.Usage.Upgrade(m.ctx)}
	}
}

func (m *Model) switchView(v view) tea.Cmd {
	m.view = v
	m.cursor = 0
	m.status = ""
	cmds := []tea.Cmd{m.pollUsage()}
	switch v {
	case viewSessions:
		cmds = append(cmds, m.loadSessions())
	case viewLibrary:
		cmds = append(cmds, m.loadLibrary())
	case viewChat:
		m.input.Focus()
		m.refreshViewport()
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		headerHeight := 2
		footerHeight := 4
		if !m.ready {
			m.vp = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = msg.Height - headerHeight - footerHeight
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(msg.Width-4, 100)),
		)
		if err == nil {
			m.renderer = renderer
		}
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case queryDoneMsg:
		m.busy = false
		m.refreshViewport()
		m.vp.GotoBottom()
		// A query may have consumed quota or minted a session.
		return m, m.pollUsage()

	case sessionsDoneMsg:
		if msg.err != nil {
			m.status = m.reportAuthAware(msg.err, "Could not load sessions.")
		}
		return m, nil

	case historyDoneMsg:
		if msg.err != nil {
			m.status = "Could not load that session."
			return m, nil
		}
		cmd := m.switchView(viewChat)
		return m, cmd

	case libraryDoneMsg:
		if msg.err != nil {
			m.status = m.reportAuthAware(msg.err, "Could not load the library.")
		}
		return m, nil

	case deleteDoneMsg:
		if msg.err != nil {
			m.status = "Delete failed."
			return m, nil
		}
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case upgradeDoneMsg:
		if msg.err != nil {
			m.status = "Upgrade failed."
		} else {
			m.status = "Upgraded to premium."
		}
		return m, nil

	case sourcesSavedMsg:
		switch {
		case msg.saved > 0:
			m.status = fmt.Sprintf("Saved %d source(s) to the library.", msg.saved)
		case msg.err != nil:
			m.status = m.reportAuthAware(msg.err, "Could not save sources.")
		default:
			m.status = "The latest answer has no sources to save."
		}
		return m, nil

	case usageTickMsg:
		return m, tea.Batch(m.pollUsage(), m.schedulePoll())

	case usagePolledMsg:
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		cmd := m.switchView((m.view + 1) % 4)
		return m, cmd
	case "f2":
		mode := m.deps.Dispatcher.ToggleMode()
		m.status = fmt.Sprintf("Mode: %s", mode)
		return m, nil
	case "f3":
		lang := m.deps.Dispatcher.ToggleLanguage()
		m.status = fmt.Sprintf("Language: %s", languageName(lang))
		return m, nil
	}

	switch m.view {
	case viewChat:
		return m.handleChatKey(msg)
	case viewSessions:
		return m.handleSessionsKey(msg)
	case viewLibrary:
		return m.handleLibraryKey(msg)
	case viewUsage:
		return m.handleUsageKey(msg)
	}
	return m, nil
}

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		return m.submit(m.input.Value())
	case "1", "2", "3":
		// On an empty conversation the number keys submit the matching
		// suggested question; otherwise they type as usual.
		if m.input.Value() == "" && m.deps.Transcript.Len() == 1 {
			questions := suggestedQuestions[suggestionLang(m.deps.Dispatcher.Language())]
			idx := int(msg.String()[0] - '1')
			if idx < len(questions) {
				return m.submit(questions[idx])
			}
		}
	case "ctrl+s":
		return m, m.saveLatestSources()
	case "ctrl+n":
		m.deps.Registry.StartNew()
		m.refreshViewport()
		return m, nil
	case "up", "down", "pgup", "pgdown":
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit runs one query through the dispatcher and marks the UI busy.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	if text == "" || m.busy {
		return m, nil
	}
	m.input.Reset()
	m.busy = true
	m.status = ""
	cmd := m.dispatch(text)
	m.refreshViewport()
	m.vp.GotoBottom()
	return m, tea.Batch(cmd, m.spin.Tick)
}

func (m Model) handleSessionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sessions := m.deps.Registry.Sessions()
	switch msg.String() {
	case "esc":
		cmd := m.switchView(viewChat)
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(sessions)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(sessions) {
			return m, m.openSession(sessions[m.cursor].ID)
		}
	case "d":
		if m.cursor < len(sessions) {
			return m, m.deleteSession(sessions[m.cursor].ID)
		}
	case "n":
		m.deps.Registry.StartNew()
		cmd := m.switchView(viewChat)
		return m, cmd
	case "r":
		return m, m.loadSessions()
	}
	return m, nil
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	citations := m.deps.Library.Citations(libraryFilters[m.libFilter])
	switch msg.String() {
	case "esc":
		cmd := m.switchView(viewChat)
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(citations)-1 {
			m.cursor++
		}
	case "d":
		if m.cursor < len(citations) {
			return m, m.deleteCitation(citations[m.cursor].ID)
		}
	case "f":
		m.libFilter = (m.libFilter + 1) % len(libraryFilters)
		m.cursor = 0
	case "r":
		return m, m.loadLibrary()
	}
	return m, nil
}

func (m Model) handleUsageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		cmd := m.switchView(viewChat)
		return m, cmd
	case "u":
		return m, m.upgrade()
	case "r":
		return m, m.pollUsage()
	}
	return m, nil
}

// reportAuthAware turns a background failure into a status line. A rejected
// token forces a sign-out so the client never keeps operating half signed-in.
func (m Model) reportAuthAware(err error, fallback string) string {
	if errors.Is(err, api.ErrUnauthorized) {
		m.deps.Auth.Invalidate(m.ctx)
		return "Session expired. Run 'ilmcli login' to sign in again."
	}
	return fallback
}

func languageName(code string) string {
	if code == "bn" {
		return "Bangla"
	}
	return "English"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
