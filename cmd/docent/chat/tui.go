package chatcmder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/papercomputeco/docent/pkg/export"
	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/session"
)

type asker interface {
	Ask(ctx context.Context, mode rag.Mode, query string, opts ...rag.AskOption) (*rag.Response, error)
}

type turnReader interface {
	Turns(ctx context.Context, sessionID string) ([]*session.Turn, error)
}

type chatConfig struct {
	Asker     asker
	Sessions  turnReader
	SessionID string
	Mode      rag.Mode
	ExportDir string
}

// chatEntry is one question and, once it arrives, its answer.
type chatEntry struct {
	question string
	mode     rag.Mode
	answer   string
	err      error
	done     bool
}

type answerMsg struct {
	resp *rag.Response
	err  error
}

type exportedMsg struct {
	path  string
	turns int
	err   error
}

// header, input box, status line and help
const chromeHeight = 6

var (
	chatTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	chatMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	chatQuestionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	chatErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	chatModeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	chatInputStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type chatKeyMap struct {
	Ask    key.Binding
	Mode   key.Binding
	Export key.Binding
	Up     key.Binding
	Down   key.Binding
	Quit   key.Binding
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Ask, k.Mode, k.Export, k.Quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Ask, k.Mode, k.Export}, {k.Up, k.Down, k.Quit}}
}

func defaultChatKeyMap() chatKeyMap {
	return chatKeyMap{
		Ask:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Mode:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "docs/web")),
		Export: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "export")),
		Up:     key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		Down:   key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

type chatModel struct {
	ctx context.Context
	cfg chatConfig

	mode     rag.Mode
	entries  []chatEntry
	pending  bool
	status   string
	width    int
	ready    bool
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	keys     chatKeyMap
	help     help.Model
}

func newChatModel(ctx context.Context, cfg chatConfig) chatModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press enter"
	ti.Focus()

	mode := cfg.Mode
	if mode == "" {
		mode = rag.ModeDocuments
	}

	return chatModel{
		ctx:      ctx,
		cfg:      cfg,
		mode:     mode,
		input:    ti,
		viewport: viewport.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		keys:     defaultChatKeyMap(),
		help:     help.New(),
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(max(3, msg.Height-chromeHeight))
		m.input.SetWidth(max(10, msg.Width-8))
		m.help.SetWidth(msg.Width)
		m.refresh()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case answerMsg:
		m.pending = false
		if len(m.entries) == 0 {
			return m, nil
		}
		last := &m.entries[len(m.entries)-1]
		last.done = true
		if msg.err != nil {
			last.err = msg.err
			m.status = "error: " + msg.err.Error()
		} else {
			last.answer = msg.resp.Format()
			m.status = fmt.Sprintf("answered from %d chunk(s)", msg.resp.Retrieved())
			if msg.resp.Mode == rag.ModeWeb {
				m.status = "answered from the web"
			}
		}
		m.refresh()
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("exported %d turn(s) to %s", msg.turns, msg.path)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Mode):
		if m.mode == rag.ModeWeb {
			m.mode = rag.ModeDocuments
		} else {
			m.mode = rag.ModeWeb
		}
		m.status = "mode: " + string(m.mode)
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.status = "exporting..."
		return m, exportCmd(m.ctx, m.cfg)

	case key.Matches(msg, m.keys.Up):
		m.viewport.PageUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.PageDown()
		return m, nil

	case key.Matches(msg, m.keys.Ask):
		question := strings.TrimSpace(m.input.Value())
		if question == "" || m.pending {
			return m, nil
		}
		m.pending = true
		m.status = ""
		m.entries = append(m.entries, chatEntry{question: question, mode: m.mode})
		m.input.Reset()
		m.refresh()
		return m, tea.Batch(askCmd(m.ctx, m.cfg, m.mode, question), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *chatModel) refresh() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m chatModel) renderEntries() string {
	if len(m.entries) == 0 {
		return chatMutedStyle.Render("No questions yet.")
	}

	wrap := lipgloss.NewStyle()
	if m.width > 0 {
		wrap = wrap.Width(m.width)
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(chatQuestionStyle.Render(fmt.Sprintf("Q%d [%s]: %s", i+1, e.mode, e.question)))
		b.WriteString("\n")
		switch {
		case !e.done:
			b.WriteString(m.spinner.View() + " thinking...")
		case e.err != nil:
			b.WriteString(chatErrorStyle.Render(e.err.Error()))
		default:
			b.WriteString(wrap.Render(e.answer))
		}
	}
	return b.String()
}

func (m chatModel) View() tea.View {
	if !m.ready {
		return tea.NewView("Loading...")
	}

	header := chatTitleStyle.Render("docent chat") + "  " +
		chatModeStyle.Render("mode: "+string(m.mode)) + "  " +
		chatMutedStyle.Render("session: "+m.cfg.SessionID)

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(m.viewport.View() + "\n")
	b.WriteString(chatInputStyle.Render(m.input.View()) + "\n")
	b.WriteString(chatMutedStyle.Render(m.status) + "\n")
	b.WriteString(chatMutedStyle.Render(m.help.View(m.keys)))

	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

func askCmd(ctx context.Context, cfg chatConfig, mode rag.Mode, question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := cfg.Asker.Ask(ctx, mode, question, rag.WithSession(cfg.SessionID))
		return answerMsg{resp: resp, err: err}
	}
}

func exportCmd(ctx context.Context, cfg chatConfig) tea.Cmd {
	return func() tea.Msg {
		turns, err := cfg.Sessions.Turns(ctx, cfg.SessionID)
		if err != nil {
			return exportedMsg{err: err}
		}

		path := filepath.Join(cfg.ExportDir, "chat_"+cfg.SessionID+export.Extension(export.FormatText))
		if err := export.WriteFile(path, export.FormatText, session.Transcript(turns)); err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{path: path, turns: len(turns)}
	}
}
