package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/yukora/core"
	"pkt.systems/yukora/internal/command"
	"pkt.systems/yukora/internal/eventbus"
	"pkt.systems/yukora/internal/logx"
	"pkt.systems/yukora/schema"
)

func newConsoleCmd() *cobra.Command {
	var opts runtimeOptions
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the interactive playback console in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			bus := eventbus.New(pslog.Ctx(ctx))
			service, err := newLocalService(ctx, cfg, bus)
			if err != nil {
				return err
			}
			defer service.Close()
			opened, err := service.OpenConsole(ctx, schema.OpenConsoleRequest{Owner: "local"})
			if err != nil {
				return err
			}
			events, unsubscribe := bus.Subscribe(opened.ConsoleID)
			defer unsubscribe()
			ctx = logx.ContextWithConsoleLogger(ctx, logx.WithConsole(ctx, opened.ConsoleID), opened.ConsoleID)

			model := newConsoleModel(ctx, service, command.NewHandler(service, command.HandlerConfig{}), opened.ConsoleID, events, themeName(cfg))
			program := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = program.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&opts.scriptFile, "scripts", "", "YAML script pack (overrides scripts.file)")
	cmd.Flags().Float64Var(&opts.timeScale, "time-scale", 0, "multiply every script delay (overrides console.time_scale)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "colour theme")
	return cmd
}

type consoleCommandHandler interface {
	Handle(ctx context.Context, consoleID schema.ConsoleID, input string) (command.Result, bool, error)
}

type busEventMsg struct {
	event eventbus.Event
	ok    bool
}

type consoleModel struct {
	ctx       context.Context
	service   core.Service
	handler   consoleCommandHandler
	consoleID schema.ConsoleID
	events    <-chan eventbus.Event
	styles    styles

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	lines        []string
	status       schema.Status
	script       schema.ScriptName
	inputEnabled bool
	draft        string
	notices      []string
}

func newConsoleModel(ctx context.Context, service core.Service, handler consoleCommandHandler, consoleID schema.ConsoleID, events <-chan eventbus.Event, theme schema.ThemeName) *consoleModel {
	st := newStyles(theme)
	input := textinput.New()
	input.Prompt = st.prompt.Render("yukora> ")
	input.Placeholder = "type a command, /help for more"
	input.CharLimit = 512
	input.Focus()
	return &consoleModel{
		ctx:       ctx,
		service:   service,
		handler:   handler,
		consoleID: consoleID,
		events:    events,
		styles:    st,
		input:        input,
		viewport:     viewport.New(80, 20),
		inputEnabled: true,
	}
}

func waitForEvent(events <-chan eventbus.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		return busEventMsg{event: event, ok: ok}
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-lipgloss.Width(m.input.Prompt)-1, 1)
		m.ready = true
		m.layout()
		return m, nil
	case busEventMsg:
		if !msg.ok {
			return m, tea.Quit
		}
		if quit := m.handleEvent(msg.event); quit {
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *consoleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			return m, tea.Quit
		}
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyEnter:
		return m.submit()
	}
	if !m.inputEnabled {
		return m, nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.syncDraft()
	}
	return m, cmd
}

func (m *consoleModel) syncDraft() {
	err := m.service.SetDraft(m.ctx, schema.SetDraftRequest{ConsoleID: m.consoleID, Text: m.input.Value()})
	if err != nil {
		pslog.Ctx(m.ctx).Debug("console draft sync failed", "err", err)
	}
}

func (m *consoleModel) clearDraft() {
	m.input.SetValue("")
	m.syncDraft()
}

func (m *consoleModel) submit() (tea.Model, tea.Cmd) {
	if !m.inputEnabled {
		return m, nil
	}
	text := strings.TrimSpace(m.input.Value())
	m.notices = nil
	if text == "" {
		m.clearDraft()
		m.layout()
		return m, nil
	}
	log := pslog.Ctx(m.ctx)
	if m.handler != nil {
		result, handled, err := m.handler.Handle(m.ctx, m.consoleID, text)
		if handled {
			m.clearDraft()
			switch {
			case err != nil:
				m.notices = []string{"error: " + err.Error()}
			case result.Exit:
				return m, tea.Quit
			default:
				m.notices = result.Notices
				if result.Trigger != nil && result.Trigger.Accepted {
					m.setStatus(schema.StatusRunning, "")
				}
				m.refreshLog()
			}
			m.layout()
			return m, nil
		}
	}
	resp, err := m.service.Submit(m.ctx, schema.SubmitRequest{ConsoleID: m.consoleID, Input: text})
	if err != nil {
		m.input.SetValue("")
	} else {
		m.refreshLog()
		m.input.SetValue(m.draft)
	}
	switch {
	case err != nil:
		log.Warn("console submit failed", "err", err)
		m.notices = []string{"error: " + err.Error()}
	case !resp.Accepted:
		m.notices = []string{schema.NoticePrefix + "playback already running"}
	default:
		m.setStatus(schema.StatusRunning, "")
	}
	m.layout()
	return m, nil
}

// handleEvent applies a bus event and reports whether the console closed.
func (m *consoleModel) handleEvent(event eventbus.Event) bool {
	switch event.Type {
	case eventbus.EventOutput:
		m.refreshLog()
	case eventbus.EventStatus:
		m.setStatus(event.Status.Status, event.Status.Script)
		m.refreshLog()
	case eventbus.EventConsole:
		return event.Console.Type == schema.ConsoleEventClosed
	}
	return false
}

func (m *consoleModel) setStatus(status schema.Status, script schema.ScriptName) {
	m.status = status
	if status == schema.StatusRunning {
		if script != "" {
			m.script = script
		}
	} else {
		m.script = ""
	}
}

// setInputEnabled applies the console's input gate to the text field.
func (m *consoleModel) setInputEnabled(enabled bool) {
	m.inputEnabled = enabled
	if enabled {
		m.input.Focus()
		m.input.Placeholder = "type a command, /help for more"
		return
	}
	m.input.Blur()
	m.input.Placeholder = "running..."
}

func (m *consoleModel) refreshLog() {
	resp, err := m.service.GetLog(m.ctx, schema.GetLogRequest{ConsoleID: m.consoleID})
	if err != nil {
		pslog.Ctx(m.ctx).Debug("console log refresh failed", "err", err)
		return
	}
	m.lines = resp.Log.Lines
	m.draft = resp.Log.Draft
	m.setInputEnabled(resp.Log.InputEnabled)
	m.layout()
}

func (m *consoleModel) layout() {
	if !m.ready {
		return
	}
	height := m.height - 2 - len(m.notices)
	m.viewport.Width = m.width
	m.viewport.Height = max(height, 1)
	atBottom := m.viewport.AtBottom()
	rendered := make([]string, len(m.lines))
	for i, line := range m.lines {
		rendered[i] = m.styles.FormatLine(line)
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.width).Render(strings.Join(rendered, "\n")))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m *consoleModel) statusBar() string {
	left := m.styles.badge.Render("yukora") + m.styles.bar.Render(" "+string(m.consoleID)+" ")
	var right string
	if m.status == schema.StatusRunning {
		label := "running"
		if m.script != "" {
			label += " " + string(m.script)
		}
		right = m.styles.busy.Render(label)
	} else {
		right = m.styles.idle.Render("idle")
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + m.styles.bar.Render(strings.Repeat(" ", gap)) + right
}

func (m *consoleModel) View() string {
	if !m.ready {
		return "starting console..."
	}
	var b strings.Builder
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	for _, notice := range m.notices {
		b.WriteString(m.styles.notice.Render(notice))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}
