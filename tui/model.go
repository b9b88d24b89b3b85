// Package tui is the full-screen chat front-end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mcpchat/chat"
)

const (
	inputRows   = 3
	minToolsCol = 24
)

type connectDoneMsg struct {
	err error
}

type toolsDoneMsg struct {
	tools []chat.Tool
	err   error
}

type queryDoneMsg struct {
	reply string
	err   error
}

type Model struct {
	ctx         context.Context
	session     *chat.Session
	autoConnect bool

	messages viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	width    int
	height   int
	notice   string
	noticeOK bool
	quitting bool
}

// NewModel builds the chat view around session. With autoConnect set the
// view connects to the MCP server as soon as it starts.
func NewModel(ctx context.Context, session *chat.Session, autoConnect bool) Model {
	ta := textarea.New()
	ta.Placeholder = "Enter your query..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputRows)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		ctx:         ctx,
		session:     session,
		autoConnect: autoConnect,
		messages:    viewport.New(0, 0),
		input:       ta,
		spinner:     sp,
		width:       100,
		height:      30,
	}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	if m.autoConnect {
		return tea.Batch(textarea.Blink, m.connectCmd())
	}
	return textarea.Blink
}

func (m Model) connectCmd() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		return connectDoneMsg{err: session.ConnectServer(ctx)}
	}
}

func (m Model) toolsCmd() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		tools, err := session.FetchTools(ctx)
		return toolsDoneMsg{tools: tools, err: err}
	}
}

func (m Model) queryCmd(prompt string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		reply, err := session.Query(ctx, prompt)
		return queryDoneMsg{reply: reply, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case connectDoneMsg:
		if msg.err != nil {
			m.setNotice(chat.NoticeConnectFailed, false)
			return m, nil
		}
		m.setNotice(chat.NoticeConnected, true)
		return m, m.toolsCmd()

	case toolsDoneMsg:
		m.session.ApplyTools(msg.tools, msg.err)
		return m, nil

	case queryDoneMsg:
		m.session.Complete(msg.reply, msg.err)
		if msg.err != nil {
			m.setNotice(m.session.LastError(), false)
		}
		m.renderMessages()
		return m, nil

	case spinner.TickMsg:
		if !m.session.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+o":
			return m, m.connectCmd()
		case "ctrl+r":
			return m, m.toolsCmd()
		case "enter":
			return m.send()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.messages, cmd = m.messages.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send mirrors a disabled Send button: prompts are dropped while a query is
// in flight. Slash commands still run.
func (m Model) send() (tea.Model, tea.Cmd) {
	raw := m.input.Value()
	if cmd, ok := m.slashCommand(raw); ok {
		m.input.Reset()
		return m, cmd
	}

	if m.session.Loading() {
		return m, nil
	}
	prompt, ok := m.session.Begin(raw)
	if !ok {
		return m, nil
	}
	if !m.noticeOK {
		m.setNotice("", false)
	}
	m.input.Reset()
	m.renderMessages()
	return m, tea.Batch(m.spinner.Tick, m.queryCmd(prompt))
}

func (m *Model) slashCommand(raw string) (tea.Cmd, bool) {
	switch strings.TrimSpace(raw) {
	case "/connect":
		return m.connectCmd(), true
	case "/tools":
		return m.toolsCmd(), true
	case "/quit", "/exit":
		m.quitting = true
		return tea.Quit, true
	}
	return nil, false
}

// setNotice fills the single status slot; the newest connect or query
// outcome wins.
func (m *Model) setNotice(text string, ok bool) {
	m.notice = text
	m.noticeOK = ok
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	chatW, toolsW, contentH := m.layout()

	title := titleStyle.Render("MCP Client") +
		dimStyle.Render(fmt.Sprintf("  %s", m.session.ScriptPath()))

	chatPanel := panelStyle.Width(chatW - 2).Height(contentH - 2).Render(
		panelTitleStyle.Render("Conversation") + "\n" + m.messages.View(),
	)
	toolsPanel := panelStyle.Width(toolsW - 2).Height(contentH - 2).Render(
		panelTitleStyle.Render("Tools") + "\n" + renderTools(m.session.Tools(), toolsW-4),
	)
	content := lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, toolsPanel)

	input := panelStyle.Width(m.width - 2).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, content, input, m.renderStatus())
}

func (m Model) renderStatus() string {
	var status string
	switch {
	case m.session.Loading():
		status = m.spinner.View() + " Processing..."
	case m.notice != "" && m.noticeOK:
		status = noticeStyle.Render(m.notice)
	case m.notice != "":
		status = errorStyle.Render(m.notice)
	}
	help := helpStyle.Render("enter: send  alt+enter: newline  ctrl+o: connect  ctrl+r: tools  pgup/pgdn: scroll  esc: quit")
	return status + "\n" + help
}

func (m *Model) renderMessages() {
	m.messages.SetContent(renderConversation(m.session.Messages(), m.messages.Width))
	m.messages.GotoBottom()
}

func renderConversation(msgs []chat.Message, width int) string {
	if len(msgs) == 0 {
		return dimStyle.Render("No messages yet. Type a query and press enter.")
	}

	wrap := lipgloss.NewStyle().Width(max(width, 10))
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Sender == chat.SenderUser {
			b.WriteString(userLabelStyle.Render("You"))
		} else {
			b.WriteString(aiLabelStyle.Render("AI"))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(msg.Text))
	}
	return b.String()
}

func renderTools(tools []chat.Tool, width int) string {
	if len(tools) == 0 {
		return dimStyle.Render(chat.NoToolsText)
	}

	wrap := lipgloss.NewStyle().Width(max(width, 10))
	var b strings.Builder
	for i, t := range tools {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(toolNameStyle.Render(t.Name))
		if t.Description != "" {
			b.WriteString("\n")
			b.WriteString(wrap.Render(t.Description))
		}
		if params := chat.ToolParams(t); len(params) > 0 {
			b.WriteString("\n")
			b.WriteString(dimStyle.Render(wrap.Render("params: " + strings.Join(params, ", "))))
		}
	}
	return b.String()
}

// layout returns the widths of the two panels and their shared height.
func (m Model) layout() (chatW, toolsW, contentH int) {
	toolsW = max(minToolsCol, m.width/3)
	chatW = max(20, m.width-toolsW)
	// title, input panel with border, status and help lines
	contentH = max(6, m.height-1-(inputRows+2)-2)
	return chatW, toolsW, contentH
}

func (m *Model) resize() {
	chatW, _, contentH := m.layout()
	m.messages.Width = max(10, chatW-4)
	m.messages.Height = max(1, contentH-3)
	m.input.SetWidth(max(10, m.width-4))
	m.renderMessages()
}
