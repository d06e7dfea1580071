package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/saravenpi/chatdeck/internal/chat"
	"github.com/saravenpi/chatdeck/internal/models"
)

type chatOpenedMsg struct {
	session chat.Session
	err     error
}

type messageSentMsg struct {
	session chat.Session
	err     error
}

type MessagesModel struct {
	app          *App
	chatID       string
	session      chat.Session
	viewport     viewport.Model
	textarea     textarea.Model
	loading      bool
	sending      bool
	composing    bool
	changed      bool
	err          error
	spinner      spinner.Model
	windowWidth  int
	windowHeight int

	// opened from the history list rather than created with n
	listed bool
}

// NewMessagesModel opens chat chatID. An id with no stored chat starts a new
// conversation with the compose box already focused.
func NewMessagesModel(app *App, chatID string) MessagesModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	vp := viewport.New(80, 20)

	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	return MessagesModel{
		app:          app,
		chatID:       chatID,
		viewport:     vp,
		textarea:     ta,
		loading:      true,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
}

// fromHistory marks the chat as picked from the history list, so it must
// already exist.
func (m MessagesModel) fromHistory() MessagesModel {
	m.listed = true
	return m
}

func (m MessagesModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.openChatCmd())
}

func (m MessagesModel) openChatCmd() tea.Cmd {
	return func() tea.Msg {
		session, err := m.app.Chats.Open(m.app.ctx(), m.app.UserID, m.chatID, m.app.Prefs.Model())
		return chatOpenedMsg{session: session, err: err}
	}
}

func (m MessagesModel) sendCmd(text string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		next, err := m.app.Chats.Send(m.app.ctx(), session, text)
		return messageSentMsg{session: next, err: err}
	}
}

func (m MessagesModel) back() (tea.Model, tea.Cmd) {
	if m.changed {
		m.app.Paginator.Reset()
	}
	return switchTo(NewConversationsModel(m.app), m.windowWidth, m.windowHeight)
}

func (m *MessagesModel) layout() {
	headerHeight := 4
	textareaHeight := 5
	helpHeight := 2
	available := m.windowHeight - headerHeight - helpHeight
	if m.session.ReadOnly {
		available--
	}
	if m.app.RemoteHistory {
		available--
	}

	m.viewport.Width = m.windowWidth - 4
	m.viewport.Height = available
	if m.composing {
		m.viewport.Height = available - textareaHeight
		m.textarea.SetWidth(m.windowWidth - 4)
	}
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

func (m *MessagesModel) compose() tea.Cmd {
	m.composing = true
	m.layout()
	m.updateViewportContent()
	m.viewport.GotoBottom()
	return m.textarea.Focus()
}

func (m MessagesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.layout()
		m.updateViewportContent()
		return m, nil

	case chatOpenedMsg:
		m.loading = false
		if errors.Is(msg.err, chat.ErrAccessDenied) {
			back := NewConversationsModel(m.app).withError(fmt.Errorf("you do not have access to this chat"))
			return switchTo(back, m.windowWidth, m.windowHeight)
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		if msg.session.IsNew && m.listed && m.app.RemoteHistory {
			m.app.Log.Warn().Str("chat_id", m.chatID).Msg("remote chat is not stored locally")
			back := NewConversationsModel(m.app).withError(fmt.Errorf("this chat is only stored on the server and cannot be opened here"))
			return switchTo(back, m.windowWidth, m.windowHeight)
		}

		m.session = msg.session
		m.layout()
		m.updateViewportContent()
		m.viewport.GotoBottom()
		if m.session.IsNew {
			return m, m.compose()
		}
		return m, nil

	case messageSentMsg:
		m.sending = false
		m.session = msg.session
		m.updateViewportContent()
		m.viewport.GotoBottom()
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		return m, nil

	case spinner.TickMsg:
		if m.loading || m.sending {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if msg.String() == "esc" {
			if m.composing {
				m.composing = false
				m.textarea.Blur()
				m.err = nil
				m.layout()
				return m, nil
			}
			return m.back()
		}

		if m.composing {
			switch msg.String() {
			case "ctrl+s":
				text := strings.TrimSpace(m.textarea.Value())
				if text == "" || m.sending {
					return m, nil
				}
				m.sending = true
				m.changed = true
				m.composing = false
				m.err = nil
				m.textarea.Reset()
				m.textarea.Blur()
				m.layout()
				return m, tea.Batch(m.spinner.Tick, m.sendCmd(text))
			default:
				var cmd tea.Cmd
				m.textarea, cmd = m.textarea.Update(msg)
				return m, cmd
			}
		}

		if m.loading || m.sending {
			return m, nil
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "n", "c":
			if m.session.ReadOnly {
				return m, nil
			}
			return m, m.compose()

		case "r":
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.openChatCmd())

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m *MessagesModel) updateViewportContent() {
	var content strings.Builder
	wrapWidth := m.viewport.Width
	if wrapWidth <= 0 {
		wrapWidth = 80
	}

	for i, message := range m.session.Messages {
		if i > 0 {
			content.WriteString("\n")
		}

		timestamp := message.CreatedAt.Format("3:04 PM")
		wrapped := wordwrap.String(message.Content, wrapWidth-10)

		switch message.Role {
		case models.RoleUser:
			header := messageHeaderStyle.Render(fmt.Sprintf("You • %s", timestamp))
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth).Render(header) + "\n")
			styled := messageFromMeStyle.Render(wrapped)
			content.WriteString(lipgloss.NewStyle().Align(lipgloss.Right).Width(wrapWidth).Render(styled) + "\n")
		default:
			header := messageHeaderStyle.Render(fmt.Sprintf("%s • %s", m.modelName(), timestamp))
			content.WriteString(header + "\n")
			content.WriteString(messageFromAssistantStyle.Render(wrapped) + "\n")
		}
	}

	m.viewport.SetContent(content.String())
}

func (m MessagesModel) modelName() string {
	if cm, ok := m.app.Catalog.Find(m.session.Model); ok {
		return cm.Name
	}
	return m.session.Model
}

func (m MessagesModel) View() string {
	if m.loading && len(m.session.Messages) == 0 {
		return fmt.Sprintf("\n  %s Loading chat...\n", m.spinner.View())
	}

	title := m.session.Chat.Title
	if title == "" {
		title = "New chat"
	}
	s := titleStyle.Render(fmt.Sprintf("💬 %s", title)) + "\n"
	s += messageHeaderStyle.Render(fmt.Sprintf("Model: %s", m.modelName())) + "\n"

	if m.session.ReadOnly {
		s += statusStyle.Render("Read-only: this chat belongs to another user.") + "\n"
	}
	if m.app.RemoteHistory {
		s += statusStyle.Render("Stored locally: this chat will not appear in the remote history.") + "\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	s += "\n"

	if len(m.session.Messages) == 0 {
		s += normalStyle.Render("  Start the conversation below.") + "\n"
	} else {
		s += m.viewport.View() + "\n"
	}

	if m.sending {
		s += fmt.Sprintf("  %s Waiting for reply...\n", m.spinner.View())
	}

	if m.composing {
		s += "\n" + inputStyle.Render("New Message:") + "\n"
		s += m.textarea.View() + "\n"
		s += helpStyle.Render("ctrl+s: send • esc: cancel")
		return s
	}

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	helpText := fmt.Sprintf("↑↓/jk: scroll • n: new message • r: refresh • esc: back • q: quit • %d%%", scrollPercent)
	if m.session.ReadOnly {
		helpText = fmt.Sprintf("↑↓/jk: scroll • r: refresh • esc: back • q: quit • %d%%", scrollPercent)
	}
	s += "\n" + helpStyle.Render(helpText)
	return s
}
