package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/saravenpi/chatdeck/internal/history"
	"github.com/saravenpi/chatdeck/internal/models"
)

// loadAheadRows is how close to the last loaded chat the cursor may get
// before the next page is requested.
const loadAheadRows = 3

type pageLoadedMsg struct {
	loaded bool
	err    error
}

type chatDeletedMsg struct {
	id  string
	err error
}

func formatTimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}

	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	}
	if duration < 2*time.Minute {
		return "1 min ago"
	}
	if duration < time.Hour {
		return fmt.Sprintf("%dm ago", int(duration.Minutes()))
	}
	if duration < 2*time.Hour {
		return "1h ago"
	}
	if duration < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(duration.Hours()))
	}
	if duration < 48*time.Hour {
		return "yesterday"
	}
	if duration < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
	}
	return t.Format("Jan 2")
}

// ConversationsModel is the history screen: chats grouped by age, loaded a
// page at a time as the cursor nears the end.
type ConversationsModel struct {
	app           *App
	snap          history.Snapshot
	sections      []history.Section
	chats         []models.ChatSummary
	cursor        int
	loading       bool
	confirmDelete bool
	deleteTarget  models.ChatSummary
	status        string
	err           error
	spinner       spinner.Model
	windowWidth   int
	windowHeight  int
}

func NewConversationsModel(app *App) ConversationsModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = statusStyle

	m := ConversationsModel{
		app:          app,
		spinner:      s,
		windowWidth:  80,
		windowHeight: 30,
	}
	m.refresh()
	m.loading = len(m.snap.Pages) == 0
	return m
}

// withError returns the screen showing err above the list.
func (m ConversationsModel) withError(err error) ConversationsModel {
	m.err = err
	return m
}

func (m ConversationsModel) Init() tea.Cmd {
	if !m.loading {
		return nil
	}
	return tea.Batch(m.spinner.Tick, m.loadPageCmd())
}

func (m ConversationsModel) loadPageCmd() tea.Cmd {
	return func() tea.Msg {
		loaded, err := m.app.Paginator.LoadNextPage(m.app.ctx())
		return pageLoadedMsg{loaded: loaded, err: err}
	}
}

func (m ConversationsModel) deleteChatCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return chatDeletedMsg{id: id, err: m.app.Paginator.DeleteChat(m.app.ctx(), id)}
	}
}

// refresh rebuilds the rendered sections from a fresh snapshot, keeping the
// cursor on the same chat when it is still present.
func (m *ConversationsModel) refresh() {
	var selected string
	if m.cursor < len(m.chats) {
		selected = m.chats[m.cursor].ID
	}

	m.snap = m.app.Paginator.Snapshot()
	m.sections = m.snap.Groups(m.app.now()).Sections()
	m.chats = m.chats[:0:0]
	for _, section := range m.sections {
		m.chats = append(m.chats, section.Chats...)
	}

	if selected != "" {
		for i, chat := range m.chats {
			if chat.ID == selected {
				m.cursor = i
				return
			}
		}
	}
	if m.cursor >= len(m.chats) {
		m.cursor = len(m.chats) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m ConversationsModel) listHeight() int {
	h := m.windowHeight - 6
	if h < 3 {
		h = 3
	}
	return h
}

// maybeLoadMore requests the next page when the cursor is close to the last
// loaded chat or everything loaded so far fits on screen.
func (m ConversationsModel) maybeLoadMore() (ConversationsModel, tea.Cmd) {
	if m.loading || m.snap.ReachedEnd || m.snap.LastErr != nil {
		return m, nil
	}
	rows := len(m.chats) + len(m.sections)
	if m.cursor < len(m.chats)-loadAheadRows && rows >= m.listHeight() {
		return m, nil
	}
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, m.loadPageCmd())
}

func (m ConversationsModel) selected() (models.ChatSummary, bool) {
	if m.cursor < 0 || m.cursor >= len(m.chats) {
		return models.ChatSummary{}, false
	}
	return m.chats[m.cursor], true
}

func (m ConversationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case pageLoadedMsg:
		m.refresh()
		// A load another screen started may still be in flight; its result
		// arrives here too.
		m.loading = m.snap.Loading
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if !msg.loaded && len(m.snap.Pages) > 0 {
			return m, nil
		}
		return m.maybeLoadMore()

	case chatDeletedMsg:
		m.refresh()
		if msg.err != nil {
			m.status = ""
			switch {
			case history.IsNotFound(msg.err):
				m.err = fmt.Errorf("chat no longer exists, press r to refresh")
			case history.IsForbidden(msg.err):
				m.err = fmt.Errorf("you can only delete your own chats")
			default:
				m.err = fmt.Errorf("failed to delete chat: %w", msg.err)
			}
			return m, nil
		}
		m.err = nil
		m.status = "Chat deleted"
		return m.maybeLoadMore()

	case spinner.TickMsg:
		if m.loading || m.snap.Deleting > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.confirmDelete {
			switch msg.String() {
			case "y", "Y":
				m.confirmDelete = false
				m.err = nil
				m.status = "Deleting chat..."
				m.snap.Deleting++
				return m, tea.Batch(m.spinner.Tick, m.deleteChatCmd(m.deleteTarget.ID))
			case "n", "N", "esc":
				m.confirmDelete = false
				return m, nil
			}
			return m, nil
		}

		switch msg.String() {
		case "q":
			return m, tea.Quit

		case "esc":
			return switchTo(NewMenuModel(m.app), m.windowWidth, m.windowHeight)

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "j":
			if m.cursor < len(m.chats)-1 {
				m.cursor++
			}
			return m.maybeLoadMore()

		case "g", "home":
			m.cursor = 0
			return m, nil

		case "G", "end":
			if len(m.chats) > 0 {
				m.cursor = len(m.chats) - 1
			}
			return m.maybeLoadMore()

		case "enter":
			if chat, ok := m.selected(); ok {
				return switchTo(NewMessagesModel(m.app, chat.ID).fromHistory(), m.windowWidth, m.windowHeight)
			}
			return m, nil

		case "n":
			return switchTo(NewMessagesModel(m.app, m.app.Paginator.NewChat()), m.windowWidth, m.windowHeight)

		case "d":
			if chat, ok := m.selected(); ok {
				m.confirmDelete = true
				m.deleteTarget = chat
				m.status = ""
			}
			return m, nil

		case "r":
			if m.loading {
				return m, nil
			}
			if m.snap.LastErr == nil {
				m.app.Paginator.Reset()
				m.cursor = 0
			}
			m.err = nil
			m.status = ""
			m.refresh()
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.loadPageCmd())
		}
	}

	return m, nil
}

func (m ConversationsModel) renderChat(chat models.ChatSummary, selected bool) string {
	title := chat.Title
	if title == "" {
		title = "Untitled"
	}
	maxTitle := m.windowWidth - 20
	if maxTitle < 10 {
		maxTitle = 10
	}
	if r := []rune(title); len(r) > maxTitle {
		title = string(r[:maxTitle-3]) + "..."
	}
	if chat.Visibility == models.VisibilityPublic {
		title += " 🌐"
	}

	age := dateStyle.Render(formatTimeAgo(chat.CreatedAt, m.app.now()))
	if selected {
		return selectedStyle.Render("▸ "+title) + "  " + age
	}
	return normalStyle.Render("  "+title) + "  " + age
}

func (m ConversationsModel) renderList() string {
	var lines []string
	cursorLine := 0
	i := 0
	for _, section := range m.sections {
		lines = append(lines, sectionStyle.Render(section.Bucket.Title()))
		for _, chat := range section.Chats {
			if i == m.cursor {
				cursorLine = len(lines)
			}
			lines = append(lines, m.renderChat(chat, i == m.cursor))
			i++
		}
	}

	height := m.listHeight()
	start := 0
	if cursorLine >= height {
		start = cursorLine - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func (m ConversationsModel) footer() string {
	switch {
	case m.loading:
		return fmt.Sprintf("  %s Loading chats...", m.spinner.View())
	case m.snap.LastErr != nil:
		return ""
	case m.snap.ReachedEnd && !m.snap.Empty && len(m.chats) > 0:
		return helpStyle.Render("You have reached the end of your chat history.")
	}
	return ""
}

func (m ConversationsModel) View() string {
	s := titleStyle.Render(fmt.Sprintf("Conversations - %d chats", len(m.chats))) + "\n"

	if m.confirmDelete {
		title := m.deleteTarget.Title
		if title == "" {
			title = "Untitled"
		}
		dialog := fmt.Sprintf("Delete %q?\n\nThis permanently deletes the chat and its messages.\n\n", title)
		dialog += helpStyle.Render("y: delete • n: cancel")
		return s + dialogStyle.Render(dialog)
	}

	if m.loading && len(m.snap.Pages) == 0 {
		return s + fmt.Sprintf("\n  %s Loading chats...\n", m.spinner.View())
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	} else if m.status != "" {
		if m.snap.Deleting > 0 {
			s += statusStyle.Render(m.status) + "\n"
		} else {
			s += successStyle.Render(m.status) + "\n"
		}
	}

	if len(m.chats) == 0 && !m.loading {
		if m.snap.LastErr == nil {
			s += "\n" + normalStyle.Render("  Your conversations will appear here once you start chatting.") + "\n"
		}
		help := "n: new chat • r: refresh • esc: back • q: quit"
		if m.snap.LastErr != nil {
			help = "r: retry • n: new chat • esc: back • q: quit"
		}
		return s + "\n" + helpStyle.Render(help)
	}

	s += m.renderList() + "\n"
	if f := m.footer(); f != "" {
		s += f + "\n"
	}

	help := "↑↓/jk: navigate • enter: open • n: new chat • d: delete • r: refresh • esc: back • q: quit"
	if m.snap.LastErr != nil {
		help = "↑↓/jk: navigate • enter: open • r: retry • esc: back • q: quit"
	}
	s += "\n" + helpStyle.Render(help)
	return s
}
