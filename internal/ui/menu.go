package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	menuConversations = "💬 Conversations"
	menuModel         = "🤖 Model"
	menuQuit          = "👋 Quit"
)

type menuItem struct {
	title string
	desc  string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

type MenuModel struct {
	app          *App
	list         list.Model
	windowWidth  int
	windowHeight int
}

// NewMenuModel creates the main menu with Conversations, Model and Quit options.
func NewMenuModel(app *App) MenuModel {
	current := app.Catalog.Pick(app.Prefs.Model())
	modelDesc := current
	if m, ok := app.Catalog.Find(current); ok {
		modelDesc = m.Name
	}

	items := []list.Item{
		menuItem{title: menuConversations, desc: "Browse, open and delete your chats"},
		menuItem{title: menuModel, desc: fmt.Sprintf("Chatting with %s", modelDesc)},
		menuItem{title: menuQuit, desc: "Leave chatdeck"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New(items, delegate, 80, 14)
	l.Title = "Chatdeck"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return MenuModel{
		app:          app,
		list:         l,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		if msg.String() == "enter" {
			selectedItem, ok := m.list.SelectedItem().(menuItem)
			if !ok {
				return m, nil
			}

			switch selectedItem.title {
			case menuConversations:
				return switchTo(NewConversationsModel(m.app), m.windowWidth, m.windowHeight)
			case menuModel:
				return switchTo(NewModelPickerModel(m.app), m.windowWidth, m.windowHeight)
			case menuQuit:
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	s := m.list.View() + "\n"
	s += helpStyle.Render("↑↓/jk: navigate • enter: select • q: quit")
	return s
}
