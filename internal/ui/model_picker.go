package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/saravenpi/chatdeck/internal/models"
)

type modelItem struct {
	model   models.ChatModel
	current bool
}

func (i modelItem) FilterValue() string { return i.model.Name }
func (i modelItem) Title() string {
	if i.current {
		return "✓ " + i.model.Name
	}
	return "  " + i.model.Name
}
func (i modelItem) Description() string { return i.model.Description }

type modelSavedMsg struct {
	id  string
	err error
}

// ModelPickerModel lets the user choose the model new messages are sent to.
type ModelPickerModel struct {
	app          *App
	list         list.Model
	err          error
	windowWidth  int
	windowHeight int
}

func NewModelPickerModel(app *App) ModelPickerModel {
	current := app.Catalog.Pick(app.Prefs.Model())

	items := make([]list.Item, len(app.Catalog.Models))
	selected := 0
	for i, cm := range app.Catalog.Models {
		items[i] = modelItem{model: cm, current: cm.ID == current}
		if cm.ID == current {
			selected = i
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("5")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))

	l := list.New(items, delegate, 80, 14)
	l.Title = "Choose a model"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Select(selected)

	return ModelPickerModel{
		app:          app,
		list:         l,
		windowWidth:  80,
		windowHeight: 30,
	}
}

func (m ModelPickerModel) Init() tea.Cmd {
	return nil
}

func (m ModelPickerModel) saveModelCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return modelSavedMsg{id: id, err: m.app.Prefs.SetModel(id)}
	}
}

func (m ModelPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4)
		return m, nil

	case modelSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.app.Log.Info().Str("model", msg.id).Msg("preferred model changed")
		return switchTo(NewMenuModel(m.app), m.windowWidth, m.windowHeight)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "q":
			return switchTo(NewMenuModel(m.app), m.windowWidth, m.windowHeight)
		case "enter":
			if item, ok := m.list.SelectedItem().(modelItem); ok {
				return m, m.saveModelCmd(item.model.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ModelPickerModel) View() string {
	s := m.list.View() + "\n"
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}
	s += helpStyle.Render("↑↓/jk: navigate • enter: use model • esc: back")
	return s
}
