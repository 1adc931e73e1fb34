// Package inbox renders the notification inbox list backed by the
// in-memory notification store.
package inbox

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	inboxstore "github.com/dnguyen/perfhub/internal/inbox"
	"github.com/dnguyen/perfhub/internal/keys"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/refs"
	"github.com/dnguyen/perfhub/internal/theme"
)

// RecordsLoadedMsg is sent when notifications have been read from the
// store.
type RecordsLoadedMsg struct {
	Records []model.NotificationRecord
}

// SelectedNotificationMsg is sent when a user opens a notification.
type SelectedNotificationMsg struct {
	Record model.NotificationRecord
}

// MarkReadRequestMsg asks the parent to mark one notification read.
type MarkReadRequestMsg struct {
	ID string
}

// MarkAllReadRequestMsg asks the parent to mark every notification read.
type MarkAllReadRequestMsg struct{}

// FollowRefMsg asks the parent to navigate to a goal or review
// mentioned in the selected notification.
type FollowRefMsg struct {
	Ref refs.Ref
}

// Model is the notification inbox view component.
type Model struct {
	list       list.Model
	store      *inboxstore.Store
	keys       *keys.KeyMap
	records    []model.NotificationRecord
	unreadOnly bool
	width      int
	height     int
}

// New creates a new inbox view model.
func New(s *inboxstore.Store, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		store:  s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the current notifications.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload returns a tea.Cmd that reads the current notifications from
// the store.
func (m Model) Reload() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		return RecordsLoadedMsg{Records: s.Records()}
	}
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RecordsLoadedMsg:
		m.records = msg.Records
		return m, m.rebuildItems()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		rec, ok := m.selectedRecord()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedNotificationMsg{Record: rec}
		}

	case key.Matches(msg, m.keys.MarkRead):
		rec, ok := m.selectedRecord()
		if !ok || !rec.Unread() {
			return m, nil
		}
		return m, func() tea.Msg {
			return MarkReadRequestMsg{ID: rec.ID}
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, func() tea.Msg {
			return MarkAllReadRequestMsg{}
		}

	case key.Matches(msg, m.keys.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		return m, m.rebuildItems()

	case key.Matches(msg, m.keys.Follow):
		rec, ok := m.selectedRecord()
		if !ok {
			return m, nil
		}
		found := refs.Extract(rec.Message)
		if len(found) == 0 {
			return m, nil
		}
		return m, func() tea.Msg {
			return FollowRefMsg{Ref: found[0]}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// rebuildItems refreshes the list items from the cached records,
// applying the unread filter when active.
func (m *Model) rebuildItems() tea.Cmd {
	var items []list.Item
	for _, rec := range m.records {
		if m.unreadOnly && !rec.Unread() {
			continue
		}
		items = append(items, NotificationItem{Record: rec})
	}
	return m.list.SetItems(items)
}

// selectedRecord returns the currently highlighted notification.
func (m Model) selectedRecord() (model.NotificationRecord, bool) {
	item, ok := m.list.SelectedItem().(NotificationItem)
	if !ok {
		return model.NotificationRecord{}, false
	}
	return item.Record, true
}

// UnreadOnly reports whether the unread filter is active.
func (m Model) UnreadOnly() bool {
	return m.unreadOnly
}

// SetUnreadOnly switches the unread filter, e.g. to apply the
// configured startup default.
func (m *Model) SetUnreadOnly(on bool) {
	m.unreadOnly = on
}

// View renders the inbox view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the inbox is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.unreadOnly && len(m.records) > 0 {
		return style.Render("No unread notifications.\nPress 'u' to show everything.")
	}

	return style.Render("No notifications yet.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
