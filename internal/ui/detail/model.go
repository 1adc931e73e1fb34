// Package detail renders a single notification with its metadata and
// any goal or review references found in the message.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/keys"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/refs"
	"github.com/dnguyen/perfhub/internal/theme"
)

// BackMsg signals the parent to navigate back to the inbox.
type BackMsg struct{}

// MarkReadMsg asks the parent to mark the shown notification read.
type MarkReadMsg struct {
	ID string
}

// FollowRefMsg asks the parent to navigate to a referenced item.
type FollowRefMsg struct {
	Ref refs.Ref
}

// Model is the notification detail view component.
type Model struct {
	record   *model.NotificationRecord
	found    []refs.Ref
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetRecord updates the notification being displayed.
func (m *Model) SetRecord(rec model.NotificationRecord) {
	m.record = &rec
	m.found = refs.Extract(rec.Message)
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.MarkRead):
			if m.record != nil && m.record.Unread() {
				id := m.record.ID
				return m, func() tea.Msg {
					return MarkReadMsg{ID: id}
				}
			}

		case key.Matches(msg, m.keys.Follow):
			if len(m.found) > 0 {
				ref := m.found[0]
				return m, func() tea.Msg {
					return FollowRefMsg{Ref: ref}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.record == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

// Record returns the notification currently on display, if any.
func (m Model) Record() (model.NotificationRecord, bool) {
	if m.record == nil {
		return model.NotificationRecord{}, false
	}
	return *m.record, true
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	rec := m.record
	var sections []string

	// Badges line: type + priority + action required
	typeBadge := theme.TypeLabelStyle(rec.Type).Render(string(rec.Type))

	badgeLine := typeBadge
	if rec.Priority == model.PriorityHigh {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, badgeLine, "  ",
			theme.PriorityStyle(rec.Priority).Render("high priority"),
		)
	}
	if rec.ActionRequired {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, badgeLine, "  ",
			lipgloss.NewStyle().Foreground(theme.ColorYellow).Bold(true).Render("action required"),
		)
	}
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	status := "read"
	if rec.Unread() {
		status = "unread"
	}
	sections = append(sections, fmt.Sprintf(
		"%s    %s",
		metaStyle.Render("Status:"),
		valStyle.Render(status),
	))
	if !rec.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Received:"),
			valStyle.Render(rec.CreatedAt.Format("2006-01-02 15:04")),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Message body
	sections = append(sections, rec.Message)

	// Referenced items
	if len(m.found) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
		sections = append(sections, headerStyle.Render(
			fmt.Sprintf("Mentioned items (%d)", len(m.found)),
		))
		sections = append(sections, "")

		refStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		for _, r := range m.found {
			sections = append(sections, fmt.Sprintf(
				"%s  %s",
				refStyle.Render(r.ID),
				metaStyle.Render(r.Kind),
			))
		}
		sections = append(sections, "")
		sections = append(sections, theme.HelpStyle.Render("press 'g' to open the first mentioned item"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.record != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
