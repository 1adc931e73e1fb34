// Package feedback renders received and sent peer feedback with a
// compose form for sending new feedback.
package feedback

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/cache"
	"github.com/dnguyen/perfhub/internal/keys"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/theme"
)

// CloseMsg signals the parent to leave the feedback view.
type CloseMsg struct{}

type feedbackMode int

const (
	modeList feedbackMode = iota
	modeCompose
)

type formBindings struct {
	recipient  string
	message    string
	kind       string
	visibility string
}

type feedbackLoadedMsg struct {
	items     []model.Feedback
	direction string
	offline   bool
	err       error
}

type feedbackSentMsg struct{ err error }

// Model is the Bubble Tea model for peer feedback.
type Model struct {
	mode        feedbackMode
	client      *api.Client
	cache       *cache.SQLiteCache
	keys        *keys.KeyMap
	direction   string
	items       []model.Feedback
	selectedIdx int
	offline     bool
	loading     bool
	form        *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new feedback view model.
func New(client *api.Client, c *cache.SQLiteCache, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:      modeList,
		client:    client,
		cache:     c,
		keys:      k,
		direction: api.FeedbackReceived,
		fb:        &formBindings{kind: model.FeedbackKindPraise, visibility: model.FeedbackVisibilityPrivate},
		width:     width,
		height:    height,
	}
}

// Init loads the received feedback.
func (m Model) Init() tea.Cmd {
	return m.loadFeedback()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case feedbackLoadedMsg:
		// A slow load for the other tab must not clobber this one.
		if msg.direction != m.direction {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.items = msg.items
		m.offline = msg.offline
		if m.selectedIdx >= len(m.items) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.items) - 1
		}
		return m, nil

	case feedbackSentMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Feedback sent"
			m.direction = api.FeedbackSent
		}
		m.mode = modeList
		m.loading = true
		return m, m.loadFeedback()

	case tea.KeyMsg:
		if m.mode == modeCompose {
			return m.updateForm(msg)
		}
		return m.handleListKey(msg)
	}

	return m.updateForm(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.items) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.items)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.items) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.items) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleTab):
		if m.direction == api.FeedbackReceived {
			m.direction = api.FeedbackSent
		} else {
			m.direction = api.FeedbackReceived
		}
		m.selectedIdx = 0
		m.loading = true
		return m, m.loadFeedback()

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadFeedback()

	case key.Matches(msg, m.keys.Compose):
		m.fb.recipient = ""
		m.fb.message = ""
		m.fb.kind = model.FeedbackKindPraise
		m.fb.visibility = model.FeedbackVisibilityPrivate
		m.form = m.buildComposeForm()
		m.mode = modeCompose
		return m, m.form.Init()
	}

	return m, nil
}

func (m Model) buildComposeForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Placeholder("colleague@example.com").
				Value(&m.fb.recipient).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("recipient is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Kind").
				Options(
					huh.NewOption("Praise", model.FeedbackKindPraise),
					huh.NewOption("Suggestion", model.FeedbackKindSuggestion),
				).
				Value(&m.fb.kind),
			huh.NewSelect[string]().
				Title("Visibility").
				Options(
					huh.NewOption("Private (recipient and their manager)", model.FeedbackVisibilityPrivate),
					huh.NewOption("Public (recipient's whole team)", model.FeedbackVisibilityPublic),
				).
				Value(&m.fb.visibility),
			huh.NewText().
				Title("Message").
				Placeholder("Be specific...").
				Value(&m.fb.message).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("message is required")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != modeCompose || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.sendFeedback()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}

	return m, cmd
}

// View renders the feedback view.
func (m Model) View() string {
	if m.mode == modeCompose {
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	if m.offline {
		b.WriteString("  ")
		b.WriteString(theme.OfflineBadgeStyle.Render("offline data"))
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(theme.HelpStyle.Render("Loading feedback..."))
	} else if len(m.items) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		if m.direction == api.FeedbackReceived {
			b.WriteString(emptyStyle.Render("No feedback received yet."))
		} else {
			b.WriteString(emptyStyle.Render("Nothing sent yet. Press 'c' to write some."))
		}
	} else {
		for i, f := range m.items {
			b.WriteString(m.renderFeedbackLine(f, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"tab switch | c compose | r refresh | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(theme.ColorGray)

	received := inactive.Render("Received")
	sent := inactive.Render("Sent")
	if m.direction == api.FeedbackReceived {
		received = active.Render("Received")
	} else {
		sent = active.Render("Sent")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, received, "  ", sent)
}

func (m Model) renderFeedbackLine(f model.Feedback, selected bool) string {
	kindStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	if f.Kind == model.FeedbackKindSuggestion {
		kindStyle = kindStyle.Foreground(theme.ColorYellow)
	}
	kindBadge := kindStyle.Render(f.Kind)

	who := f.FromName
	if m.direction == api.FeedbackSent {
		who = "to " + f.ToName
	}

	visibility := ""
	if f.Visibility == model.FeedbackVisibilityPublic {
		visibility = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(" (public)")
	}

	preview := f.Message
	if len(preview) > 60 {
		preview = preview[:57] + "..."
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + f.CreatedAt.Format("Jan 02"))

	line := fmt.Sprintf("%s %s%s: %s%s", kindBadge, who, visibility, preview, timeStr)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// loadFeedback fetches feedback from the backend, falling back to the
// local cache when the backend is unreachable.
func (m Model) loadFeedback() tea.Cmd {
	client := m.client
	cch := m.cache
	direction := m.direction
	return func() tea.Msg {
		ctx := context.Background()
		items, err := client.FetchFeedback(ctx, direction)
		if err != nil {
			cached, cacheErr := cch.GetFeedback(ctx, direction)
			if cacheErr != nil || len(cached) == 0 {
				return feedbackLoadedMsg{direction: direction, err: err}
			}
			return feedbackLoadedMsg{items: cached, direction: direction, offline: true}
		}
		if err := cch.ReplaceFeedback(ctx, direction, items); err != nil {
			log.Printf("[cache] storing feedback: %v", err)
		}
		return feedbackLoadedMsg{items: items, direction: direction}
	}
}

func (m Model) sendFeedback() tea.Cmd {
	client := m.client
	fb := m.fb
	return func() tea.Msg {
		f := model.Feedback{
			ToID:       strings.TrimSpace(fb.recipient),
			Message:    strings.TrimSpace(fb.message),
			Kind:       fb.kind,
			Visibility: fb.visibility,
		}
		_, err := client.SendFeedback(context.Background(), f)
		return feedbackSentMsg{err: err}
	}
}
