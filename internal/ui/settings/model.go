// Package settings renders the configuration form for server, stream
// and display preferences.
package settings

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/theme"
)

// SavedMsg carries the edited configuration back to the parent.
type SavedMsg struct {
	Config model.AppConfig

	// ForgetToken asks the parent to also delete the stored sign-in
	// token.
	ForgetToken bool
}

// DoneMsg signals the parent to close the settings view.
type DoneMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL       string
	pageSize      string
	theme         string
	unreadOnly    bool
	autoReconnect bool
	maxAttempts   string
	forgetToken   bool
}

// Model is the Bubble Tea model for the settings form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	cfg    model.AppConfig
	width  int
	height int
}

// New creates a new settings form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start populates the form from the current configuration.
func (m *Model) Start(cfg model.AppConfig) tea.Cmd {
	m.cfg = cfg
	m.fb.baseURL = cfg.Server.BaseURL
	m.fb.pageSize = strconv.Itoa(cfg.Server.PageSize)
	m.fb.theme = cfg.Display.Theme
	m.fb.unreadOnly = cfg.Display.UnreadOnly
	m.fb.autoReconnect = cfg.Stream.AutoReconnect
	m.fb.maxAttempts = strconv.Itoa(cfg.Stream.MaxReconnectAttempts)
	m.fb.forgetToken = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

func (m Model) handleSubmit() tea.Cmd {
	cfg := m.cfg
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")
	if n, err := strconv.Atoi(strings.TrimSpace(m.fb.pageSize)); err == nil {
		cfg.Server.PageSize = n
	}
	cfg.Display.Theme = m.fb.theme
	cfg.Display.UnreadOnly = m.fb.unreadOnly
	cfg.Stream.AutoReconnect = m.fb.autoReconnect
	if n, err := strconv.Atoi(strings.TrimSpace(m.fb.maxAttempts)); err == nil {
		cfg.Stream.MaxReconnectAttempts = n
	}

	forget := m.fb.forgetToken
	return func() tea.Msg {
		return SavedMsg{Config: cfg, ForgetToken: forget}
	}
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Settings") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Placeholder("https://perf.corp.example.com").
				Value(&m.fb.baseURL).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return fmt.Errorf("URL must start with http:// or https://")
					}
					return nil
				}),
			huh.NewInput().
				Title("Notifications per page").
				Value(&m.fb.pageSize).
				Validate(validateIntRange(1, 100)),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Default", "default"),
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&m.fb.theme),
			huh.NewConfirm().
				Title("Open inbox with unread filter on?").
				Value(&m.fb.unreadOnly),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Reconnect the live stream automatically?").
				Value(&m.fb.autoReconnect),
			huh.NewInput().
				Title("Max reconnect attempts").
				Value(&m.fb.maxAttempts).
				Validate(validateIntRange(1, 10)),
			huh.NewConfirm().
				Title("Forget stored sign-in token?").
				Description("You will need to sign in again next time.").
				Affirmative("Forget").
				Negative("Keep").
				Value(&m.fb.forgetToken),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func validateIntRange(lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < lo || n > hi {
			return fmt.Errorf("enter a number between %d and %d", lo, hi)
		}
		return nil
	}
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
