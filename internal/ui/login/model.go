// Package login renders the sign-in form shown before a session starts.
package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/theme"
)

// SubmitMsg is dispatched when the user submits their credentials.
type SubmitMsg struct {
	Email        string
	Password     string
	StaySignedIn bool
}

// CancelMsg is dispatched when the user abandons the sign-in form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email        string
	password     string
	staySignedIn bool
}

// Model is the Bubble Tea model for the sign-in form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	submitting bool
	errMsg     string
	width      int
	height     int
}

// New creates a new login form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{staySignedIn: true},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh sign-in form, keeping the email field
// populated so a failed attempt only needs the password retyped.
func (m *Model) Start() tea.Cmd {
	m.submitting = false
	m.fb.password = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError records an error message shown above the form.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
	m.submitting = false
}

// Update handles messages for the sign-in form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.submitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.submitting = true
		m.errMsg = ""
		fb := m.fb
		return m, func() tea.Msg {
			return SubmitMsg{
				Email:        strings.TrimSpace(fb.email),
				Password:     fb.password,
				StaySignedIn: fb.staySignedIn,
			}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the sign-in form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var sections []string
	sections = append(sections, titleStyle.Render("Sign in to PerfHub"))

	if m.errMsg != "" {
		errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed)
		sections = append(sections, errStyle.Render(m.errMsg))
		sections = append(sections, "")
	}

	if m.submitting {
		waitStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		sections = append(sections, waitStyle.Render("Signing in..."))
	} else if m.form != nil {
		sections = append(sections, m.form.View())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

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
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return fmt.Errorf("email is required")
					}
					if !strings.Contains(s, "@") {
						return fmt.Errorf("invalid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("password is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Stay signed in?").
				Affirmative("Yes").
				Negative("No").
				Value(&m.fb.staySignedIn),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
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
