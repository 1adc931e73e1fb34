// Package reviews renders the user's review assignments and the
// submission form for filing a completed review.
package reviews

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

// CloseMsg signals the parent to leave the reviews view.
type CloseMsg struct{}

type reviewsMode int

const (
	modeList reviewsMode = iota
	modeDetail
	modeSubmit
)

type formBindings struct {
	rating  int
	summary string
	confirm bool
}

type reviewsLoadedMsg struct {
	reviews []model.Review
	offline bool
	err     error
}

type reviewSubmittedMsg struct{ err error }

// Model is the Bubble Tea model for review assignments.
type Model struct {
	mode         reviewsMode
	client       *api.Client
	cache        *cache.SQLiteCache
	keys         *keys.KeyMap
	reviews      []model.Review
	selectedIdx  int
	offline      bool
	loading      bool
	form         *huh.Form
	fb           *formBindings
	statusMsg    string
	pendingFocus string
	width        int
	height       int
}

// New creates a new reviews view model.
func New(client *api.Client, c *cache.SQLiteCache, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		client: client,
		cache:  c,
		keys:   k,
		fb:     &formBindings{rating: 3},
		width:  width,
		height: height,
	}
}

// FocusReview selects the review with the given ID once it is loaded.
// Used when following a reference from a notification.
func (m *Model) FocusReview(id string) {
	m.pendingFocus = id
	for i, r := range m.reviews {
		if r.ID == id {
			m.selectedIdx = i
			m.pendingFocus = ""
			return
		}
	}
}

// Init loads the review assignments.
func (m Model) Init() tea.Cmd {
	return m.loadReviews()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case reviewsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.reviews = msg.reviews
		m.offline = msg.offline
		if m.selectedIdx >= len(m.reviews) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.reviews) - 1
		}
		if m.pendingFocus != "" {
			for i, r := range m.reviews {
				if r.ID == m.pendingFocus {
					m.selectedIdx = i
					break
				}
			}
			m.pendingFocus = ""
		}
		return m, nil

	case reviewSubmittedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Review submitted"
		}
		m.mode = modeList
		return m, m.loadReviews()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	default:
		return m.updateForm(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.reviews) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.reviews)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.reviews) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.reviews) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.reviews) > 0 {
			m.mode = modeDetail
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadReviews()

	case key.Matches(msg, m.keys.Submit):
		return m.startSubmit()
	}

	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = modeList
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.startSubmit()
	}
	return m, nil
}

func (m Model) startSubmit() (Model, tea.Cmd) {
	r, ok := m.selectedReview()
	if !ok || r.Status == model.ReviewStatusSubmitted {
		return m, nil
	}
	m.fb.rating = 3
	m.fb.summary = r.Summary
	m.fb.confirm = false
	if r.Rating > 0 {
		m.fb.rating = r.Rating
	}
	m.form = m.buildSubmitForm(r)
	m.mode = modeSubmit
	return m, m.form.Init()
}

func (m Model) buildSubmitForm(r model.Review) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title(fmt.Sprintf("Rating for %s", r.RevieweeName)).
				Options(
					huh.NewOption("1 - Needs improvement", 1),
					huh.NewOption("2 - Below expectations", 2),
					huh.NewOption("3 - Meets expectations", 3),
					huh.NewOption("4 - Exceeds expectations", 4),
					huh.NewOption("5 - Outstanding", 5),
				).
				Value(&m.fb.rating),
			huh.NewText().
				Title("Summary").
				Placeholder("Strengths, growth areas, examples...").
				Value(&m.fb.summary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("summary is required")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Submit review? It cannot be edited afterwards.").
				Affirmative("Submit").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != modeSubmit || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		if !m.fb.confirm {
			m.mode = modeList
			return m, nil
		}
		r, ok := m.selectedReview()
		if !ok {
			m.mode = modeList
			return m, nil
		}
		return m, m.submitReview(r.ID, m.fb.rating, m.fb.summary)
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}

	return m, cmd
}

// View renders the reviews view.
func (m Model) View() string {
	switch m.mode {
	case modeSubmit:
		if m.form == nil {
			return ""
		}
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	case modeDetail:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render("Reviews"))
	if m.offline {
		b.WriteString("  ")
		b.WriteString(theme.OfflineBadgeStyle.Render("offline data"))
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(theme.HelpStyle.Render("Loading reviews..."))
	} else if len(m.reviews) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No review assignments."))
	} else {
		for i, r := range m.reviews {
			b.WriteString(m.renderReviewLine(r, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"s submit | enter detail | r refresh | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderReviewLine(r model.Review, selected bool) string {
	statusBadge := theme.ReviewStatusStyle(r.Status).Render(r.Status)

	kind := lipgloss.NewStyle().
		Foreground(theme.ColorMagenta).
		Bold(true).
		Render(r.Kind)

	due := ""
	if r.DueDate != nil {
		due = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  due " + r.DueDate.Format("Jan 02"))
	}

	cycle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + r.CycleName)

	line := fmt.Sprintf("%s %s %s%s%s", statusBadge, kind, r.RevieweeName, cycle, due)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) viewDetail() string {
	r, ok := m.selectedReview()
	if !ok {
		return ""
	}

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	var sections []string
	sections = append(sections,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
			Render(fmt.Sprintf("%s review of %s", r.Kind, r.RevieweeName)))
	sections = append(sections, theme.ReviewStatusStyle(r.Status).Render(r.Status))
	sections = append(sections, "")
	sections = append(sections, fmt.Sprintf("%s     %s",
		metaStyle.Render("Cycle:"), valStyle.Render(r.CycleName)))
	sections = append(sections, fmt.Sprintf("%s  %s",
		metaStyle.Render("Reviewer:"), valStyle.Render(r.ReviewerName)))
	if r.DueDate != nil {
		sections = append(sections, fmt.Sprintf("%s       %s",
			metaStyle.Render("Due:"), valStyle.Render(r.DueDate.Format("2006-01-02"))))
	}
	if r.SubmittedAt != nil {
		sections = append(sections, fmt.Sprintf("%s %s",
			metaStyle.Render("Submitted:"), valStyle.Render(r.SubmittedAt.Format("2006-01-02 15:04"))))
	}
	if r.Rating > 0 {
		sections = append(sections, fmt.Sprintf("%s    %s",
			metaStyle.Render("Rating:"), valStyle.Render(strings.Repeat("★", r.Rating))))
	}

	sections = append(sections, "")
	summary := r.Summary
	if summary == "" {
		summary = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("Not written yet")
	}
	sections = append(sections, summary)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
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

func (m Model) selectedReview() (model.Review, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.reviews) {
		return model.Review{}, false
	}
	return m.reviews[m.selectedIdx], true
}

// loadReviews fetches review assignments from the backend, falling back
// to the local cache when the backend is unreachable.
func (m Model) loadReviews() tea.Cmd {
	client := m.client
	cch := m.cache
	return func() tea.Msg {
		ctx := context.Background()
		reviews, err := client.FetchReviews(ctx, "")
		if err != nil {
			cached, cacheErr := cch.GetReviews(ctx)
			if cacheErr != nil || len(cached) == 0 {
				return reviewsLoadedMsg{err: err}
			}
			return reviewsLoadedMsg{reviews: cached, offline: true}
		}
		if err := cch.ReplaceReviews(ctx, reviews); err != nil {
			log.Printf("[cache] storing reviews: %v", err)
		}
		return reviewsLoadedMsg{reviews: reviews}
	}
}

func (m Model) submitReview(id string, rating int, summary string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.SubmitReview(context.Background(), id, rating, strings.TrimSpace(summary))
		return reviewSubmittedMsg{err: err}
	}
}
