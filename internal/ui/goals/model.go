// Package goals renders the goal list with the approval workflow:
// owners draft and submit goals, managers approve or reject them.
package goals

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

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

// CloseMsg signals the parent to leave the goals view.
type CloseMsg struct{}

type goalsMode int

const (
	modeList goalsMode = iota
	modeDetail
	modeForm
	modeProgress
	modeDecision
)

type formBindings struct {
	title       string
	description string
	dueDate     string
	progress    string
	comment     string
	confirm     bool
}

type goalsLoadedMsg struct {
	goals   []model.Goal
	offline bool
	err     error
}

type goalSavedMsg struct{ err error }

type goalActionMsg struct {
	note string
	err  error
}

// Model is the Bubble Tea model for goal management.
type Model struct {
	mode         goalsMode
	client       *api.Client
	cache        *cache.SQLiteCache
	keys         *keys.KeyMap
	user         model.User
	scope        string
	goals        []model.Goal
	selectedIdx  int
	offline      bool
	loading      bool
	decision     string
	form         *huh.Form
	fb           *formBindings
	statusMsg    string
	pendingFocus string
	width        int
	height       int
}

// New creates a new goals view model.
func New(client *api.Client, c *cache.SQLiteCache, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		client: client,
		cache:  c,
		keys:   k,
		scope:  api.GoalScopeMine,
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetUser records the signed-in user for ownership and role checks.
func (m *Model) SetUser(u model.User) {
	m.user = u
	if !u.CanManage() {
		m.scope = api.GoalScopeMine
	}
}

// FocusGoal selects the goal with the given ID once it is loaded. Used
// when following a reference from a notification.
func (m *Model) FocusGoal(id string) {
	m.pendingFocus = id
	for i, g := range m.goals {
		if g.ID == id {
			m.selectedIdx = i
			m.pendingFocus = ""
			return
		}
	}
}

// Init loads goals for the current scope.
func (m Model) Init() tea.Cmd {
	return m.loadGoals()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case goalsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.goals = msg.goals
		m.offline = msg.offline
		if m.selectedIdx >= len(m.goals) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.goals) - 1
		}
		if m.pendingFocus != "" {
			for i, g := range m.goals {
				if g.ID == m.pendingFocus {
					m.selectedIdx = i
					break
				}
			}
			m.pendingFocus = ""
		}
		return m, nil

	case goalSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Goal saved"
		}
		m.mode = modeList
		return m, m.loadGoals()

	case goalActionMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.note
		}
		m.mode = modeList
		return m, m.loadGoals()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	default:
		return m.updateActiveForm(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.goals) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.goals)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.goals) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.goals) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.goals) > 0 {
			m.mode = modeDetail
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.loadGoals()

	case key.Matches(msg, m.keys.CycleTab):
		if !m.user.CanManage() {
			return m, nil
		}
		if m.scope == api.GoalScopeMine {
			m.scope = api.GoalScopeTeam
		} else {
			m.scope = api.GoalScopeMine
		}
		m.selectedIdx = 0
		m.loading = true
		return m, m.loadGoals()

	case key.Matches(msg, m.keys.New):
		m.fb.title = ""
		m.fb.description = ""
		m.fb.dueDate = ""
		m.form = m.buildCreateForm()
		m.mode = modeForm
		return m, m.form.Init()
	}

	return m.handleActionKey(msg)
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeList
		return m, nil
	}
	return m.handleActionKey(msg)
}

// handleActionKey covers the workflow keys shared by the list and
// detail modes.
func (m Model) handleActionKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	g, ok := m.selectedGoal()
	if !ok {
		return m, nil
	}
	mine := g.OwnerID == m.user.ID

	switch {
	case key.Matches(msg, m.keys.Submit):
		if mine && (g.Status == model.GoalStatusDraft || g.Status == model.GoalStatusRejected) {
			return m, m.updateStatus(g.ID, model.GoalStatusPendingApproval, "", "Submitted for approval")
		}
		if mine && g.Status == model.GoalStatusApproved && g.Progress >= 100 {
			return m, m.updateStatus(g.ID, model.GoalStatusCompleted, "", "Goal completed")
		}
		return m, nil

	case key.Matches(msg, m.keys.Approve):
		if m.user.CanManage() && g.Status == model.GoalStatusPendingApproval {
			m.decision = model.GoalStatusApproved
			m.fb.comment = ""
			m.fb.confirm = false
			m.form = m.buildDecisionForm(g)
			m.mode = modeDecision
			return m, m.form.Init()
		}
		return m, nil

	case key.Matches(msg, m.keys.Reject):
		if m.user.CanManage() && g.Status == model.GoalStatusPendingApproval {
			m.decision = model.GoalStatusRejected
			m.fb.comment = ""
			m.fb.confirm = false
			m.form = m.buildDecisionForm(g)
			m.mode = modeDecision
			return m, m.form.Init()
		}
		return m, nil

	case key.Matches(msg, m.keys.Progress):
		if mine && g.Status == model.GoalStatusApproved {
			m.fb.progress = strconv.Itoa(g.Progress)
			m.form = m.buildProgressForm(g)
			m.mode = modeProgress
			return m, m.form.Init()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) buildCreateForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What do you want to achieve?").
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Success criteria, context...").
				Value(&m.fb.description),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						return nil
					}
					if _, err := time.Parse("2006-01-02", s); err != nil {
						return fmt.Errorf("invalid date format, use YYYY-MM-DD")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildProgressForm(g model.Goal) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Progress for %q", g.Title)).
				Placeholder("0-100").
				Value(&m.fb.progress).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 0 || n > 100 {
						return fmt.Errorf("enter a number between 0 and 100")
					}
					return nil
				}),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildDecisionForm(g model.Goal) *huh.Form {
	verb := "Approve"
	commentValidate := func(string) error { return nil }
	if m.decision == model.GoalStatusRejected {
		verb = "Reject"
		commentValidate = func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("a rejection needs a comment for the owner")
			}
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Comment").
				Placeholder("Visible to the goal owner").
				Value(&m.fb.comment).
				Validate(commentValidate),
			huh.NewConfirm().
				Title(fmt.Sprintf("%s goal %q by %s?", verb, g.Title, g.OwnerName)).
				Affirmative(verb).
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode != modeForm && m.mode != modeProgress && m.mode != modeDecision {
		return m, nil
	}
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleFormSubmit()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}

	return m, cmd
}

func (m Model) handleFormSubmit() tea.Cmd {
	switch m.mode {
	case modeForm:
		return m.createGoal()

	case modeProgress:
		g, ok := m.selectedGoal()
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(m.fb.progress))
		if err != nil {
			return nil
		}
		return m.updateProgress(g.ID, n)

	case modeDecision:
		if !m.fb.confirm {
			return func() tea.Msg { return goalActionMsg{note: "Cancelled"} }
		}
		g, ok := m.selectedGoal()
		if !ok {
			return nil
		}
		note := "Goal approved"
		if m.decision == model.GoalStatusRejected {
			note = "Goal rejected"
		}
		return m.updateStatus(g.ID, m.decision, m.fb.comment, note)
	}
	return nil
}

// View renders the goals view.
func (m Model) View() string {
	switch m.mode {
	case modeForm, modeProgress, modeDecision:
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

	title := fmt.Sprintf("Goals (%s)", m.scope)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render(title))
	if m.offline {
		b.WriteString("  ")
		b.WriteString(theme.OfflineBadgeStyle.Render("offline data"))
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(theme.HelpStyle.Render("Loading goals..."))
	} else if len(m.goals) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No goals yet. Press 'n' to draft one."))
	} else {
		for i, g := range m.goals {
			b.WriteString(m.renderGoalLine(g, i == m.selectedIdx))
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(m.listHints()))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) renderGoalLine(g model.Goal, selected bool) string {
	statusBadge := theme.GoalStatusStyle(g.Status).Render(g.Status)

	progress := fmt.Sprintf("%3d%%", g.Progress)

	owner := ""
	if m.scope == api.GoalScopeTeam {
		owner = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  " + g.OwnerName)
	}

	due := ""
	if g.DueDate != nil {
		due = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("  due " + g.DueDate.Format("Jan 02"))
	}

	overdue := ""
	if g.Overdue() {
		overdue = lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Bold(true).
			Render("  OVERDUE")
	}

	line := fmt.Sprintf("%s %s %s%s%s%s", statusBadge, progress, g.Title, owner, due, overdue)

	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func (m Model) listHints() string {
	hints := "n new | s submit | p progress | enter detail | r refresh | esc back"
	if m.user.CanManage() {
		hints = "tab scope | a approve | x reject | " + hints
	}
	return hints
}

func (m Model) viewDetail() string {
	g, ok := m.selectedGoal()
	if !ok {
		return ""
	}

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	var sections []string
	sections = append(sections,
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(g.Title))
	sections = append(sections, theme.GoalStatusStyle(g.Status).Render(g.Status))
	sections = append(sections, "")
	sections = append(sections, fmt.Sprintf("%s     %s",
		metaStyle.Render("Owner:"), valStyle.Render(g.OwnerName)))
	sections = append(sections, fmt.Sprintf("%s  %s",
		metaStyle.Render("Progress:"), valStyle.Render(fmt.Sprintf("%d%%", g.Progress))))
	if g.DueDate != nil {
		sections = append(sections, fmt.Sprintf("%s       %s",
			metaStyle.Render("Due:"), valStyle.Render(g.DueDate.Format("2006-01-02"))))
	}
	sections = append(sections, fmt.Sprintf("%s   %s",
		metaStyle.Render("Updated:"), valStyle.Render(g.UpdatedAt.Format("2006-01-02 15:04"))))

	if g.ManagerComment != "" {
		sections = append(sections, "")
		sections = append(sections,
			lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Manager comment"))
		sections = append(sections, g.ManagerComment)
	}

	sections = append(sections, "")
	desc := g.Description
	if desc == "" {
		desc = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No description")
	}
	sections = append(sections, desc)

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

func (m Model) selectedGoal() (model.Goal, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.goals) {
		return model.Goal{}, false
	}
	return m.goals[m.selectedIdx], true
}

// loadGoals fetches goals from the backend, falling back to the local
// cache when the backend is unreachable.
func (m Model) loadGoals() tea.Cmd {
	client := m.client
	cch := m.cache
	scope := m.scope
	return func() tea.Msg {
		ctx := context.Background()
		goals, err := client.FetchGoals(ctx, scope)
		if err != nil {
			cached, cacheErr := cch.GetGoals(ctx, scope)
			if cacheErr != nil || len(cached) == 0 {
				return goalsLoadedMsg{err: err}
			}
			return goalsLoadedMsg{goals: cached, offline: true}
		}
		if err := cch.ReplaceGoals(ctx, scope, goals); err != nil {
			log.Printf("[cache] storing goals: %v", err)
		}
		return goalsLoadedMsg{goals: goals}
	}
}

func (m Model) createGoal() tea.Cmd {
	client := m.client
	fb := m.fb
	return func() tea.Msg {
		g := model.Goal{
			Title:       strings.TrimSpace(fb.title),
			Description: fb.description,
			Status:      model.GoalStatusDraft,
		}
		if d := strings.TrimSpace(fb.dueDate); d != "" {
			if t, err := time.Parse("2006-01-02", d); err == nil {
				g.DueDate = &t
			}
		}
		_, err := client.CreateGoal(context.Background(), g)
		return goalSavedMsg{err: err}
	}
}

func (m Model) updateStatus(id, status, comment, note string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.UpdateGoalStatus(context.Background(), id, status, comment)
		return goalActionMsg{note: note, err: err}
	}
}

func (m Model) updateProgress(id string, progress int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.UpdateGoalProgress(context.Background(), id, progress)
		return goalActionMsg{note: "Progress updated", err: err}
	}
}
