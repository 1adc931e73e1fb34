package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/cache"
	"github.com/dnguyen/perfhub/internal/inbox"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/session"
	"github.com/dnguyen/perfhub/internal/stream"
	"github.com/dnguyen/perfhub/internal/theme"
	"github.com/dnguyen/perfhub/internal/ui"
	"github.com/dnguyen/perfhub/internal/ui/command"
	"github.com/dnguyen/perfhub/internal/ui/detail"
	"github.com/dnguyen/perfhub/internal/ui/feedback"
	"github.com/dnguyen/perfhub/internal/ui/goals"
	helpview "github.com/dnguyen/perfhub/internal/ui/help"
	inboxview "github.com/dnguyen/perfhub/internal/ui/inbox"
	"github.com/dnguyen/perfhub/internal/ui/login"
	"github.com/dnguyen/perfhub/internal/ui/reviews"
	"github.com/dnguyen/perfhub/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewInbox
	ViewNotifDetail
	ViewGoals
	ViewReviews
	ViewFeedback
	ViewSettings
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages the session, view
// routing, and layout.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	cfg        model.AppConfig
	configPath string

	client     *api.Client
	cache      *cache.SQLiteCache
	store      *inbox.Store
	sync       *inbox.Synchronizer
	controller *session.Controller

	keys *KeyMap
	user model.User
	// token is the credential of the signed-in session, kept so the
	// stream can be reopened after a terminal drop.
	token string

	loginView    login.Model
	inboxView    inboxview.Model
	detailView   detail.Model
	goalsView    goals.Model
	reviewsView  reviews.Model
	feedbackView feedback.Model
	settingsView settings.Model
	helpView     helpview.Model
	commandView  command.Model

	ready        bool
	reconnecting bool
	streamDown   bool
	// listening is set once the first WaitForEvent command is armed.
	// Exactly one waiter exists from then on; every received session
	// message re-arms it.
	listening bool
	statusMsg string
}

// New creates the root application model and wires the session
// plumbing: REST client, notification store, read-state synchronizer,
// and the stream lifecycle controller.
func New(cfg model.AppConfig, configPath string, client *api.Client, cch *cache.SQLiteCache) Model {
	keys := DefaultKeyMap()

	st := inbox.NewStore(client)
	sy := inbox.NewSynchronizer(client, st)

	sc := stream.NewClient(cfg.Server.BaseURL)
	open := func(ctx context.Context, token string) (session.Conn, error) {
		h, err := sc.Open(ctx, token)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	ctrl := session.New(st, open, cfg.Stream, cfg.Server.PageSize)

	iv := inboxview.New(st, keys, 80, 24)
	iv.SetUnreadOnly(cfg.Display.UnreadOnly)

	return Model{
		currentView:  ViewLogin,
		cfg:          cfg,
		configPath:   configPath,
		client:       client,
		cache:        cch,
		store:        st,
		sync:         sy,
		controller:   ctrl,
		keys:         keys,
		loginView:    login.New(80, 24),
		inboxView:    iv,
		detailView:   detail.New(keys, 80, 24),
		goalsView:    goals.New(client, cch, keys, 80, 24),
		reviewsView:  reviews.New(client, cch, keys, 80, 24),
		feedbackView: feedback.New(client, cch, keys, 80, 24),
		settingsView: settings.New(80, 24),
		helpView:     helpview.New(keys, 80, 24),
		commandView:  command.New(80, 24),
	}
}

// Init looks for a stored credential so a previous session can be
// resumed without showing the sign-in form.
func (m Model) Init() tea.Cmd {
	return m.loadStoredToken()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.goalsView.SetSize(contentWidth, contentHeight)
		m.reviewsView.SetSize(contentWidth, contentHeight)
		m.feedbackView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tokenLoadedMsg:
		return m.handleTokenLoaded(msg)

	case login.SubmitMsg:
		return m, m.doLogin(msg.Email, msg.Password, msg.StaySignedIn)

	case login.CancelMsg:
		m.controller.Stop()
		return m, tea.Quit

	case loginResultMsg:
		return m.handleLoginResult(msg)

	case tokenSavedMsg:
		return m.handleTokenSaved(msg)

	case sessionStartedMsg:
		return m.handleSessionStarted(msg)

	case loggedOutMsg:
		return m.handleLoggedOut(msg)

	case session.RecordMsg:
		return m.handleStreamRecord(msg)

	case session.StreamErrorMsg:
		return m.handleStreamError(msg)

	case session.ReconnectingMsg:
		return m.handleReconnecting(msg)

	case session.ReconnectedMsg:
		return m.handleReconnected(msg)

	case snapshotRefreshedMsg:
		return m.handleSnapshotRefreshed(msg)

	case markReadResultMsg:
		return m.handleMarkReadResult(msg)

	case markAllReadResultMsg:
		return m.handleMarkAllReadResult(msg)

	case inboxview.RecordsLoadedMsg:
		// Always routed to the inbox view, even when another view is
		// active, so the list is current when the user returns to it.
		var cmd tea.Cmd
		m.inboxView, cmd = m.inboxView.Update(msg)
		return m, cmd

	case inboxview.SelectedNotificationMsg:
		m.previousView = m.currentView
		m.currentView = ViewNotifDetail
		m.detailView.SetRecord(msg.Record)
		// Opening a notification acknowledges it.
		if msg.Record.Unread() {
			return m, m.markRead(msg.Record.ID)
		}
		return m, nil

	case inboxview.MarkReadRequestMsg:
		return m, m.markRead(msg.ID)

	case inboxview.MarkAllReadRequestMsg:
		return m, m.markAllRead()

	case detail.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case inboxview.FollowRefMsg:
		return m.followRef(msg.Ref)

	case detail.FollowRefMsg:
		return m.followRef(msg.Ref)

	case detail.BackMsg:
		m.currentView = ViewInbox
		return m, m.inboxView.Reload()

	case goals.CloseMsg, reviews.CloseMsg, feedback.CloseMsg:
		m.currentView = ViewInbox
		return m, m.inboxView.Reload()

	case settings.SavedMsg:
		return m.handleSettingsSaved(msg)

	case settings.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case configSavedMsg:
		return m.handleConfigSaved(msg)

	case tokenForgottenMsg:
		return m.handleTokenForgotten(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if handled, nm, cmd := m.handleGlobalKey(msg); handled {
			return nm, cmd
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused
// view. Views with text input (login, settings, forms) only see
// ctrl+c so typing is never swallowed.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.controller.Stop()
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewInbox {
			m.controller.Stop()
			return true, m, tea.Quit
		}

	case "?":
		switch m.currentView {
		case ViewHelp:
			m.currentView = m.previousView
			return true, m, nil
		case ViewInbox, ViewNotifDetail:
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return true, m, nil
		}

	case ":":
		switch m.currentView {
		case ViewCommand:
			m.currentView = m.previousView
			return true, m, nil
		case ViewInbox, ViewNotifDetail:
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return true, m, m.commandView.Focus()
		}

	case "esc":
		switch m.currentView {
		case ViewHelp, ViewCommand:
			m.currentView = m.previousView
			return true, m, nil
		}

	case "r":
		if m.currentView == ViewInbox {
			m.statusMsg = "Refreshing..."
			return true, m, m.refreshSnapshot()
		}

	case "G":
		if m.currentView == ViewInbox || m.currentView == ViewNotifDetail {
			nm, cmd := m.openGoals("")
			return true, nm, cmd
		}

	case "R":
		if m.currentView == ViewInbox || m.currentView == ViewNotifDetail {
			nm, cmd := m.openReviews("")
			return true, nm, cmd
		}

	case "F":
		if m.currentView == ViewInbox || m.currentView == ViewNotifDetail {
			m.previousView = m.currentView
			m.currentView = ViewFeedback
			return true, m, m.feedbackView.Init()
		}

	case "S":
		if m.currentView == ViewInbox || m.currentView == ViewNotifDetail {
			m.previousView = m.currentView
			m.currentView = ViewSettings
			return true, m, m.settingsView.Start(m.cfg)
		}
	}

	return false, m, nil
}

// openGoals switches to the goals view, optionally focusing one goal.
func (m Model) openGoals(goalID string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewGoals
	if goalID != "" {
		m.goalsView.FocusGoal(goalID)
	}
	return m, m.goalsView.Init()
}

// openReviews switches to the reviews view, optionally focusing one
// review.
func (m Model) openReviews(reviewID string) (tea.Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewReviews
	if reviewID != "" {
		m.reviewsView.FocusReview(reviewID)
	}
	return m, m.reviewsView.Init()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewNotifDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewGoals:
		m.goalsView, cmd = m.goalsView.Update(msg)
	case ViewReviews:
		m.reviewsView, cmd = m.reviewsView.Update(msg)
	case ViewFeedback:
		m.feedbackView, cmd = m.feedbackView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "PerfHub"
	if m.currentView != ViewLogin {
		if n := m.store.UnreadCount(); n > 0 {
			headerTitle = "PerfHub " +
				theme.UnreadCountStyle.Render(fmt.Sprintf("%d unread", n))
		}
	}
	header := m.layout.RenderHeader(headerTitle, m.sessionStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewNotifDetail:
		return m.detailView.View()
	case ViewGoals:
		return m.goalsView.View()
	case ViewReviews:
		return m.reviewsView.View()
	case ViewFeedback:
		return m.feedbackView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// sessionStatus returns the stream state badge for the header.
func (m Model) sessionStatus() string {
	if m.currentView == ViewLogin {
		return "signed out"
	}
	if m.reconnecting {
		return theme.SyncingBadgeStyle.Render("reconnecting")
	}
	if m.streamDown {
		return theme.OfflineBadgeStyle.Render("stream down")
	}

	switch m.controller.State() {
	case session.StateSyncing:
		return theme.SyncingBadgeStyle.Render("syncing")
	case session.StateLive:
		return theme.LiveBadgeStyle.Render("live")
	default:
		return "signed out"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	// Transient status lines take precedence over hints.
	if m.statusMsg != "" && (m.currentView == ViewInbox || m.currentView == ViewNotifDetail) {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | tab next field | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewNotifDetail:
		return "esc back | m mark read | g open mentioned | j/k scroll"
	case ViewGoals:
		return "enter open | n new | s submit | p progress | esc back"
	case ViewReviews:
		return "enter open | s submit | esc back"
	case ViewFeedback:
		return "tab received/sent | c compose | esc back"
	case ViewSettings:
		return "enter next | shift+tab previous | esc cancel"
	default:
		return "q quit | ? help | enter open | m read | A all read | u unread | G goals | R reviews | F feedback"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "inbox", "i":
		m.currentView = ViewInbox
		return m.inboxView.Reload()
	case "goals", "g":
		m.previousView = m.currentView
		m.currentView = ViewGoals
		return m.goalsView.Init()
	case "reviews":
		m.previousView = m.currentView
		m.currentView = ViewReviews
		return m.reviewsView.Init()
	case "feedback", "fb":
		m.previousView = m.currentView
		m.currentView = ViewFeedback
		return m.feedbackView.Init()
	case "settings", "config":
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.settingsView.Start(m.cfg)
	case "refresh", "sync":
		m.currentView = ViewInbox
		m.statusMsg = "Refreshing..."
		return m.refreshSnapshot()
	case "all-read", "read-all":
		return m.markAllRead()
	case "logout":
		return m.logout()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit", "q":
		m.controller.Stop()
		return tea.Quit
	default:
		m.statusMsg = fmt.Sprintf("Unknown command: %s", cmd)
		return nil
	}
}
