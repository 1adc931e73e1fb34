package app

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/credential"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/session"
)

// tokenLoadedMsg carries the credential stored by a previous
// "stay signed in" login, if any.
type tokenLoadedMsg struct {
	token string
	err   error
}

// loginResultMsg carries the outcome of a sign-in request.
type loginResultMsg struct {
	resp         *api.LoginResponse
	staySignedIn bool
	err          error
}

// tokenSavedMsg reports whether the credential could be stored.
type tokenSavedMsg struct {
	err error
}

// sessionStartedMsg reports the outcome of the snapshot-then-stream
// session start.
type sessionStartedMsg struct {
	err error
}

// loggedOutMsg reports that the session was torn down.
type loggedOutMsg struct {
	err error
}

// loadStoredToken reads the keyring for a saved credential.
func (m Model) loadStoredToken() tea.Cmd {
	return func() tea.Msg {
		token, err := credential.LoadToken()
		return tokenLoadedMsg{token: token, err: err}
	}
}

func (m Model) handleTokenLoaded(msg tokenLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil || msg.token == "" {
		if msg.err != nil && !credential.IsNotFound(msg.err) {
			log.Printf("[session] reading stored token: %v", msg.err)
		}
		m.currentView = ViewLogin
		return m, m.loginView.Start()
	}

	claims, err := api.ParseClaims(msg.token)
	if err != nil || claims.Expired() {
		m.currentView = ViewLogin
		m.loginView.SetError("Your saved session has expired. Sign in again.")
		return m, m.loginView.Start()
	}

	m.user = model.User{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
	m.goalsView.SetUser(m.user)
	m.helpView.SetUser(m.user)
	m.token = msg.token
	m.client.SetToken(msg.token)
	m.statusMsg = "Resuming session..."
	return m, m.startSession(msg.token)
}

// doLogin exchanges credentials for a session token.
func (m Model) doLogin(email, password string, staySignedIn bool) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		resp, err := c.Login(context.Background(), email, password)
		return loginResultMsg{resp: resp, staySignedIn: staySignedIn, err: err}
	}
}

func (m Model) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		errText := "Sign-in failed. Check the server address in settings and try again."
		if api.IsAuthError(msg.err) {
			errText = "Invalid email or password."
		}
		m.loginView.SetError(errText)
		return m, m.loginView.Start()
	}

	m.token = msg.resp.Token
	m.client.SetToken(msg.resp.Token)
	m.user = msg.resp.User
	m.goalsView.SetUser(m.user)
	m.helpView.SetUser(m.user)

	cmds := []tea.Cmd{m.startSession(msg.resp.Token)}
	if msg.staySignedIn {
		cmds = append(cmds, saveToken(msg.resp.Token))
	}
	return m, tea.Batch(cmds...)
}

// saveToken stores the credential for the next launch.
func saveToken(token string) tea.Cmd {
	return func() tea.Msg {
		return tokenSavedMsg{err: credential.SaveToken(token)}
	}
}

func (m Model) handleTokenSaved(msg tokenSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("[session] storing token: %v", msg.err)
		m.statusMsg = "Signed in, but the token could not be saved for next time."
	}
	return m, nil
}

// startSession loads the notification snapshot and opens the live
// stream. Controller.Start blocks until both are done, so it runs
// inside a command.
func (m Model) startSession(token string) tea.Cmd {
	ctrl := m.controller
	return func() tea.Msg {
		return sessionStartedMsg{err: ctrl.Start(token)}
	}
}

func (m Model) handleSessionStarted(msg sessionStartedMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.streamDown = true
		m.currentView = ViewInbox
		m.statusMsg = fmt.Sprintf("Connection failed: %v. Press 'r' to retry.", msg.err)
		return m, m.inboxView.Reload()
	}

	m.streamDown = false
	m.reconnecting = false
	m.currentView = ViewInbox

	cmds := []tea.Cmd{m.inboxView.Reload()}
	if !m.listening {
		m.listening = true
		cmds = append(cmds, m.controller.WaitForEvent())
	}
	return m, tea.Batch(cmds...)
}

// sessionExpired tears the session down after the backend rejected
// the credential and returns to the sign-in form.
func (m Model) sessionExpired() (tea.Model, tea.Cmd) {
	m.loginView.SetError("The server rejected your session. Sign in again.")
	return m, m.logout()
}

// logout stops the stream, clears the notification store, and forgets
// the stored credential.
func (m Model) logout() tea.Cmd {
	ctrl, c := m.controller, m.client
	return func() tea.Msg {
		ctrl.Stop()
		c.SetToken("")
		return loggedOutMsg{err: credential.DeleteToken()}
	}
}

func (m Model) handleLoggedOut(msg loggedOutMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		log.Printf("[session] clearing stored token: %v", msg.err)
	}
	m.user = model.User{}
	m.goalsView.SetUser(m.user)
	m.helpView.SetUser(m.user)
	m.token = ""
	m.reconnecting = false
	m.streamDown = false
	m.statusMsg = ""
	m.currentView = ViewLogin
	return m, m.loginView.Start()
}

func (m Model) handleStreamRecord(msg session.RecordMsg) (tea.Model, tea.Cmd) {
	if msg.Epoch != m.controller.Epoch() {
		return m, m.controller.WaitForEvent()
	}
	// The store already ingested the record; refresh the list.
	return m, tea.Batch(m.inboxView.Reload(), m.controller.WaitForEvent())
}

func (m Model) handleStreamError(msg session.StreamErrorMsg) (tea.Model, tea.Cmd) {
	if msg.Epoch != m.controller.Epoch() {
		return m, m.controller.WaitForEvent()
	}
	if msg.Terminal {
		m.reconnecting = false
		m.streamDown = true
		m.statusMsg = "Live updates lost. Press 'r' in the inbox to reconnect."
	} else {
		m.statusMsg = "Live updates interrupted."
	}
	return m, m.controller.WaitForEvent()
}

func (m Model) handleReconnecting(msg session.ReconnectingMsg) (tea.Model, tea.Cmd) {
	if msg.Epoch != m.controller.Epoch() {
		return m, m.controller.WaitForEvent()
	}
	m.reconnecting = true
	m.statusMsg = fmt.Sprintf("Reconnecting (attempt %d)...", msg.Attempt)
	return m, m.controller.WaitForEvent()
}

func (m Model) handleReconnected(msg session.ReconnectedMsg) (tea.Model, tea.Cmd) {
	if msg.Epoch != m.controller.Epoch() {
		return m, m.controller.WaitForEvent()
	}
	m.reconnecting = false
	m.streamDown = false
	m.statusMsg = ""
	return m, tea.Batch(m.inboxView.Reload(), m.controller.WaitForEvent())
}
