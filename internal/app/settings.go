package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/credential"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/ui/settings"
)

// configSavedMsg reports whether the config file was written.
type configSavedMsg struct {
	err error
}

// tokenForgottenMsg reports deletion of the stored credential from the
// settings form.
type tokenForgottenMsg struct {
	err error
}

func (m Model) handleSettingsSaved(msg settings.SavedMsg) (tea.Model, tea.Cmd) {
	m.cfg = msg.Config
	m.currentView = m.previousView
	m.statusMsg = "Settings saved. Server changes take effect after a restart."

	// Display settings apply immediately.
	m.inboxView.SetUnreadOnly(msg.Config.Display.UnreadOnly)

	cmds := []tea.Cmd{
		saveConfig(m.configPath, msg.Config),
		m.inboxView.Reload(),
	}
	if msg.ForgetToken {
		cmds = append(cmds, forgetToken())
	}
	return m, tea.Batch(cmds...)
}

// saveConfig persists the configuration file.
func saveConfig(path string, cfg model.AppConfig) tea.Cmd {
	return func() tea.Msg {
		return configSavedMsg{err: model.SaveConfig(path, &cfg)}
	}
}

func (m Model) handleConfigSaved(msg configSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Could not save settings: %v", msg.err)
	}
	return m, nil
}

// forgetToken deletes the stored credential without ending the
// current session.
func forgetToken() tea.Cmd {
	return func() tea.Msg {
		return tokenForgottenMsg{err: credential.DeleteToken()}
	}
}

func (m Model) handleTokenForgotten(msg tokenForgottenMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Could not forget token: %v", msg.err)
	}
	return m, nil
}
