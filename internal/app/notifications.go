package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dnguyen/perfhub/internal/api"
	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/refs"
)

// snapshotRefreshedMsg reports a manual snapshot reload.
type snapshotRefreshedMsg struct {
	err error
}

// markReadResultMsg reports a single mark-read round trip.
type markReadResultMsg struct {
	id  string
	err error
}

// markAllReadResultMsg reports a mark-all-read round trip.
type markAllReadResultMsg struct {
	err error
}

// refreshSnapshot reloads the notification snapshot. When the stream
// is down it restarts the whole session so the stream is reopened too.
func (m Model) refreshSnapshot() tea.Cmd {
	if m.streamDown && m.token != "" {
		return m.startSession(m.token)
	}
	st, size := m.store, m.cfg.Server.PageSize
	return func() tea.Msg {
		_, err := st.LoadSnapshot(context.Background(), 1, size)
		return snapshotRefreshedMsg{err: err}
	}
}

func (m Model) handleSnapshotRefreshed(msg snapshotRefreshedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.statusMsg = fmt.Sprintf("Refresh failed: %v", msg.err)
		return m, nil
	}
	m.statusMsg = ""
	return m, m.inboxView.Reload()
}

// markRead confirms the read state with the backend; the store is only
// touched after the backend accepted the change.
func (m Model) markRead(id string) tea.Cmd {
	sy := m.sync
	return func() tea.Msg {
		return markReadResultMsg{id: id, err: sy.MarkAsRead(context.Background(), id)}
	}
}

func (m Model) handleMarkReadResult(msg markReadResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.statusMsg = fmt.Sprintf("Could not mark as read: %v", msg.err)
		return m, nil
	}
	if rec, ok := m.detailView.Record(); ok && rec.ID == msg.id {
		rec.Status = model.NotificationRead
		m.detailView.SetRecord(rec)
	}
	return m, m.inboxView.Reload()
}

// markAllRead marks every unread notification read, backend first.
func (m Model) markAllRead() tea.Cmd {
	sy := m.sync
	return func() tea.Msg {
		return markAllReadResultMsg{err: sy.MarkAllRead(context.Background())}
	}
}

func (m Model) handleMarkAllReadResult(msg markAllReadResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsAuthError(msg.err) {
			return m.sessionExpired()
		}
		m.statusMsg = fmt.Sprintf("Could not mark all read: %v", msg.err)
		return m, nil
	}
	if rec, ok := m.detailView.Record(); ok && rec.Unread() {
		rec.Status = model.NotificationRead
		m.detailView.SetRecord(rec)
	}
	return m, m.inboxView.Reload()
}

// followRef navigates to the goal or review a notification mentions.
func (m Model) followRef(ref refs.Ref) (tea.Model, tea.Cmd) {
	switch ref.Kind {
	case refs.KindGoal:
		return m.openGoals(ref.ID)
	case refs.KindReview:
		return m.openReviews(ref.ID)
	default:
		return m, nil
	}
}
