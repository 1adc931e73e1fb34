package inbox

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/model"
	"github.com/dnguyen/perfhub/internal/theme"
)

// NotificationItem wraps a model.NotificationRecord so it can be used
// in a bubbles/list.
type NotificationItem struct {
	Record model.NotificationRecord
}

// FilterValue returns the string used for fuzzy filtering.
func (i NotificationItem) FilterValue() string {
	return i.Record.Message
}

// Title returns the notification message for the list.
func (i NotificationItem) Title() string {
	return i.Record.Message
}

// Description returns a short summary line for the list.
func (i NotificationItem) Description() string {
	return fmt.Sprintf("%s | %s", typeLabel(i.Record.Type), relativeTime(i.Record.CreatedAt))
}

// ItemDelegate implements list.ItemDelegate for rendering notifications.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ni, ok := item.(NotificationItem)
	if !ok {
		return
	}

	rec := ni.Record
	isSelected := index == m.Index()

	// Read-state marker
	var marker string
	if rec.Unread() {
		marker = theme.UnreadDotStyle.Render("●")
	} else {
		marker = lipgloss.NewStyle().Foreground(theme.ColorSubtle).Render("○")
	}

	// Type badge
	typeBadge := theme.TypeLabelStyle(rec.Type).Render(typeLabel(rec.Type))

	// High-priority indicator
	priBadge := ""
	if rec.Priority == model.PriorityHigh {
		priBadge = theme.PriorityStyle(rec.Priority).Render(" !")
	}

	// Action-required indicator
	actionBadge := ""
	if rec.ActionRequired {
		actionBadge = lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Render(" ACTION")
	}

	// Time
	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(rec.CreatedAt))

	line := fmt.Sprintf(
		"%s %s%s%s %s  %s",
		marker, typeBadge, priBadge, actionBadge, rec.Message, timeStr,
	)

	// Dim entries that have already been read
	if !rec.Unread() {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// typeLabel returns a short badge label for the given notification type.
func typeLabel(t model.NotificationType) string {
	switch t {
	case model.NotificationGoalApproval, model.NotificationGoalRejected:
		return "GOAL"
	case model.NotificationReviewRequest, model.NotificationReviewSubmitted:
		return "REVIEW"
	case model.NotificationFeedbackReceived:
		return "FDBK"
	case model.NotificationCycleStarted:
		return "CYCLE"
	default:
		return "NOTE"
	}
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
