package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dnguyen/perfhub/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// UnreadDotStyle renders the unread marker in the inbox list.
var UnreadDotStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// UnreadCountStyle renders the unread badge in the header.
var UnreadCountStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// LiveBadgeStyle marks the header when the notification stream is
// connected.
var LiveBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// SyncingBadgeStyle marks the header while the session is syncing or
// reconnecting.
var SyncingBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// OfflineBadgeStyle marks the header when showing cached data or a
// lost stream.
var OfflineBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// PriorityStyle returns a color-coded style for the given notification
// priority.
func PriorityStyle(priority string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch priority {
	case model.PriorityHigh:
		return base.Foreground(ColorOrange)
	default:
		return base.Foreground(ColorGray)
	}
}

// TypeLabelStyle returns a color-coded style for the given notification
// type badge.
func TypeLabelStyle(t model.NotificationType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch t {
	case model.NotificationGoalApproval, model.NotificationGoalRejected:
		return base.Foreground(ColorBlue)
	case model.NotificationReviewRequest, model.NotificationReviewSubmitted:
		return base.Foreground(ColorMagenta)
	case model.NotificationFeedbackReceived:
		return base.Foreground(ColorGreen)
	case model.NotificationCycleStarted:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// GoalStatusStyle returns a color-coded style for the given goal status.
func GoalStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.GoalStatusDraft:
		return base.Foreground(ColorGray)
	case model.GoalStatusPendingApproval:
		return base.Foreground(ColorYellow)
	case model.GoalStatusApproved:
		return base.Foreground(ColorBlue)
	case model.GoalStatusRejected:
		return base.Foreground(ColorRed)
	case model.GoalStatusCompleted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// ReviewStatusStyle returns a color-coded style for the given review
// status.
func ReviewStatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.ReviewStatusPending:
		return base.Foreground(ColorYellow)
	case model.ReviewStatusInProgress:
		return base.Foreground(ColorMagenta)
	case model.ReviewStatusSubmitted:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// RoleStyle returns a color-coded style for the given user role badge.
func RoleStyle(role string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch role {
	case model.RoleManager:
		return base.Foreground(ColorMagenta)
	case model.RoleAdmin:
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorBlue)
	}
}
