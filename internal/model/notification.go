package model

import "time"

// NotificationType categorizes what a notification is about.
type NotificationType string

const (
	NotificationGoalApproval     NotificationType = "goal-approval"
	NotificationGoalRejected     NotificationType = "goal-rejected"
	NotificationReviewRequest    NotificationType = "review-request"
	NotificationReviewSubmitted  NotificationType = "review-submitted"
	NotificationFeedbackReceived NotificationType = "feedback-received"
	NotificationCycleStarted     NotificationType = "cycle-started"
)

// Notification read-state constants. The backend sends these verbatim.
const (
	NotificationUnread = "UNREAD"
	NotificationRead   = "READ"
)

// Notification priority constants.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// NotificationRecord is a single notification as delivered by the backend,
// either inside a snapshot page or as one streamed event.
type NotificationRecord struct {
	// ID is the server-assigned unique identifier.
	ID string `json:"id"`

	// Message is the human-readable notification text. It may embed
	// record references (e.g. G-12, R-7) that the client can follow.
	Message string `json:"message"`

	// Type categorizes the notification (use Notification* constants).
	Type NotificationType `json:"type"`

	// Status is the read state, UNREAD or READ.
	Status string `json:"status"`

	// Priority is normal or high; high-priority entries are visually
	// promoted in the inbox.
	Priority string `json:"priority"`

	// ActionRequired marks notifications the recipient must act on
	// (e.g. a review awaiting submission).
	ActionRequired bool `json:"actionRequired"`

	// CreatedAt is when the backend generated the notification.
	CreatedAt time.Time `json:"createdAt"`
}

// Unread reports whether the record is in the UNREAD state.
func (n NotificationRecord) Unread() bool {
	return n.Status == NotificationUnread
}

// NotificationPage is one page of the notification snapshot endpoint.
type NotificationPage struct {
	Items []NotificationRecord `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
}
