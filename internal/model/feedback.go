package model

import "time"

// Feedback kind constants.
const (
	FeedbackKindPraise     = "praise"
	FeedbackKindSuggestion = "suggestion"
)

// Feedback visibility constants.
const (
	FeedbackVisibilityPublic  = "public"
	FeedbackVisibilityPrivate = "private"
)

// Feedback is a piece of ad hoc feedback exchanged between colleagues,
// outside the formal review cycle.
type Feedback struct {
	ID       string `json:"id" db:"id"`
	FromID   string `json:"fromId" db:"from_id"`
	FromName string `json:"fromName" db:"from_name"`
	ToID     string `json:"toId" db:"to_id"`
	ToName   string `json:"toName" db:"to_name"`
	Message  string `json:"message" db:"message"`

	// Kind is praise or suggestion.
	Kind string `json:"kind" db:"kind"`

	// Visibility controls whether the recipient's manager can see it.
	Visibility string `json:"visibility" db:"visibility"`

	// ClientRef is a client-generated idempotency key so a retried
	// send cannot create duplicates server-side.
	ClientRef string `json:"clientRef,omitempty" db:"client_ref"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
