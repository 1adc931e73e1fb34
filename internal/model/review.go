package model

import "time"

// Review kind constants.
const (
	ReviewKindSelf    = "self"
	ReviewKindManager = "manager"
	ReviewKindPeer    = "peer"
)

// Review status constants.
const (
	ReviewStatusPending    = "pending"
	ReviewStatusInProgress = "in-progress"
	ReviewStatusSubmitted  = "submitted"
)

// Review is a single review assignment within a review cycle.
type Review struct {
	ID           string `json:"id" db:"id"`
	CycleID      string `json:"cycleId" db:"cycle_id"`
	CycleName    string `json:"cycleName" db:"cycle_name"`
	RevieweeID   string `json:"revieweeId" db:"reviewee_id"`
	RevieweeName string `json:"revieweeName" db:"reviewee_name"`
	ReviewerID   string `json:"reviewerId" db:"reviewer_id"`
	ReviewerName string `json:"reviewerName" db:"reviewer_name"`

	// Kind is self, manager or peer.
	Kind string `json:"kind" db:"kind"`

	// Status tracks the assignment through submission.
	Status string `json:"status" db:"status"`

	// Rating is 1-5 once submitted, 0 while unrated.
	Rating int `json:"rating" db:"rating"`

	// Summary is the written review body.
	Summary string `json:"summary" db:"summary"`

	DueDate     *time.Time `json:"dueDate,omitempty" db:"due_date"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty" db:"submitted_at"`
}
