package model

import "time"

// Goal status constants covering the approval workflow.
const (
	GoalStatusDraft           = "draft"
	GoalStatusPendingApproval = "pending-approval"
	GoalStatusApproved        = "approved"
	GoalStatusRejected        = "rejected"
	GoalStatusCompleted       = "completed"
)

// Goal is a performance goal owned by an employee and approved by
// their manager.
type Goal struct {
	// ID is the server-assigned unique identifier.
	ID string `json:"id" db:"id"`

	// Title is the short goal summary.
	Title string `json:"title" db:"title"`

	// Description is the full goal text, including success criteria.
	Description string `json:"description" db:"description"`

	// OwnerID and OwnerName identify the employee the goal belongs to.
	OwnerID   string `json:"ownerId" db:"owner_id"`
	OwnerName string `json:"ownerName" db:"owner_name"`

	// Status is the workflow state (use GoalStatus* constants).
	Status string `json:"status" db:"status"`

	// Progress is the completion percentage, 0-100.
	Progress int `json:"progress" db:"progress"`

	// ManagerComment carries the approval or rejection note, if any.
	ManagerComment string `json:"managerComment,omitempty" db:"manager_comment"`

	DueDate   *time.Time `json:"dueDate,omitempty" db:"due_date"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

// Overdue reports whether the goal has passed its due date without
// being completed.
func (g Goal) Overdue() bool {
	return g.DueDate != nil && g.DueDate.Before(time.Now()) &&
		g.Status != GoalStatusCompleted
}
