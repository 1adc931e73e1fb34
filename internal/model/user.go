package model

// Role constants as issued by the backend.
const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

// User is the authenticated account as returned by the login and
// profile endpoints.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CanManage reports whether the user's role grants manager-level
// actions (goal approval, team scope). The backend enforces this
// independently; the client only uses it to gate what it renders.
func (u User) CanManage() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
