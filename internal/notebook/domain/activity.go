package domain

import "time"

// ActivityKind tags an audit entry. The set is open; these are the kinds the
// service itself emits.
type ActivityKind string

const (
	ActivityRegistration   ActivityKind = "registration"
	ActivityLogin          ActivityKind = "login"
	ActivityFailedLogin    ActivityKind = "failed_login"
	ActivityCreateNote     ActivityKind = "create_note"
	ActivityUpdateNote     ActivityKind = "update_note"
	ActivityDeleteNote     ActivityKind = "delete_note"
	ActivityDeleteAllNotes ActivityKind = "delete_all_notes"
)

type ActivityEntry struct {
	ID          string
	UserID      string
	Kind        ActivityKind
	Description string
	IPAddress   string // empty when the origin is unknown
	CreatedAt   time.Time
}

// ActivityWithUser is a global feed entry joined with the acting user.
type ActivityWithUser struct {
	ActivityEntry
	UserName  string
	UserEmail string
}
