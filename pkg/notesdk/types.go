package notesdk

import "time"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`

	// Token is also set as the session_token cookie.
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type Profile struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	NoteCount int        `json:"note_count"`
}

// User is a directory entry. For non-admin viewers Email is masked and
// LastLogin is always null.
type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
}

type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminNote is a note with its owner, as listed to administrators.
type AdminNote struct {
	Note
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
}

type CreateNoteResponse struct {
	ID string `json:"id"`
}

type NoteCountResponse struct {
	Count int `json:"count"`
}

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"activity_type"`
	Description string    `json:"description"`
	IPAddress   *string   `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`

	// Set only in the global feed.
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

type AdminStats struct {
	TotalUsers     int        `json:"total_users"`
	TotalNotes     int        `json:"total_notes"`
	ActiveToday    int        `json:"active_today"`
	RecentActivity []Activity `json:"recent_activity"`
}
