package domain

import "time"

type Note struct {
	ID        string
	Title     string
	Content   string
	UserID    string // owner, never changes after creation
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteWithOwner is the admin view of a note joined with its owner.
type NoteWithOwner struct {
	Note
	OwnerName  string
	OwnerEmail string
}
