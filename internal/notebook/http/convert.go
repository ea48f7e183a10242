package http

import (
	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

func toNote(n domain.Note) notesdk.Note {
	return notesdk.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toUser(u domain.User) notesdk.User {
	return notesdk.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

func toActivity(e domain.ActivityEntry) notesdk.Activity {
	a := notesdk.Activity{
		ID:          e.ID,
		Type:        string(e.Kind),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
	if e.IPAddress != "" {
		ip := e.IPAddress
		a.IPAddress = &ip
	}
	return a
}

func toActivityWithUser(e domain.ActivityWithUser) notesdk.Activity {
	a := toActivity(e.ActivityEntry)
	a.UserName = e.UserName
	a.UserEmail = e.UserEmail
	return a
}

// mapSlice never returns nil so empty lists encode as [].
func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
