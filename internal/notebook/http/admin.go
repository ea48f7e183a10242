package http

import (
	"net/http"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

// AdminHandler serves the administrator dashboard. Routes are gated by
// httpx.RequireRole.
type AdminHandler struct {
	Admin    *service.AdminService
	Activity *service.ActivityService
	Notes    *service.NoteService

	resp responder
}

// HandleStats handles GET /v1/admin/stats
//
//	@Summary		System statistics
//	@Description	User and note totals, users active since midnight UTC and the ten latest activity entries.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{object}	notesdk.AdminStats
//	@Failure		401	{object}	notesdk.APIError
//	@Failure		403	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/admin/stats [get].
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Admin.Stats(r.Context())
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, notesdk.AdminStats{
		TotalUsers:     st.TotalUsers,
		TotalNotes:     st.TotalNotes,
		ActiveToday:    st.ActiveToday,
		RecentActivity: mapSlice(st.RecentActivity, toActivityWithUser),
	})
}

// HandleActivity handles GET /v1/admin/activity
//
//	@Summary		Global activity feed
//	@Tags			Admin
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (default 50, max 500)"
//	@Success		200		{array}		notesdk.Activity
//	@Failure		403		{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/admin/activity [get].
func (h *AdminHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	entries, err := h.Activity.RecentGlobal(r.Context(), limit)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(entries, toActivityWithUser))
}

// HandleNotes handles GET /v1/admin/notes
//
//	@Summary		All notes
//	@Description	Every note with its owner, most recently updated first.
//	@Tags			Admin
//	@Produce		json
//	@Success		200	{array}		notesdk.AdminNote
//	@Failure		403	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/admin/notes [get].
func (h *AdminHandler) HandleNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Notes.ListAll(r.Context())
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(notes, func(n domain.NoteWithOwner) notesdk.AdminNote {
		return notesdk.AdminNote{
			Note:       toNote(n.Note),
			OwnerName:  n.OwnerName,
			OwnerEmail: n.OwnerEmail,
		}
	}))
}
