package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
)

type DirectoryHandler struct {
	Users    *service.UserService
	Activity *service.ActivityService

	resp responder
}

// HandleUsers handles GET /v1/users
//
//	@Summary		List users
//	@Description	Every registered user, newest first. Non-admin callers see masked emails and no login times.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{array}		notesdk.User
//	@Failure		401	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/users [get].
func (h *DirectoryHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	p, _ := httpx.PrincipalFromContext(r.Context())

	users, err := h.Users.ListVisible(r.Context(), domain.ParseRole(p.Role))
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(users, toUser))
}

// HandleActivity handles GET /v1/activity
//
//	@Summary		My activity
//	@Description	The caller's most recent activity entries, newest first.
//	@Tags			Activity
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (default 20, max 500)"
//	@Success		200		{array}		notesdk.Activity
//	@Failure		400		{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/activity [get].
func (h *DirectoryHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	entries, err := h.Activity.RecentForUser(r.Context(), owner(r), limit)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(entries, toActivity))
}

// parseLimit reads the optional limit query parameter; 0 means default.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, httpx.ErrBadRequest
	}
	return n, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound)
}

