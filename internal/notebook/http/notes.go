package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

// NotesHandler serves the caller's own notes. Notes of other users are
// indistinguishable from missing ones.
type NotesHandler struct {
	Notes *service.NoteService

	resp responder
}

func owner(r *http.Request) string {
	p, _ := httpx.PrincipalFromContext(r.Context())
	return p.Subject
}

// decodeNote reads and validates a note body.
func (h *NotesHandler) decodeNote(w http.ResponseWriter, r *http.Request) (notesdk.NoteRequest, bool) {
	var req notesdk.NoteRequest
	if err := httpx.DecodeRequest(r, &req); err != nil {
		h.resp.fail(w, r, err)
		return req, false
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		h.resp.message(w, r, http.StatusBadRequest, notesdk.ErrorCodeInvalidInput, "missing_note_fields")
		return req, false
	}
	return req, true
}

// HandleList handles GET /v1/notes
//
//	@Summary		List notes
//	@Description	The caller's notes, most recently updated first.
//	@Tags			Notes
//	@Produce		json
//	@Success		200	{array}		notesdk.Note
//	@Failure		401	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes [get].
func (h *NotesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Notes.ListByOwner(r.Context(), owner(r))
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, mapSlice(notes, toNote))
}

// HandleCreate handles POST /v1/notes
//
//	@Summary		Create note
//	@Tags			Notes
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		notesdk.NoteRequest	true	"title, content"
//	@Success		201		{object}	notesdk.CreateNoteResponse
//	@Failure		400		{object}	notesdk.APIError
//	@Failure		401		{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes [post].
func (h *NotesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeNote(w, r)
	if !ok {
		return
	}

	id, err := h.Notes.Create(r.Context(), owner(r), req.Title, req.Content)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, notesdk.CreateNoteResponse{ID: id})
}

// HandleGet handles GET /v1/notes/{id}
//
//	@Summary		Get note
//	@Tags			Notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	notesdk.Note
//	@Failure		404	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes/{id} [get].
func (h *NotesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notes.Get(r.Context(), owner(r), r.PathValue("id"))
	if err != nil {
		h.noteFail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toNote(n))
}

// HandleUpdate handles PUT /v1/notes/{id}
//
//	@Summary		Update note
//	@Tags			Notes
//	@Accept			json,x-www-form-urlencoded
//	@Param			id		path	string				true	"Note ID"
//	@Param			request	body	notesdk.NoteRequest	true	"title, content"
//	@Success		204
//	@Failure		400	{object}	notesdk.APIError
//	@Failure		404	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes/{id} [put].
func (h *NotesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeNote(w, r)
	if !ok {
		return
	}

	updated, err := h.Notes.Update(r.Context(), owner(r), r.PathValue("id"), req.Title, req.Content)
	h.mutated(w, r, updated, err)
}

// HandleDelete handles DELETE /v1/notes/{id}
//
//	@Summary		Delete note
//	@Tags			Notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204
//	@Failure		404	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes/{id} [delete].
func (h *NotesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Notes.Delete(r.Context(), owner(r), r.PathValue("id"))
	h.mutated(w, r, deleted, err)
}

// HandleDeleteAll handles DELETE /v1/notes
//
//	@Summary		Delete all notes
//	@Description	Removes every note of the caller. Succeeds even when there is nothing to delete.
//	@Tags			Notes
//	@Success		204
//	@Failure		401	{object}	notesdk.APIError
//	@Security		BearerAuth
//	@Router			/v1/notes [delete].
func (h *NotesHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Notes.DeleteAll(r.Context(), owner(r))
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	if !ok {
		h.resp.code(w, r, http.StatusUnauthorized, notesdk.ErrorCodeUnauthorized)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCount handles GET /v1/notes/stats
//
//	@Summary		Count notes
//	@Tags			Notes
//	@Produce		json
//	@Success		200	{object}	notesdk.NoteCountResponse
//	@Security		BearerAuth
//	@Router			/v1/notes/stats [get].
func (h *NotesHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Notes.CountByOwner(r.Context(), owner(r))
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, notesdk.NoteCountResponse{Count: n})
}

func (h *NotesHandler) mutated(w http.ResponseWriter, r *http.Request, ok bool, err error) {
	switch {
	case err != nil:
		h.noteFail(w, r, err)
	case !ok:
		h.resp.message(w, r, http.StatusNotFound, notesdk.ErrorCodeNotFound, "note_not_found")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *NotesHandler) noteFail(w http.ResponseWriter, r *http.Request, err error) {
	if isNotFound(err) {
		h.resp.message(w, r, http.StatusNotFound, notesdk.ErrorCodeNotFound, "note_not_found")
		return
	}
	h.resp.fail(w, r, err)
}
