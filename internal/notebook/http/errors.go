package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/notebook/internal/notebook/i18n"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
	"github.com/aussiebroadwan/notebook/pkg/slogx"
)

// responder writes localized error bodies.
type responder struct {
	tr *i18n.Translator
}

// code writes the error identified by code. Its signature matches
// httpx.ErrorWriter. The code doubles as the message ID.
func (p responder) code(w http.ResponseWriter, r *http.Request, status int, code string) {
	p.message(w, r, status, code, code)
}

func (p responder) message(w http.ResponseWriter, r *http.Request, status int, code, messageID string) {
	notesdk.NewAPIError(status, code, p.t(r, messageID)).WriteError(w)
}

func (p responder) t(r *http.Request, messageID string) string {
	if p.tr == nil {
		return messageID
	}
	return p.tr.T(messageID, r.Header.Get("Accept-Language"))
}

// fail maps a service error onto a response. Both login failures collapse
// into one invalid_credentials answer so emails cannot be probed.
func (p responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, httpx.ErrBadRequest):
		p.code(w, r, http.StatusBadRequest, notesdk.ErrorCodeInvalidRequest)
	case errors.Is(err, service.ErrInvalidInput):
		p.code(w, r, http.StatusBadRequest, notesdk.ErrorCodeInvalidInput)
	case errors.Is(err, service.ErrDuplicateEmail):
		p.code(w, r, http.StatusConflict, notesdk.ErrorCodeDuplicateEmail)
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidCredentials):
		p.code(w, r, http.StatusUnauthorized, notesdk.ErrorCodeInvalidCredentials)
	case errors.Is(err, service.ErrNotFound):
		p.code(w, r, http.StatusNotFound, notesdk.ErrorCodeNotFound)
	case errors.Is(err, service.ErrUnavailable):
		slogx.FromContext(r.Context()).Error("store unavailable", slogx.Err(err))
		p.code(w, r, http.StatusServiceUnavailable, notesdk.ErrorCodeUnavailable)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
		p.code(w, r, http.StatusInternalServerError, notesdk.ErrorCodeServerError)
	}
}
