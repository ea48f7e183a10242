package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/notebook/internal/notebook/service"
	"github.com/aussiebroadwan/notebook/pkg/httpx"
	"github.com/aussiebroadwan/notebook/pkg/notesdk"
)

type AuthHandler struct {
	Auth  *service.AuthService
	Users *service.UserService
	Notes *service.NoteService

	CookieSecure bool

	resp responder
}

// HandleRegister handles POST /v1/register
//
//	@Summary		Register
//	@Description	Creates a regular user account. Accepts JSON or form encoded bodies.
//	@Tags			Auth
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		notesdk.RegisterRequest	true	"name, email, password"
//	@Success		201		{object}	notesdk.MessageResponse
//	@Failure		400		{object}	notesdk.APIError	"invalid_input"
//	@Failure		409		{object}	notesdk.APIError	"duplicate_email"
//	@Failure		429		{object}	notesdk.APIError	"rate_limit_exceeded"
//	@Router			/v1/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req notesdk.RegisterRequest
	if err := httpx.DecodeRequest(r, &req); err != nil {
		h.resp.fail(w, r, err)
		return
	}

	if err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		h.resp.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, notesdk.MessageResponse{Message: h.resp.t(r, "registered")})
}

// HandleLogin handles POST /v1/login
//
//	@Summary		Log in
//	@Description	Checks the credentials and issues a session token, returned in the body and as the session_token cookie.
//	@Description	Unknown emails and wrong passwords produce the same response.
//	@Tags			Auth
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		notesdk.LoginRequest	true	"email, password"
//	@Success		200		{object}	notesdk.LoginResponse
//	@Failure		401		{object}	notesdk.APIError	"invalid_credentials"
//	@Failure		429		{object}	notesdk.APIError	"rate_limit_exceeded"
//	@Router			/v1/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req notesdk.LoginRequest
	if err := httpx.DecodeRequest(r, &req); err != nil {
		h.resp.fail(w, r, err)
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email, req.Password, httpx.IPKeyExtractor(r))
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, notesdk.LoginResponse{
		Email: res.Email,
		Role:  string(res.Role),
		Token: res.Token,
	})
}

// HandleLogout handles POST /v1/logout
//
//	@Summary		Log out
//	@Description	Revokes the presented session token, if any, and clears the cookie. Always succeeds.
//	@Tags			Auth
//	@Success		204
//	@Security		BearerAuth
//	@Router			/v1/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := httpx.TokenFromRequest(r, SessionCookieName); token != "" {
		h.Auth.Logout(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe handles GET /v1/me
//
//	@Summary		Current user
//	@Description	Profile of the caller with their note count.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	notesdk.Profile
//	@Failure		401	{object}	notesdk.APIError	"unauthorized"
//	@Security		BearerAuth
//	@Router			/v1/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, _ := httpx.PrincipalFromContext(ctx)

	u, err := h.Users.FindByEmail(ctx, p.Subject)
	if errors.Is(err, service.ErrNotFound) {
		h.resp.code(w, r, http.StatusUnauthorized, notesdk.ErrorCodeUnauthorized)
		return
	}
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	count, err := h.Notes.CountByOwner(ctx, u.Email)
	if err != nil {
		h.resp.fail(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, notesdk.Profile{
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		NoteCount: count,
	})
}

