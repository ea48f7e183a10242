package notesdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Session performs calls as a logged in user. Sessions do not expire on
// their own; they end with Logout or a server restart.
type Session struct {
	client *Client
	token  string

	Email string
	Role  string
}

func (s *Session) Token() string { return s.token }

func (s *Session) do(ctx context.Context, method, path string, body, target any) error {
	return s.client.call(ctx, method, path, s.token, body, target)
}

func (s *Session) Logout(ctx context.Context) error {
	return s.do(ctx, http.MethodPost, "/v1/logout", nil, nil)
}

func (s *Session) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := s.do(ctx, http.MethodGet, "/v1/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Notes

func (s *Session) ListNotes(ctx context.Context) ([]Note, error) {
	var notes []Note
	err := s.do(ctx, http.MethodGet, "/v1/notes", nil, &notes)
	return notes, err
}

func (s *Session) CreateNote(ctx context.Context, title, content string) (string, error) {
	var resp CreateNoteResponse
	err := s.do(ctx, http.MethodPost, "/v1/notes", NoteRequest{Title: title, Content: content}, &resp)
	return resp.ID, err
}

func (s *Session) GetNote(ctx context.Context, id string) (*Note, error) {
	var n Note
	if err := s.do(ctx, http.MethodGet, "/v1/notes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Session) UpdateNote(ctx context.Context, id, title, content string) error {
	return s.do(ctx, http.MethodPut, "/v1/notes/"+url.PathEscape(id), NoteRequest{Title: title, Content: content}, nil)
}

func (s *Session) DeleteNote(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/v1/notes/"+url.PathEscape(id), nil, nil)
}

func (s *Session) DeleteAllNotes(ctx context.Context) error {
	return s.do(ctx, http.MethodDelete, "/v1/notes", nil, nil)
}

func (s *Session) NoteCount(ctx context.Context) (int, error) {
	var resp NoteCountResponse
	err := s.do(ctx, http.MethodGet, "/v1/notes/stats", nil, &resp)
	return resp.Count, err
}

// Directory and activity

func (s *Session) Activity(ctx context.Context, limit int) ([]Activity, error) {
	var out []Activity
	err := s.do(ctx, http.MethodGet, withLimit("/v1/activity", limit), nil, &out)
	return out, err
}

func (s *Session) Users(ctx context.Context) ([]User, error) {
	var out []User
	err := s.do(ctx, http.MethodGet, "/v1/users", nil, &out)
	return out, err
}

// Admin

func (s *Session) AdminStats(ctx context.Context) (*AdminStats, error) {
	var st AdminStats
	if err := s.do(ctx, http.MethodGet, "/v1/admin/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Session) AdminActivity(ctx context.Context, limit int) ([]Activity, error) {
	var out []Activity
	err := s.do(ctx, http.MethodGet, withLimit("/v1/admin/activity", limit), nil, &out)
	return out, err
}

func (s *Session) AdminNotes(ctx context.Context) ([]AdminNote, error) {
	var out []AdminNote
	err := s.do(ctx, http.MethodGet, "/v1/admin/notes", nil, &out)
	return out, err
}

func withLimit(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	return fmt.Sprintf("%s?limit=%d", path, limit)
}
