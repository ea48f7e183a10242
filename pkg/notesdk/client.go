package notesdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Client performs anonymous API calls and opens Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Language is sent as Accept-Language; error descriptions follow it.
	Language string
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	return c.call(ctx, http.MethodPost, "/v1/register", "", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, nil)
}

// Login returns a Session bound to the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp LoginResponse
	err := c.call(ctx, http.MethodPost, "/v1/login", "", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, token: resp.Token, Email: resp.Email, Role: resp.Role}, nil
}

// Session wraps a token obtained elsewhere, such as a cookie.
func (c *Client) Session(token string) *Session {
	return &Session{client: c, token: token}
}

func (c *Client) Liveness(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.call(ctx, http.MethodGet, "/livez", "", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) Readiness(ctx context.Context) (*HealthResponse, error) {
	var h HealthResponse
	if err := c.call(ctx, http.MethodGet, "/readyz", "", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
