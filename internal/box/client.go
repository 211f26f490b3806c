package box

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/designsafe-ci/portal-data/internal/types"
	"golang.org/x/oauth2"
)

// Box.com endpoints.
const (
	AuthURL    = "https://app.box.com/api/oauth2/authorize"
	TokenURL   = "https://api.box.com/oauth2/token"
	APIBaseURL = "https://api.box.com/2.0"
)

// User is the Box account behind a token.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

// API is the part of Box the portal uses. Calls authenticate through a
// token source so that refreshed tokens reach whoever stores them.
type API interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
	CurrentUser(ctx context.Context, ts oauth2.TokenSource) (*User, error)
	LatestStreamPosition(ctx context.Context, ts oauth2.TokenSource) (string, error)
}

// Client calls Box with per-user OAuth2 tokens.
type Client struct {
	conf    *oauth2.Config
	baseURL string
}

func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return NewClientWithEndpoints(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  AuthURL,
			TokenURL: TokenURL,
		},
	}, APIBaseURL)
}

// NewClientWithEndpoints points the client at another OAuth2 server and API root.
func NewClientWithEndpoints(conf *oauth2.Config, apiBaseURL string) *Client {
	return &Client{conf: conf, baseURL: strings.TrimSuffix(apiBaseURL, "/")}
}

// TokenSource refreshes tok against the Box token endpoint once it expires.
func (c *Client) TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return c.conf.TokenSource(ctx, tok)
}

func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("box token exchange: %w", err)
	}
	return tok, nil
}

func (c *Client) get(ctx context.Context, ts oauth2.TokenSource, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := oauth2.NewClient(ctx, ts).Do(req)
	if err != nil {
		return fmt.Errorf("box GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("box GET %s: %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) CurrentUser(ctx context.Context, ts oauth2.TokenSource) (*User, error) {
	var u User
	if err := c.get(ctx, ts, "/users/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// LatestStreamPosition is the position of the newest event in the user's stream.
func (c *Client) LatestStreamPosition(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	var out struct {
		NextStreamPosition types.FlexString `json:"next_stream_position"`
	}
	if err := c.get(ctx, ts, "/events?stream_position=now", &out); err != nil {
		return "", err
	}
	if out.NextStreamPosition == "" {
		return "", fmt.Errorf("box events: no stream position")
	}
	return out.NextStreamPosition.String(), nil
}
