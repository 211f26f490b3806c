package agave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/designsafe-ci/portal-data/internal/logger"
	"golang.org/x/oauth2"
)

// APIError is a non-success answer from the tenant API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agave: %d: %s", e.Status, e.Message)
}

// MetadataRecord is a metadata document to store.
type MetadataRecord struct {
	Name           string         `json:"name"`
	Value          map[string]any `json:"value"`
	AssociationIDs []string       `json:"associationIds"`
}

// Client talks to one tenant on behalf of one user.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient returns a client whose requests carry tokens from ts. An
// oauth2.ReuseTokenSource refreshes expired tokens before each call.
func NewClient(ctx context.Context, baseURL string, ts oauth2.TokenSource, log *logger.Logger) *Client {
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = 30 * time.Second
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    hc,
		log:     log.With("service", "AgaveClient"),
	}
}

// OAuthConfig is the tenant's token endpoint configuration.
func OAuthConfig(baseURL, clientKey, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientKey,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  strings.TrimSuffix(baseURL, "/") + "/authorize",
			TokenURL: strings.TrimSuffix(baseURL, "/") + "/token",
		},
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("agave %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("agave %s %s: decode response: %w", method, endpoint, err)
	}
	if resp.StatusCode >= 400 || env.Status == "error" {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(env.Result, out)
}

func escapePath(p string) string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// ListFiles lists one directory. The first record, "." in the tenant API, is dropped.
func (c *Client) ListFiles(ctx context.Context, system, filePath string) ([]*File, error) {
	var raw []map[string]any
	endpoint := fmt.Sprintf("/files/v2/listings/system/%s/%s", url.PathEscape(system), escapePath(filePath))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(raw))
	for _, r := range raw {
		if r["name"] == "." {
			continue
		}
		f, err := DecodeFile(r)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// FilePems returns the explicit permissions on a path.
func (c *Client) FilePems(ctx context.Context, system, filePath string) ([]Pem, error) {
	var raw []map[string]any
	endpoint := fmt.Sprintf("/files/v2/pems/system/%s/%s", url.PathEscape(system), escapePath(filePath))
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &raw); err != nil {
		return nil, err
	}
	return DecodePems(raw)
}

// AddMetadata stores a metadata record and returns its uuid.
func (c *Client) AddMetadata(ctx context.Context, rec MetadataRecord) (string, error) {
	var out struct {
		UUID string `json:"uuid"`
	}
	if err := c.do(ctx, http.MethodPost, "/meta/v2/data", rec, &out); err != nil {
		return "", err
	}
	c.log.Debug("metadata stored", "name", rec.Name, "uuid", out.UUID)
	return out.UUID, nil
}
