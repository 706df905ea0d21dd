package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized means the notebook service rejected the access token.
var ErrUnauthorized = errors.New("notebook service rejected the session token")

type Notebook struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	SourceCount int       `json:"source_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenSource hands out the current session access token.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type NotebookClient struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
}

func NewNotebookClient(baseURL string, tokens TokenSource) *NotebookClient {
	return &NotebookClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// ListNotebooks lists notebooks with the session currently held by the keepalive scheduler.
func (c *NotebookClient) ListNotebooks(ctx context.Context) ([]Notebook, error) {
	if c.tokens == nil {
		return nil, errors.New("notebook client has no token source")
	}
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.ListNotebooksWithToken(ctx, token)
}

func (c *NotebookClient) ListNotebooksWithToken(ctx context.Context, accessToken string) ([]Notebook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/notebooks", nil)
	if err != nil {
		return nil, fmt.Errorf("build notebook request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notebook request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read notebook response failed: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("notebook response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Notebooks []Notebook `json:"notebooks"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse notebook json failed: %w", err)
	}
	return parsed.Notebooks, nil
}

// Probe checks that accessToken is accepted, the same call the keepalive uses as a ping.
func (c *NotebookClient) Probe(ctx context.Context, accessToken string) error {
	_, err := c.ListNotebooksWithToken(ctx, accessToken)
	return err
}
