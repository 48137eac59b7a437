// Package github is a thin client for the two GitHub API calls nimph
// makes: repository search and fork creation. Results are opaque clone
// candidates as far as the rest of the tool is concerned.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const defaultBaseURL = "https://api.github.com"

// RemoteRepo is one repository as the API reports it.
type RemoteRepo struct {
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	CloneURL    string `json:"clone_url"`
	SSHURL      string `json:"ssh_url"`
	HTMLURL     string `json:"html_url"`
	Stars       int    `json:"stargazers_count"`
}

// Client talks to the GitHub REST API, optionally authenticated.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a client. An empty token means unauthenticated requests
// with their lower rate limits; fork requires a token.
func NewClient(token string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("%s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "decoding %s response", path)
}

// Search queries repository search and returns the matches, best first.
func (c *Client) Search(ctx context.Context, query string) ([]RemoteRepo, error) {
	var result struct {
		Items []RemoteRepo `json:"items"`
	}
	path := fmt.Sprintf("/search/repositories?q=%s&sort=stars&order=desc", url.QueryEscape(query))
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Fork creates (or returns the preexisting) fork of owner/repo for the
// authenticated user.
func (c *Client) Fork(ctx context.Context, owner, repo string) (*RemoteRepo, error) {
	if c.Token == "" {
		return nil, errors.New("forking requires a github token")
	}
	var fork RemoteRepo
	path := fmt.Sprintf("/repos/%s/%s/forks", url.PathEscape(owner), url.PathEscape(repo))
	if err := c.do(ctx, http.MethodPost, path, nil, &fork); err != nil {
		return nil, err
	}
	return &fork, nil
}
