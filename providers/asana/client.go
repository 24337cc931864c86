package asana

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yairfalse/vigil/types"
)

// DefaultBaseURL is the Asana REST API root.
const DefaultBaseURL = "https://app.asana.com/api/1.0"

const requestTimeout = 30 * time.Second

// Client is a minimal Asana REST client authenticated with a personal
// access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the given token. An empty baseURL
// means the public API.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Workspaces lists the workspaces visible to the token.
func (c *Client) Workspaces(ctx context.Context) ([]types.Workspace, error) {
	var workspaces []types.Workspace
	if err := c.get(ctx, "/workspaces", nil, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// WorkspaceUsers lists a workspace's members with the fields the
// policies need.
func (c *Client) WorkspaceUsers(ctx context.Context, workspaceGID string) ([]types.User, error) {
	params := url.Values{}
	params.Set("opt_fields", "gid,name,email,is_admin,resource_type")

	var users []types.User
	if err := c.get(ctx, "/workspaces/"+workspaceGID+"/users", params, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// WorkspaceProjects lists a workspace's projects including archival
// state and modification timestamps.
func (c *Client) WorkspaceProjects(ctx context.Context, workspaceGID string) ([]types.Project, error) {
	params := url.Values{}
	params.Set("workspace", workspaceGID)
	params.Set("opt_fields", "gid,name,archived,modified_at,created_at,public,color,notes,owner,team,permalink_url")

	var projects []types.Project
	if err := c.get(ctx, "/projects", params, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// get performs an authenticated GET and decodes the `data` envelope
// every Asana response is wrapped in.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, string(body))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("unexpected response shape from %s: %w", path, err)
	}
	return nil
}
