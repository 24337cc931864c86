package asana

import (
	"context"
	"fmt"
	"time"

	"github.com/yairfalse/vigil/providers"
	"github.com/yairfalse/vigil/telemetry"
	"github.com/yairfalse/vigil/types"
)

// Provider implements providers.WorkspaceProvider over the Asana API.
type Provider struct {
	client    *Client
	workspace string
	logger    *telemetry.Logger
}

func init() {
	providers.Register("asana", NewProvider)
}

// NewProvider creates an Asana provider from config.
func NewProvider(cfg providers.Config) (providers.WorkspaceProvider, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("asana: token is required")
	}
	return &Provider{
		client:    NewClient(cfg.Token, cfg.BaseURL),
		workspace: cfg.Workspace,
		logger:    telemetry.NewLogger("asana-provider"),
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "asana"
}

// FetchSnapshot pulls the workspace, its users and its projects into a
// single consolidated snapshot stamped with the extraction time.
func (p *Provider) FetchSnapshot(ctx context.Context) (*types.Snapshot, error) {
	workspaces, err := p.client.Workspaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}

	workspace, err := p.selectWorkspace(workspaces)
	if err != nil {
		return nil, err
	}

	users, err := p.client.WorkspaceUsers(ctx, workspace.GID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for workspace %s: %w", workspace.GID, err)
	}

	projects, err := p.client.WorkspaceProjects(ctx, workspace.GID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for workspace %s: %w", workspace.GID, err)
	}

	snap := &types.Snapshot{
		Workspace:   workspace,
		Users:       users,
		Projects:    projects,
		ExtractedAt: time.Now().UTC(),
	}

	p.logger.LogFetchComplete(ctx, workspace.Name, len(users), len(projects))

	return snap, nil
}

// selectWorkspace picks the configured workspace by name or gid, or the
// first one available when none is configured.
func (p *Provider) selectWorkspace(workspaces []types.Workspace) (types.Workspace, error) {
	if len(workspaces) == 0 {
		return types.Workspace{}, fmt.Errorf("no workspaces available")
	}

	if p.workspace == "" {
		return workspaces[0], nil
	}

	for _, ws := range workspaces {
		if ws.Name == p.workspace || ws.GID == p.workspace {
			return ws, nil
		}
	}

	return types.Workspace{}, fmt.Errorf("workspace %q not found", p.workspace)
}
