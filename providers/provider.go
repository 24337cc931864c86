package providers

import (
	"context"
	"fmt"

	"github.com/yairfalse/vigil/types"
)

// WorkspaceProvider fetches a point-in-time snapshot of a workspace.
type WorkspaceProvider interface {
	FetchSnapshot(ctx context.Context) (*types.Snapshot, error)

	// Provider info
	Name() string
}

// Config holds provider configuration
type Config struct {
	Token     string
	BaseURL   string
	Workspace string // workspace name or gid; first available when empty
}

// Factory creates a provider instance
type Factory func(config Config) (WorkspaceProvider, error)

// Registry of available providers
var providers = make(map[string]Factory)

// Register registers a new provider factory
func Register(name string, factory Factory) {
	providers[name] = factory
}

// Get creates a provider instance by name
func Get(name string, config Config) (WorkspaceProvider, error) {
	factory, exists := providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}
	return factory(config)
}

// List returns available provider names
func List() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	return names
}
