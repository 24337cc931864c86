package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yairfalse/vigil/types"
)

// SnapshotError reports a document that cannot back an audit run at
// all: unreadable, unparseable, or carrying none of the expected
// sections. Fatal before any rule is evaluated.
type SnapshotError struct {
	Path   string
	Reason string
}

func (e *SnapshotError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid snapshot: %s", e.Reason)
	}
	return fmt.Sprintf("invalid snapshot %s: %s", e.Path, e.Reason)
}

// LoadFile reads a consolidated snapshot document from disk.
func LoadFile(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, &SnapshotError{Path: path, Reason: err.Error()}
	}
	return decode(data, path)
}

// WriteFile saves a snapshot document as indented JSON.
func WriteFile(path string, snap *types.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

func decode(data []byte, path string) (*types.Snapshot, error) {
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, &SnapshotError{Path: path, Reason: "parse: " + err.Error()}
	}

	// Reject only documents with nothing to audit. A snapshot missing
	// one section still evaluates: rules over the present sections run
	// normally and the rest speak for themselves in the report.
	if snap.Workspace.GID == "" && len(snap.Users) == 0 && len(snap.Projects) == 0 {
		return nil, &SnapshotError{Path: path, Reason: "no workspace, users or projects sections"}
	}

	return &snap, nil
}
