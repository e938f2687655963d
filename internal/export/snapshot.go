// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/metasearch/internal/query"
	"github.com/pdiddy/metasearch/internal/view"
	"github.com/pdiddy/metasearch/pkg/types"
)

// SnapshotFile is the on-disk representation of a search, the view it was
// looked at through and its records. It can be reloaded without asking the
// broker again.
type SnapshotFile struct {
	Query   query.Query    `yaml:"query"`
	View    view.View      `yaml:"view"`
	Records []types.Record `yaml:"records"`
	Summary Summary        `yaml:"summary"`
}

// Summary stores result statistics and a timestamp.
type Summary struct {
	Total     int                  `yaml:"total"`
	Hits      int                  `yaml:"hits"`
	Targets   []types.TargetStatus `yaml:"targets,omitempty"`
	Timestamp time.Time            `yaml:"timestamp"`
}

// WriteSnapshot saves a snapshot file to path.
func WriteSnapshot(path string, sf SnapshotFile) error {
	if sf.Summary.Timestamp.IsZero() {
		sf.Summary.Timestamp = time.Now().UTC()
	}
	sf.Summary.Total = len(sf.Records)

	data, err := yaml.Marshal(&sf)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a previously saved snapshot file from disk.
func ReadSnapshot(path string) (*SnapshotFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var sf SnapshotFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &sf, nil
}
