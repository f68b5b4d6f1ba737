package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// manifestFile is the name of the metadata sidecar written alongside a
// checkpoint's BadgerDB directory, following the corpus-wide choice of
// yaml.v3 for structured config/metadata (the teacher's own go.mod pulls
// it in for exactly this kind of use).
const manifestFile = "manifest.yaml"

// Manifest records what a checkpoint directory holds, so Load can verify
// it read back what Save wrote without needing to fully replay first.
type Manifest struct {
	GraphName  string    `yaml:"graph_name"`
	NodeCount  int       `yaml:"node_count"`
	EdgeCount  int       `yaml:"edge_count"`
	LabelCount int       `yaml:"label_count"`
	RelCount   int       `yaml:"rel_count"`
	AttrCount  int       `yaml:"attr_count"`
	WrittenAt  time.Time `yaml:"written_at"`
}

func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, manifestFile), data, 0o644)
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal manifest: %w", err)
	}
	return &m, nil
}
