package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestVersion is incremented when the format changes.
const ManifestVersion = 1

// Manifest summarises a finished run for later bookkeeping.
type Manifest struct {
	Version   int    `json:"version"`
	Mode      string `json:"mode"`
	Generator string `json:"generator,omitempty"`
	Seed      uint64 `json:"seed"`

	Requested int `json:"requested"`
	Events    int `json:"events"`
	Failures  int `json:"failures"`
	Primaries int `json:"primaries"`
	Clusters  int `json:"clusters"`
	Discarded int `json:"discarded"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`

	// Files lists the outputs written next to the manifest.
	Files []string `json:"files,omitempty"`
}

// ManifestName is the file name used by SaveManifest.
const ManifestName = "run.json"

// SaveManifest writes a manifest to dir and returns its path.
func SaveManifest(m *Manifest, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	path := filepath.Join(dir, ManifestName)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}

// LoadManifest reads a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("manifest version %d, want %d", m.Version, ManifestVersion)
	}

	return &m, nil
}
