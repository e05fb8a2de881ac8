// Package exporting writes session artifacts beside the CSV log: the static
// JSON sidecar and the parquet conversion done at shutdown.
package exporting

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"VoronMonitor/pkg/probing"
	"VoronMonitor/pkg/recording"
)

// Static describes a monitoring session. It is written once at startup.
type Static struct {
	SessionUUID     string    `json:"sessionUUID"`
	StartedAt       time.Time `json:"startedAt"`
	IntervalSeconds float64   `json:"intervalSeconds"`
	ResourceMode    string    `json:"resourceMode"`
	Probes          []string  `json:"probes"`
	LogPath         string    `json:"logPath"`
	MirrorPath      string    `json:"mirrorPath,omitempty"`

	probing.HostInfo
}

// WriteStatic writes s as indented JSON next to the primary log and returns
// the sidecar path.
func WriteStatic(s *Static) (string, error) {
	path := recording.SiblingPath(s.LogPath, "_static", ".json")

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal static info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write static info: %w", err)
	}
	return path, nil
}
