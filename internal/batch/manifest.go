package batch

import (
	"encoding/json"
	"os"

	"github.com/Faultbox/cubekit/pkg/formats"
)

// ManifestEntry describes one output file.
type ManifestEntry struct {
	Clip     string  `json:"clip"`
	Short    string  `json:"short_name"`
	File     string  `json:"file,omitempty"`
	Frames   int     `json:"frames,omitempty"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error,omitempty"`
}

// Manifest is written next to the batch output.
type Manifest struct {
	Model   string          `json:"model"`
	Format  string          `json:"format"`
	Entries []ManifestEntry `json:"entries"`
}

// NewManifest builds a manifest from batch results.
func NewManifest(model, format string, results []Result) *Manifest {
	m := &Manifest{Model: model, Format: format, Entries: make([]ManifestEntry, len(results))}
	for i, r := range results {
		e := ManifestEntry{
			Clip:     r.Clip,
			Short:    formats.ShortName(r.Clip),
			Duration: r.Duration,
			Error:    r.Error,
		}
		if r.Success {
			e.File = r.File
			e.Frames = r.Frames
		}
		m.Entries[i] = e
	}
	return m
}

// Write saves the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
