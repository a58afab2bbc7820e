package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"property-trawler/models"
)

// JSONWriter writes the ranked collection as one JSON array, one record per
// property, match_score included.
type JSONWriter struct {
	path string
}

// NewJSONWriter prepares a JSON sink at the given path. Intermediate
// directories are created automatically.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}
	return &JSONWriter{path: path}, nil
}

// Write serializes the collection, replacing any previous file content.
func (j *JSONWriter) Write(props []*models.Property) error {
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal %d properties: %w", len(props), err)
	}
	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return fmt.Errorf("json: write %q: %w", j.path, err)
	}
	return nil
}

// Close is a no-op; the file is written whole in Write.
func (j *JSONWriter) Close() error { return nil }
