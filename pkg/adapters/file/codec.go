// Package file reads and writes workflow documents on the local filesystem.
//
// A workflow document is either the JSON exported by the canvas editor or
// the same structure authored in YAML.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/finecision/finecision/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a workflow document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension. Unknown extensions are JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a workflow document.
func Decode(data []byte, format Format) (*domain.Workflow, error) {
	var wf domain.Workflow
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &wf)
	default:
		err = json.Unmarshal(data, &wf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s workflow: %w", format, err)
	}
	return &wf, nil
}

// Encode renders a workflow document.
func Encode(wf *domain.Workflow, format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(wf)
	}
	return json.MarshalIndent(wf, "", "  ")
}

// ReadWorkflow loads a workflow from path. Files without an id take the file
// name (without extension) as id.
func ReadWorkflow(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	wf, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if wf.ID == "" {
		wf.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return wf, nil
}

// WriteWorkflow stores wf at path atomically, encoded after the extension.
func WriteWorkflow(path string, wf *domain.Workflow) error {
	data, err := Encode(wf, FormatOf(path))
	if err != nil {
		return fmt.Errorf("failed to encode workflow: %w", err)
	}
	return writeAtomic(path, data)
}

// writeAtomic writes to a temporary file in the same directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "tmp-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows does not replace on rename.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
