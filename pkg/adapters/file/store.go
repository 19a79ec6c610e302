package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/finecision/finecision/pkg/domain"
)

// Store implements ports.WorkflowStore with one document per workflow in a
// directory. Both .json and .yaml documents are read; Save writes .json.
type Store struct {
	BasePath string
}

// NewStore creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".finecision/workflows".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".finecision", "workflows")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("workflow id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid workflow id %q", id)
	}
	return filepath.Join(s.BasePath, id+".json"), nil
}

// Save writes the workflow as <id>.json, replacing any YAML document of the same id.
func (s *Store) Save(ctx context.Context, wf *domain.Workflow) error {
	path, err := s.path(wf.ID)
	if err != nil {
		return err
	}
	if err := WriteWorkflow(path, wf); err != nil {
		return err
	}
	for _, ext := range []string{".yaml", ".yml"} {
		_ = os.Remove(filepath.Join(s.BasePath, wf.ID+ext))
	}
	return nil
}

// Load reads <id>.json, <id>.yaml or <id>.yml, in that order.
func (s *Store) Load(ctx context.Context, id string) (*domain.Workflow, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(path, ".json")
	for _, candidate := range []string{path, base + ".yaml", base + ".yml"} {
		wf, err := ReadWorkflow(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		wf.ID = id
		return wf, nil
	}
	return nil, domain.ErrWorkflowNotFound
}

// List reads every workflow document in the directory.
func (s *Store) List(ctx context.Context) ([]*domain.Workflow, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*domain.Workflow{}, nil
		}
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	seen := make(map[string]bool)
	var all []*domain.Workflow
	for _, entry := range entries {
		name := entry.Name()
		ext := filepath.Ext(name)
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") {
			continue
		}
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if seen[id] {
			continue
		}
		seen[id] = true

		wf, err := s.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		all = append(all, wf)
	}
	return all, nil
}
