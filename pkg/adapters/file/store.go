package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/flowcanvas/internal/dto"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding used when saving.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrInvalidName is returned for workflow names that are not plain file names.
var ErrInvalidName = errors.New("invalid workflow name")

// extensions lists the recognised file suffixes, in lookup order.
var extensions = []string{".yaml", ".yml", ".json"}

// Store implements ports.WorkflowStore over a directory with one file per workflow.
// Files may also be canvas exports with top-level nodes and edges.
type Store struct {
	dir    string
	format Format
}

type Option func(*Store)

// WithFormat sets the encoding of saved files (default YAML).
func WithFormat(f Format) Option {
	return func(s *Store) {
		s.format = f
	}
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workflow dir: %w", err)
	}
	s := &Store{dir: dir, format: FormatYAML}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// ValidateName rejects names that cannot be used as a single file name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Save writes the workflow atomically and removes copies in other formats.
func (s *Store) Save(ctx context.Context, wf *domain.Workflow) error {
	if err := ValidateName(wf.Name); err != nil {
		return err
	}

	var (
		data []byte
		err  error
		ext  string
	)
	switch s.format {
	case FormatJSON:
		ext = ".json"
		data, err = json.MarshalIndent(wf, "", "  ")
	default:
		ext = ".yaml"
		data, err = yaml.Marshal(wf)
	}
	if err != nil {
		return fmt.Errorf("failed to encode workflow %s: %w", wf.Name, err)
	}

	target := filepath.Join(s.dir, wf.Name+ext)
	tmp, err := os.CreateTemp(s.dir, "."+wf.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write workflow %s: %w", wf.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to persist workflow %s: %w", wf.Name, err)
	}

	for _, other := range extensions {
		if other != ext {
			_ = os.Remove(filepath.Join(s.dir, wf.Name+other))
		}
	}
	return nil
}

// Load reads and decodes the first matching file for name.
func (s *Store) Load(ctx context.Context, name string) (*domain.Workflow, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	for _, ext := range extensions {
		path := filepath.Join(s.dir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return Decode(data, name)
	}
	return nil, domain.ErrWorkflowNotFound
}

// Decode parses a YAML or JSON workflow document.
func Decode(data []byte, fallbackName string) (*domain.Workflow, error) {
	var raw map[string]any
	// YAML is a superset of JSON, so one parser covers both.
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse workflow %s: %w", fallbackName, err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return dto.DecodeWorkflow(raw, fallbackName)
}

// LoadFile decodes a workflow from an arbitrary path; the name defaults to the file stem.
func LoadFile(path string) (*domain.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow file: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(data, stem)
}

// Delete removes every file stored for name.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	for _, ext := range extensions {
		err := os.Remove(filepath.Join(s.dir, name+ext))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete workflow %s: %w", name, err)
		}
	}
	return nil
}

// List returns the names of all workflow files in the directory.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	seen := make(map[string]bool)
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := filepath.Ext(e.Name())
		for _, known := range extensions {
			if ext == known {
				name := strings.TrimSuffix(e.Name(), ext)
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	sort.Strings(names)
	return names, nil
}
