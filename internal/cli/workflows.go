package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowcanvas/pkg/adapters/file"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"gopkg.in/yaml.v3"
)

// DefaultWorkflow is loaded when no workflow is named.
const DefaultWorkflow = "main"

// resolveWorkflow loads target as a file path when it names an existing document,
// and from the store otherwise.
func resolveWorkflow(ctx context.Context, store ports.WorkflowStore, target string) (*domain.Workflow, error) {
	if target == "" {
		target = DefaultWorkflow
	}
	switch strings.ToLower(filepath.Ext(target)) {
	case ".yaml", ".yml", ".json":
		if _, err := os.Stat(target); err == nil {
			return file.LoadFile(target)
		}
	}
	wf, err := store.Load(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("load workflow %q: %w", target, err)
	}
	return wf, nil
}

// ListWorkflows prints the stored workflow names.
func ListWorkflows(ctx context.Context, opts Options, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	names, err := b.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printSystemMessage(out, "No workflows found.")
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, "- "+n)
	}
	return nil
}

// NewWorkflow stores a workflow holding the default graph.
func NewWorkflow(ctx context.Context, opts Options, name string, force bool, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	if !force {
		if _, err := b.Store.Load(ctx, name); err == nil {
			return fmt.Errorf("workflow %q already exists", name)
		} else if !errors.Is(err, domain.ErrWorkflowNotFound) {
			return err
		}
	}
	if err := b.Store.Save(ctx, &domain.Workflow{Name: name, Graph: domain.DefaultGraph()}); err != nil {
		return err
	}
	printSystemMessage(out, "Workflow '%s' created.", name)
	return nil
}

// ShowWorkflow prints a workflow as YAML or JSON.
func ShowWorkflow(ctx context.Context, opts Options, target string, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	wf, err := resolveWorkflow(ctx, b.Store, target)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(wf)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(wf)
}

// RemoveWorkflow deletes a stored workflow.
func RemoveWorkflow(ctx context.Context, opts Options, name string, out io.Writer) error {
	b, err := OpenBackend(opts)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Store.Delete(ctx, name); err != nil {
		return err
	}
	printSystemMessage(out, "Workflow '%s' removed.", name)
	return nil
}
