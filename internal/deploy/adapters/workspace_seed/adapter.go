// Package workspaceseed writes the values file and kustomize post-renderer
// that every helm invocation references.
package workspaceseed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

const (
	fileMode   = 0o644
	scriptMode = 0o755
)

// PostRendererScript receives helm's rendered manifests on stdin and the
// workspace root as $1, and prints the kustomized result.
const PostRendererScript = `#!/bin/sh
set -eu
cat > "$1/` + domain.HelmOutputFile + `"
exec kubectl kustomize "$1"
`

// Kustomization is the default kustomization: the helm output, unchanged.
const Kustomization = `apiVersion: kustomize.config.k8s.io/v1beta1
kind: Kustomization
resources:
- ` + domain.HelmOutputFile + `
`

// Adapter implements ports.WorkspaceSeederPort on the local filesystem.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new workspace seeder.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Seed writes values.yaml from values (or an empty mapping if the file is
// missing and no values were given), and creates the post-renderer script
// and kustomization when absent. Existing post-renderer files are the
// operator's and are never overwritten.
func (a *Adapter) Seed(ctx context.Context, ws domain.Workspace, values map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if values != nil {
		data, err := yaml.Marshal(values)
		if err != nil {
			return fmt.Errorf("encoding values: %w", err)
		}
		if err := os.WriteFile(ws.ValuesPath(), data, fileMode); err != nil {
			return fmt.Errorf("writing values: %w", err)
		}
		a.logger.Debug("wrote values", "path", ws.ValuesPath(), "keys", len(values))
	} else if err := a.createIfAbsent(ws.ValuesPath(), []byte("{}\n"), fileMode); err != nil {
		return err
	}

	if err := a.createIfAbsent(ws.PostRenderer(), []byte(PostRendererScript), scriptMode); err != nil {
		return err
	}
	return a.createIfAbsent(ws.KustomizationPath(), []byte(Kustomization), fileMode)
}

func (a *Adapter) createIfAbsent(path string, content []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	a.logger.Debug("seeded workspace file", "path", path)
	return nil
}
