// Package chartscaffold materializes placeholder charts for releases that
// have no chart source.
package chartscaffold

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
)

const (
	placeholderVersion     = "0.1.0"
	placeholderDescription = "Placeholder chart; manifests come from the workspace kustomization."
	dirMode                = 0o755
)

// Adapter implements ports.ScaffolderPort with the helm chart library.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new chart scaffolder.
func New(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// EnsureEmptyChart writes a chart with no templates to dir, so the
// workspace post-renderer is the only source of manifests. A placeholder
// already in dir is kept; any other chart there is replaced.
func (a *Adapter) EnsureEmptyChart(ctx context.Context, dir, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ok, _ := chartutil.IsChartDir(dir); ok {
		if isPlaceholder(dir, name) {
			a.logger.Debug("placeholder chart already present", "dir", dir)
			return nil
		}
		a.logger.Info("replacing staged chart with placeholder", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing staged chart: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Join(dir, chartutil.TemplatesDir), dirMode); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	meta := &chart.Metadata{
		APIVersion:  chart.APIVersionV2,
		Name:        name,
		Description: placeholderDescription,
		Type:        "application",
		Version:     placeholderVersion,
	}
	if err := chartutil.SaveChartfile(filepath.Join(dir, chartutil.ChartfileName), meta); err != nil {
		return fmt.Errorf("writing %s: %w", chartutil.ChartfileName, err)
	}
	a.logger.Info("scaffolded empty chart", "dir", dir)
	return nil
}

// isPlaceholder reports whether dir holds a chart this adapter wrote for
// name that has not gained templates, values or dependencies since.
func isPlaceholder(dir, name string) bool {
	c, err := loader.Load(dir)
	if err != nil {
		return false
	}
	return c.Metadata.Name == name &&
		c.Metadata.Description == placeholderDescription &&
		c.Metadata.Version == placeholderVersion &&
		len(c.Templates) == 0 &&
		len(c.Values) == 0 &&
		len(c.Dependencies()) == 0 &&
		len(c.Metadata.Dependencies) == 0
}
