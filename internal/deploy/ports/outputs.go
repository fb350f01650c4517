package ports

import (
	"context"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

// ExecutorPort runs a command plan. A non-zero exit is returned as a
// *domain.CommandError.
type ExecutorPort interface {
	Run(ctx context.Context, plan domain.CommandPlan) (domain.CommandResult, error)
}

// WorkingDirPort discovers the directory the default build dir hangs off.
type WorkingDirPort interface {
	Getwd() (string, error)
}

// NoticePort shows progress messages to the operator.
type NoticePort interface {
	Emit(ctx context.Context, message string)
}

// ScaffolderPort materializes a placeholder chart.
type ScaffolderPort interface {
	EnsureEmptyChart(ctx context.Context, dir, name string) error
}

// VersionProbePort reports the target cluster's version, separated from the
// executor so the probing strategy is independently swappable.
type VersionProbePort interface {
	ServerVersion(ctx context.Context) (domain.KubeVersion, error)
}

// WorkspaceSeederPort writes the values file and post-renderer a workspace needs.
type WorkspaceSeederPort interface {
	Seed(ctx context.Context, ws domain.Workspace, values map[string]any) error
}

// DiffPort abstracts manifest diff computation.
type DiffPort interface {
	ComputeDiff(baseName, headName string, base, head []byte) string
}

// ReleaseSourcePort loads a batch of release requests.
type ReleaseSourcePort interface {
	LoadReleases(ctx context.Context, path string) ([]domain.ReleaseRequest, error)
}
