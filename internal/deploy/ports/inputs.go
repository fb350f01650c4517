package ports

import (
	"context"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

// DeployUseCase is the driving port for deploying or rendering one release.
type DeployUseCase interface {
	Deploy(ctx context.Context, req domain.ReleaseRequest) error
}

// BatchUseCase is the driving port for deploying a set of independent releases.
type BatchUseCase interface {
	DeployAll(ctx context.Context, reqs []domain.ReleaseRequest) error
}
