package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

// BatchService implements ports.BatchUseCase by running independent
// releases through a DeployUseCase with bounded concurrency.
type BatchService struct {
	deployer    ports.DeployUseCase
	workdir     ports.WorkingDirPort
	parallelism int
	failFast    bool
	logger      *slog.Logger
}

// NewBatchService creates a BatchService. parallelism below 1 runs releases
// one at a time. With failFast the first failure cancels releases that
// are still running or waiting.
func NewBatchService(
	deployer ports.DeployUseCase,
	wd ports.WorkingDirPort,
	parallelism int,
	failFast bool,
	logger *slog.Logger,
) *BatchService {
	if parallelism < 1 {
		parallelism = 1
	}
	return &BatchService{
		deployer:    deployer,
		workdir:     wd,
		parallelism: parallelism,
		failFast:    failFast,
		logger:      logger,
	}
}

// DeployAll validates every request, then deploys them concurrently. The
// returned error joins the failure of every release that failed.
func (b *BatchService) DeployAll(ctx context.Context, reqs []domain.ReleaseRequest) error {
	var invalid []error
	for _, req := range reqs {
		if !req.Deploy {
			continue
		}
		if err := req.Validate(); err != nil {
			invalid = append(invalid, fmt.Errorf("release %q: %w", req.Release, err))
		}
	}
	if len(invalid) > 0 {
		return errors.Join(invalid...)
	}
	var cwd string
	if domain.NeedsWorkdir(reqs) {
		var err error
		if cwd, err = b.workdir.Getwd(); err != nil {
			return domain.NewError(domain.KindWorkspace, "discovering working directory", err)
		}
	}
	if err := domain.CheckWorkspaceCollisions(reqs, cwd); err != nil {
		return err
	}

	b.logger.Info("deploying releases", "count", len(reqs), "parallelism", b.parallelism, "failFast", b.failFast)

	errs := make([]error, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)

	for i, req := range reqs {
		g.Go(func() error {
			runCtx := ctx
			if b.failFast {
				runCtx = gctx
			}
			if err := runCtx.Err(); err != nil {
				errs[i] = fmt.Errorf("release %q skipped: %w", req.Release, err)
				return nil
			}
			if err := b.deployer.Deploy(runCtx, req); err != nil {
				errs[i] = fmt.Errorf("release %q: %w", req.Release, err)
				if b.failFast {
					return errs[i]
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	b.logger.Info("releases finished", "count", len(reqs), "failed", failed)
	return errors.Join(errs...)
}
