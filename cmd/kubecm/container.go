package main

import (
	"fmt"
	"log/slog"
	"os"

	"k8s.io/client-go/discovery"
	"k8s.io/utils/clock"

	chartscaffold "github.com/nathantilsley/kubecm/internal/deploy/adapters/chart_scaffold"
	dyffdiff "github.com/nathantilsley/kubecm/internal/deploy/adapters/dyff_diff"
	execcli "github.com/nathantilsley/kubecm/internal/deploy/adapters/exec_cli"
	"github.com/nathantilsley/kubecm/internal/deploy/adapters/host"
	kubediscovery "github.com/nathantilsley/kubecm/internal/deploy/adapters/kube_discovery"
	kubectlversion "github.com/nathantilsley/kubecm/internal/deploy/adapters/kubectl_version"
	linediff "github.com/nathantilsley/kubecm/internal/deploy/adapters/line_diff"
	releasefile "github.com/nathantilsley/kubecm/internal/deploy/adapters/release_file"
	workspaceseed "github.com/nathantilsley/kubecm/internal/deploy/adapters/workspace_seed"
	"github.com/nathantilsley/kubecm/internal/deploy/app"
	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
	"github.com/nathantilsley/kubecm/internal/platform/config"
	"github.com/nathantilsley/kubecm/internal/platform/kube"
	"github.com/nathantilsley/kubecm/internal/platform/telemetry"
)

// Container holds all application dependencies.
type Container struct {
	Config        config.Config
	Logger        *slog.Logger
	DeployService ports.DeployUseCase
	Releases      ports.ReleaseSourcePort
	Workdir       ports.WorkingDirPort
}

// NewContainer builds and wires all dependencies.
func NewContainer(cfg config.Config, log *slog.Logger, tel *telemetry.Telemetry) (*Container, error) {
	toolchain := domain.Toolchain{Helm: cfg.HelmBin, Kubectl: cfg.KubectlBin}

	// Adapters
	executor := execcli.New(log)
	if err := executor.Verify(cfg.HelmBin, cfg.KubectlBin); err != nil {
		log.Warn("toolchain incomplete, commands needing it will fail", "error", err)
	}
	hostAdapter := host.New(os.Stdout)
	scaffolder := chartscaffold.New(log)
	seeder := workspaceseed.New(log)
	differ := dyffdiff.New(linediff.New(), log) // semantic diff, line diff when dyff is missing

	var prober ports.VersionProbePort
	switch cfg.VersionProbe {
	case config.ProbeAPI:
		log.Debug("probing cluster version through the discovery API")
		prober = kubediscovery.New(func() (discovery.DiscoveryInterface, error) {
			return kube.NewDiscoveryClient(cfg.Kubeconfig)
		}, log)
	default:
		prober = kubectlversion.New(executor, toolchain, log)
	}

	deployService, err := app.NewDeployService(
		executor,
		hostAdapter, // working directory
		hostAdapter, // notices
		scaffolder,
		seeder,
		prober,
		differ,
		toolchain,
		clock.RealClock{},
		log,
		tel.Meter,
		tel.Tracer,
	)
	if err != nil {
		return nil, fmt.Errorf("creating deploy service: %w", err)
	}

	return &Container{
		Config:        cfg,
		Logger:        log,
		DeployService: deployService,
		Releases:      releasefile.New(),
		Workdir:       hostAdapter,
	}, nil
}

// Commands exposes the container to the CLI layer.
func (c *Container) Commands() CommandDeps {
	return CommandDeps{
		Deployer: c.DeployService,
		Releases: c.Releases,
		NewBatch: func(parallelism int, failFast bool) ports.BatchUseCase {
			return app.NewBatchService(c.DeployService, c.Workdir, parallelism, failFast, c.Logger)
		},
		BuildDir:    c.Config.BuildDir,
		Parallelism: c.Config.Parallelism,
		Version:     version,
		Commit:      commit,
	}
}
