package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"k8s.io/utils/clock"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

const noChangesMessage = "No changes detected."

// DeployService implements ports.DeployUseCase by running the release
// pipeline: gate, workspace, chart staging, optional version probe, command
// assembly and execution.
type DeployService struct {
	executor   ports.ExecutorPort
	workdir    ports.WorkingDirPort
	notices    ports.NoticePort
	scaffolder ports.ScaffolderPort
	seeder     ports.WorkspaceSeederPort
	prober     ports.VersionProbePort
	differ     ports.DiffPort // optional, used for render diffs
	toolchain  domain.Toolchain
	clock      clock.Clock
	logger     *slog.Logger
	tracer     trace.Tracer

	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

// NewDeployService creates a DeployService wired with all driven ports.
// differ may be nil, which disables render diffs.
func NewDeployService(
	ex ports.ExecutorPort,
	wd ports.WorkingDirPort,
	nt ports.NoticePort,
	sc ports.ScaffolderPort,
	sd ports.WorkspaceSeederPort,
	pr ports.VersionProbePort,
	differ ports.DiffPort,
	toolchain domain.Toolchain,
	clk clock.Clock,
	logger *slog.Logger,
	meter metric.Meter,
	tracer trace.Tracer,
) (*DeployService, error) {
	invocations, err := meter.Int64Counter("kubecm.deploy.invocations",
		metric.WithDescription("Deploy invocations by mode and outcome"))
	if err != nil {
		return nil, fmt.Errorf("creating invocations counter: %w", err)
	}
	duration, err := meter.Float64Histogram("kubecm.deploy.duration",
		metric.WithDescription("Deploy pipeline duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &DeployService{
		executor:    ex,
		workdir:     wd,
		notices:     nt,
		scaffolder:  sc,
		seeder:      sd,
		prober:      pr,
		differ:      differ,
		toolchain:   toolchain,
		clock:       clk,
		logger:      logger,
		tracer:      tracer,
		invocations: invocations,
		duration:    duration,
	}, nil
}

// Deploy runs the pipeline for req. With Deploy unset it returns nil
// without touching any port.
func (s *DeployService) Deploy(ctx context.Context, req domain.ReleaseRequest) (err error) {
	if !req.Deploy {
		s.logger.Info("deploy disabled, skipping release", "release", req.Release)
		return nil
	}
	if err := req.Validate(); err != nil {
		return err
	}

	mode := modeOf(req)
	invocation := uuid.NewString()
	log := s.logger.With("release", req.Release, "mode", mode, "invocation", invocation)

	ctx, span := s.tracer.Start(ctx, "kubecm.deploy", trace.WithAttributes(
		attribute.String("release", req.Release),
		attribute.String("namespace", req.Namespace),
		attribute.String("mode", mode),
		attribute.String("invocation", invocation),
	))
	start := s.clock.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("deploy failed", "error", err)
		}
		attrs := metric.WithAttributes(attribute.String("mode", mode), attribute.String("outcome", outcome))
		s.invocations.Add(ctx, 1, attrs)
		s.duration.Record(ctx, s.clock.Since(start).Seconds(), attrs)
		span.End()
	}()

	if err := s.hold(ctx, req.SleepSeconds); err != nil {
		return err
	}

	ws, err := s.prepareWorkspace(ctx, req)
	if err != nil {
		return err
	}
	span.AddEvent("workspace ready", trace.WithAttributes(attribute.String("root", ws.Root)))
	log.Info("workspace ready", "root", ws.Root)

	chart, err := s.stageChart(ctx, log, req, ws)
	if err != nil {
		return err
	}
	span.AddEvent("source resolved", trace.WithAttributes(attribute.String("reference", chart.Reference)))

	if err := s.seeder.Seed(ctx, ws, req.Values); err != nil {
		return domain.NewError(domain.KindStaging, "seeding workspace "+ws.Root, err)
	}

	plan, err := s.assemble(ctx, log, req, chart, ws)
	if err != nil {
		return err
	}
	span.AddEvent("command built")

	return s.execute(ctx, log, req, plan)
}

// hold emits the wait notice and blocks for the requested number of seconds.
func (s *DeployService) hold(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		return nil
	}
	s.notices.Emit(ctx, fmt.Sprintf("Waiting %d seconds", seconds))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(time.Duration(seconds) * time.Second):
		return nil
	}
}

// prepareWorkspace resolves the build directory to an absolute path and
// creates the release workspace.
func (s *DeployService) prepareWorkspace(ctx context.Context, req domain.ReleaseRequest) (domain.Workspace, error) {
	var cwd string
	if !filepath.IsAbs(req.BuildDir) {
		var err error
		if cwd, err = s.workdir.Getwd(); err != nil {
			return domain.Workspace{}, domain.NewError(domain.KindWorkspace, "discovering working directory", err)
		}
	}

	ws := domain.NewWorkspace(domain.ResolveBuildDir(req.BuildDir, cwd), req.ReleaseDirName())
	if _, err := s.executor.Run(ctx, domain.BuildMkdirPlan(ws.Root)); err != nil {
		return domain.Workspace{}, domain.NewError(domain.KindWorkspace, "creating "+ws.Root, err)
	}
	return ws, nil
}

// stageChart classifies the chart source and performs the preparation its
// kind needs.
func (s *DeployService) stageChart(
	ctx context.Context,
	log *slog.Logger,
	req domain.ReleaseRequest,
	ws domain.Workspace,
) (domain.ResolvedChart, error) {
	source, err := domain.ClassifyChartSource(req.ChartSource, req.RepoURL)
	if err != nil {
		return domain.ResolvedChart{}, err
	}
	chart := source.Resolve(ws)
	log.Info("chart source resolved", "kind", source.Kind, "reference", chart.Reference)

	switch source.Kind {
	case domain.SourceScaffold:
		if err := s.scaffolder.EnsureEmptyChart(ctx, ws.ChartDir(), req.Release); err != nil {
			return domain.ResolvedChart{}, domain.NewError(domain.KindStaging, "scaffolding chart", err)
		}
	case domain.SourceAbsolute:
		if err := s.copyChart(ctx, log, source.Raw, ws); err != nil {
			return domain.ResolvedChart{}, domain.NewError(domain.KindStaging, "copying chart "+source.Raw, err)
		}
	case domain.SourceRepository:
		if chart.RequiresRepoAdd {
			log.Info("adding chart repository", "alias", chart.RepoAlias, "url", chart.RepoURL)
			if _, err := s.executor.Run(ctx, domain.BuildRepoAddPlan(s.toolchain, chart)); err != nil {
				return domain.ResolvedChart{}, domain.NewError(domain.KindStaging, "adding repository "+chart.RepoAlias, err)
			}
		}
	case domain.SourceOCI, domain.SourceRelative:
		// passed through to helm as-is
	}
	return chart, nil
}

// copyChart replaces the workspace chart directory with the contents of src.
func (s *DeployService) copyChart(ctx context.Context, log *slog.Logger, src string, ws domain.Workspace) error {
	dst := ws.ChartDir()
	if filepath.Clean(src) == filepath.Clean(dst) {
		log.Info("chart source is the workspace chart directory, skipping copy", "path", dst)
		return nil
	}
	for _, plan := range []domain.CommandPlan{
		domain.BuildRemovePlan(dst),
		domain.BuildMkdirPlan(dst),
		domain.BuildCopyPlan(src, dst),
	} {
		if _, err := s.executor.Run(ctx, plan); err != nil {
			return err
		}
	}
	return nil
}

// assemble builds the main command, probing the cluster version first in
// render mode.
func (s *DeployService) assemble(
	ctx context.Context,
	log *slog.Logger,
	req domain.ReleaseRequest,
	chart domain.ResolvedChart,
	ws domain.Workspace,
) (domain.CommandPlan, error) {
	if !req.RenderMode() {
		return domain.BuildApplyPlan(s.toolchain, req, chart, ws), nil
	}

	kv, err := s.prober.ServerVersion(ctx)
	if err != nil {
		return domain.CommandPlan{}, domain.NewError(domain.KindProbe, "querying cluster version", err)
	}
	log.Info("cluster version probed", "kubeVersion", kv.String())
	return domain.BuildRenderPlan(s.toolchain, req, chart, ws, kv), nil
}

// execute runs the main command and, when asked, reports how the rendered
// output changed.
func (s *DeployService) execute(ctx context.Context, log *slog.Logger, req domain.ReleaseRequest, plan domain.CommandPlan) error {
	var previous []byte
	hadPrevious := false
	if req.RenderMode() && req.ShowDiff && s.differ != nil {
		if b, err := os.ReadFile(req.RenderTo); err == nil {
			previous, hadPrevious = b, true
		}
	}

	log.Info("running command", "command", plan.String())
	if _, err := s.executor.Run(ctx, plan); err != nil {
		return domain.NewError(domain.KindExecution, "running "+plan.Program(), err)
	}
	log.Info("command completed")

	if hadPrevious {
		s.reportRenderDiff(ctx, log, req.RenderTo, previous)
	}
	return nil
}

func (s *DeployService) reportRenderDiff(ctx context.Context, log *slog.Logger, path string, previous []byte) {
	current, err := os.ReadFile(path)
	if err != nil {
		log.Warn("reading rendered output for diff failed", "path", path, "error", err)
		return
	}
	diff := s.differ.ComputeDiff(path+" (previous)", path+" (rendered)", previous, current)
	if diff == "" {
		s.notices.Emit(ctx, noChangesMessage)
		return
	}
	s.notices.Emit(ctx, diff)
}

func modeOf(req domain.ReleaseRequest) string {
	if req.RenderMode() {
		return "render"
	}
	return "apply"
}
