package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

type recordingDeployer struct {
	reqs []domain.ReleaseRequest
	err  error
}

func (d *recordingDeployer) Deploy(_ context.Context, req domain.ReleaseRequest) error {
	d.reqs = append(d.reqs, req)
	return d.err
}

type recordingBatch struct {
	reqs []domain.ReleaseRequest
}

func (b *recordingBatch) DeployAll(_ context.Context, reqs []domain.ReleaseRequest) error {
	b.reqs = reqs
	return nil
}

type staticReleases struct {
	path string
	reqs []domain.ReleaseRequest
}

func (s *staticReleases) LoadReleases(_ context.Context, path string) ([]domain.ReleaseRequest, error) {
	s.path = path
	return s.reqs, nil
}

func runCommand(t *testing.T, deps CommandDeps, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(deps, &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := NewRootCommand(CommandDeps{}, &bytes.Buffer{})

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"deploy", "batch", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestDeploy_Defaults(t *testing.T) {
	d := &recordingDeployer{}

	_, err := runCommand(t, CommandDeps{Deployer: d}, "deploy", "test")
	require.NoError(t, err)

	require.Len(t, d.reqs, 1)
	assert.Equal(t, domain.NewReleaseRequest("test"), d.reqs[0])
}

func TestDeploy_BuildDirDefaultsFromConfig(t *testing.T) {
	d := &recordingDeployer{}

	_, err := runCommand(t, CommandDeps{Deployer: d, BuildDir: "/var/lib/kubecm"}, "deploy", "test")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/kubecm", d.reqs[0].BuildDir)
}

func TestDeploy_AllFlags(t *testing.T) {
	valuesPath := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(valuesPath, []byte("replicaCount: 2\nimage:\n  tag: v1\n"), 0o600))

	d := &recordingDeployer{}
	_, err := runCommand(t, CommandDeps{Deployer: d},
		"deploy", "test",
		"--chart-source", "fakerepo/fakechart",
		"--repo-url", "https://example.com/fakerepo",
		"--build-dir", "/mybuilddir",
		"--namespace", "test-ns",
		"--hooks=false",
		"--wait",
		"--timeout", "5m",
		"--version", "1.2.3",
		"--render-to", "test.yaml",
		"--sleep", "10",
		"--values-file", valuesPath,
		"--diff",
	)
	require.NoError(t, err)

	require.Len(t, d.reqs, 1)
	got := d.reqs[0]
	assert.Equal(t, "fakerepo/fakechart", got.ChartSource)
	assert.Equal(t, "https://example.com/fakerepo", got.RepoURL)
	assert.Equal(t, "/mybuilddir", got.BuildDir)
	assert.Equal(t, "test-ns", got.Namespace)
	assert.False(t, got.Hooks)
	assert.True(t, got.Wait)
	assert.Equal(t, "5m", got.Timeout)
	assert.Equal(t, "1.2.3", got.Version)
	assert.Equal(t, "test.yaml", got.RenderTo)
	assert.Equal(t, 10, got.SleepSeconds)
	assert.True(t, got.ShowDiff)
	assert.Equal(t, 2, got.Values["replicaCount"])
	assert.Equal(t, map[string]any{"tag": "v1"}, got.Values["image"])
}

func TestDeploy_MissingValuesFileIsConfigError(t *testing.T) {
	d := &recordingDeployer{}

	_, err := runCommand(t, CommandDeps{Deployer: d},
		"deploy", "test", "--values-file", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConfig))
	assert.Empty(t, d.reqs)
}

func TestDeploy_RequiresReleaseArg(t *testing.T) {
	_, err := runCommand(t, CommandDeps{Deployer: &recordingDeployer{}}, "deploy")
	assert.Error(t, err)
}

func TestDeploy_PropagatesError(t *testing.T) {
	want := domain.ConfigError("boom")
	d := &recordingDeployer{err: want}

	_, err := runCommand(t, CommandDeps{Deployer: d}, "deploy", "test")
	assert.ErrorIs(t, err, want)
}

func TestBatch_LoadsManifestAndDeploys(t *testing.T) {
	releases := &staticReleases{reqs: []domain.ReleaseRequest{
		domain.NewReleaseRequest("a"),
		domain.NewReleaseRequest("b"),
	}}
	batch := &recordingBatch{}
	var gotParallelism int
	var gotFailFast bool

	deps := CommandDeps{
		Releases: releases,
		NewBatch: func(parallelism int, failFast bool) ports.BatchUseCase {
			gotParallelism, gotFailFast = parallelism, failFast
			return batch
		},
		Parallelism: 4,
	}

	_, err := runCommand(t, deps, "batch", "-f", "releases.yaml", "--fail-fast")
	require.NoError(t, err)

	assert.Equal(t, "releases.yaml", releases.path)
	assert.Equal(t, 4, gotParallelism)
	assert.True(t, gotFailFast)
	assert.Len(t, batch.reqs, 2)
}

func TestBatch_EmptyManifest(t *testing.T) {
	deps := CommandDeps{
		Releases: &staticReleases{},
		NewBatch: func(int, bool) ports.BatchUseCase {
			t.Fatal("batch service should not be built for an empty manifest")
			return nil
		},
	}

	out, err := runCommand(t, deps, "batch")
	require.NoError(t, err)
	assert.Contains(t, out, "No releases in kubecm.yaml")
}

func TestVersion(t *testing.T) {
	out, err := runCommand(t, CommandDeps{Version: "v1.0.0", Commit: "abc123"}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "kubecm v1.0.0")
	assert.Contains(t, out, "commit: abc123")
}
