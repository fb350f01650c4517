package execcli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

func newTestAdapter() *Adapter {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRun_CapturesOutput(t *testing.T) {
	a := newTestAdapter()

	res, err := a.Run(context.Background(), domain.NewCommandPlan("sh", "-c", "echo out; echo err >&2"))
	require.NoError(t, err)

	assert.Equal(t, "out\n", string(res.Stdout))
	assert.Equal(t, "err\n", string(res.Stderr))
	assert.Zero(t, res.ExitCode)
}

func TestRun_NonZeroExit(t *testing.T) {
	a := newTestAdapter()

	_, err := a.Run(context.Background(), domain.NewCommandPlan("sh", "-c", "echo 'Error: release failed' >&2; exit 3"))

	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Contains(t, cmdErr.Stderr, "Error: release failed")
	assert.Contains(t, err.Error(), "exit code 3")
}

func TestRun_MissingBinary(t *testing.T) {
	a := newTestAdapter()

	_, err := a.Run(context.Background(), domain.NewCommandPlan("kubecm-definitely-not-installed"))

	var cmdErr *domain.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, -1, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "binary not found")
}

func TestRun_RedirectsStdout(t *testing.T) {
	a := newTestAdapter()
	target := filepath.Join(t.TempDir(), "test.yaml")

	plan := domain.NewCommandPlan("sh", "-c", "echo 'kind: ConfigMap'").WithStdout(target)
	res, err := a.Run(context.Background(), plan)
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "kind: ConfigMap\n", string(data))
	assert.Empty(t, res.Stdout)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestRun_FailedRenderKeepsPreviousOutput(t *testing.T) {
	a := newTestAdapter()
	dir := t.TempDir()
	target := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(target, []byte("previous\n"), 0o644))

	plan := domain.NewCommandPlan("sh", "-c", "echo partial; exit 1").WithStdout(target)
	_, err := a.Run(context.Background(), plan)
	require.Error(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary output should be removed")
}

func TestRun_ContextCancelled(t *testing.T) {
	a := newTestAdapter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Run(ctx, domain.NewCommandPlan("sleep", "5"))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	a := newTestAdapter()

	assert.NoError(t, a.Verify("sh"))
	assert.ErrorContains(t, a.Verify("sh", "kubecm-definitely-not-installed"), "kubecm-definitely-not-installed binary not found")
}
