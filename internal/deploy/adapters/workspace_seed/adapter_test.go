package workspaceseed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

func newTestAdapter() *Adapter {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSeed_FreshWorkspace(t *testing.T) {
	ws := domain.Workspace{Root: t.TempDir()}

	require.NoError(t, newTestAdapter().Seed(context.Background(), ws, nil))

	assert.Equal(t, "{}\n", readFile(t, ws.ValuesPath()))
	assert.Equal(t, PostRendererScript, readFile(t, ws.PostRenderer()))
	assert.Equal(t, Kustomization, readFile(t, ws.KustomizationPath()))

	info, err := os.Stat(ws.PostRenderer())
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "post-renderer must be executable")
}

func TestSeed_WritesValues(t *testing.T) {
	ws := domain.Workspace{Root: t.TempDir()}
	require.NoError(t, os.WriteFile(ws.ValuesPath(), []byte("stale: true\n"), 0o644))

	values := map[string]any{
		"replicaCount": 2,
		"image":        map[string]any{"tag": "v1"},
	}
	require.NoError(t, newTestAdapter().Seed(context.Background(), ws, values))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(readFile(t, ws.ValuesPath())), &got))
	assert.Equal(t, values, got)
}

func TestSeed_KeepsOperatorFiles(t *testing.T) {
	ws := domain.Workspace{Root: t.TempDir()}
	require.NoError(t, os.WriteFile(ws.ValuesPath(), []byte("custom: values\n"), 0o644))
	require.NoError(t, os.WriteFile(ws.PostRenderer(), []byte("#!/bin/sh\ncat\n"), 0o755))
	require.NoError(t, os.WriteFile(ws.KustomizationPath(), []byte("resources: []\n"), 0o644))

	require.NoError(t, newTestAdapter().Seed(context.Background(), ws, nil))

	assert.Equal(t, "custom: values\n", readFile(t, ws.ValuesPath()))
	assert.Equal(t, "#!/bin/sh\ncat\n", readFile(t, ws.PostRenderer()))
	assert.Equal(t, "resources: []\n", readFile(t, ws.KustomizationPath()))
}

func TestSeed_MissingWorkspace(t *testing.T) {
	ws := domain.Workspace{Root: "/nonexistent/kubecm/test"}

	err := newTestAdapter().Seed(context.Background(), ws, nil)
	assert.ErrorContains(t, err, "creating /nonexistent/kubecm/test/values.yaml")
}
