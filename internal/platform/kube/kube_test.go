package kube

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: fake
`

func TestResolveKubeconfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("explicit path wins", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/env/config")
		assert.Equal(t, "/explicit/config", ResolveKubeconfig("/explicit/config"))
	})

	t.Run("KUBECONFIG env", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "/env/config")
		assert.Equal(t, "/env/config", ResolveKubeconfig(""))
	})

	t.Run("no home config means in-cluster", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "")
		assert.Empty(t, ResolveKubeconfig(""))
	})

	t.Run("home config", func(t *testing.T) {
		t.Setenv("KUBECONFIG", "")
		path := filepath.Join(home, ".kube", "config")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

		assert.Equal(t, path, ResolveKubeconfig(""))
	})
}

func TestBuildRESTConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))

	cfg, err := BuildRESTConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)

	client, err := NewDiscoveryClient(path)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestBuildRESTConfig_MissingFile(t *testing.T) {
	_, err := BuildRESTConfig(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "failed to build kube config")
}
