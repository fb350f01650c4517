// Package kubectlversion probes the cluster version through `kubectl version`.
package kubectlversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/version"
	"sigs.k8s.io/yaml"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

// versionDocument is the shape of `kubectl version -o yaml`.
type versionDocument struct {
	ClientVersion *version.Info `json:"clientVersion,omitempty"`
	ServerVersion *version.Info `json:"serverVersion,omitempty"`
}

// Adapter implements ports.VersionProbePort by running kubectl through an executor.
type Adapter struct {
	executor  ports.ExecutorPort
	toolchain domain.Toolchain
	logger    *slog.Logger
}

// New creates a kubectl version probe.
func New(executor ports.ExecutorPort, toolchain domain.Toolchain, logger *slog.Logger) *Adapter {
	return &Adapter{executor: executor, toolchain: toolchain, logger: logger}
}

// ServerVersion runs `kubectl version -o yaml` and reduces serverVersion to
// its numeric major and minor parts.
func (a *Adapter) ServerVersion(ctx context.Context) (domain.KubeVersion, error) {
	res, err := a.executor.Run(ctx, domain.BuildVersionQueryPlan(a.toolchain))
	if err != nil {
		return domain.KubeVersion{}, fmt.Errorf("querying kubectl version: %w", err)
	}
	kv, err := Parse(res.Stdout)
	if err != nil {
		return domain.KubeVersion{}, err
	}
	a.logger.Debug("kubectl reported server version", "kubeVersion", kv.String())
	return kv, nil
}

// Parse extracts the server version from a `kubectl version -o yaml` document.
func Parse(doc []byte) (domain.KubeVersion, error) {
	var d versionDocument
	if err := yaml.Unmarshal(doc, &d); err != nil {
		return domain.KubeVersion{}, fmt.Errorf("parsing version document: %w", err)
	}
	if d.ServerVersion == nil {
		return domain.KubeVersion{}, errors.New("version document has no serverVersion")
	}
	return domain.NewKubeVersion(d.ServerVersion.Major, d.ServerVersion.Minor)
}
