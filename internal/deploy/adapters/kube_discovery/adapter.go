// Package kubediscovery probes the cluster version through the Kubernetes
// discovery API.
package kubediscovery

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/client-go/discovery"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

// ClientFactory creates the discovery client used for a probe.
type ClientFactory func() (discovery.DiscoveryInterface, error)

// Adapter implements ports.VersionProbePort with client-go discovery. The
// client is created per probe so apply-only runs never need a kubeconfig.
type Adapter struct {
	newClient ClientFactory
	logger    *slog.Logger
}

// New creates a discovery-based version probe.
func New(newClient ClientFactory, logger *slog.Logger) *Adapter {
	return &Adapter{newClient: newClient, logger: logger}
}

// ServerVersion asks the API server for its version.
func (a *Adapter) ServerVersion(ctx context.Context) (domain.KubeVersion, error) {
	if err := ctx.Err(); err != nil {
		return domain.KubeVersion{}, err
	}
	client, err := a.newClient()
	if err != nil {
		return domain.KubeVersion{}, err
	}
	info, err := client.ServerVersion()
	if err != nil {
		return domain.KubeVersion{}, fmt.Errorf("failed to get kubernetes version: %w", err)
	}
	a.logger.Debug("api server reported version", "gitVersion", info.GitVersion)
	return domain.NewKubeVersion(info.Major, info.Minor)
}
