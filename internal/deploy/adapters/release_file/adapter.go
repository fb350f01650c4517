// Package releasefile loads batch release manifests from disk.
package releasefile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/kubecm/api"
	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

// DefaultPath is the manifest read when no path is given.
const DefaultPath = "kubecm.yaml"

// Adapter implements ports.ReleaseSourcePort by reading a kubecm.yaml file.
type Adapter struct{}

// New creates a new release file adapter.
func New() *Adapter {
	return &Adapter{}
}

// LoadReleases reads the manifest at path and returns one request per
// release, with defaults applied.
func (a *Adapter) LoadReleases(ctx context.Context, path string) ([]domain.ReleaseRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	manifest, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return ToRequests(manifest), nil
}

// Decode parses manifest YAML, rejecting unknown fields.
func Decode(data []byte) (api.ReleaseManifest, error) {
	var manifest api.ReleaseManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return api.ReleaseManifest{}, err
	}
	return manifest, nil
}

// ToRequests converts a manifest into release requests.
func ToRequests(manifest api.ReleaseManifest) []domain.ReleaseRequest {
	reqs := make([]domain.ReleaseRequest, 0, len(manifest.Releases))
	for _, r := range manifest.Releases {
		req := domain.NewReleaseRequest(r.Release)
		req.ChartSource = r.ChartSource
		req.RepoURL = r.RepoURL
		req.BuildDir = r.BuildDir
		if req.BuildDir == "" {
			req.BuildDir = manifest.BuildDir
		}
		req.Namespace = r.Namespace
		if r.Hooks != nil {
			req.Hooks = *r.Hooks
		}
		req.Wait = r.Wait
		if r.Timeout != "" {
			req.Timeout = r.Timeout
		}
		req.Version = r.Version
		req.RenderTo = r.RenderTo
		if r.Deploy != nil {
			req.Deploy = *r.Deploy
		}
		req.SleepSeconds = r.Sleep
		req.Values = r.Values
		reqs = append(reqs, req)
	}
	return reqs
}
