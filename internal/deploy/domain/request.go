package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	// DefaultTimeout is passed to --timeout when Wait is set and no timeout was given.
	DefaultTimeout = "1h"

	// DefaultBuildDirName is joined onto the working directory when BuildDir is unset.
	DefaultBuildDirName = "build"

	maxReleaseNameLen = 53
)

// ReleaseRequest is the input for a single deploy invocation.
type ReleaseRequest struct {
	Release     string // release name; also the workspace directory name
	ChartSource string // empty, absolute path, relative path, alias/name or oci:// URI
	RepoURL     string // required iff ChartSource is alias/name
	BuildDir    string // empty means <cwd>/build
	Namespace   string
	Hooks       bool
	Wait        bool
	Timeout     string // only used when Wait is set
	Version     string // chart version pin
	RenderTo    string // non-empty switches to render mode
	Deploy      bool   // false skips the invocation entirely

	SleepSeconds int // > 0 holds before deploying

	// Values are written to the workspace values.yaml when non-nil.
	Values map[string]any

	// ShowDiff emits a diff against the previous render in render mode.
	ShowDiff bool
}

// NewReleaseRequest returns a request for release with every default applied.
func NewReleaseRequest(release string) ReleaseRequest {
	return ReleaseRequest{
		Release: release,
		Hooks:   true,
		Timeout: DefaultTimeout,
		Deploy:  true,
	}
}

// RenderMode reports whether the request renders to a file instead of
// upgrading the release.
func (r ReleaseRequest) RenderMode() bool {
	return r.RenderTo != ""
}

// ReleaseDirName is the workspace directory name: release, or
// release-namespace when a namespace is set.
func (r ReleaseRequest) ReleaseDirName() string {
	if r.Namespace != "" {
		return r.Release + "-" + r.Namespace
	}
	return r.Release
}

// EffectiveTimeout returns the timeout passed with --wait. It is empty when
// Wait is not set.
func (r ReleaseRequest) EffectiveTimeout() string {
	if !r.Wait {
		return ""
	}
	if r.Timeout == "" {
		return DefaultTimeout
	}
	return r.Timeout
}

// Validate checks the request for configuration errors. It performs no I/O.
func (r ReleaseRequest) Validate() error {
	if r.Release == "" {
		return ConfigError("release is required")
	}
	if len(r.Release) > maxReleaseNameLen {
		return ConfigError("release %q is longer than %d characters", r.Release, maxReleaseNameLen)
	}
	if errs := validation.IsDNS1123Subdomain(r.Release); len(errs) > 0 {
		return ConfigError("invalid release %q: %s", r.Release, strings.Join(errs, "; "))
	}
	if r.Namespace != "" {
		if errs := validation.IsDNS1123Label(r.Namespace); len(errs) > 0 {
			return ConfigError("invalid namespace %q: %s", r.Namespace, strings.Join(errs, "; "))
		}
	}
	if r.SleepSeconds < 0 {
		return ConfigError("sleep must not be negative, got %d", r.SleepSeconds)
	}
	if r.Wait {
		if _, err := time.ParseDuration(r.EffectiveTimeout()); err != nil {
			return ConfigError("invalid timeout %q: %v", r.Timeout, err)
		}
	}
	if r.RepoURL != "" {
		if err := validateRepoURL(r.RepoURL); err != nil {
			return err
		}
	}
	if _, err := ClassifyChartSource(r.ChartSource, r.RepoURL); err != nil {
		return err
	}
	return nil
}

func validateRepoURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ConfigError("invalid repo_url %q: %v", raw, err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return ConfigError("invalid repo_url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return ConfigError("invalid repo_url %q: missing host", raw)
	}
	return nil
}

// String summarizes the request for logs.
func (r ReleaseRequest) String() string {
	mode := "apply"
	if r.RenderMode() {
		mode = "render"
	}
	return fmt.Sprintf("%s (%s)", r.ReleaseDirName(), mode)
}
