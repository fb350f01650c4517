package domain

import (
	"regexp"
	"strings"

	"github.com/distribution/reference"
)

// OCIScheme prefixes chart references served from an OCI registry.
const OCIScheme = "oci://"

// SourceKind is the closed set of chart source forms.
type SourceKind int

const (
	SourceScaffold   SourceKind = iota // no chart source: an empty chart is scaffolded
	SourceAbsolute                     // absolute local path, copied into the workspace
	SourceRepository                   // alias/name from a helm repository
	SourceOCI                          // oci:// URI, passed through
	SourceRelative                     // relative local path, passed through
)

// String returns the string representation of the SourceKind.
func (k SourceKind) String() string {
	if k < 0 || int(k) >= len(sourceKindNames) {
		return "unknown"
	}
	return sourceKindNames[k]
}

var sourceKindNames = [...]string{
	SourceScaffold:   "scaffold",
	SourceAbsolute:   "absolute",
	SourceRepository: "repository",
	SourceOCI:        "oci",
	SourceRelative:   "relative",
}

var repoChartPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ChartSource is a classified chart source.
type ChartSource struct {
	Kind    SourceKind
	Raw     string
	RepoURL string
}

// ClassifyChartSource assigns raw to exactly one SourceKind. The oci://
// prefix wins first, then a leading slash, then the presence of repoURL
// (which requires the alias/name form). Anything else is a relative path,
// or the scaffold case when raw is empty.
func ClassifyChartSource(raw, repoURL string) (ChartSource, error) {
	switch {
	case strings.HasPrefix(raw, OCIScheme):
		if err := validateOCIReference(raw); err != nil {
			return ChartSource{}, err
		}
		return ChartSource{Kind: SourceOCI, Raw: raw}, nil
	case strings.HasPrefix(raw, "/"):
		return ChartSource{Kind: SourceAbsolute, Raw: raw}, nil
	case repoURL != "":
		if raw == "" {
			return ChartSource{}, ConfigError("repo_url %q given without a chart_source", repoURL)
		}
		if !repoChartPattern.MatchString(raw) {
			return ChartSource{}, ConfigError("chart_source %q must have the form repo/chart when repo_url is set", raw)
		}
		return ChartSource{Kind: SourceRepository, Raw: raw, RepoURL: repoURL}, nil
	case raw == "":
		return ChartSource{Kind: SourceScaffold}, nil
	default:
		return ChartSource{Kind: SourceRelative, Raw: raw}, nil
	}
}

func validateOCIReference(raw string) error {
	rest := strings.TrimPrefix(raw, OCIScheme)
	if rest == "" {
		return ConfigError("chart_source %q has no registry reference", raw)
	}
	if _, err := reference.ParseNormalizedNamed(rest); err != nil {
		return ConfigError("invalid OCI chart_source %q: %v", raw, err)
	}
	return nil
}

// RepoAlias is the repository name of a SourceRepository source: the
// segment before the slash.
func (c ChartSource) RepoAlias() string {
	if c.Kind != SourceRepository {
		return ""
	}
	alias, _, _ := strings.Cut(c.Raw, "/")
	return alias
}

// ResolvedChart is the chart argument for the main command plus the
// preparation it needs.
type ResolvedChart struct {
	Reference       string
	RequiresRepoAdd bool
	RepoAlias       string
	RepoURL         string
}

type resolverFunc func(ChartSource, Workspace) ResolvedChart

var resolvers = [...]resolverFunc{
	SourceScaffold:   resolveStaged,
	SourceAbsolute:   resolveStaged,
	SourceRepository: resolveRepository,
	SourceOCI:        resolvePassthrough,
	SourceRelative:   resolvePassthrough,
}

// Resolve returns the chart reference for ws.
func (c ChartSource) Resolve(ws Workspace) ResolvedChart {
	return resolvers[c.Kind](c, ws)
}

// resolveStaged points at the workspace chart directory, which is filled
// by scaffolding or by copying the source.
func resolveStaged(_ ChartSource, ws Workspace) ResolvedChart {
	return ResolvedChart{Reference: ws.ChartDir()}
}

func resolveRepository(c ChartSource, _ Workspace) ResolvedChart {
	return ResolvedChart{
		Reference:       c.Raw,
		RequiresRepoAdd: c.RepoURL != "",
		RepoAlias:       c.RepoAlias(),
		RepoURL:         c.RepoURL,
	}
}

func resolvePassthrough(c ChartSource, _ Workspace) ResolvedChart {
	return ResolvedChart{Reference: c.Raw}
}
