package domain

import (
	"regexp"
	"slices"
	"strings"
)

// Toolchain names the programs that plans invoke.
type Toolchain struct {
	Helm    string
	Kubectl string
}

// DefaultToolchain resolves helm and kubectl from PATH.
func DefaultToolchain() Toolchain {
	return Toolchain{Helm: "helm", Kubectl: "kubectl"}
}

// CommandPlan is one external invocation. It is immutable once built.
type CommandPlan struct {
	program string
	args    []string
	stdout  string
}

// NewCommandPlan returns a plan running program with args.
func NewCommandPlan(program string, args ...string) CommandPlan {
	return CommandPlan{program: program, args: slices.Clone(args)}
}

// WithStdout returns a copy of p whose standard output is written to path.
func (p CommandPlan) WithStdout(path string) CommandPlan {
	return CommandPlan{program: p.program, args: slices.Clone(p.args), stdout: path}
}

// Program returns the executable name.
func (p CommandPlan) Program() string { return p.program }

// Args returns a copy of the argument tokens.
func (p CommandPlan) Args() []string { return slices.Clone(p.args) }

// Tokens returns the program followed by its arguments.
func (p CommandPlan) Tokens() []string {
	return append([]string{p.program}, p.args...)
}

// StdoutPath is the file receiving standard output, or empty.
func (p CommandPlan) StdoutPath() string { return p.stdout }

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:=@%+,-]+$`)

// String renders the plan as a shell command line, including the output
// redirection of render plans.
func (p CommandPlan) String() string {
	tokens := p.Tokens()
	quoted := make([]string, 0, len(tokens)+2)
	for _, t := range tokens {
		quoted = append(quoted, shellQuote(t))
	}
	if p.stdout != "" {
		quoted = append(quoted, ">", shellQuote(p.stdout))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// slot fixes the position of a token group in a helm command line.
type slot int

const (
	slotVerb slot = iota
	slotTarget
	slotHooks
	slotNamespace
	slotPostRender
	slotVersion
	slotWait
	slotCount
)

// planBuilder collects token groups by slot and emits them in slot order,
// whatever order they were set in.
type planBuilder struct {
	program string
	groups  [slotCount][]string
}

func newPlanBuilder(program string) *planBuilder {
	return &planBuilder{program: program}
}

func (b *planBuilder) set(s slot, tokens ...string) *planBuilder {
	b.groups[s] = tokens
	return b
}

func (b *planBuilder) build() CommandPlan {
	var args []string
	for _, g := range b.groups {
		args = append(args, g...)
	}
	return CommandPlan{program: b.program, args: args}
}

func (b *planBuilder) postRender(ws Workspace) *planBuilder {
	return b.set(slotPostRender,
		"--post-renderer", ws.PostRenderer(),
		"--post-renderer-args", ws.Root,
		"--values", ws.ValuesPath(),
	)
}

// BuildApplyPlan assembles `helm upgrade --install` for req.
func BuildApplyPlan(tc Toolchain, req ReleaseRequest, chart ResolvedChart, ws Workspace) CommandPlan {
	b := newPlanBuilder(tc.Helm).
		set(slotVerb, "upgrade", "--install").
		set(slotTarget, req.Release, chart.Reference).
		postRender(ws)
	if !req.Hooks {
		b.set(slotHooks, "--no-hooks")
	}
	if req.Namespace != "" {
		b.set(slotNamespace, "--create-namespace", "--namespace", req.Namespace)
	}
	if req.Version != "" {
		b.set(slotVersion, "--version", req.Version)
	}
	if req.Wait {
		b.set(slotWait, "--wait", "--timeout", req.EffectiveTimeout())
	}
	return b.build()
}

// BuildRenderPlan assembles `helm template` for req with its output sent to
// req.RenderTo. Hooks, namespace, version and wait settings do not apply.
func BuildRenderPlan(tc Toolchain, req ReleaseRequest, chart ResolvedChart, ws Workspace, kv KubeVersion) CommandPlan {
	return newPlanBuilder(tc.Helm).
		set(slotVerb, "template", "--kube-version", kv.String()).
		set(slotTarget, req.Release, chart.Reference).
		postRender(ws).
		build().
		WithStdout(req.RenderTo)
}

// BuildRepoAddPlan registers the chart's repository.
func BuildRepoAddPlan(tc Toolchain, chart ResolvedChart) CommandPlan {
	return NewCommandPlan(tc.Helm, "repo", "add", chart.RepoAlias, chart.RepoURL)
}

// BuildVersionQueryPlan asks kubectl for the client and server versions as YAML.
func BuildVersionQueryPlan(tc Toolchain) CommandPlan {
	return NewCommandPlan(tc.Kubectl, "version", "-o", "yaml")
}

// BuildMkdirPlan creates dir and any missing parents.
func BuildMkdirPlan(dir string) CommandPlan {
	return NewCommandPlan("mkdir", "-p", dir)
}

// BuildRemovePlan removes dir recursively.
func BuildRemovePlan(dir string) CommandPlan {
	return NewCommandPlan("rm", "-rf", dir)
}

// BuildCopyPlan copies the contents of src into the existing directory dst.
func BuildCopyPlan(src, dst string) CommandPlan {
	return NewCommandPlan("cp", "-R", strings.TrimSuffix(src, "/")+"/.", dst)
}
