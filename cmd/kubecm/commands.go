package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	releasefile "github.com/nathantilsley/kubecm/internal/deploy/adapters/release_file"
	"github.com/nathantilsley/kubecm/internal/deploy/domain"
	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

// CommandDeps is what the CLI needs from the container.
type CommandDeps struct {
	Deployer ports.DeployUseCase
	Releases ports.ReleaseSourcePort
	NewBatch func(parallelism int, failFast bool) ports.BatchUseCase

	BuildDir    string // default for --build-dir
	Parallelism int    // default for --parallelism
	Version     string
	Commit      string
}

// NewRootCommand returns the kubecm command tree. Command output goes to out.
func NewRootCommand(deps CommandDeps, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kubecm",
		Short:         "Deploy or render Helm releases through a kustomize post-renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.AddCommand(newDeployCommand(deps))
	cmd.AddCommand(newBatchCommand(deps))
	cmd.AddCommand(newVersionCommand(deps))

	return cmd
}

type deployFlags struct {
	chartSource string
	repoURL     string
	buildDir    string
	namespace   string
	hooks       bool
	wait        bool
	timeout     string
	version     string
	renderTo    string
	deploy      bool
	sleep       int
	valuesFile  string
	diff        bool
}

// request turns the parsed flags into a release request.
func (f deployFlags) request(release string) (domain.ReleaseRequest, error) {
	req := domain.NewReleaseRequest(release)
	req.ChartSource = f.chartSource
	req.RepoURL = f.repoURL
	req.BuildDir = f.buildDir
	req.Namespace = f.namespace
	req.Hooks = f.hooks
	req.Wait = f.wait
	req.Timeout = f.timeout
	req.Version = f.version
	req.RenderTo = f.renderTo
	req.Deploy = f.deploy
	req.SleepSeconds = f.sleep
	req.ShowDiff = f.diff

	if f.valuesFile != "" {
		values, err := readValuesFile(f.valuesFile)
		if err != nil {
			return domain.ReleaseRequest{}, err
		}
		req.Values = values
	}
	return req, nil
}

func readValuesFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ConfigError("reading values file: %v", err)
	}
	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, domain.ConfigError("parsing values file %s: %v", path, err)
	}
	return values, nil
}

func newDeployCommand(deps CommandDeps) *cobra.Command {
	var f deployFlags

	cmd := &cobra.Command{
		Use:   "deploy RELEASE",
		Short: "Install or upgrade a release, or render it to a file",
		Long: `Install or upgrade RELEASE with helm, piping manifests through the
kustomize post-renderer in the release workspace.

With --render-to the chart is rendered with helm template against the
cluster's Kubernetes version instead, and written to the given file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(args[0])
			if err != nil {
				return err
			}
			return deps.Deployer.Deploy(cmd.Context(), req)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.chartSource, "chart-source", "", "Chart location: empty, absolute path, relative path, repo/name or oci:// reference")
	flags.StringVar(&f.repoURL, "repo-url", "", "Helm repository URL added before deploying a repo/name chart")
	flags.StringVar(&f.buildDir, "build-dir", deps.BuildDir, "Root of release workspaces (default <cwd>/build)")
	flags.StringVarP(&f.namespace, "namespace", "n", "", "Target namespace, created if missing")
	flags.BoolVar(&f.hooks, "hooks", true, "Run chart hooks")
	flags.BoolVar(&f.wait, "wait", false, "Wait for resources to become ready")
	flags.StringVar(&f.timeout, "timeout", domain.DefaultTimeout, "Timeout used with --wait")
	flags.StringVar(&f.version, "version", "", "Chart version constraint")
	flags.StringVar(&f.renderTo, "render-to", "", "Render manifests to this file instead of deploying")
	flags.BoolVar(&f.deploy, "deploy", true, "Set to false to skip the release entirely")
	flags.IntVar(&f.sleep, "sleep", 0, "Seconds to wait before starting")
	flags.StringVarP(&f.valuesFile, "values-file", "f", "", "YAML file written to the workspace values.yaml")
	flags.BoolVar(&f.diff, "diff", false, "With --render-to, show changes against the previous render")

	return cmd
}

func newBatchCommand(deps CommandDeps) *cobra.Command {
	var (
		file        string
		failFast    bool
		parallelism int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Deploy every release listed in a manifest",
		Long: `Deploy the releases listed in a kubecm.yaml manifest concurrently.

Every release is validated before any runs. Two releases that would share
a workspace are rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := deps.Releases.LoadReleases(cmd.Context(), file)
			if err != nil {
				return err
			}
			if len(reqs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No releases in %s\n", file)
				return nil
			}
			return deps.NewBatch(parallelism, failFast).DeployAll(cmd.Context(), reqs)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", releasefile.DefaultPath, "Release manifest")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Cancel remaining releases after the first failure")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", deps.Parallelism, "Releases deployed concurrently")

	return cmd
}

func newVersionCommand(deps CommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kubecm %s\n", deps.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", deps.Commit)
		},
	}
}
