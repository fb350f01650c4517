package domain

import "path/filepath"

// Files inside a release workspace.
const (
	ChartDirName       = "chart"
	PostRendererScript = "kustomize.sh"
	ValuesFileName     = "values.yaml"
	KustomizationFile  = "kustomization.yaml"
	HelmOutputFile     = "helm-output.yaml"
)

// Workspace is the per-release build directory.
type Workspace struct {
	Root string
}

// ResolveBuildDir returns buildDir as an absolute path. An empty buildDir
// becomes <cwd>/build and relative ones are taken from cwd.
func ResolveBuildDir(buildDir, cwd string) string {
	switch {
	case buildDir == "":
		return filepath.Join(cwd, DefaultBuildDirName)
	case filepath.IsAbs(buildDir):
		return filepath.Clean(buildDir)
	default:
		return filepath.Join(cwd, buildDir)
	}
}

// NewWorkspace returns the workspace for releaseDirName under buildDir.
func NewWorkspace(buildDir, releaseDirName string) Workspace {
	return Workspace{Root: filepath.Join(buildDir, releaseDirName)}
}

// ChartDir is where scaffolded or copied charts are staged.
func (w Workspace) ChartDir() string {
	return filepath.Join(w.Root, ChartDirName)
}

// PostRenderer is the script passed to --post-renderer.
func (w Workspace) PostRenderer() string {
	return filepath.Join(w.Root, PostRendererScript)
}

// ValuesPath is the file passed to --values.
func (w Workspace) ValuesPath() string {
	return filepath.Join(w.Root, ValuesFileName)
}

// KustomizationPath is the kustomization consumed by the post-renderer.
func (w Workspace) KustomizationPath() string {
	return filepath.Join(w.Root, KustomizationFile)
}
