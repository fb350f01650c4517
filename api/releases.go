package api

// ReleaseManifest is the top-level schema of a kubecm.yaml batch file.
type ReleaseManifest struct {
	// BuildDir applies to every release that does not set its own.
	BuildDir string            `yaml:"buildDir"`
	Releases []ManifestRelease `yaml:"releases"`
}

// ManifestRelease describes one release. Pointer fields distinguish an
// omitted value from an explicit false, so omitted fields keep their
// defaults (hooks and deploy default to true).
type ManifestRelease struct {
	Release     string         `yaml:"release"`
	ChartSource string         `yaml:"chartSource,omitempty"`
	RepoURL     string         `yaml:"repoUrl,omitempty"`
	BuildDir    string         `yaml:"buildDir,omitempty"`
	Namespace   string         `yaml:"namespace,omitempty"`
	Hooks       *bool          `yaml:"hooks,omitempty"`
	Wait        bool           `yaml:"wait,omitempty"`
	Timeout     string         `yaml:"timeout,omitempty"`
	Version     string         `yaml:"version,omitempty"`
	RenderTo    string         `yaml:"renderTo,omitempty"`
	Deploy      *bool          `yaml:"deploy,omitempty"`
	Sleep       int            `yaml:"sleep,omitempty"`
	Values      map[string]any `yaml:"values,omitempty"`
}
