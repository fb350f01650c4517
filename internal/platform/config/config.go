// Package config provides application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Version probe strategies.
const (
	ProbeKubectl = "kubectl" // `kubectl version -o yaml`
	ProbeAPI     = "api"     // client-go discovery
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	LogLevel string

	HelmBin    string
	KubectlBin string

	// BuildDir is the default build directory; empty means <cwd>/build.
	BuildDir string

	VersionProbe string // ProbeKubectl or ProbeAPI
	Kubeconfig   string // used by ProbeAPI; empty means default discovery

	Parallelism int // concurrent releases in batch mode

	// OpenTelemetry (optional)
	OTelEnabled bool // OTEL_ENABLED feature flag
}

// Load reads configuration from environment variables, validates it, and
// applies defaults for LogLevel ("info"), HelmBin ("helm"), KubectlBin
// ("kubectl"), VersionProbe ("kubectl") and Parallelism (4).
func Load() (Config, error) {
	cfg := Config{
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		HelmBin:      getEnvOrDefault("HELM_BIN", "helm"),
		KubectlBin:   getEnvOrDefault("KUBECTL_BIN", "kubectl"),
		BuildDir:     os.Getenv("KUBECM_BUILD_DIR"),
		VersionProbe: getEnvOrDefault("KUBECM_VERSION_PROBE", ProbeKubectl),
		Kubeconfig:   os.Getenv("KUBECONFIG"),
		Parallelism:  4,
	}

	switch cfg.VersionProbe {
	case ProbeKubectl, ProbeAPI:
	default:
		return Config{}, fmt.Errorf("invalid KUBECM_VERSION_PROBE %q: must be %q or %q",
			cfg.VersionProbe, ProbeKubectl, ProbeAPI)
	}

	if v := os.Getenv("KUBECM_PARALLELISM"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid KUBECM_PARALLELISM %q: %w", v, err)
		}
		if p < 1 {
			return Config{}, fmt.Errorf("invalid KUBECM_PARALLELISM %q: must be at least 1", v)
		}
		cfg.Parallelism = p
	}

	loadOTelConfig(&cfg)

	return cfg, nil
}

func getEnvOrDefault(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func loadOTelConfig(cfg *Config) {
	cfg.OTelEnabled = os.Getenv("OTEL_ENABLED") == "true"
}
