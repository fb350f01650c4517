// Package kube builds Kubernetes API clients from kubeconfig files.
package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// ResolveKubeconfig returns the kubeconfig path to use. An explicit path
// wins, then KUBECONFIG, then ~/.kube/config when it exists. An empty
// result means in-cluster configuration.
func ResolveKubeconfig(kubeconfig string) string {
	if kubeconfig != "" {
		return kubeconfig
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	home := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(home); err == nil {
		return home
	}
	return ""
}

// BuildRESTConfig loads a REST config from kubeconfig, resolved as in
// ResolveKubeconfig.
func BuildRESTConfig(kubeconfig string) (*rest.Config, error) {
	config, err := clientcmd.BuildConfigFromFlags("", ResolveKubeconfig(kubeconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config: %w", err)
	}
	return config, nil
}

// NewDiscoveryClient creates a discovery client for kubeconfig.
func NewDiscoveryClient(kubeconfig string) (discovery.DiscoveryInterface, error) {
	config, err := BuildRESTConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	client, err := discovery.NewDiscoveryClientForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery client: %w", err)
	}
	return client, nil
}
