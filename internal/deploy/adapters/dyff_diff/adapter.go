// Package dyffdiff computes semantic YAML diffs of rendered manifests with
// the dyff CLI.
package dyffdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/nathantilsley/kubecm/internal/deploy/ports"
)

const (
	binary  = "dyff"
	timeout = 30 * time.Second
)

// Adapter implements ports.DiffPort with `dyff between`. Whenever dyff is
// missing or fails, the fallback differ is used instead.
type Adapter struct {
	fallback ports.DiffPort
	logger   *slog.Logger
}

// New creates a dyff-based differ that falls back to fallback.
func New(fallback ports.DiffPort, logger *slog.Logger) *Adapter {
	return &Adapter{fallback: fallback, logger: logger}
}

// ComputeDiff returns a semantic diff from base to head, or an empty string
// when the documents are equivalent.
func (a *Adapter) ComputeDiff(baseName, headName string, base, head []byte) string {
	if bytes.Equal(base, head) {
		return ""
	}
	out, err := a.between(base, head)
	if err != nil {
		a.logger.Debug("semantic diff unavailable, using line diff", "error", err)
		return a.fallback.ComputeDiff(baseName, headName, base, head)
	}
	if out == "" {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n", baseName)
	fmt.Fprintf(&sb, "+++ %s\n\n", headName)
	sb.WriteString(out)
	return strings.TrimSpace(sb.String())
}

func (a *Adapter) between(base, head []byte) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "kubecm-dyff-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	baseFile := filepath.Join(tmpDir, "previous.yaml")
	headFile := filepath.Join(tmpDir, "rendered.yaml")
	if err := os.WriteFile(baseFile, base, 0o600); err != nil {
		return "", err
	}
	if err := os.WriteFile(headFile, head, 0o600); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// --set-exit-code: 0 no changes, 1 changes, 255 error
	cmd := exec.CommandContext(ctx, path, "between", "--color=off", "--set-exit-code", baseFile, headFile)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return "", nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return cleanOutput(stdout.String(), tmpDir), nil
	default:
		return "", fmt.Errorf("dyff between: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
}

// cleanOutput drops the dyff banner, the summary line and any line naming
// the temporary files, so output is deterministic.
func cleanOutput(output, tmpDir string) string {
	var cleaned []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(line, tmpDir) || isBanner(line, trimmed) {
			continue
		}
		if len(cleaned) == 0 && trimmed == "" {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

var bannerFragments = []string{
	"_        __  __",
	"_| |_   _ / _|/ _|",
	"/ _' | | | | |_| |_",
	"| (_| | |_| |  _|  _|",
	`\__,_|\__, |_| |_|`,
	"|___/",
}

func isBanner(line, trimmed string) bool {
	for _, f := range bannerFragments {
		if strings.Contains(trimmed, f) {
			return true
		}
	}
	return strings.Contains(line, "returned") && strings.Contains(line, "difference")
}
