// Package execcli runs command plans as local processes.
package execcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/nathantilsley/kubecm/internal/deploy/domain"
)

const renderedFileMode = 0o644

// Adapter implements ports.ExecutorPort with os/exec.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new process executor.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return &Adapter{logger: logger}
}

// Verify checks that every program is available on PATH.
func (a *Adapter) Verify(programs ...string) error {
	for _, p := range programs {
		if _, err := exec.LookPath(p); err != nil {
			return fmt.Errorf("%s binary not found: %w", p, err)
		}
	}
	return nil
}

// Run executes plan and waits for it. When the plan redirects stdout, the
// output is written to a temporary file next to the target and renamed
// into place only if the command succeeds.
func (a *Adapter) Run(ctx context.Context, plan domain.CommandPlan) (domain.CommandResult, error) {
	bin, err := exec.LookPath(plan.Program())
	if err != nil {
		return domain.CommandResult{}, &domain.CommandError{
			Command:  plan.String(),
			ExitCode: -1,
			Err:      fmt.Errorf("%s binary not found: %w", plan.Program(), err),
		}
	}

	//nolint:gosec // G204: plans are assembled from validated release requests
	cmd := exec.CommandContext(ctx, bin, plan.Args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stdout

	var out *os.File
	if target := plan.StdoutPath(); target != "" {
		out, err = os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
		if err != nil {
			return domain.CommandResult{}, &domain.CommandError{
				Command:  plan.String(),
				ExitCode: -1,
				Err:      fmt.Errorf("creating output file: %w", err),
			}
		}
		defer os.Remove(out.Name())
		cmd.Stdout = out
	}

	a.logger.Debug("executing command", "command", plan.String())
	runErr := cmd.Run()
	if out != nil {
		if err := out.Close(); err != nil && runErr == nil {
			runErr = fmt.Errorf("closing output file: %w", err)
		}
	}

	if runErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		a.logger.Error("command failed", "command", plan.String(), "exitCode", exitCode, "stderr", stderr.String())
		return domain.CommandResult{}, &domain.CommandError{
			Command:  plan.String(),
			ExitCode: exitCode,
			Stderr:   stderr.String(),
			Err:      runErr,
		}
	}

	if out != nil {
		if err := publish(out.Name(), plan.StdoutPath()); err != nil {
			return domain.CommandResult{}, &domain.CommandError{Command: plan.String(), ExitCode: -1, Err: err}
		}
	}

	a.logger.Debug("command completed", "command", plan.String(), "outputSize", stdout.Len())
	return domain.CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}

func publish(tmp, target string) error {
	if err := os.Chmod(tmp, renderedFileMode); err != nil {
		return fmt.Errorf("setting output file mode: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
