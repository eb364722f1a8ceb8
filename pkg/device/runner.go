package device

import (
	"adbtool/pkg/api"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
)

// Runner executes one external command and returns its combined output.
// A non-zero exit is reported as *api.CommandError.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands as local processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmdLine := strings.Join(append([]string{name}, args...), " ")
	slog.DebugContext(ctx, "Executing command", "command", cmdLine)

	cmd := exec.CommandContext(ctx, name, args...)
	outputBytes, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(outputBytes))
	if err == nil {
		return output, nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	slog.WarnContext(ctx, "Command failed", "command", cmdLine, "exit_code", exitCode, "output", output)
	return output, &api.CommandError{
		Command:  cmdLine,
		ExitCode: exitCode,
		Output:   output,
		Err:      err,
	}
}
