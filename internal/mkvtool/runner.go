package mkvtool

import (
	"context"
	"os/exec"
	"strings"

	"unlinkmkv/internal/logging"
	"unlinkmkv/internal/services"
)

// CommandRunner executes an external binary and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

func defaultCommandRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// run executes a collaborator command, logging the invocation and wrapping
// failures with the command line and output for the error log.
func (t *Tools) run(ctx context.Context, name string, args ...string) (string, error) {
	command := name + " " + strings.Join(args, " ")
	t.logger.Debug("exec", logging.String("command", command))

	output, err := t.runner(ctx, name, args...)
	if err != nil {
		t.logger.Error("external tool failed",
			logging.String("command", command),
			logging.String("output", strings.TrimSpace(output)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "external_tool_failed"))
		return output, services.Wrap(services.ErrExternalTool, "mkvtool", name,
			strings.TrimSpace(output), err)
	}
	return output, nil
}
