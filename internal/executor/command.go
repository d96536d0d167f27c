package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mkanzari/pipectl/internal/logger"
	"github.com/mkanzari/pipectl/internal/pipeline"
)

// runCommand executes a manifest task's shell command. The task name, its
// output dataset names, and one variable per input parameter are exported in
// the environment so scripts can address their slots without parsing args.
// Returns the command's stdout as the materialized value.
func runCommand(ctx context.Context, t *pipeline.Task, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	env := append(os.Environ(), "PIPECTL_TASK="+t.Name())
	outputNames := make([]string, 0, len(t.Outputs()))
	for _, out := range t.Outputs() {
		outputNames = append(outputNames, out.Name())
	}
	env = append(env, "PIPECTL_OUTPUTS="+strings.Join(outputNames, ","))
	for _, in := range t.Inputs() {
		env = append(env, fmt.Sprintf("PIPECTL_INPUT_%s=%s", strings.ToUpper(in.Param), in.Dataset.Name()))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Op.WithFields(map[string]interface{}{
		"task":    t.Name(),
		"command": command,
	}).Debug("Running task command")

	if err := cmd.Run(); err != nil {
		// A killed process reports a signal, not the deadline; surface the
		// context error so timeouts stay distinguishable upstream.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("command timed out: %w", ctxErr)
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("command failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("command failed: %w", err)
	}

	return stdout.String(), nil
}
