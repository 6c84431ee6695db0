package util

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandTimeout bounds every external tool call. wmctrl and gsettings block
// when the display or the session bus does not answer.
var CommandTimeout = 5 * time.Second

// HasCommand checks if a command is available in the system PATH.
func HasCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes a command and returns its combined output (stdout+stderr),
// trimmed, and any error.
func Run(name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), CommandTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s timed out after %v", name, CommandTimeout)
	}
	return strings.TrimSpace(string(out)), err
}
