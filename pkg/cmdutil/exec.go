package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
)

// DefaultTimeout bounds a hook run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Hook is a user supplied command run without a shell.
type Hook struct {
	// Parts is the command and its arguments.
	Parts []string

	// Timeout is the maximum execution time.
	Timeout time.Duration

	// Secrets are redacted from the captured output.
	Secrets []string
}

// Result contains the result of a hook execution.
type Result struct {
	// Output is the combined stdout and stderr, with secrets redacted.
	Output []byte

	// ExitCode is the exit code of the command.
	ExitCode int

	// Duration is how long the command took to execute.
	Duration time.Duration
}

// ParseHook parses a shell-quoted command string into a hook.
//
// Example:
//
//	notify-send "Releases changed" -> ["notify-send", "Releases changed"]
func ParseHook(cmdStr string, timeout time.Duration) (*Hook, error) {
	parts, err := shellquote.Split(cmdStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command string: %w", err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command string")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Hook{Parts: parts, Timeout: timeout}, nil
}

// Run executes the hook with env appended to the current environment.
func (h *Hook) Run(ctx context.Context, env ...string) (*Result, error) {
	if len(h.Parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, h.Parts[0], h.Parts[1:]...)
	cmd.Env = append(os.Environ(), env...)

	start := time.Now()
	output, err := cmd.CombinedOutput()

	result := &Result{
		Output:   Redact(output, h.Secrets),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("command timed out after %s", h.Timeout)
		}
		return result, fmt.Errorf("command failed: %w", err)
	}

	return result, nil
}

// String formats the hook command for logging.
func (h *Hook) String() string {
	return FormatCommand(h.Parts)
}

// FormatCommand formats command parts into a readable string for logging.
// Example: ["notify-send", "Releases changed"] -> "notify-send 'Releases changed'"
func FormatCommand(cmdParts []string) string {
	if len(cmdParts) == 0 {
		return "<empty command>"
	}

	// Quote arguments that contain spaces or special characters
	quoted := make([]string, len(cmdParts))
	for i, part := range cmdParts {
		if strings.ContainsAny(part, " \t\n\"'") {
			quoted[i] = shellquote.Join(part)
		} else {
			quoted[i] = part
		}
	}

	return strings.Join(quoted, " ")
}

// Redact removes secrets from command output.
func Redact(output []byte, secrets []string) []byte {
	sanitized := string(output)
	for _, secret := range secrets {
		if secret != "" {
			sanitized = strings.ReplaceAll(sanitized, secret, "***REDACTED***")
		}
	}
	return []byte(sanitized)
}
