package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"interiordesigner/internal/apperr"
)

// Client sends a single prompt to a language model and returns its text.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ClaudeCLI runs prompts through the claude command-line tool.
type ClaudeCLI struct {
	binary  string
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewClaudeCLI constructs a client for the given binary and default model.
func NewClaudeCLI(binary, model string, timeout time.Duration, logger *slog.Logger) *ClaudeCLI {
	if strings.TrimSpace(binary) == "" {
		binary = "claude"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaudeCLI{
		binary:  binary,
		model:   normalizeModel(model),
		timeout: timeout,
		logger:  logger,
	}
}

// Complete runs `<binary> -p <prompt> --model <model>` and returns stdout.
func (c *ClaudeCLI) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apperr.Configuration("claude", "empty prompt")
	}

	model := c.model
	if override := ModelFromContext(ctx); override != "" {
		model = override
	}

	childCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"-p", prompt}
	if model != "" {
		args = append(args, "--model", model)
	}
	cmd := exec.CommandContext(childCtx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	started := time.Now()
	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	errOutput := strings.TrimSpace(stderr.String())
	c.logger.Debug("claude finished", "model", model, "duration", time.Since(started), "stdout_bytes", len(output))

	if errors.Is(childCtx.Err(), context.DeadlineExceeded) {
		return "", apperr.Service("claude", fmt.Sprintf("timed out after %s", c.timeout), childCtx.Err())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := firstNonEmpty(errOutput, output, "unknown error")
			return "", apperr.Service("claude", fmt.Sprintf("exit %d: %s", exitErr.ExitCode(), msg), err)
		}
		return "", apperr.Service("claude", "start "+c.binary, err)
	}

	// The CLI can exit 0 while reporting an upstream API failure on stdout.
	if strings.Contains(output, "API Error:") {
		return "", apperr.Service("claude", "api error: "+output, nil)
	}
	if output == "" {
		return "", apperr.Service("claude", "empty response", nil)
	}
	return output, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
