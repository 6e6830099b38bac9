package toolchain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	retry "github.com/avast/retry-go/v4"

	"github.com/sceneforged/sceneforged/internal/apperr"
)

// ToolOutput is the result of a completed ToolCommand.Execute (spec §4.4).
type ToolOutput struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// ToolCommand is the builder-style tool invocation spec §4.4 describes:
// tool path, args, optional stdin, and a hard timeout.
type ToolCommand struct {
	tool    string
	path    string
	args    []string
	stdin   io.Reader
	timeout time.Duration
	retries uint
}

func NewCommand(tool, path string, timeout time.Duration) *ToolCommand {
	return &ToolCommand{tool: tool, path: path, timeout: timeout}
}

func (c *ToolCommand) WithArgs(args ...string) *ToolCommand {
	c.args = append(c.args, args...)
	return c
}

func (c *ToolCommand) WithStdin(r io.Reader) *ToolCommand {
	c.stdin = r
	return c
}

// WithRetries wraps Execute in up to n additional attempts on transient
// failure (distinct from job-level retry in the scheduler), per the
// avast/retry-go wiring in SPEC_FULL.md's domain stack.
func (c *ToolCommand) WithRetries(n uint) *ToolCommand {
	c.retries = n
	return c
}

// Execute runs the command to completion or until its hard timeout expires,
// at which point the child is killed and ToolTimeout is returned.
func (c *ToolCommand) Execute(ctx context.Context) (*ToolOutput, error) {
	if c.retries == 0 {
		return c.runOnce(ctx)
	}
	var out *ToolOutput
	err := retry.Do(func() error {
		result, err := c.runOnce(ctx)
		if err != nil {
			return err
		}
		out = result
		return nil
	}, retry.Attempts(c.retries+1), retry.RetryIf(apperr.Retryable), retry.Context(ctx))
	return out, err
}

func (c *ToolCommand) runOnce(ctx context.Context) (*ToolOutput, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.path, c.args...)
	if c.stdin != nil {
		cmd.Stdin = c.stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return nil, apperr.Tool(c.tool, "Timeout", elapsed.String())
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ToolOutput{ExitCode: exitErr.ExitCode(), Stdout: stdout.Bytes(), Stderr: stderr.Bytes()},
				apperr.Tool(c.tool, "NonZeroExit", stderr.String())
		}
		return nil, apperr.Tool(c.tool, "NonZeroExit", err.Error())
	}
	return &ToolOutput{ExitCode: 0, Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
}
