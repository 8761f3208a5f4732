// Package toolexec is the generic streaming-subprocess primitive shared by
// the dak, britney, dose and git adapters.
package toolexec

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"
)

// ToolError wraps a non-zero subprocess exit with its captured output.
type ToolError struct {
	Tool   string
	Args   []string
	Err    error
	Output string
}

func (e *ToolError) Error() string {
	return "toolexec: " + e.Tool + " failed: " + e.Err.Error()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner executes external tools with a configurable hard timeout; timed-out
// children are killed (SIGTERM, then SIGKILL after a grace period).
type Runner struct {
	Timeout     time.Duration // 0 disables the hard timeout
	KillGrace   time.Duration // defaults to 5s
}

// Result is the captured outcome of one subprocess invocation.
type Result struct {
	Success bool
	Stdout  string
	Stderr  string
	Combined string
}

// Run executes name with args, streaming stdout and stderr into in-memory
// buffers, honoring ctx cancellation by terminating the process (SIGTERM
// then SIGKILL after KillGrace).
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	return r.RunWithInput(ctx, dir, nil, name, args...)
}

// RunWithInput is Run with stdin piped from in, for tools that read their
// payload off the standard input (e.g. xz compressing a fused tagfile
// stream).  A nil in behaves exactly like Run.
func (r *Runner) RunWithInput(ctx context.Context, dir string, in io.Reader, name string, args ...string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdin = in
	var stdout, stderr, combined bytes.Buffer
	cmd.Stdout = &multiWriter{&stdout, &combined}
	cmd.Stderr = &multiWriter{&stderr, &combined}

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "toolexec: start %s", name)
	}
	go func() { done <- cmd.Wait() }()

	grace := r.KillGrace
	if grace == 0 {
		grace = 5 * time.Second
	}

	select {
	case err := <-done:
		res := &Result{Success: err == nil, Stdout: stdout.String(), Stderr: stderr.String(), Combined: combined.String()}
		if err != nil {
			return res, &ToolError{Tool: name, Args: args, Err: err, Output: combined.String()}
		}
		return res, nil
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(grace):
			_ = cmd.Process.Kill()
			<-done
		}
		res := &Result{Stdout: stdout.String(), Stderr: stderr.String(), Combined: combined.String()}
		return res, &ToolError{Tool: name, Args: args, Err: ctx.Err(), Output: combined.String()}
	}
}

type multiWriter struct {
	a, b *bytes.Buffer
}

func (m *multiWriter) Write(p []byte) (int, error) {
	m.a.Write(p)
	return m.b.Write(p)
}
