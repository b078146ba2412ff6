// Package command runs the external macOS tools the wrappers parse.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/apex/log"
)

var (
	// ErrCommandNotFound is returned when the tool is not installed or not in PATH.
	ErrCommandNotFound = errors.New("command not found")
	// ErrUnsupportedOS is returned when running the tools anywhere but macOS.
	ErrUnsupportedOS = errors.New("only supported on macOS")
)

// ExecError is a tool that ran and exited non-zero.
type ExecError struct {
	Name     string
	Args     []string
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(string(e.Stderr))
	if msg == "" {
		msg = strings.TrimSpace(string(e.Stdout))
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %s", e.Name, strings.Join(e.Args, " "), e.Err, msg)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Runner runs a tool to completion and returns its stdout.
type Runner interface {
	Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error)
}

// Exec runs tools with os/exec.
type Exec struct {
	// Timeout bounds every call, zero means only ctx applies.
	Timeout time.Duration
	// Paths overrides the executable used for a tool name, e.g. "airport".
	Paths map[string]string
	// AnyOS skips the darwin check.
	AnyOS bool
}

// NewExec returns an Exec with the given per call timeout.
func NewExec(timeout time.Duration, paths map[string]string) *Exec {
	return &Exec{Timeout: timeout, Paths: paths}
}

// Path resolves a tool name through the configured overrides.
func (e *Exec) Path(name string) string {
	if p, ok := e.Paths[name]; ok && p != "" {
		return p
	}
	if p, ok := DefaultPaths[name]; ok {
		return p
	}
	return name
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	if runtime.GOOS != "darwin" && !e.AnyOS {
		return nil, ErrUnsupportedOS
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	bin := e.Path(name)
	log.WithFields(log.Fields{
		"cmd":  bin,
		"args": strings.Join(args, " "),
	}).Debug("Running")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", bin, ErrCommandNotFound)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), ctxErr)
		}
		execErr := &ExecError{
			Name:   bin,
			Args:   args,
			Stdout: stdout.Bytes(),
			Stderr: stderr.Bytes(),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return nil, execErr
	}

	return stdout.Bytes(), nil
}

// DefaultPaths are the absolute locations of the tools on macOS.
var DefaultPaths = map[string]string{
	"airport":      "/System/Library/PrivateFrameworks/Apple80211.framework/Versions/Current/Resources/airport",
	"diskutil":     "/usr/sbin/diskutil",
	"hdiutil":      "/usr/bin/hdiutil",
	"ifconfig":     "/sbin/ifconfig",
	"ioreg":        "/usr/sbin/ioreg",
	"mount":        "/sbin/mount",
	"networksetup": "/usr/sbin/networksetup",
	"ps":           "/bin/ps",
	"tmutil":       "/usr/bin/tmutil",
}
