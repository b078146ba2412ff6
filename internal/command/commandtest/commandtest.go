// Package commandtest provides a scripted command.Runner for tests.
package commandtest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Name  string
	Args  []string
	Stdin string
}

// Line returns the call as a single space joined command line.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Response is what the runner returns for a command line.
type Response struct {
	Output []byte
	Err    error
}

// Runner answers with scripted responses keyed by command line.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// New returns an empty Runner.
func New() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On scripts output for an exact command line such as "diskutil info -plist /".
func (r *Runner) On(line string, output string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[line] = Response{Output: []byte(output)}
	return r
}

// Fail scripts an error for an exact command line.
func (r *Runner) Fail(line string, err error) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[line] = Response{Err: err}
	return r
}

// Calls returns the recorded invocations in order.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	c := Call{Name: name, Args: args}
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, err
		}
		c.Stdin = string(data)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, ok := r.responses[c.Line()]
	if !ok {
		return nil, fmt.Errorf("commandtest: unexpected command %q", c.Line())
	}
	return resp.Output, resp.Err
}
