// Package ps parses the process table printed by `ps auxwww`.
package ps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/blacktop/darwinist/internal/command"
)

// Fields are the ps aux columns in output order, command is the rest of the line.
var Fields = []string{
	"username",
	"pid",
	"cpu_pct",
	"mem_pct",
	"vsz",
	"rss",
	"tty",
	"stat",
	"started",
	"time",
	"command",
}

// Process is one row of the process table.
type Process struct {
	Username string  `json:"username"`
	PID      int     `json:"pid"`
	CPU      float64 `json:"cpu_pct"`
	Mem      float64 `json:"mem_pct"`
	VSZ      int64   `json:"vsz"`
	RSS      int64   `json:"rss"`
	TTY      string  `json:"tty"`
	Stat     string  `json:"stat"`
	Started  string  `json:"started"`
	Time     string  `json:"time"`
	Command  string  `json:"command"`
}

// Name is the base name of the executable.
func (p *Process) Name() string {
	exe, _, _ := strings.Cut(p.Command, " ")
	if exe == "" {
		return ""
	}
	return filepath.Base(exe)
}

// splitN cuts n-1 whitespace separated tokens off line and returns them
// followed by the untouched rest.
func splitN(line string, n int) []string {
	var parts []string
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	for len(parts) < n-1 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			parts = append(parts, rest)
			rest = ""
			break
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}

// ParseLine parses a single process row.
func ParseLine(line string) (*Process, error) {
	cols := splitN(strings.TrimRight(line, " \r"), len(Fields))
	if len(cols) < len(Fields)-1 {
		return nil, fmt.Errorf("failed to parse ps line %q: want %d columns, got %d", line, len(Fields), len(cols))
	}
	p := &Process{
		Username: cols[0],
		TTY:      cols[6],
		Stat:     cols[7],
		Started:  cols[8],
		Time:     cols[9],
	}
	if len(cols) == len(Fields) {
		p.Command = cols[10]
	}
	var err error
	if p.PID, err = strconv.Atoi(cols[1]); err != nil {
		return nil, fmt.Errorf("failed to parse pid in %q: %w", line, err)
	}
	if p.CPU, err = strconv.ParseFloat(cols[2], 64); err != nil {
		return nil, fmt.Errorf("failed to parse %%cpu in %q: %w", line, err)
	}
	if p.Mem, err = strconv.ParseFloat(cols[3], 64); err != nil {
		return nil, fmt.Errorf("failed to parse %%mem in %q: %w", line, err)
	}
	if p.VSZ, err = strconv.ParseInt(cols[4], 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse vsz in %q: %w", line, err)
	}
	if p.RSS, err = strconv.ParseInt(cols[5], 10, 64); err != nil {
		return nil, fmt.Errorf("failed to parse rss in %q: %w", line, err)
	}
	return p, nil
}

// List is a process table.
type List []*Process

// Parse parses `ps auxwww` output, skipping the header row.
func Parse(data []byte) (List, error) {
	var list List
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		p, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ps output: %w", err)
	}
	return list, nil
}

// Load runs `ps auxwww`.
func Load(ctx context.Context, r command.Runner) (List, error) {
	out, err := r.Run(ctx, nil, "ps", "auxwww")
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	return Parse(out)
}

var less = map[string]func(a, b *Process) bool{
	"username": func(a, b *Process) bool { return a.Username < b.Username },
	"pid":      func(a, b *Process) bool { return a.PID < b.PID },
	"cpu_pct":  func(a, b *Process) bool { return a.CPU < b.CPU },
	"mem_pct":  func(a, b *Process) bool { return a.Mem < b.Mem },
	"vsz":      func(a, b *Process) bool { return a.VSZ < b.VSZ },
	"rss":      func(a, b *Process) bool { return a.RSS < b.RSS },
	"tty":      func(a, b *Process) bool { return a.TTY < b.TTY },
	"stat":     func(a, b *Process) bool { return a.Stat < b.Stat },
	"started":  func(a, b *Process) bool { return a.Started < b.Started },
	"time":     func(a, b *Process) bool { return a.Time < b.Time },
	"command":  func(a, b *Process) bool { return a.Command < b.Command },
}

// SortBy sorts the list in place by one of Fields.
func (l List) SortBy(field string, reverse bool) error {
	fn, ok := less[field]
	if !ok {
		return fmt.Errorf("unknown ps field %q (valid: %s)", field, strings.Join(Fields, ", "))
	}
	sort.SliceStable(l, func(i, j int) bool {
		if reverse {
			return fn(l[j], l[i])
		}
		return fn(l[i], l[j])
	})
	return nil
}

// FilterUser returns the processes owned by username.
func (l List) FilterUser(username string) List {
	var out List
	for _, p := range l {
		if p.Username == username {
			out = append(out, p)
		}
	}
	return out
}

// FilterCommand returns the processes whose executable base name is name.
// Executables with spaces in their path do not match.
func (l List) FilterCommand(name string) List {
	var out List
	for _, p := range l {
		if p.Command != "" && p.Name() == name {
			out = append(out, p)
		}
	}
	return out
}

// FindPID returns the process with the given pid.
func (l List) FindPID(pid int) (*Process, bool) {
	for _, p := range l {
		if p.PID == pid {
			return p, true
		}
	}
	return nil, false
}
