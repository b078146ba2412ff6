// Package blockparse turns the indented, marker delimited listings printed by
// tools like `diskutil coreStorage list` and `ioreg` into a tree of records.
//
// A Parser is built from a Config that describes one output format: the
// decoration characters to strip, the header lines that open records and the
// per kind field name maps and value coercions. Parsing is a single forward
// pass over fully buffered output; the first line that does not fit fails the
// whole call.
package blockparse

import (
	"bytes"
	"strconv"
	"strings"
)

// Parser parses one output format. It holds no per-call state and is safe
// for concurrent use.
type Parser struct {
	cfg   Config
	depth map[Kind]int
}

// New validates cfg and returns a Parser for it.
func New(cfg Config) (*Parser, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p := &Parser{
		cfg:   cfg,
		depth: make(map[Kind]int, len(cfg.Headers)),
	}
	for _, h := range cfg.Headers {
		p.depth[h.Kind] = cfg.depth(h.Kind)
	}
	return p, nil
}

// MustNew is like New but panics on an invalid Config. It is meant for the
// static tables of the wrapper packages.
func MustNew(cfg Config) *Parser {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

// Config returns the parser configuration.
func (p *Parser) Config() Config { return p.cfg }

// ParseBytes splits raw command output into lines and parses them.
func (p *Parser) ParseBytes(data []byte) (*Tree, error) {
	return p.Parse(Lines(data))
}

// Parse builds a fresh Tree from lines.
func (p *Parser) Parse(lines []string) (*Tree, error) {
	tree := &Tree{Records: []*Record{}}
	open := make(map[Kind]*Record, len(p.depth))
	var current *Record

	for idx, raw := range lines {
		line := strings.TrimRight(strings.TrimLeft(raw, p.cfg.Decoration), " \t\r")
		if p.cfg.ignored(line) {
			continue
		}
		fail := func(reason Reason) (*Tree, error) {
			return nil, &ParseError{Line: raw, LineNo: idx + 1, Reason: reason}
		}

		if p.cfg.Count != nil {
			if m := p.cfg.Count.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				if err != nil {
					return fail(MalformedHeader)
				}
				tree.Count = n
				tree.HasCount = true
				continue
			}
		}

		h, caps, malformed := p.matchHeader(line)
		if malformed {
			return fail(MalformedHeader)
		}
		if h != nil {
			rec := &Record{kind: h.Kind, fields: make(map[string]any)}
			for name, v := range caps {
				if name == "label" {
					rec.label = v
				} else {
					rec.fields[name] = v
				}
			}
			if h.Parent == "" {
				tree.Records = append(tree.Records, rec)
			} else {
				parent := open[h.Parent]
				if parent == nil {
					return fail(OutOfOrderInput)
				}
				rec.parent = parent
				parent.children = append(parent.children, rec)
			}
			d := p.depth[h.Kind]
			for k := range open {
				if p.depth[k] >= d {
					delete(open, k)
				}
			}
			open[h.Kind] = rec
			current = rec
			continue
		}

		key, value, ok := SplitFact(line, p.cfg.Separators...)
		if !ok {
			return fail(MalformedFact)
		}
		if current == nil {
			return fail(OutOfOrderInput)
		}
		k, v := p.cfg.Normalize(current.kind, key, value)
		current.set(k, v)
	}

	return tree, nil
}

// matchHeader returns the matching header and its trimmed captures. The
// "label" capture falls back to the first group when the pattern names none.
func (p *Parser) matchHeader(line string) (*Header, map[string]string, bool) {
	for i := range p.cfg.Headers {
		h := &p.cfg.Headers[i]
		m := h.Pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		caps := make(map[string]string, len(m))
		for j, name := range h.Pattern.SubexpNames() {
			if j == 0 {
				continue
			}
			if name == "" && j == 1 {
				name = "label"
			}
			if name != "" {
				caps[name] = strings.TrimSpace(m[j])
			}
		}
		return h, caps, false
	}
	for i := range p.cfg.Headers {
		if pre := p.cfg.Headers[i].Prefix; pre != "" && strings.HasPrefix(line, pre) {
			return nil, nil, true
		}
	}
	return nil, nil, false
}

// Lines splits command output on newlines, dropping a trailing empty line.
func Lines(data []byte) []string {
	data = bytes.TrimSuffix(data, []byte("\n"))
	if len(data) == 0 {
		return nil
	}
	return strings.Split(string(data), "\n")
}
