package blockparse

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags a record with the header pattern that opened it.
type Kind string

// Header describes one record kind and the header line that opens it.
type Header struct {
	Kind Kind
	// Parent is the kind that must be open for this header to be accepted.
	// Top-level kinds leave it empty.
	Parent Kind
	// Prefix is the literal start of the header line. A line that carries the
	// prefix but fails Pattern is a malformed header.
	Prefix string
	// Pattern must capture the record label either as the named group "label"
	// or as the first group. Any other named group becomes an initial field.
	Pattern *regexp.Regexp
	// Fields maps the human readable source label to the normalized key.
	Fields map[string]string
}

// Coercion converts a raw fact value. It returns the raw string unchanged
// when the value does not fit.
type Coercion func(string) any

// Config is the fixed table set for one command output format.
type Config struct {
	// Decoration is the set of leading characters stripped from every line.
	Decoration string
	// Separators are tried in order, each split on its first occurrence.
	Separators []string
	// Ignore lists lines that carry no information once stripped (braces etc).
	Ignore []string
	// Count matches a summary header, its first group is the record count.
	Count *regexp.Regexp
	// Headers must be mutually exclusive.
	Headers []Header
	// Coerce holds value rules keyed by normalized field name.
	Coerce map[string]Coercion
	// LowercaseUnmapped lowercases labels missing from the kind field map,
	// otherwise they are stored verbatim.
	LowercaseUnmapped bool
}

func (c *Config) header(kind Kind) (*Header, bool) {
	for i := range c.Headers {
		if c.Headers[i].Kind == kind {
			return &c.Headers[i], true
		}
	}
	return nil, false
}

// depth returns how many ancestors a kind has.
func (c *Config) depth(kind Kind) int {
	d := 0
	for {
		h, ok := c.header(kind)
		if !ok || h.Parent == "" {
			return d
		}
		kind = h.Parent
		d++
	}
}

func (c *Config) validate() error {
	if len(c.Headers) == 0 {
		return fmt.Errorf("blockparse: no header patterns configured")
	}
	if len(c.Separators) == 0 {
		return fmt.Errorf("blockparse: no fact separators configured")
	}
	seen := make(map[Kind]bool, len(c.Headers))
	for _, h := range c.Headers {
		if h.Kind == "" {
			return fmt.Errorf("blockparse: header %q has no kind", h.Prefix)
		}
		if seen[h.Kind] {
			return fmt.Errorf("blockparse: duplicate kind %q", h.Kind)
		}
		seen[h.Kind] = true
		if h.Pattern == nil {
			return fmt.Errorf("blockparse: kind %q has no pattern", h.Kind)
		}
		if h.Pattern.NumSubexp() == 0 {
			return fmt.Errorf("blockparse: kind %q pattern captures no label", h.Kind)
		}
	}
	for _, h := range c.Headers {
		if h.Parent != "" && !seen[h.Parent] {
			return fmt.Errorf("blockparse: kind %q has unknown parent %q", h.Kind, h.Parent)
		}
	}
	// a cycle would make depth() spin forever
	for _, h := range c.Headers {
		k, steps := h.Kind, 0
		for k != "" {
			if steps > len(c.Headers) {
				return fmt.Errorf("blockparse: kind %q has a cyclic parent chain", h.Kind)
			}
			p, _ := c.header(k)
			k = p.Parent
			steps++
		}
	}
	return nil
}

func (c *Config) ignored(line string) bool {
	if strings.Trim(line, "-=") == "" {
		return true
	}
	for _, ig := range c.Ignore {
		if line == ig {
			return true
		}
	}
	return false
}
