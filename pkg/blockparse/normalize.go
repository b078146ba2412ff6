package blockparse

import (
	"regexp"
	"strconv"
	"strings"
)

var reSizeBytes = regexp.MustCompile(`^(\d+) B \(([\d.]+) GB\)$`)

// SizeFields are the normalized keys the storage listings report as
// "<bytes> B (<decimal> GB)".
var SizeFields = []string{"size", "free_space", "size_total", "size_converted"}

// SizeBytes keeps only the byte count of "53687091200 B (53.69 GB)".
func SizeBytes(s string) any {
	m := reSizeBytes.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return s
	}
	return n
}

// Integer parses a base 10 integer.
func Integer(s string) any {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s
	}
	return n
}

// Boolean understands the Yes/No and true/false spellings of the Apple tools.
func Boolean(s string) any {
	switch strings.ToLower(s) {
	case "yes", "true":
		return true
	case "no", "false":
		return false
	}
	return s
}

// Normalize maps a raw fact to its stored key and value for the given kind.
func (c *Config) Normalize(kind Kind, label, value string) (string, any) {
	key := label
	mapped := false
	if h, ok := c.header(kind); ok {
		key, mapped = h.Fields[label]
	}
	if !mapped {
		key = label
		if c.LowercaseUnmapped {
			key = strings.ToLower(label)
		}
	}
	if fn, ok := c.Coerce[key]; ok {
		return key, fn(value)
	}
	return key, value
}

// SplitFact splits a line on the first occurrence of the first separator
// found in it, trying seps in order, and trims whitespace and one layer of
// surrounding double quotes from both sides.
func SplitFact(line string, seps ...string) (key, value string, ok bool) {
	for _, sep := range seps {
		if k, v, found := strings.Cut(line, sep); found {
			return unquote(strings.TrimSpace(k)), unquote(strings.TrimSpace(v)), true
		}
	}
	return "", "", false
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
