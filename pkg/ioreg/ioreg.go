// Package ioreg parses the I/O Kit registry as printed by ioreg(8).
package ioreg

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
	"github.com/blacktop/darwinist/pkg/blockparse"
	"github.com/spf13/cast"
)

// KindEntry is the only record kind of an ioreg listing.
const KindEntry blockparse.Kind = "entry"

var reID = regexp.MustCompile(`\bid (0x[0-9a-fA-F]+)`)

// Config returns the parser tables for `ioreg -w0` output. Registry nesting
// is not tracked, every entry is a top level record.
func Config() blockparse.Config {
	return blockparse.Config{
		Decoration: " |",
		Separators: []string{"=", ":"},
		Ignore:     []string{"{", "}", `"`},
		Headers: []blockparse.Header{
			{
				Kind:    KindEntry,
				Prefix:  "+-o",
				Pattern: regexp.MustCompile(`^\+-o\s(?P<label>.*?)\s+<class (?P<class>\w+),(?P<flags>[^>]*)`),
			},
		},
	}
}

var parser = blockparse.MustNew(Config())

// Entry is one registry object and its properties.
type Entry struct {
	Name       string            `json:"name"`
	Class      string            `json:"class"`
	ID         uint64            `json:"id,omitempty"`
	Flags      string            `json:"flags,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// String returns a property with one layer of quotes removed.
func (e *Entry) String(key string) string {
	return e.Properties[key]
}

// Int returns a numeric property.
func (e *Entry) Int(key string) (int64, bool) {
	v, ok := e.Properties[key]
	if !ok {
		return 0, false
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns a Yes/No property.
func (e *Entry) Bool(key string) (bool, bool) {
	v, ok := e.Properties[key]
	if !ok {
		return false, false
	}
	switch v {
	case "Yes":
		return true, true
	case "No":
		return false, true
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Has reports whether the property was printed.
func (e *Entry) Has(key string) bool {
	_, ok := e.Properties[key]
	return ok
}

// ParseTree parses the listing into generic records.
func ParseTree(data []byte) (*blockparse.Tree, error) {
	return parser.ParseBytes(data)
}

// Parse parses the listing into entries in output order.
func Parse(data []byte) ([]*Entry, error) {
	tree, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ioreg output: %w", err)
	}
	entries := make([]*Entry, 0, len(tree.Records))
	for _, rec := range tree.Records {
		entries = append(entries, fromRecord(rec))
	}
	return entries, nil
}

func fromRecord(rec *blockparse.Record) *Entry {
	e := &Entry{
		Name:       rec.Label(),
		Class:      rec.String("class"),
		Flags:      rec.String("flags"),
		Properties: make(map[string]string),
	}
	if m := reID.FindStringSubmatch(e.Flags); m != nil {
		e.ID, _ = strconv.ParseUint(m[1], 0, 64)
	}
	for k, v := range rec.Fields() {
		if k == "class" || k == "flags" {
			continue
		}
		e.Properties[k] = cast.ToString(v)
	}
	return e
}

// Load returns the entries named or classed name with their properties,
// or the whole registry when name is empty.
func Load(ctx context.Context, r command.Runner, name string) ([]*Entry, error) {
	args := []string{"-lw0"}
	if name = strings.TrimSpace(name); name != "" {
		args = []string{"-r", "-w0", "-n", name}
	}
	out, err := r.Run(ctx, nil, "ioreg", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ioreg: %w", err)
	}
	return Parse(out)
}

// Filter returns the entries of the given class.
func Filter(entries []*Entry, class string) []*Entry {
	var out []*Entry
	for _, e := range entries {
		if e.Class == class {
			out = append(out, e)
		}
	}
	return out
}
