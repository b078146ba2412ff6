package blockparse

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record is one parsed block. It is never modified once Parse returns.
type Record struct {
	kind     Kind
	label    string
	fields   map[string]any
	parent   *Record
	children []*Record
}

// Kind returns the record kind.
func (r *Record) Kind() Kind { return r.kind }

// Label returns the identity captured from the header line.
func (r *Record) Label() string { return r.label }

// Parent returns the enclosing record or nil for top-level records.
func (r *Record) Parent() *Record { return r.parent }

// Children returns the nested records in input order.
func (r *Record) Children() []*Record {
	return append([]*Record(nil), r.children...)
}

// ChildrenOf returns the nested records of one kind in input order.
func (r *Record) ChildrenOf(kind Kind) []*Record {
	var out []*Record
	for _, c := range r.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Get returns a field value and whether the field was ever set.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// String returns a field formatted as a string, or "" when unset.
func (r *Record) String(key string) string {
	v, ok := r.fields[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns an integer field. It fails for unset or uncoerced fields.
func (r *Record) Int(key string) (int64, bool) {
	v, ok := r.fields[key].(int64)
	return v, ok
}

// Bool returns a boolean field. It fails for unset or uncoerced fields.
func (r *Record) Bool(key string) (bool, bool) {
	v, ok := r.fields[key].(bool)
	return v, ok
}

// Keys returns the set field names sorted.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fields returns a copy of the field map.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}

func (r *Record) set(key string, value any) {
	r.fields[key] = value
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     Kind           `json:"kind"`
		Label    string         `json:"label,omitempty"`
		Fields   map[string]any `json:"fields"`
		Children []*Record      `json:"children,omitempty"`
	}{r.kind, r.label, r.fields, r.children})
}

// Dump renders the record and its children as indented text.
func (r *Record) Dump(indent string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s%s %s\n", indent, r.kind, r.label)
	for _, k := range r.Keys() {
		fmt.Fprintf(&sb, "%s  %-20s %v\n", indent, k, r.fields[k])
	}
	for _, c := range r.children {
		sb.WriteString(c.Dump(indent + "    "))
	}
	return sb.String()
}

// Tree is the result of a single Parse call.
type Tree struct {
	// Records are the top-level records in input order.
	Records []*Record `json:"records"`
	// Count is the value of the summary header, zero when absent.
	Count int `json:"count"`
	// HasCount reports whether a summary header was seen.
	HasCount bool `json:"-"`
}

// Walk visits every record depth first in input order.
func (t *Tree) Walk(fn func(*Record) error) error {
	var visit func([]*Record) error
	visit = func(rs []*Record) error {
		for _, r := range rs {
			if err := fn(r); err != nil {
				return err
			}
			if err := visit(r.children); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.Records)
}
