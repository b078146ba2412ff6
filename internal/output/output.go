// Package output prints command results as tables, JSON or YAML.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/itchyny/gojq"
	"gopkg.in/yaml.v3"
)

// Format is an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a --output value. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid --output format %q (expected table|json|yaml)", s)
	}
}

// Printer writes results in one format.
type Printer struct {
	w      io.Writer
	format Format
	query  *gojq.Code
}

// New returns a Printer. A non-empty jq query filters structured output
// and makes table output fall back to JSON.
func New(w io.Writer, format Format, query string) (*Printer, error) {
	p := &Printer{w: w, format: format}
	if query == "" {
		return p, nil
	}
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid --jq: %w", err)
	}
	if p.query, err = gojq.Compile(parsed); err != nil {
		return nil, fmt.Errorf("invalid --jq: %w", err)
	}
	if p.format == FormatTable {
		p.format = FormatJSON
	}
	return p, nil
}

// Structured reports whether the printer emits JSON or YAML.
func (p *Printer) Structured() bool {
	return p.format != FormatTable
}

// Print writes v. For table output the render func draws it instead.
func (p *Printer) Print(v any, render func(w io.Writer) error) error {
	if p.format == FormatTable {
		if render == nil {
			return errors.New("no table view for this result, use --output json")
		}
		return render(p.w)
	}

	results, err := p.filter(v)
	if err != nil {
		return err
	}
	for _, r := range results {
		switch p.format {
		case FormatJSON:
			enc := json.NewEncoder(p.w)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
		case FormatYAML:
			enc := yaml.NewEncoder(p.w)
			enc.SetIndent(2)
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode YAML: %w", err)
			}
			if err := enc.Close(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s", p.format)
		}
	}
	return nil
}

// normalize turns v into the plain maps and slices gojq and yaml expect,
// honoring the json struct tags. Numbers keep their integer form.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return fromNumbers(out), nil
}

// fromNumbers replaces json.Number with int, *big.Int or float64, the
// numeric types gojq accepts.
func fromNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = fromNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = fromNumbers(e)
		}
	case json.Number:
		if n, err := strconv.ParseInt(t.String(), 10, 0); err == nil {
			return int(n)
		}
		if n, ok := new(big.Int).SetString(t.String(), 10); ok {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

func (p *Printer) filter(v any) ([]any, error) {
	data, err := normalize(v)
	if err != nil {
		return nil, err
	}
	if p.query == nil {
		return []any{data}, nil
	}
	var results []any
	iter := p.query.Run(data)
	for {
		r, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := r.(error); isErr {
			return nil, fmt.Errorf("jq error: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}
