// Package sdef reads scripting definitions with sdef(1) and flattens them
// into the name/code terms tables used by Apple Event bridges.
package sdef

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blacktop/darwinist/internal/command"
)

// TermsVersion is the terms table format version.
const TermsVersion = "1.1"

// ErrNotBundle is returned when the path is not an application bundle directory.
var ErrNotBundle = errors.New("not an application bundle")

// Dictionary is the root of an sdef document
type Dictionary struct {
	XMLName xml.Name `xml:"dictionary" json:"-"`
	Title   string   `xml:"title,attr" json:"title,omitempty"`
	Suites  []Suite  `xml:"suite" json:"suites"`
}

type Suite struct {
	Name         string        `xml:"name,attr" json:"name"`
	Code         string        `xml:"code,attr" json:"code"`
	Description  string        `xml:"description,attr" json:"description,omitempty"`
	Classes      []Class       `xml:"class" json:"classes,omitempty"`
	Commands     []Command     `xml:"command" json:"commands,omitempty"`
	Enumerations []Enumeration `xml:"enumeration" json:"enumerations,omitempty"`
}

type Class struct {
	Name        string     `xml:"name,attr" json:"name"`
	Code        string     `xml:"code,attr" json:"code"`
	Plural      string     `xml:"plural,attr" json:"plural,omitempty"`
	Inherits    string     `xml:"inherits,attr" json:"inherits,omitempty"`
	Description string     `xml:"description,attr" json:"description,omitempty"`
	Properties  []Property `xml:"property" json:"properties,omitempty"`
}

// PluralName is the element name for the class. sdef defaults it to the
// name with an "s" appended.
func (c Class) PluralName() string {
	if c.Plural != "" {
		return c.Plural
	}
	return c.Name + "s"
}

type Property struct {
	Name        string `xml:"name,attr" json:"name"`
	Code        string `xml:"code,attr" json:"code"`
	Type        string `xml:"type,attr" json:"type,omitempty"`
	Access      string `xml:"access,attr" json:"access,omitempty"`
	Description string `xml:"description,attr" json:"description,omitempty"`
}

type Command struct {
	Name        string      `xml:"name,attr" json:"name"`
	Code        string      `xml:"code,attr" json:"code"`
	Description string      `xml:"description,attr" json:"description,omitempty"`
	Parameters  []Parameter `xml:"parameter" json:"parameters,omitempty"`
}

type Parameter struct {
	Name     string `xml:"name,attr" json:"name"`
	Code     string `xml:"code,attr" json:"code"`
	Type     string `xml:"type,attr" json:"type,omitempty"`
	Optional string `xml:"optional,attr" json:"optional,omitempty"`
}

type Enumeration struct {
	Name        string       `xml:"name,attr" json:"name"`
	Code        string       `xml:"code,attr" json:"code"`
	Enumerators []Enumerator `xml:"enumerator" json:"enumerators"`
}

type Enumerator struct {
	Name string `xml:"name,attr" json:"name"`
	Code string `xml:"code,attr" json:"code"`
}

// Parse decodes sdef XML.
func Parse(data []byte) (*Dictionary, error) {
	var d Dictionary
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to parse sdef: %w", err)
	}
	return &d, nil
}

// Load runs sdef on an application bundle.
func Load(ctx context.Context, r command.Runner, path string) (*Dictionary, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotBundle)
	}
	out, err := r.Run(ctx, nil, "sdef", path)
	if err != nil {
		return nil, fmt.Errorf("failed to run sdef: %w", err)
	}
	return Parse(out)
}

// Term is an identifier and its four character code.
type Term struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (t Term) String() string {
	return fmt.Sprintf("('%s', '%s')", t.Name, t.Code)
}

// CommandTerm is a command with its parameter terms.
type CommandTerm struct {
	Term
	Parameters []Term `json:"parameters"`
}

func (c CommandTerm) String() string {
	return fmt.Sprintf("('%s', '%s', %s)", c.Name, c.Code, termList(c.Parameters))
}

// Terms is the flattened terminology of a dictionary.
type Terms struct {
	Path       string        `json:"path"`
	Classes    []Term        `json:"classes"`
	Enums      []Term        `json:"enums"`
	Properties []Term        `json:"properties"`
	Elements   []Term        `json:"elements"`
	Commands   []CommandTerm `json:"commands"`
}

func identifier(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// Terms flattens the dictionary. Elements are the plurals of classes that
// inherit from another class.
func (d *Dictionary) Terms(path string) *Terms {
	t := &Terms{Path: path}
	for _, s := range d.Suites {
		for _, c := range s.Classes {
			t.Classes = append(t.Classes, Term{identifier(c.Name), c.Code})
			if c.Inherits != "" {
				t.Elements = append(t.Elements, Term{identifier(c.PluralName()), c.Code})
			}
		}
		for _, e := range s.Enumerations {
			for _, en := range e.Enumerators {
				t.Enums = append(t.Enums, Term{identifier(en.Name), en.Code})
			}
		}
		for _, c := range s.Classes {
			for _, p := range c.Properties {
				t.Properties = append(t.Properties, Term{identifier(p.Name), p.Code})
			}
		}
		for _, c := range s.Commands {
			ct := CommandTerm{Term: Term{identifier(c.Name), c.Code}}
			for _, p := range c.Parameters {
				ct.Parameters = append(ct.Parameters, Term{identifier(p.Name), p.Code})
			}
			t.Commands = append(t.Commands, ct)
		}
	}
	return t
}

func termList[T fmt.Stringer](terms []T) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// String renders the terms module text.
func (t *Terms) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version = %s\n", TermsVersion)
	fmt.Fprintf(&b, "path = '%s'\n", t.Path)
	fmt.Fprintf(&b, "classes = %s\n", termList(t.Classes))
	fmt.Fprintf(&b, "enums = %s\n", termList(t.Enums))
	fmt.Fprintf(&b, "properties = %s\n", termList(t.Properties))
	fmt.Fprintf(&b, "elements = %s\n", termList(t.Elements))
	fmt.Fprintf(&b, "commands = %s\n", termList(t.Commands))
	return b.String()
}
