package blockparse

import "fmt"

// Reason classifies a ParseError.
type Reason int

const (
	// OutOfOrderInput is a fact before any record, or a nested header whose
	// ancestor is not open.
	OutOfOrderInput Reason = iota + 1
	// MalformedFact is a fact line without any configured separator.
	MalformedFact
	// MalformedHeader is a line with a header prefix that fails the full pattern.
	MalformedHeader
)

func (r Reason) String() string {
	switch r {
	case OutOfOrderInput:
		return "out of order input"
	case MalformedFact:
		return "malformed fact"
	case MalformedHeader:
		return "malformed header"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// ParseError reports the first line that broke the input format.
type ParseError struct {
	Line   string
	LineNo int
	Reason Reason
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at line %d: %q", e.Reason, e.LineNo, e.Line)
}

// Is lets errors.Is match on the reason alone, e.g.
//
//	errors.Is(err, &blockparse.ParseError{Reason: blockparse.MalformedFact})
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Line == "" || t.Line == e.Line)
}
