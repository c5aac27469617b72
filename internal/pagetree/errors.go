package pagetree

import (
	"errors"
	"fmt"
)

// Sentinel kinds for errors.Is branching. Operation errors wrap one of these
// so callers can branch on kind without caring about the message.
var (
	ErrParse       = errors.New("parse error")
	ErrStructural  = errors.New("structural error")
	ErrNotFound    = errors.New("node not found")
	ErrAmbiguousID = errors.New("ambiguous id reference")
	ErrCycle       = errors.New("cycle error")
	ErrSizeLimit   = errors.New("size limit exceeded")

	// ErrBudgetExceeded is a CycleError subtype: errors.Is(err, ErrCycle)
	// also holds for budget exhaustion.
	ErrBudgetExceeded = fmt.Errorf("traversal budget exceeded: %w", ErrCycle)
)

// ParseError reports malformed or non-array input, carrying enough of the
// offending text for the caller to report or retry.
type ParseError struct {
	Offset  int64  // byte offset into the decoded text, -1 if unknown
	Snippet string // offending substring, truncated
	Reason  string
}

func (e *ParseError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("parse: %s (offset %d, near %q)", e.Reason, e.Offset, e.Snippet)
	}
	return fmt.Sprintf("parse: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// StructuralError reports an invalid parent/child pairing, such as inserting
// a child under a widget.
type StructuralError struct {
	ID     string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural: node %q: %s", e.ID, e.Reason)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// RefError reports a failed node reference resolution. Kind is ErrNotFound or
// ErrAmbiguousID.
type RefError struct {
	Kind error
	ID   string
	Path Path
}

func (e *RefError) Error() string {
	switch {
	case e.ID != "" && len(e.Path) > 0:
		return fmt.Sprintf("%s: id %q, path %v", e.Kind, e.ID, e.Path)
	case e.ID != "":
		return fmt.Sprintf("%s: id %q", e.Kind, e.ID)
	default:
		return fmt.Sprintf("%s: path %v", e.Kind, e.Path)
	}
}

func (e *RefError) Unwrap() error { return e.Kind }

// CycleError reports a mutation that would create a cycle, or a traversal
// that hit its step budget. Budget exhaustion additionally matches
// ErrBudgetExceeded.
type CycleError struct {
	ID     string
	Budget bool
	Reason string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle: node %q: %s", e.ID, e.Reason)
}

func (e *CycleError) Unwrap() error {
	if e.Budget {
		return ErrBudgetExceeded
	}
	return ErrCycle
}

// SizeLimitError reports input exceeding a configured ceiling.
type SizeLimitError struct {
	What  string // "bytes" or "nodes"
	Got   int
	Limit int
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("size limit: %s %d exceeds limit %d", e.What, e.Got, e.Limit)
}

func (e *SizeLimitError) Unwrap() error { return ErrSizeLimit }
