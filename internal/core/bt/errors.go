package bt

import (
	"errors"
	"fmt"
	"strings"
)

// Build errors. Every failure surfaced by Parse or Build is a *BuildError
// wrapping one of these, so callers can match with errors.Is.
var (
	ErrUnknownNodeTag    = errors.New("unknown node tag")
	ErrMissingChild      = errors.New("missing child")
	ErrInvalidChildDepth = errors.New("invalid child depth")
	ErrTooManyChildren   = errors.New("too many children")
	ErrParameterParse    = errors.New("invalid parameter")
	ErrNodeKindMismatch  = errors.New("node kind mismatch")

	ErrUnexpectedChild   = errors.New("leaf node cannot have children")
	ErrTrailingLines     = errors.New("unexpected lines after root node")
	ErrEmptyDocument     = errors.New("empty document")
	ErrMixedIndentation  = errors.New("mixed tab and space indentation")
	ErrContextCapability = errors.New("context lacks required capability")
)

// BuildError carries the location of a build failure.
type BuildError struct {
	Err error
	// Tag is the node tag on the offending line, if known.
	Tag string
	// Line is the 1-based source line number; 0 when unknown.
	Line int
	// Index and Raw describe the offending parameter for ErrParameterParse.
	Index int
	Raw   string
	// Cause is the underlying conversion or factory error, if any.
	Cause error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString("bt: ")
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Tag != "" {
		fmt.Fprintf(&b, "%s: ", e.Tag)
	}
	b.WriteString(e.Err.Error())
	if errors.Is(e.Err, ErrParameterParse) {
		fmt.Fprintf(&b, " at index %d (%q)", e.Index, e.Raw)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *BuildError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newBuildError(err error, tag string, line int) *BuildError {
	return &BuildError{Err: err, Tag: tag, Line: line}
}
