// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Error types for the scanner, parser, loader, schema resolver and
// deserialization bridge, each carrying the source position at which it
// was detected and, where useful, a secondary position for cross-references
// (e.g. an anchor's original definition site).

package engine

import (
	"fmt"
	"strings"
)

// markedError is the shared shape behind every positioned error kind.
type markedError struct {
	kind           string
	ContextMark    Mark
	ContextMessage string
	Mark           Mark
	SecondaryMark  Mark
	HasSecondary   bool
	Message        string
}

func (e markedError) Error() string {
	var b strings.Builder
	b.WriteString("yaml: ")
	if e.ContextMessage != "" {
		fmt.Fprintf(&b, "%s at %s: ", e.ContextMessage, e.ContextMark)
	}
	if e.ContextMessage == "" || e.ContextMark != e.Mark {
		fmt.Fprintf(&b, "%s: ", e.Mark)
	}
	b.WriteString(e.Message)
	if e.HasSecondary {
		fmt.Fprintf(&b, " (see also %s)", e.SecondaryMark)
	}
	return b.String()
}

// IoError wraps a failure from the underlying byte source.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("yaml: io error: %s", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// EncodingError reports an invalid byte sequence or a misplaced BOM.
type EncodingError struct{ markedError }

func NewEncodingError(mark Mark, message string) *EncodingError {
	return &EncodingError{markedError{kind: "encoding error", Mark: mark, Message: message}}
}

// ScanError reports a lexical violation.
type ScanError struct{ markedError }

func NewScanError(mark Mark, message string) *ScanError {
	return &ScanError{markedError{kind: "scanner error", Mark: mark, Message: message}}
}

func NewScanErrorContext(context string, contextMark Mark, mark Mark, message string) *ScanError {
	return &ScanError{markedError{kind: "scanner error", ContextMessage: context, ContextMark: contextMark, Mark: mark, Message: message}}
}

// ParseError reports a grammar violation.
type ParseError struct{ markedError }

func NewParseError(mark Mark, message string) *ParseError {
	return &ParseError{markedError{kind: "parser error", Mark: mark, Message: message}}
}

func NewParseErrorContext(context string, contextMark Mark, mark Mark, message string) *ParseError {
	return &ParseError{markedError{kind: "parser error", ContextMessage: context, ContextMark: contextMark, Mark: mark, Message: message}}
}

// LoadError reports an undefined alias, a duplicate key, a malformed merge
// key, or an unexpected event while materializing the value tree.
type LoadError struct{ markedError }

func NewLoadError(mark Mark, message string) *LoadError {
	return &LoadError{markedError{kind: "load error", Mark: mark, Message: message}}
}

func NewLoadErrorWithAnchor(mark, anchorMark Mark, message string) *LoadError {
	return &LoadError{markedError{kind: "load error", Mark: mark, SecondaryMark: anchorMark, HasSecondary: true, Message: message}}
}

// SchemaError reports an explicitly tagged scalar whose text does not parse
// as its tag, or a !!binary payload that is not valid base64. An untagged
// plain scalar that fails to parse falls back to a string instead.
type SchemaError struct{ markedError }

func NewSchemaError(mark Mark, message string) *SchemaError {
	return &SchemaError{markedError{kind: "schema error", Mark: mark, Message: message}}
}

// Path describes the location of a deserialization failure as a sequence of
// mapping keys and sequence indices, innermost last.
type Path []any

func (p Path) String() string {
	var b strings.Builder
	for i, step := range p {
		switch v := step.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// TypeError reports that a Value's shape does not match what the visitor
// requested during deserialization.
type TypeError struct {
	Path  Path
	Mark  Mark
	Cause string
}

func (e *TypeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("yaml: %s: %s", e.Mark, e.Cause)
	}
	return fmt.Sprintf("yaml: %s at %s: %s", e.Path, e.Mark, e.Cause)
}

// RepetitionLimitError reports that alias expansion exceeded the configured
// depth or total-expansion cap (billion-laughs protection).
type RepetitionLimitError struct {
	Mark    Mark
	Message string
}

func (e *RepetitionLimitError) Error() string {
	return fmt.Sprintf("yaml: %s: repetition limit exceeded: %s", e.Mark, e.Message)
}

// CustomError wraps a host-provided error raised from inside a Visitor.
type CustomError struct {
	Err error
}

func (e *CustomError) Error() string { return e.Err.Error() }
func (e *CustomError) Unwrap() error { return e.Err }

// internalPanic is used by the fail/failf panic-and-recover idiom local to
// a single call tree (load, decode); it is always recovered before crossing
// a public API boundary.
type internalPanic struct{ err error }

func fail(err error)                          { panic(internalPanic{err}) }
func failf(format string, args ...any)        { panic(internalPanic{fmt.Errorf(format, args...)}) }

// recoverFail recovers from the fail/failf idiom, storing the error in *err.
// Any other panic value is re-raised.
func recoverFail(err *error) {
	if v := recover(); v != nil {
		if p, ok := v.(internalPanic); ok {
			*err = p.err
			return
		}
		panic(v)
	}
}
