// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package yaml

import "github.com/yamlcore/goyaml/internal/engine"

// Error types produced while decoding a YAML stream. Each is a type alias
// for its internal/engine counterpart so callers can errors.As against the
// concrete type regardless of which layer raised it.
type (
	// EncodingError reports an invalid byte sequence or a misplaced BOM.
	EncodingError = engine.EncodingError

	// ScanError reports a lexical violation.
	ScanError = engine.ScanError

	// ParseError reports a grammar violation.
	ParseError = engine.ParseError

	// LoadError reports an undefined alias, a duplicate key, a malformed
	// merge key, or an unexpected event while materializing the value tree.
	LoadError = engine.LoadError

	// SchemaError reports an explicitly tagged scalar that failed schema
	// resolution.
	SchemaError = engine.SchemaError

	// TypeError reports that a Value's shape does not match what the
	// destination type or Visitor requested during deserialization.
	TypeError = engine.TypeError

	// RepetitionLimitError reports that alias expansion exceeded the
	// configured depth or total-expansion cap.
	RepetitionLimitError = engine.RepetitionLimitError

	// Path describes the location of a deserialization failure as a
	// sequence of mapping keys and sequence indices, innermost last.
	Path = engine.Path
)
