// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package yaml

import "github.com/yamlcore/goyaml/internal/engine"

// Kind identifies which field of a Value carries its content.
type Kind = engine.Kind

const (
	NullKind     = engine.NullKind
	BoolKind     = engine.BoolKind
	IntKind      = engine.IntKind
	BigIntKind   = engine.BigIntKind
	FloatKind    = engine.FloatKind
	StringKind   = engine.StringKind
	BinaryKind   = engine.BinaryKind
	SequenceKind = engine.SequenceKind
	MappingKind  = engine.MappingKind
	TaggedKind   = engine.TaggedKind
	AliasKind    = engine.AliasKind
	BadKind      = engine.BadKind
)

// Value is the uniform node type produced by loading a document, before
// any host-type binding happens. It is a type alias for the engine's Value
// so that a type implementing Unmarshaler against this package's Value
// also satisfies the internal bridge's structural interface check.
type Value = engine.Value

// MappingEntry is one key/value pair of a Mapping, retained in document
// order.
type MappingEntry = engine.MappingEntry

// Mapping is an insertion-ordered collection of key/value pairs with
// structural (deep) key equality.
type Mapping = engine.Mapping

// NewMapping creates an empty mapping.
func NewMapping() *Mapping { return engine.NewMapping() }

// ValuesEqual reports structural equality between two value trees.
func ValuesEqual(a, b Value) bool { return engine.ValuesEqual(a, b) }

// Standard tag URIs recognized by the Core, JSON, and Failsafe schemas.
const (
	NullTag      = engine.NullTag
	BoolTag      = engine.BoolTag
	IntTag       = engine.IntTag
	FloatTag     = engine.FloatTag
	StrTag       = engine.StrTag
	TimestampTag = engine.TimestampTag
	BinaryTag    = engine.BinaryTag
	MergeTag     = engine.MergeTag
	SeqTag       = engine.SeqTag
	MapTag       = engine.MapTag
)

// TaggedValue is what a generic (interface{}) decode produces for a node
// whose tag was not classified as one of the standard kinds above.
type TaggedValue = engine.TaggedValue

// Mark identifies a position in the source character stream.
type Mark = engine.Mark
