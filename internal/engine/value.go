// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Value tree: the materialized result of loading a document, before any
// host-type binding happens. A Value is a small sum type plus an
// insertion-ordered mapping with structural (deep) key equality.

package engine

import "math/big"

type Kind int

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	BigIntKind
	FloatKind
	StringKind
	BinaryKind
	SequenceKind
	MappingKind
	TaggedKind
	AliasKind
	BadKind
)

// Value is the uniform node type the loader builds and the deserializer
// bridge dispatches on. Exactly one payload field is meaningful, chosen by
// Kind.
type Value struct {
	Kind Kind
	Mark Mark

	// Tag is the fully resolved tag URI this node was read with, whether
	// inferred by the schema or given explicitly.
	Tag         string
	TagExplicit bool

	Bool   bool
	Int    int64
	BigInt *big.Int
	Float  float64
	Str    string
	Binary []byte

	Sequence []Value
	Mapping  *Mapping

	// Tagged wraps Inner with a custom (non-standard) tag that the schema
	// resolver did not classify as one of the built-in kinds; Tag already
	// carries the tag URI, and Inner carries the value it was applied to.
	Inner *Value

	// AliasAnchor is the anchor name this node refers back to; resolved to
	// the anchor's Value as part of dispatch, not at load time, so the
	// loader never needs to recurse through the alias graph itself.
	AliasAnchor string

	// Anchor is the anchor name this node defines, or "" if none.
	Anchor string

	// BadError explains why this node is Bad: a per-document fatal error
	// that best-effort loading recovered from by skipping to the next
	// document rather than aborting the whole stream.
	BadError error
}

// MappingEntry is one key/value pair of a Mapping, retained in document
// order.
type MappingEntry struct {
	Key   Value
	Value Value
}

// Mapping is an insertion-ordered collection of key/value pairs with
// structural key equality: two keys are the same entry only if their full
// value trees are deeply equal, not merely their surface text.
type Mapping struct {
	Entries []MappingEntry
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping { return &Mapping{} }

// Get returns the value associated with key and whether it was present.
func (m *Mapping) Get(key Value) (Value, bool) {
	for _, e := range m.Entries {
		if ValuesEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Set inserts or overwrites the entry for key, preserving the position of
// an existing entry and appending a new one at the end otherwise. It
// reports whether key already existed (used by the loader to enforce
// "unique keys").
func (m *Mapping) Set(key, value Value) bool {
	for i, e := range m.Entries {
		if ValuesEqual(e.Key, key) {
			m.Entries[i].Value = value
			return true
		}
	}
	m.Entries = append(m.Entries, MappingEntry{Key: key, Value: value})
	return false
}

// ValuesEqual reports structural (deep, order-sensitive for mappings and
// sequences) equality between two value trees, ignoring Mark, Anchor, and
// TagExplicit — two nodes that mean the same thing compare equal even if
// one carried an explicit tag and an anchor and the other did not.
func ValuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return numericKindsEqual(a, b)
	}
	switch a.Kind {
	case NullKind:
		return true
	case BoolKind:
		return a.Bool == b.Bool
	case IntKind:
		return a.Int == b.Int
	case BigIntKind:
		return a.BigInt.Cmp(b.BigInt) == 0
	case FloatKind:
		return a.Float == b.Float
	case StringKind:
		return a.Str == b.Str
	case BinaryKind:
		return string(a.Binary) == string(b.Binary)
	case SequenceKind:
		if len(a.Sequence) != len(b.Sequence) {
			return false
		}
		for i := range a.Sequence {
			if !ValuesEqual(a.Sequence[i], b.Sequence[i]) {
				return false
			}
		}
		return true
	case MappingKind:
		if a.Mapping == nil || b.Mapping == nil {
			return a.Mapping == b.Mapping
		}
		if len(a.Mapping.Entries) != len(b.Mapping.Entries) {
			return false
		}
		for i := range a.Mapping.Entries {
			if !ValuesEqual(a.Mapping.Entries[i].Key, b.Mapping.Entries[i].Key) {
				return false
			}
			if !ValuesEqual(a.Mapping.Entries[i].Value, b.Mapping.Entries[i].Value) {
				return false
			}
		}
		return true
	case TaggedKind:
		if a.Tag != b.Tag {
			return false
		}
		if a.Inner == nil || b.Inner == nil {
			return a.Inner == b.Inner
		}
		return ValuesEqual(*a.Inner, *b.Inner)
	case AliasKind:
		return a.AliasAnchor == b.AliasAnchor
	}
	return false
}

// numericKindsEqual lets an Int and a BigInt carrying the same numeric
// value compare equal as mapping keys, since which of the two a given
// integer literal produced is an implementation artifact of magnitude,
// not of meaning.
func numericKindsEqual(a, b Value) bool {
	asBig := func(v Value) (*big.Int, bool) {
		switch v.Kind {
		case IntKind:
			return big.NewInt(v.Int), true
		case BigIntKind:
			return v.BigInt, true
		}
		return nil, false
	}
	ab, aok := asBig(a)
	bb, bok := asBig(b)
	if aok && bok {
		return ab.Cmp(bb) == 0
	}
	return false
}
