// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Deserialization bridge: dispatches a composed Value to a Visitor (a
// custom-tagged value reaches VisitTagged one wrapper level at a time), resolves
// aliases against a depth- and expansion-capped budget, and hands sequence
// and mapping nodes to the visitor through SeqAccess/MapAccess rather than
// materializing them up front.

package engine

import (
	"fmt"
	"math/big"
	"reflect"
)

// Visitor receives one Value's worth of content and turns it into
// whatever representation the caller wants — a reflect-bound Go value, a
// generic any tree, or something else entirely.
type Visitor interface {
	VisitNull() (any, error)
	VisitBool(v bool) (any, error)
	VisitInt(v int64) (any, error)
	VisitBigInt(v *big.Int) (any, error)
	VisitFloat(v float64) (any, error)
	VisitString(v string) (any, error)
	VisitBinary(v []byte) (any, error)
	VisitSequence(seq SeqAccess) (any, error)
	VisitMapping(m MapAccess) (any, error)
	VisitTagged(tag string, inner Value) (any, error)
}

// SeqAccess lets a Visitor pull sequence elements one at a time, each
// dispatched against a Visitor of the caller's choosing (typically one
// bound to the destination element type).
type SeqAccess interface {
	// Len reports the sequence's length, known up front since the whole
	// document is already composed in memory.
	Len() int
	// NextElement dispatches the next element to elemVisitor, or reports
	// ok=false once the sequence is exhausted.
	NextElement(elemVisitor Visitor) (value any, ok bool, err error)
}

// MapAccess lets a Visitor pull mapping entries one key/value pair at a
// time, mirroring the serde MapAccess next_key/next_value split so a
// struct-binding visitor can resolve the key before choosing which
// visitor to dispatch the value to.
type MapAccess interface {
	Len() int
	NextKey(keyVisitor Visitor) (key any, ok bool, err error)
	NextValue(valueVisitor Visitor) (value any, err error)
}

// aliasBudget enforces the repetition limits that keep a maliciously
// constructed anchor/alias graph ("billion laughs") from exhausting memory
// or CPU: activeDepth bounds how many aliases are being resolved "at once"
// along the current path, totalExpansions bounds how many alias
// resolutions happen over the whole decode.
type aliasBudget struct {
	activeDepth     int
	maxDepth        int
	totalExpansions int
	maxExpansions   int
}

func newAliasBudget(maxDepth, maxExpansions int) *aliasBudget {
	if maxDepth <= 0 {
		maxDepth = 100
	}
	if maxExpansions <= 0 {
		maxExpansions = 10_000_000
	}
	return &aliasBudget{maxDepth: maxDepth, maxExpansions: maxExpansions}
}

func (b *aliasBudget) enter(mark Mark) error {
	b.activeDepth++
	b.totalExpansions++
	if b.activeDepth > b.maxDepth {
		b.activeDepth--
		return &RepetitionLimitError{Mark: mark, Message: "alias nesting depth exceeded"}
	}
	if b.totalExpansions > b.maxExpansions {
		b.activeDepth--
		return &RepetitionLimitError{Mark: mark, Message: "total alias expansion count exceeded"}
	}
	return nil
}

func (b *aliasBudget) leave() { b.activeDepth-- }

// dispatchContext carries what dispatch needs to resolve aliases without
// threading three parameters through every call.
type dispatchContext struct {
	anchors     map[string]Value
	budget      *aliasBudget
	knownFields bool
}

// DecodeConfig bundles the deserialization bridge's tunables: alias
// repetition limits and whether an unrecognized struct field is an error.
type DecodeConfig struct {
	MaxAliasDepth      int
	MaxAliasExpansions int
	KnownFields        bool
}

// dispatch is the single entry point that turns a Value into whatever the
// visitor produces. A custom-tagged value is handed to VisitTagged with its
// inner value after one level of unwrapping; a chain of nested custom-tag
// wrappers is not unwrapped here, and each further level is reached only
// when the visitor dispatches the inner value again, one call deeper.
func dispatch(v Value, ctx *dispatchContext, visitor Visitor) (any, error) {
	for v.Kind == TaggedKind {
		if isRecognizedStandardTag(v.Tag) {
			break
		}
		if v.Inner == nil {
			return visitor.VisitTagged(v.Tag, Value{Kind: NullKind})
		}
		// A custom tag is reported once with its inner value, without
		// unwrapping further, so the visitor sees the tag that mattered.
		return visitor.VisitTagged(v.Tag, *v.Inner)
	}

	switch v.Kind {
	case NullKind:
		return visitor.VisitNull()
	case BoolKind:
		return visitor.VisitBool(v.Bool)
	case IntKind:
		return visitor.VisitInt(v.Int)
	case BigIntKind:
		return visitor.VisitBigInt(v.BigInt)
	case FloatKind:
		return visitor.VisitFloat(v.Float)
	case StringKind:
		return visitor.VisitString(v.Str)
	case BinaryKind:
		return visitor.VisitBinary(v.Binary)
	case SequenceKind:
		return visitor.VisitSequence(&sliceSeqAccess{items: v.Sequence, ctx: ctx})
	case MappingKind:
		return visitor.VisitMapping(&mappingAccess{entries: v.Mapping.entriesOrNil(), ctx: ctx})
	case AliasKind:
		return dispatchAlias(v, ctx, visitor)
	case BadKind:
		return nil, v.BadError
	default:
		return nil, &TypeError{Mark: v.Mark, Cause: "value has no representable kind"}
	}
}

func isRecognizedStandardTag(tag string) bool {
	switch tag {
	case NullTag, BoolTag, IntTag, FloatTag, StrTag, BinaryTag, MergeTag, SeqTag, MapTag, TimestampTag:
		return true
	}
	return false
}

func dispatchAlias(v Value, ctx *dispatchContext, visitor Visitor) (any, error) {
	target, ok := ctx.anchors[v.AliasAnchor]
	if !ok {
		return nil, NewLoadError(v.Mark, "unknown anchor referenced")
	}
	if err := ctx.budget.enter(v.Mark); err != nil {
		return nil, err
	}
	defer ctx.budget.leave()
	return dispatch(target, ctx, visitor)
}

// resolveAlias follows an AliasKind chain to its concrete target, applying
// the same budget accounting dispatchAlias would apply during ordinary
// dispatch. decodeValue calls this before handing a value to an Unmarshaler
// hook, so a hook never observes a raw Alias node.
func resolveAlias(v Value, ctx *dispatchContext) (Value, error) {
	for v.Kind == AliasKind {
		target, ok := ctx.anchors[v.AliasAnchor]
		if !ok {
			return Value{}, NewLoadError(v.Mark, "unknown anchor referenced")
		}
		if err := ctx.budget.enter(v.Mark); err != nil {
			return Value{}, err
		}
		ctx.budget.leave()
		v = target
	}
	return v, nil
}

func (m *Mapping) entriesOrNil() []MappingEntry {
	if m == nil {
		return nil
	}
	return m.Entries
}

// sliceSeqAccess implements SeqAccess over an already-composed []Value.
type sliceSeqAccess struct {
	items []Value
	pos   int
	ctx   *dispatchContext
}

func (s *sliceSeqAccess) Len() int { return len(s.items) }

func (s *sliceSeqAccess) NextElement(elemVisitor Visitor) (any, bool, error) {
	if s.pos >= len(s.items) {
		return nil, false, nil
	}
	v, err := dispatch(s.items[s.pos], s.ctx, elemVisitor)
	s.pos++
	return v, true, err
}

// mappingAccess implements MapAccess over an already-composed Mapping.
type mappingAccess struct {
	entries []MappingEntry
	pos     int
	ctx     *dispatchContext
}

func (m *mappingAccess) Len() int { return len(m.entries) }

func (m *mappingAccess) NextKey(keyVisitor Visitor) (any, bool, error) {
	if m.pos >= len(m.entries) {
		return nil, false, nil
	}
	v, err := dispatch(m.entries[m.pos].Key, m.ctx, keyVisitor)
	return v, true, err
}

func (m *mappingAccess) NextValue(valueVisitor Visitor) (any, error) {
	v, err := dispatch(m.entries[m.pos].Value, m.ctx, valueVisitor)
	m.pos++
	return v, err
}

// DecodeInto binds doc's root value onto target, which must be a non-nil
// pointer.
func DecodeInto(doc Document, target any, cfg DecodeConfig) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("yaml: Decode requires a non-nil pointer, got %T", target)
	}
	if doc.Root.Kind == BadKind {
		return doc.Root.BadError
	}
	ctx := &dispatchContext{
		anchors:     doc.Anchors,
		budget:      newAliasBudget(cfg.MaxAliasDepth, cfg.MaxAliasExpansions),
		knownFields: cfg.KnownFields,
	}
	return decodeValue(doc.Root, ctx, rv.Elem())
}

// DecodeAllInto binds each of docs onto a new element appended to the
// slice pointed to by target.
func DecodeAllInto(docs []Document, target any, cfg DecodeConfig) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("yaml: DecodeAll requires a non-nil pointer to a slice, got %T", target)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(docs))
	for _, doc := range docs {
		if doc.Root.Kind == BadKind {
			return doc.Root.BadError
		}
		ctx := &dispatchContext{
			anchors:     doc.Anchors,
			budget:      newAliasBudget(cfg.MaxAliasDepth, cfg.MaxAliasExpansions),
			knownFields: cfg.KnownFields,
		}
		elem := reflect.New(elemType).Elem()
		if err := decodeValue(doc.Root, ctx, elem); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}
	slice.Set(out)
	return nil
}
