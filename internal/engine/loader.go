// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Loader: consumes a Parser's event stream and composes each document into
// a Value tree, resolving plain-scalar tags against a schema, recording
// anchors for later alias lookup, flattening "<<" merge keys, and decoding
// !!binary payloads. Grounded on the expect/peek/anchor-table composition
// idiom used throughout this codebase's event-to-node machinery.

package engine

import (
	"encoding/base64"
	"fmt"
	"io"
)

// Document is one materialized document plus the anchor table that was
// live while it was composed, so the deserialization bridge can resolve
// AliasKind nodes without the loader needing to inline them eagerly.
type Document struct {
	Root    Value
	Anchors map[string]Value
}

// Loader composes a Parser's event stream into Documents.
type Loader struct {
	parser *Parser

	schema     SchemaKind
	uniqueKeys bool
	bestEffort bool

	event    Event
	haveNext bool

	anchors map[string]Value

	streamStarted bool
	streamEnded   bool
}

// NewLoader creates a Loader reading events from parser.
func NewLoader(parser *Parser, schema SchemaKind, uniqueKeys, bestEffort bool) *Loader {
	return &Loader{parser: parser, schema: schema, uniqueKeys: uniqueKeys, bestEffort: bestEffort}
}

func (l *Loader) peek() (Event, error) {
	if !l.haveNext {
		ev, err := l.parser.Next()
		if err != nil {
			return Event{}, err
		}
		l.event, l.haveNext = ev, true
	}
	return l.event, nil
}

func (l *Loader) take() (Event, error) {
	ev, err := l.peek()
	if err != nil {
		return Event{}, err
	}
	l.haveNext = false
	return ev, nil
}

func (l *Loader) expect(typ EventType) (Event, error) {
	ev, err := l.take()
	if err != nil {
		return Event{}, err
	}
	if ev.Type != typ {
		return Event{}, NewLoadError(ev.StartMark, fmt.Sprintf("expected %s event but got %s", typ, ev.Type))
	}
	return ev, nil
}

// LoadAll composes every remaining document in the stream.
func (l *Loader) LoadAll() ([]Document, error) {
	var docs []Document
	for {
		doc, err := l.Next()
		if err == io.EOF {
			return docs, nil
		}
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
}

// Next composes the next document in the stream, returning io.EOF once the
// stream is exhausted. In best-effort mode, a per-document fatal error
// produces a BadKind root for that document rather than propagating, and
// loading resumes at the next document boundary. A scanner or parser error
// cannot be resumed from: the stream ends after the failed document.
func (l *Loader) Next() (Document, error) {
	if l.streamEnded {
		return Document{}, io.EOF
	}
	if !l.streamStarted {
		if _, err := l.expect(StreamStartEvent); err != nil {
			return Document{}, err
		}
		l.streamStarted = true
	}
	ev, err := l.peek()
	if err != nil {
		return Document{}, err
	}
	if ev.Type == StreamEndEvent {
		l.take()
		l.streamEnded = true
		return Document{}, io.EOF
	}
	doc, err := l.loadOneDocument()
	if err != nil {
		if !l.bestEffort {
			return Document{}, err
		}
		if err := l.resyncToNextDocument(); err != nil {
			return Document{}, err
		}
		return Document{Root: Value{Kind: BadKind, Mark: ev.StartMark, BadError: err}}, nil
	}
	return doc, nil
}

func (l *Loader) loadOneDocument() (doc Document, err error) {
	defer recoverFail(&err)
	if _, err := l.expect(DocumentStartEvent); err != nil {
		return Document{}, err
	}
	l.anchors = make(map[string]Value)
	root, err := l.composeNode()
	if err != nil {
		return Document{}, err
	}
	if _, err := l.expect(DocumentEndEvent); err != nil {
		return Document{}, err
	}
	return Document{Root: root, Anchors: l.anchors}, nil
}

// resyncToNextDocument discards events until the next DocumentStartEvent
// or StreamEndEvent, so best-effort loading can continue past a malformed
// document.
func (l *Loader) resyncToNextDocument() error {
	for {
		ev, err := l.peek()
		if err != nil {
			return err
		}
		if ev.Type == DocumentStartEvent || ev.Type == StreamEndEvent {
			return nil
		}
		if ev.Type == NoEvent {
			// The parser stopped after an error and yields nothing more.
			l.streamEnded = true
			return nil
		}
		if _, err := l.take(); err != nil {
			return err
		}
	}
}

func (l *Loader) composeNode() (Value, error) {
	ev, err := l.peek()
	if err != nil {
		return Value{}, err
	}
	switch ev.Type {
	case ScalarEvent:
		return l.composeScalar()
	case AliasEvent:
		return l.composeAlias()
	case SequenceStartEvent:
		return l.composeSequence()
	case MappingStartEvent:
		return l.composeMapping()
	default:
		return Value{}, NewLoadError(ev.StartMark, fmt.Sprintf("unexpected %s event while composing a node", ev.Type))
	}
}

func (l *Loader) recordAnchor(v Value, anchor string) Value {
	if anchor == "" {
		return v
	}
	v.Anchor = anchor
	l.anchors[anchor] = v
	return v
}

func (l *Loader) composeAlias() (Value, error) {
	ev, err := l.expect(AliasEvent)
	if err != nil {
		return Value{}, err
	}
	if _, ok := l.anchors[ev.Anchor]; !ok {
		return Value{}, NewLoadError(ev.StartMark, fmt.Sprintf("unknown anchor %q referenced", ev.Anchor))
	}
	return Value{Kind: AliasKind, Mark: ev.StartMark, AliasAnchor: ev.Anchor}, nil
}

func (l *Loader) composeScalar() (Value, error) {
	ev, err := l.expect(ScalarEvent)
	if err != nil {
		return Value{}, err
	}
	tag := ev.Tag
	explicit := !ev.TagImplicit
	if tag == "" {
		if ev.ScalarStyle == PlainScalarStyle && ev.Value == "<<" {
			tag = MergeTag
		} else if ev.ScalarStyle != PlainScalarStyle && ev.ScalarStyle != AnyScalarStyle {
			tag = StrTag
		} else {
			tag = ResolvePlain(l.schema, ev.Value)
		}
	}
	v, err := l.scalarValue(tag, explicit, ev.Value, ev.StartMark)
	if err != nil {
		return Value{}, err
	}
	return l.recordAnchor(v, ev.Anchor), nil
}

func (l *Loader) scalarValue(tag string, explicit bool, text string, mark Mark) (Value, error) {
	switch tag {
	case NullTag:
		return Value{Kind: NullKind, Mark: mark, Tag: tag, TagExplicit: explicit}, nil
	case BoolTag:
		b, ok := ParseBool(l.schema, text)
		if !ok {
			if explicit {
				return Value{}, NewSchemaError(mark, fmt.Sprintf("cannot parse %q as !!bool", text))
			}
			return Value{Kind: StringKind, Mark: mark, Tag: StrTag, Str: text}, nil
		}
		return Value{Kind: BoolKind, Mark: mark, Tag: tag, TagExplicit: explicit, Bool: b}, nil
	case IntTag:
		if n, ok := ParseInt(text); ok {
			return Value{Kind: IntKind, Mark: mark, Tag: tag, TagExplicit: explicit, Int: n}, nil
		}
		if bn, ok := ParseBigInt(text); ok {
			return Value{Kind: BigIntKind, Mark: mark, Tag: tag, TagExplicit: explicit, BigInt: bn}, nil
		}
		if explicit {
			return Value{}, NewSchemaError(mark, fmt.Sprintf("cannot parse %q as !!int", text))
		}
		return Value{Kind: StringKind, Mark: mark, Tag: StrTag, Str: text}, nil
	case FloatTag:
		f, ok := ParseFloat(text)
		if !ok {
			if explicit {
				return Value{}, NewSchemaError(mark, fmt.Sprintf("cannot parse %q as !!float", text))
			}
			return Value{Kind: StringKind, Mark: mark, Tag: StrTag, Str: text}, nil
		}
		return Value{Kind: FloatKind, Mark: mark, Tag: tag, TagExplicit: explicit, Float: f}, nil
	case BinaryTag:
		decoded, err := base64.StdEncoding.DecodeString(collapseBase64Whitespace(text))
		if err != nil {
			return Value{}, NewSchemaError(mark, fmt.Sprintf("cannot decode !!binary payload: %s", err))
		}
		return Value{Kind: BinaryKind, Mark: mark, Tag: tag, TagExplicit: explicit, Binary: decoded}, nil
	case MergeTag:
		return Value{Kind: StringKind, Mark: mark, Tag: tag, TagExplicit: explicit, Str: text}, nil
	case StrTag, TimestampTag:
		return Value{Kind: StringKind, Mark: mark, Tag: tag, TagExplicit: explicit, Str: text}, nil
	default:
		inner := Value{Kind: StringKind, Mark: mark, Tag: StrTag, Str: text}
		return Value{Kind: TaggedKind, Mark: mark, Tag: tag, TagExplicit: true, Inner: &inner}, nil
	}
}

func collapseBase64Whitespace(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			out = append(out, c)
		}
	}
	return string(out)
}

func (l *Loader) composeSequence() (Value, error) {
	start, err := l.expect(SequenceStartEvent)
	if err != nil {
		return Value{}, err
	}
	tag := start.Tag
	if tag == "" {
		tag = SeqTag
	}
	var items []Value
	for {
		ev, err := l.peek()
		if err != nil {
			return Value{}, err
		}
		if ev.Type == SequenceEndEvent {
			break
		}
		item, err := l.composeNode()
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	if _, err := l.expect(SequenceEndEvent); err != nil {
		return Value{}, err
	}
	v := Value{Kind: SequenceKind, Mark: start.StartMark, Tag: tag, TagExplicit: !start.TagImplicit, Sequence: items}
	if tag != SeqTag {
		inner := v
		inner.Tag = SeqTag
		v = Value{Kind: TaggedKind, Mark: start.StartMark, Tag: tag, TagExplicit: true, Inner: &inner}
	}
	return l.recordAnchor(v, start.Anchor), nil
}

func (l *Loader) composeMapping() (Value, error) {
	start, err := l.expect(MappingStartEvent)
	if err != nil {
		return Value{}, err
	}
	tag := start.Tag
	if tag == "" {
		tag = MapTag
	}
	m := NewMapping()
	explicitKeys := NewMapping()
	for {
		ev, err := l.peek()
		if err != nil {
			return Value{}, err
		}
		if ev.Type == MappingEndEvent {
			break
		}
		key, err := l.composeNode()
		if err != nil {
			return Value{}, err
		}
		val, err := l.composeNode()
		if err != nil {
			return Value{}, err
		}
		if key.Tag == MergeTag && !key.TagExplicit {
			if err := l.mergeInto(m, val); err != nil {
				return Value{}, err
			}
			continue
		}
		// Only a repeated explicit key is a duplicate; an explicit key may
		// override a value pulled in by an earlier merge.
		if existed := explicitKeys.Set(key, Value{}); existed && l.uniqueKeys {
			return Value{}, NewLoadError(key.Mark, "found duplicate key in mapping")
		}
		m.Set(key, val)
	}
	if _, err := l.expect(MappingEndEvent); err != nil {
		return Value{}, err
	}
	v := Value{Kind: MappingKind, Mark: start.StartMark, Tag: tag, TagExplicit: !start.TagImplicit, Mapping: m}
	if tag != MapTag {
		inner := v
		inner.Tag = MapTag
		v = Value{Kind: TaggedKind, Mark: start.StartMark, Tag: tag, TagExplicit: true, Inner: &inner}
	}
	return l.recordAnchor(v, start.Anchor), nil
}

// mergeInto flattens a "<<" merge value — a single mapping, an alias to
// one, or a sequence of either — into m. Keys already present in m (either
// from an earlier regular entry or an earlier merge source) win over a
// later merge source's value for the same key.
func (l *Loader) mergeInto(m *Mapping, val Value) error {
	sources := []Value{val}
	if val.Kind == SequenceKind {
		sources = val.Sequence
	}
	for _, src := range sources {
		resolved := src
		if resolved.Kind == AliasKind {
			target, ok := l.anchors[resolved.AliasAnchor]
			if !ok {
				return NewLoadError(resolved.Mark, fmt.Sprintf("unknown anchor %q referenced", resolved.AliasAnchor))
			}
			resolved = target
		}
		if resolved.Kind != MappingKind || resolved.Mapping == nil {
			return NewLoadError(resolved.Mark, "map merge requires map or list of maps")
		}
		for _, e := range resolved.Mapping.Entries {
			if _, exists := m.Get(e.Key); !exists {
				m.Set(e.Key, e.Value)
			}
		}
	}
	return nil
}
