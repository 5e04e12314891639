// Copyright 2011-2019 Canonical Ltd
// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Package yaml implements a YAML 1.2 loader and a generic deserialization
// framework for the Go language: a character source, scanner, parser, and
// value-tree loader feed a visitor-based bridge that binds documents onto
// host Go types by reflection or by a caller-supplied Visitor.
package yaml

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yamlcore/goyaml/internal/engine"
)

func resolveOptions(opts []DecoderOption) (DecodeOptions, error) {
	o := defaultDecodeOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return DecodeOptions{}, err
		}
	}
	return o, nil
}

func newLoader(r io.Reader, o DecodeOptions) (*engine.Loader, error) {
	src, err := engine.NewSource(r)
	if err != nil {
		return nil, err
	}
	scanner := engine.NewScanner(src)
	parser := engine.NewParser(scanner)
	return engine.NewLoader(parser, o.Schema, o.UniqueKeys, o.BestEffort), nil
}

// A Decoder reads and decodes YAML documents from an input stream, one
// Decode call per document.
type Decoder struct {
	loader *engine.Loader
	cfg    engine.DecodeConfig
}

// NewDecoder returns a new decoder that reads from r.
//
// The decoder introduces its own buffering and may read data from r beyond
// the YAML document returned by the first Decode call.
func NewDecoder(r io.Reader, opts ...DecoderOption) (*Decoder, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	loader, err := newLoader(r, o)
	if err != nil {
		return nil, err
	}
	cfg := engine.DecodeConfig{MaxAliasDepth: o.MaxAliasDepth, MaxAliasExpansions: o.MaxAliasExpansions, KnownFields: o.KnownFields}
	return &Decoder{loader: loader, cfg: cfg}, nil
}

// KnownFields ensures that the keys in decoded mappings exist as fields in
// the struct being decoded into.
func (dec *Decoder) KnownFields(enable bool) { dec.cfg.KnownFields = enable }

// Decode reads the next YAML document from its input and stores it in the
// value pointed to by v. It returns io.EOF when no documents remain.
func (dec *Decoder) Decode(v any) error {
	doc, err := dec.loader.Next()
	if err != nil {
		return err
	}
	return engine.DecodeInto(doc, v, dec.cfg)
}

// Unmarshal decodes the first document found within in and stores the
// result in the value pointed to by out.
//
// Maps, slices, and pointers (to a struct, string, int, etc.) are accepted
// as out values. If an internal pointer within a struct is not
// initialized, Unmarshal initializes it as necessary to decode the
// provided data. out must not be nil.
//
// Struct fields are only unmarshaled if they are exported, and are
// unmarshaled using the field name lowercased as the default key. Custom
// keys may be set via the "yaml" field tag: the content preceding the
// first comma is the key, and the following comma-separated options tweak
// the binding (omitempty, flow, inline). A field tagged "-" is ignored.
//
// A type implementing Unmarshaler takes over its own decoding from the
// raw Value node.
func Unmarshal(in []byte, out any, opts ...DecoderOption) error {
	dec, err := NewDecoder(bytes.NewReader(in), opts...)
	if err != nil {
		return err
	}
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return fmt.Errorf("yaml: no documents found in stream")
		}
		return err
	}
	return nil
}

// UnmarshalAll decodes every document found within in and appends the
// result of each into the slice pointed to by out.
func UnmarshalAll(in []byte, out any, opts ...DecoderOption) error {
	o, err := resolveOptions(opts)
	if err != nil {
		return err
	}
	loader, err := newLoader(bytes.NewReader(in), o)
	if err != nil {
		return err
	}
	docs, err := loader.LoadAll()
	if err != nil {
		return err
	}
	cfg := engine.DecodeConfig{MaxAliasDepth: o.MaxAliasDepth, MaxAliasExpansions: o.MaxAliasExpansions, KnownFields: o.KnownFields}
	return engine.DecodeAllInto(docs, out, cfg)
}
