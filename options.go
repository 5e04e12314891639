// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"errors"

	"github.com/yamlcore/goyaml/internal/engine"
)

// Schema selects which of the three standard YAML 1.2 schemas governs
// untagged-scalar resolution.
type Schema = engine.SchemaKind

const (
	// CoreSchema resolves bool/int/float/null/timestamp by pattern; the
	// default.
	CoreSchema = engine.CoreSchema
	// JSONSchema accepts only the JSON-compatible literal spellings.
	JSONSchema = engine.JSONSchema
	// FailsafeSchema never infers anything beyond a string.
	FailsafeSchema = engine.FailsafeSchema
)

// DecodeOptions configures how a stream is scanned, parsed, and composed
// before being bound to a destination value.
type DecodeOptions struct {
	// Schema selects the untagged-scalar resolution rules. Zero value is
	// CoreSchema.
	Schema Schema

	// KnownFields, when true, makes decoding into a struct an error if
	// the input contains a mapping key with no corresponding field.
	KnownFields bool

	// UniqueKeys, when true (the default), makes a duplicate key within
	// one mapping a LoadError instead of silently overwriting the
	// earlier value.
	UniqueKeys bool

	// MaxAliasDepth caps how many aliases may be "active" at once along
	// a single resolution path. Zero uses the package default (100).
	MaxAliasDepth int

	// MaxAliasExpansions caps the total number of alias resolutions
	// performed while decoding one document. Zero uses the package
	// default (10,000,000).
	MaxAliasExpansions int

	// BestEffort, when true, makes a fatal error in one document of a
	// multi-document stream produce a Bad value for that document
	// instead of aborting the whole stream.
	BestEffort bool
}

// DecoderOption configures a Decoder or an Unmarshal call.
type DecoderOption func(*DecodeOptions) error

func defaultDecodeOptions() DecodeOptions {
	return DecodeOptions{Schema: CoreSchema, UniqueKeys: true}
}

// WithSchema selects the schema used to resolve untagged plain scalars.
func WithSchema(schema Schema) DecoderOption {
	return func(o *DecodeOptions) error {
		o.Schema = schema
		return nil
	}
}

// WithKnownFields enables or disables strict field checking when decoding
// into a struct.
func WithKnownFields(enable bool) DecoderOption {
	return func(o *DecodeOptions) error {
		o.KnownFields = enable
		return nil
	}
}

// WithUniqueKeys enables or disables duplicate-key detection within a
// single mapping. Enabled by default.
func WithUniqueKeys(enable bool) DecoderOption {
	return func(o *DecodeOptions) error {
		o.UniqueKeys = enable
		return nil
	}
}

// WithMaxAliasDepth caps the active alias-resolution depth.
func WithMaxAliasDepth(depth int) DecoderOption {
	return func(o *DecodeOptions) error {
		if depth < 0 {
			return errors.New("yaml: max alias depth cannot be negative")
		}
		o.MaxAliasDepth = depth
		return nil
	}
}

// WithMaxAliasExpansions caps the total number of alias resolutions
// performed while decoding one document.
func WithMaxAliasExpansions(n int) DecoderOption {
	return func(o *DecodeOptions) error {
		if n < 0 {
			return errors.New("yaml: max alias expansions cannot be negative")
		}
		o.MaxAliasExpansions = n
		return nil
	}
}

// WithBestEffort enables best-effort multi-document loading: a fatal error
// in one document yields a Bad value for that document instead of
// aborting the stream.
func WithBestEffort(enable bool) DecoderOption {
	return func(o *DecodeOptions) error {
		o.BestEffort = enable
		return nil
	}
}
