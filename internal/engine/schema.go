// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Schema resolution: classifies untagged plain scalars into a YAML 1.2
// schema's core types (Failsafe, JSON, or Core), and validates explicitly
// tagged scalars against the tag they were given.

package engine

import (
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// SchemaKind selects which of the three standard YAML 1.2 schemas governs
// untagged-scalar resolution.
type SchemaKind int

const (
	// CoreSchema resolves bool/int/float/null by pattern in addition to
	// the JSON-compatible forms; this is the default for YAML documents.
	CoreSchema SchemaKind = iota
	// JSONSchema accepts only the JSON-compatible literal spellings of
	// bool/int/float/null; anything else plain-scalar is a string.
	JSONSchema
	// FailsafeSchema never infers anything beyond a string; every plain
	// scalar stays tagged str unless a tag says otherwise.
	FailsafeSchema
)

const (
	NullTag   = "tag:yaml.org,2002:null"
	BoolTag   = "tag:yaml.org,2002:bool"
	IntTag    = "tag:yaml.org,2002:int"
	FloatTag  = "tag:yaml.org,2002:float"
	StrTag    = "tag:yaml.org,2002:str"
	TimestampTag = "tag:yaml.org,2002:timestamp"
	BinaryTag = "tag:yaml.org,2002:binary"
	MergeTag  = "tag:yaml.org,2002:merge"
	SeqTag    = "tag:yaml.org,2002:seq"
	MapTag    = "tag:yaml.org,2002:map"
)

var (
	coreIntPattern   = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*|0o[0-7]+|0x[0-9a-fA-F]+)$`)
	coreFloatPattern = regexp.MustCompile(`^[-+]?(\.[0-9]+|[0-9]+(\.[0-9]*)?)([eE][-+]?[0-9]+)?$`)
	coreFloatSpecial = regexp.MustCompile(`^[-+]?\.(inf|Inf|INF)$|^\.(nan|NaN|NAN)$`)
	coreBoolPattern  = regexp.MustCompile(`^(true|True|TRUE|false|False|FALSE)$`)
	coreNullPattern  = regexp.MustCompile(`^(~|null|Null|NULL|)$`)

	jsonIntPattern   = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)
	jsonFloatPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)
	jsonBoolPattern  = regexp.MustCompile(`^(true|false)$`)
	jsonNullPattern  = regexp.MustCompile(`^null$`)

	timestampPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}([Tt ][0-9]{2}:[0-9]{2}:[0-9]{2}(\.[0-9]*)?([ \t]*(Z|[-+][0-9]{2}(:[0-9]{2})?))?)?$`)
)

// ResolvePlain infers the default tag for an untagged plain scalar under
// the given schema. An empty plain scalar resolves to null under the Core
// schema only; the JSON and Failsafe schemas leave it a string.
func ResolvePlain(schema SchemaKind, value string) string {
	switch schema {
	case FailsafeSchema:
		return StrTag
	case JSONSchema:
		switch {
		case jsonNullPattern.MatchString(value):
			return NullTag
		case jsonBoolPattern.MatchString(value):
			return BoolTag
		case jsonIntPattern.MatchString(value):
			return IntTag
		case jsonFloatPattern.MatchString(value):
			return FloatTag
		default:
			return StrTag
		}
	default: // CoreSchema
		switch {
		case coreNullPattern.MatchString(value):
			return NullTag
		case coreBoolPattern.MatchString(value):
			return BoolTag
		case coreIntPattern.MatchString(value):
			return IntTag
		case coreFloatPattern.MatchString(value) || coreFloatSpecial.MatchString(value):
			return FloatTag
		case timestampPattern.MatchString(value):
			return TimestampTag
		default:
			return StrTag
		}
	}
}

// ParseBool interprets value per the schema's bool spelling rules.
func ParseBool(schema SchemaKind, value string) (bool, bool) {
	switch value {
	case "true", "True", "TRUE":
		return true, true
	case "false", "False", "FALSE":
		return false, true
	}
	return false, false
}

// ParseInt parses value as a base-10, 0o-octal, or 0x-hex integer,
// returning ok=false if it is out of int64 range (the caller falls back
// to ParseBigInt) or not an integer at all.
func ParseInt(value string) (int64, bool) {
	v := strings.ReplaceAll(value, "_", "")
	neg := false
	if len(v) > 0 && (v[0] == '+' || v[0] == '-') {
		neg = v[0] == '-'
		v = v[1:]
	}
	var n int64
	var err error
	switch {
	case strings.HasPrefix(v, "0o"):
		n, err = strconv.ParseInt(v[2:], 8, 64)
	case strings.HasPrefix(v, "0x"):
		n, err = strconv.ParseInt(v[2:], 16, 64)
	default:
		n, err = strconv.ParseInt(v, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// ParseBigInt parses value as an arbitrary-precision integer, used as a
// fallback when ParseInt reports overflow.
func ParseBigInt(value string) (*big.Int, bool) {
	v := strings.ReplaceAll(value, "_", "")
	neg := false
	if len(v) > 0 && (v[0] == '+' || v[0] == '-') {
		neg = v[0] == '-'
		v = v[1:]
	}
	base := 10
	switch {
	case strings.HasPrefix(v, "0o"):
		base, v = 8, v[2:]
	case strings.HasPrefix(v, "0x"):
		base, v = 16, v[2:]
	}
	n, ok := new(big.Int).SetString(v, base)
	if !ok {
		return nil, false
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}

// ParseFloat parses value per the Core schema's float spelling rules,
// including the special .inf/-.inf/.nan spellings.
func ParseFloat(value string) (float64, bool) {
	v := strings.ReplaceAll(value, "_", "")
	switch v {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return math.Inf(1), true
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), true
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
