// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"math"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

func TestResolvePlainCoreSchema(t *testing.T) {
	cases := []struct {
		value string
		tag   string
	}{
		{"", NullTag},
		{"~", NullTag},
		{"null", NullTag},
		{"Null", NullTag},
		{"true", BoolTag},
		{"False", BoolTag},
		{"42", IntTag},
		{"-17", IntTag},
		{"0o17", IntTag},
		{"0xFF", IntTag},
		{"3.14", FloatTag},
		{".inf", FloatTag},
		{"-.inf", FloatTag},
		{".nan", FloatTag},
		{"2001-12-15T02:59:43.1Z", TimestampTag},
		{"hello world", StrTag},
		{"yes", StrTag}, // Core schema, unlike YAML 1.1, does not infer bool from yes/no
	}
	for _, c := range cases {
		got := ResolvePlain(CoreSchema, c.value)
		assert.Equalf(t, c.tag, got, "ResolvePlain(%q)", c.value)
	}
}

func TestResolvePlainJSONSchema(t *testing.T) {
	assert.Equal(t, StrTag, ResolvePlain(JSONSchema, "~"))
	assert.Equal(t, NullTag, ResolvePlain(JSONSchema, "null"))
	assert.Equal(t, BoolTag, ResolvePlain(JSONSchema, "true"))
	assert.Equal(t, StrTag, ResolvePlain(JSONSchema, "True"))
	assert.Equal(t, IntTag, ResolvePlain(JSONSchema, "42"))
	assert.Equal(t, StrTag, ResolvePlain(JSONSchema, "0x1A"))
}

func TestResolvePlainFailsafeSchema(t *testing.T) {
	assert.Equal(t, StrTag, ResolvePlain(FailsafeSchema, ""))
	assert.Equal(t, StrTag, ResolvePlain(FailsafeSchema, "true"))
	assert.Equal(t, StrTag, ResolvePlain(FailsafeSchema, "42"))
}

func TestParseIntUnderscoresAndBases(t *testing.T) {
	n, ok := ParseInt("1_000_000")
	assert.True(t, ok)
	assert.Equal(t, int64(1000000), n)

	n, ok = ParseInt("0o17")
	assert.True(t, ok)
	assert.Equal(t, int64(15), n)

	n, ok = ParseInt("0xFF")
	assert.True(t, ok)
	assert.Equal(t, int64(255), n)

	n, ok = ParseInt("-0x10")
	assert.True(t, ok)
	assert.Equal(t, int64(-16), n)
}

func TestParseIntOverflowFallsBackToBigInt(t *testing.T) {
	const huge = "99999999999999999999999999999999"
	_, ok := ParseInt(huge)
	assert.False(t, ok)

	bn, ok := ParseBigInt(huge)
	assert.True(t, ok)
	assert.Equal(t, huge, bn.String())
}

func TestParseFloatSpecials(t *testing.T) {
	f, ok := ParseFloat(".inf")
	assert.True(t, ok)
	assert.True(t, math.IsInf(f, 1))

	f, ok = ParseFloat("-.inf")
	assert.True(t, ok)
	assert.True(t, math.IsInf(f, -1))

	f, ok = ParseFloat(".nan")
	assert.True(t, ok)
	assert.True(t, math.IsNaN(f))

	f, ok = ParseFloat("3.14")
	assert.True(t, ok)
	assert.Equal(t, 3.14, f)
}

func TestParseBoolSpellings(t *testing.T) {
	b, ok := ParseBool(CoreSchema, "TRUE")
	assert.True(t, ok)
	assert.True(t, b)

	b, ok = ParseBool(CoreSchema, "False")
	assert.True(t, ok)
	assert.False(t, b)

	_, ok = ParseBool(CoreSchema, "yes")
	assert.False(t, ok)
}
