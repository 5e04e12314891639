// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"math/big"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

func TestMappingSetGet(t *testing.T) {
	m := NewMapping()
	key := Value{Kind: StringKind, Str: "a"}
	existed := m.Set(key, Value{Kind: IntKind, Int: 1})
	assert.False(t, existed)

	existed = m.Set(key, Value{Kind: IntKind, Int: 2})
	assert.True(t, existed)

	got, ok := m.Get(key)
	assert.True(t, ok)
	assert.Equal(t, int64(2), got.Int)
	assert.Equal(t, 1, len(m.Entries))
}

func TestMappingStructuralKeyEquality(t *testing.T) {
	m := NewMapping()
	seqKey := func() Value {
		return Value{Kind: SequenceKind, Sequence: []Value{
			{Kind: IntKind, Int: 1},
			{Kind: IntKind, Int: 2},
		}}
	}
	m.Set(seqKey(), Value{Kind: StringKind, Str: "first"})
	existed := m.Set(seqKey(), Value{Kind: StringKind, Str: "second"})
	assert.True(t, existed)
	assert.Equal(t, 1, len(m.Entries))

	got, ok := m.Get(Value{Kind: SequenceKind, Sequence: []Value{
		{Kind: IntKind, Int: 1}, {Kind: IntKind, Int: 2},
	}})
	assert.True(t, ok)
	assert.Equal(t, "second", got.Str)
}

func TestValuesEqualCrossKindNumeric(t *testing.T) {
	a := Value{Kind: IntKind, Int: 42}
	b := Value{Kind: BigIntKind, BigInt: big.NewInt(42)}
	assert.True(t, ValuesEqual(a, b))
	assert.True(t, ValuesEqual(b, a))

	c := Value{Kind: BigIntKind, BigInt: big.NewInt(43)}
	assert.False(t, ValuesEqual(a, c))
}

func TestValuesEqualIgnoresMarkAndExplicitness(t *testing.T) {
	a := Value{Kind: StringKind, Str: "x", Mark: Mark{Line: 1}, TagExplicit: true, Anchor: "a1"}
	b := Value{Kind: StringKind, Str: "x", Mark: Mark{Line: 99}, TagExplicit: false}
	assert.True(t, ValuesEqual(a, b))
}

func TestValuesEqualTagged(t *testing.T) {
	inner := Value{Kind: StringKind, Str: "x"}
	a := Value{Kind: TaggedKind, Tag: "!custom", Inner: &inner}
	b := Value{Kind: TaggedKind, Tag: "!custom", Inner: &inner}
	c := Value{Kind: TaggedKind, Tag: "!other", Inner: &inner}
	assert.True(t, ValuesEqual(a, b))
	assert.False(t, ValuesEqual(a, c))
}
