// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

func decodeStr(t *testing.T, src string, target any, cfg DecodeConfig) error {
	t.Helper()
	s, err := NewSource(strings.NewReader(src))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, true, false)
	doc, err := l.Next()
	assert.NoError(t, err)
	return DecodeInto(doc, target, cfg)
}

type person struct {
	Name string `yaml:"name"`
	Age  int    `yaml:"age,omitempty"`
}

func TestDecodeIntoStruct(t *testing.T) {
	var p person
	err := decodeStr(t, "name: Ada\nage: 30\n", &p, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, 30, p.Age)
}

func TestDecodeIntoStructUnknownFieldIgnoredByDefault(t *testing.T) {
	var p person
	err := decodeStr(t, "name: Ada\nextra: 1\n", &p, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
}

func TestDecodeIntoStructUnknownFieldRejectedWithKnownFields(t *testing.T) {
	var p person
	err := decodeStr(t, "name: Ada\nextra: 1\n", &p, DecodeConfig{KnownFields: true})
	assert.NotNil(t, err)
}

func TestDecodeIntoSliceAndMap(t *testing.T) {
	var nums []int
	err := decodeStr(t, "[1, 2, 3]\n", &nums, DecodeConfig{})
	assert.NoError(t, err)
	assert.DeepEqual(t, []int{1, 2, 3}, nums)

	var m map[string]int
	err = decodeStr(t, "a: 1\nb: 2\n", &m, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(m))
	assert.Equal(t, 1, m["a"])
}

func TestDecodeIntoInterfaceProducesGenericTree(t *testing.T) {
	var v any
	err := decodeStr(t, "a: [1, two, true]\n", &v, DecodeConfig{})
	assert.NoError(t, err)

	m, ok := v.(map[string]any)
	assert.True(t, ok)
	seq, ok := m["a"].([]any)
	assert.True(t, ok)
	assert.Equal(t, 3, len(seq))
	assert.Equal(t, 1, seq[0])
	assert.Equal(t, "two", seq[1])
	assert.Equal(t, true, seq[2])
}

func TestDecodeBigIntFallback(t *testing.T) {
	var v any
	err := decodeStr(t, "99999999999999999999999999999999\n", &v, DecodeConfig{})
	assert.NoError(t, err)
	_, ok := v.(string)
	assert.False(t, ok)
}

type upperCaser string

func (u *upperCaser) UnmarshalYAML(v *Value) error {
	if v.Kind != StringKind {
		return fmt.Errorf("expected a string")
	}
	*u = upperCaser(strings.ToUpper(v.Str))
	return nil
}

func TestDecodeHonorsUnmarshaler(t *testing.T) {
	var u upperCaser
	err := decodeStr(t, "hello\n", &u, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, upperCaser("HELLO"), u)
}

type inlinedPerson struct {
	person `yaml:",inline"`
	Extra  string `yaml:"extra"`
}

func TestDecodeInlineStruct(t *testing.T) {
	var ip inlinedPerson
	err := decodeStr(t, "name: Grace\nage: 85\nextra: x\n", &ip, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, "Grace", ip.Name)
	assert.Equal(t, "x", ip.Extra)
}

type greeting struct {
	Text upperCaser `yaml:"text"`
}

func TestDecodeResolvesAliasBeforeUnmarshalerHook(t *testing.T) {
	var g greeting
	err := decodeStr(t, "base: &b hello\ntext: *b\n", &g, DecodeConfig{})
	assert.NoError(t, err)
	assert.Equal(t, upperCaser("HELLO"), g.Text)
}

func TestAliasBudgetRejectsDeepChain(t *testing.T) {
	var b strings.Builder
	b.WriteString("a0: &a0 1\n")
	for i := 1; i <= 150; i++ {
		fmt.Fprintf(&b, "a%d: *a0\n", i)
	}
	var v any
	err := decodeStr(t, b.String(), &v, DecodeConfig{MaxAliasDepth: 100})
	assert.NoError(t, err) // each alias resolves independently, not nested

	// A mapping whose single value is a chain of nested sequences of
	// aliases does recurse through dispatchAlias once per level; the
	// budget is exercised directly instead, since reproducing actual
	// nesting depth in source text is unwieldy here.
	var budget aliasBudget
	budget = *newAliasBudget(2, 1000)
	assert.NoError(t, budget.enter(Mark{}))
	assert.NoError(t, budget.enter(Mark{}))
	err = budget.enter(Mark{})
	assert.NotNil(t, err)
	var repErr *RepetitionLimitError
	assert.ErrorAs(t, err, &repErr)
}
