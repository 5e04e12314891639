// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

func loadDoc(t *testing.T, src string) Document {
	t.Helper()
	s, err := NewSource(strings.NewReader(src))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, true, false)
	docs, err := l.LoadAll()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(docs))
	return docs[0]
}

func TestLoadBlockMapping(t *testing.T) {
	doc := loadDoc(t, "a: 1\nb: two\nc: true\n")
	assert.Equal(t, MappingKind, doc.Root.Kind)
	assert.Equal(t, 3, len(doc.Root.Mapping.Entries))

	v, ok := doc.Root.Mapping.Get(Value{Kind: StringKind, Str: "a"})
	assert.True(t, ok)
	assert.Equal(t, IntKind, v.Kind)
	assert.Equal(t, int64(1), v.Int)

	v, ok = doc.Root.Mapping.Get(Value{Kind: StringKind, Str: "c"})
	assert.True(t, ok)
	assert.Equal(t, BoolKind, v.Kind)
	assert.True(t, v.Bool)
}

func TestLoadFlowSequenceAndMapping(t *testing.T) {
	doc := loadDoc(t, "[1, 2, {x: 1, y: 2}]\n")
	assert.Equal(t, SequenceKind, doc.Root.Kind)
	assert.Equal(t, 3, len(doc.Root.Sequence))
	assert.Equal(t, MappingKind, doc.Root.Sequence[2].Kind)
}

func TestLoadAnchorAndAlias(t *testing.T) {
	doc := loadDoc(t, "base: &b\n  x: 1\nderived:\n  <<: *b\n  y: 2\n")
	derived, ok := doc.Root.Mapping.Get(Value{Kind: StringKind, Str: "derived"})
	assert.True(t, ok)
	assert.Equal(t, MappingKind, derived.Kind)
	assert.Equal(t, 2, len(derived.Mapping.Entries))

	x, ok := derived.Mapping.Get(Value{Kind: StringKind, Str: "x"})
	assert.True(t, ok)
	assert.Equal(t, int64(1), x.Int)
}

func TestLoadMergeSequenceOfMappingsFirstWins(t *testing.T) {
	doc := loadDoc(t, strings.Join([]string{
		"a: &a {x: 1, y: 1}",
		"b: &b {y: 2, z: 2}",
		"c:",
		"  <<: [*a, *b]",
		"  y: 99",
	}, "\n") + "\n")
	c, ok := doc.Root.Mapping.Get(Value{Kind: StringKind, Str: "c"})
	assert.True(t, ok)

	y, ok := c.Mapping.Get(Value{Kind: StringKind, Str: "y"})
	assert.True(t, ok)
	assert.Equal(t, int64(99), y.Int) // explicit key wins over any merge source

	z, ok := c.Mapping.Get(Value{Kind: StringKind, Str: "z"})
	assert.True(t, ok)
	assert.Equal(t, int64(2), z.Int) // pulled in from *b
}

func TestLoadBinaryTag(t *testing.T) {
	doc := loadDoc(t, "data: !!binary aGVsbG8=\n")
	v, ok := doc.Root.Mapping.Get(Value{Kind: StringKind, Str: "data"})
	assert.True(t, ok)
	assert.Equal(t, BinaryKind, v.Kind)
	assert.Equal(t, "hello", string(v.Binary))
}

func TestLoadDuplicateKeyRejected(t *testing.T) {
	s, err := NewSource(strings.NewReader("a: 1\na: 2\n"))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, true, false)
	_, err = l.LoadAll()
	assert.NotNil(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestLoadDuplicateKeyAllowedWhenNotUnique(t *testing.T) {
	s, err := NewSource(strings.NewReader("a: 1\na: 2\n"))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, false, false)
	docs, err := l.LoadAll()
	assert.NoError(t, err)
	v, ok := docs[0].Root.Mapping.Get(Value{Kind: StringKind, Str: "a"})
	assert.True(t, ok)
	assert.Equal(t, int64(2), v.Int)
}

func TestLoadBestEffortRecoversFromBadDocument(t *testing.T) {
	stream := "a: 1\n---\na: 1\na: 2\n---\nb: 2\n"
	s, err := NewSource(strings.NewReader(stream))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, true, true)
	docs, err := l.LoadAll()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(docs))
	assert.Equal(t, MappingKind, docs[0].Root.Kind)
	assert.Equal(t, BadKind, docs[1].Root.Kind)
	assert.NotNil(t, docs[1].Root.BadError)
	assert.Equal(t, MappingKind, docs[2].Root.Kind)
}

func TestLoadCustomTagWraps(t *testing.T) {
	doc := loadDoc(t, "!point {x: 1, y: 2}\n")
	assert.Equal(t, TaggedKind, doc.Root.Kind)
	assert.Equal(t, "!point", doc.Root.Tag)
	assert.Equal(t, MappingKind, doc.Root.Inner.Kind)
}

func TestLoadUnknownAliasIsLoadError(t *testing.T) {
	s, err := NewSource(strings.NewReader("a: *missing\n"))
	assert.NoError(t, err)
	l := NewLoader(NewParser(NewScanner(s)), CoreSchema, true, false)
	_, err = l.LoadAll()
	assert.NotNil(t, err)
}
