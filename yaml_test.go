// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package yaml

import (
	"bytes"
	"io"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

type point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func TestUnmarshalStruct(t *testing.T) {
	var p point
	err := Unmarshal([]byte("x: 1\ny: 2\n"), &p)
	assert.NoError(t, err)
	assert.Equal(t, 1, p.X)
	assert.Equal(t, 2, p.Y)
}

func TestUnmarshalNoDocumentsIsError(t *testing.T) {
	var p point
	err := Unmarshal([]byte(""), &p)
	assert.NotNil(t, err)
}

func TestUnmarshalKnownFieldsRejectsUnknownKey(t *testing.T) {
	var p point
	err := Unmarshal([]byte("x: 1\nz: 9\n"), &p, WithKnownFields(true))
	assert.NotNil(t, err)
}

func TestUnmarshalAllAppendsEachDocument(t *testing.T) {
	var pts []point
	err := UnmarshalAll([]byte("x: 1\ny: 1\n---\nx: 2\ny: 2\n"), &pts)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(pts))
	assert.Equal(t, 1, pts[0].X)
	assert.Equal(t, 2, pts[1].X)
}

func TestDecoderDecodeStreamsDocuments(t *testing.T) {
	dec, err := NewDecoder(bytes.NewReader([]byte("x: 1\ny: 1\n---\nx: 2\ny: 2\n")))
	assert.NoError(t, err)

	var first, second point
	assert.NoError(t, dec.Decode(&first))
	assert.NoError(t, dec.Decode(&second))
	assert.Equal(t, 1, first.X)
	assert.Equal(t, 2, second.X)

	err = dec.Decode(&point{})
	assert.Equal(t, io.EOF, err)
}

func TestDecoderKnownFieldsToggle(t *testing.T) {
	dec, err := NewDecoder(bytes.NewReader([]byte("x: 1\nz: 9\n")))
	assert.NoError(t, err)
	dec.KnownFields(true)

	var p point
	err = dec.Decode(&p)
	assert.NotNil(t, err)
}

func TestWithSchemaFailsafeKeepsEverythingAsString(t *testing.T) {
	var v any
	err := Unmarshal([]byte("true\n"), &v, WithSchema(FailsafeSchema))
	assert.NoError(t, err)
	s, ok := v.(string)
	assert.True(t, ok)
	assert.Equal(t, "true", s)
}

func TestWithMaxAliasDepthRejectsNegative(t *testing.T) {
	var v any
	err := Unmarshal([]byte("x: 1\n"), &v, WithMaxAliasDepth(-1))
	assert.NotNil(t, err)
}

func TestUnmarshalPlainStructUsesLowercasedFieldName(t *testing.T) {
	type greeting struct {
		Text string
	}
	// greeting has no UnmarshalYAML; this exercises the plain struct path
	// alongside the Value/Visitor aliases exported from this package.
	var g greeting
	err := Unmarshal([]byte("text: hi\n"), &g)
	assert.NoError(t, err)
	assert.Equal(t, "hi", g.Text)
}

func TestValuesEqualExportedAlias(t *testing.T) {
	a := Value{Kind: IntKind, Int: 1}
	b := Value{Kind: IntKind, Int: 1}
	assert.True(t, ValuesEqual(a, b))
}

func TestUnmarshalDuplicateKeyIsLoadError(t *testing.T) {
	var v any
	err := Unmarshal([]byte("a: 1\na: 2\n"), &v)
	assert.NotNil(t, err)
	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}
