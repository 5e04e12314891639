// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
	"testing"

	"github.com/yamlcore/goyaml/internal/testutil/assert"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	s, err := NewSource(strings.NewReader(src))
	assert.NoError(t, err)
	sc := NewScanner(s)
	var toks []Token
	for {
		tok, err := sc.Next()
		assert.NoError(t, err)
		toks = append(toks, tok)
		if tok.Type == StreamEndToken {
			return toks
		}
	}
}

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestScanBlockMapping(t *testing.T) {
	toks := scanAll(t, "a: 1\nb: 2\n")
	got := tokenTypes(toks)
	want := []TokenType{
		StreamStartToken,
		BlockMappingStartToken,
		KeyToken, ScalarToken, ValueToken, ScalarToken,
		KeyToken, ScalarToken, ValueToken, ScalarToken,
		BlockEndToken,
		StreamEndToken,
	}
	assert.DeepEqual(t, want, got)
}

func TestScanBlockSequence(t *testing.T) {
	toks := scanAll(t, "- a\n- b\n")
	got := tokenTypes(toks)
	want := []TokenType{
		StreamStartToken,
		BlockSequenceStartToken,
		BlockEntryToken, ScalarToken,
		BlockEntryToken, ScalarToken,
		BlockEndToken,
		StreamEndToken,
	}
	assert.DeepEqual(t, want, got)
}

func TestScanFlowCollections(t *testing.T) {
	toks := scanAll(t, "[1, {a: 2}]\n")
	got := tokenTypes(toks)
	want := []TokenType{
		StreamStartToken,
		FlowSequenceStartToken,
		ScalarToken,
		FlowEntryToken,
		FlowMappingStartToken,
		KeyToken, ScalarToken, ValueToken, ScalarToken,
		FlowMappingEndToken,
		FlowSequenceEndToken,
		StreamEndToken,
	}
	assert.DeepEqual(t, want, got)
}

func TestScanAnchorAliasAndTag(t *testing.T) {
	toks := scanAll(t, "a: &x !!str hello\nb: *x\n")
	got := tokenTypes(toks)
	want := []TokenType{
		StreamStartToken,
		BlockMappingStartToken,
		KeyToken, ScalarToken,
		ValueToken, AnchorToken, TagToken, ScalarToken,
		KeyToken, ScalarToken,
		ValueToken, AliasToken,
		BlockEndToken,
		StreamEndToken,
	}
	assert.DeepEqual(t, want, got)
}

func TestScanSingleQuotedScalarEscapesQuote(t *testing.T) {
	toks := scanAll(t, "'it''s'\n")
	var scalar Token
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			scalar = tok
		}
	}
	assert.Equal(t, "it's", scalar.Value)
	assert.Equal(t, SingleQuotedScalarStyle, scalar.Style)
}

func TestScanDoubleQuotedScalarEscapes(t *testing.T) {
	toks := scanAll(t, `"a\tb\nA"` + "\n")
	var scalar Token
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			scalar = tok
		}
	}
	assert.Equal(t, "a\tb\nA", scalar.Value)
}

func TestScanLiteralBlockScalarPreservesNewlines(t *testing.T) {
	toks := scanAll(t, "text: |\n  line one\n  line two\n")
	var scalar Token
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			scalar = tok
		}
	}
	assert.Equal(t, "line one\nline two\n", scalar.Value)
	assert.Equal(t, LiteralScalarStyle, scalar.Style)
}

func TestScanFoldedBlockScalarJoinsLines(t *testing.T) {
	toks := scanAll(t, "text: >\n  line one\n  line two\n")
	var scalar Token
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			scalar = tok
		}
	}
	assert.Equal(t, "line one line two\n", scalar.Value)
}

func TestScanFoldedBlockScalarKeepsMoreIndentedLineLiteral(t *testing.T) {
	toks := scanAll(t, "text: >\n  normal\n    indented\n  normal again\n")
	var scalar Token
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			scalar = tok
		}
	}
	assert.Equal(t, "normal\n  indented\nnormal again\n", scalar.Value)
}

func TestScanLeadingBOMIsSkippedNotScannedAsScalar(t *testing.T) {
	toks := scanAll(t, "\uFEFF- 0\n")
	got := tokenTypes(toks)
	want := []TokenType{
		StreamStartToken,
		BlockSequenceStartToken,
		BlockEntryToken, ScalarToken,
		BlockEndToken,
		StreamEndToken,
	}
	assert.DeepEqual(t, want, got)
	for _, tok := range toks {
		if tok.Type == ScalarToken {
			assert.Equal(t, "0", tok.Value)
		}
	}
}

func TestScanBOMAfterDocumentEndIsSkipped(t *testing.T) {
	s, err := NewSource(strings.NewReader("a: 1\n...\n\uFEFFb: 2\n"))
	assert.NoError(t, err)
	sc := NewScanner(s)
	var scalars []string
	for {
		tok, err := sc.Next()
		assert.NoError(t, err)
		if tok.Type == ScalarToken {
			scalars = append(scalars, tok.Value)
		}
		if tok.Type == StreamEndToken {
			break
		}
	}
	assert.DeepEqual(t, []string{"a", "1", "b", "2"}, scalars)
}

func TestScanMidDocumentBOMIsEncodingError(t *testing.T) {
	s, err := NewSource(strings.NewReader("k: v\uFEFFw\n"))
	assert.NoError(t, err)
	sc := NewScanner(s)
	var err2 error
	for {
		_, err2 = sc.Next()
		if err2 != nil {
			break
		}
	}
	assert.NotNil(t, err2)
	var encErr *EncodingError
	assert.ErrorAs(t, err2, &encErr)
}
