// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Scanner tokenizes a character stream while tracking indentation,
// flow/block context, and pending simple-key positions: the classic
// fetch/roll-indent/simple-key tokenizer design, adapted to the
// rune-based Source and the Token shape defined in token.go.

package engine

import (
	"strconv"
	"strings"
)

// maxSimpleKeyLength bounds how long a single-line plain scalar may be
// while still being considered a candidate mapping key.
const maxSimpleKeyLength = 1024

// maxAnchorNameLength bounds anchor/alias names.
const maxAnchorNameLength = 1024

// maxIndentDepth bounds the indentation stack. Chosen generously; real
// documents never approach it.
const maxIndentDepth = 10000

type pendingSimpleKey struct {
	possible    bool
	required    bool
	tokenNumber int
	mark        Mark
}

// Scanner produces YAML tokens on demand from a Source.
type Scanner struct {
	src *Source

	pending       []Token
	tokensEmitted int

	streamStartProduced bool
	streamEndProduced   bool

	simpleKeyAllowed bool
	simpleKeys       []pendingSimpleKey

	indent  int
	indents []int

	flowLevel int

	err error
}

// NewScanner creates a Scanner reading from src.
func NewScanner(src *Source) *Scanner {
	return &Scanner{
		src:              src,
		indent:           -1,
		simpleKeys:       []pendingSimpleKey{{}},
		simpleKeyAllowed: true,
	}
}

// Next returns the next token, or the first error encountered. Once an
// error has been returned, every subsequent call returns the same error.
func (s *Scanner) Next() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if err := s.fetchMoreTokens(); err != nil {
		s.err = err
		return Token{}, err
	}
	tok := s.pending[0]
	s.pending = s.pending[1:]
	s.tokensEmitted++
	return tok, nil
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	if err := s.fetchMoreTokens(); err != nil {
		s.err = err
		return Token{}, err
	}
	return s.pending[0], nil
}

// insertToken inserts tok at absolute queue position pos (pos == -1 means
// append). Mirrors yaml_insert_token in the teacher lineage.
func (s *Scanner) insertToken(pos int, tok Token) {
	if pos < 0 {
		s.pending = append(s.pending, tok)
		return
	}
	rel := pos - s.tokensEmitted
	s.pending = append(s.pending, Token{})
	copy(s.pending[rel+1:], s.pending[rel:])
	s.pending[rel] = tok
}

func (s *Scanner) lastSimpleKey() *pendingSimpleKey {
	return &s.simpleKeys[len(s.simpleKeys)-1]
}

// fetchMoreTokens runs the fetch loop until the queue holds at least one
// token that is not also a live simple-key candidate position.
func (s *Scanner) fetchMoreTokens() error {
	for {
		if len(s.pending) == 0 {
			if err := s.fetchNextToken(); err != nil {
				return err
			}
			continue
		}
		if err := s.staleSimpleKeys(); err != nil {
			return err
		}
		needMore := false
		for i := range s.simpleKeys {
			k := &s.simpleKeys[i]
			if k.possible && k.tokenNumber == s.tokensEmitted {
				needMore = true
				break
			}
		}
		if !needMore {
			return nil
		}
		if err := s.fetchNextToken(); err != nil {
			return err
		}
	}
}

// fetchNextToken is the token-kind dispatcher (spec.md §4.2 "Token
// production rules").
func (s *Scanner) fetchNextToken() error {
	if !s.streamStartProduced {
		return s.fetchStreamStart()
	}
	if err := s.scanToNextToken(); err != nil {
		return err
	}
	if err := s.staleSimpleKeys(); err != nil {
		return err
	}
	if err := s.unrollIndent(s.src.Mark().Column); err != nil {
		return err
	}

	if s.src.Eof() {
		return s.fetchStreamEnd()
	}

	mark := s.src.Mark()
	c := s.src.Peek(0)

	if mark.Column == 0 && c == '%' {
		return s.fetchDirective()
	}
	if mark.Column == 0 && c == '-' && s.src.Peek(1) == '-' && s.src.Peek(2) == '-' && isBlankZ(s.src.Peek(3)) {
		return s.fetchDocumentIndicator(DocumentStartToken)
	}
	if mark.Column == 0 && c == '.' && s.src.Peek(1) == '.' && s.src.Peek(2) == '.' && isBlankZ(s.src.Peek(3)) {
		return s.fetchDocumentIndicator(DocumentEndToken)
	}

	switch c {
	case '[':
		return s.fetchFlowCollectionStart(FlowSequenceStartToken)
	case '{':
		return s.fetchFlowCollectionStart(FlowMappingStartToken)
	case ']':
		return s.fetchFlowCollectionEnd(FlowSequenceEndToken)
	case '}':
		return s.fetchFlowCollectionEnd(FlowMappingEndToken)
	case ',':
		return s.fetchFlowEntry()
	}
	if c == '-' && isBlankZ(s.src.Peek(1)) {
		return s.fetchBlockEntry()
	}
	if c == '?' && (s.flowLevel > 0 || isBlankZ(s.src.Peek(1))) {
		return s.fetchKey()
	}
	if c == ':' && (s.flowLevel > 0 || isBlankZ(s.src.Peek(1))) {
		return s.fetchValue()
	}
	switch c {
	case '*':
		return s.fetchAnchor(AliasToken)
	case '&':
		return s.fetchAnchor(AnchorToken)
	case '!':
		return s.fetchTag()
	case '|':
		if s.flowLevel == 0 {
			return s.fetchBlockScalar(true)
		}
	case '>':
		if s.flowLevel == 0 {
			return s.fetchBlockScalar(false)
		}
	case '\'':
		return s.fetchFlowScalar(true)
	case '"':
		return s.fetchFlowScalar(false)
	}

	if s.plainScalarMayStart(c) {
		return s.fetchPlainScalar()
	}
	return NewScanError(mark, "found character that cannot start any token")
}

func (s *Scanner) plainScalarMayStart(c rune) bool {
	forbidden := "-?:,[]{}#&*!|>'\"%@`"
	if isBlankZ(c) || strings.ContainsRune(forbidden, c) {
		if c == '-' && !isBlank(s.src.Peek(1)) {
			return true
		}
		if s.flowLevel == 0 && (c == '?' || c == ':') && !isBlankZ(s.src.Peek(1)) {
			return true
		}
		return false
	}
	return true
}

// --- character classes -----------------------------------------------

func isBlank(c rune) bool  { return c == ' ' || c == '\t' }
func isBreak(c rune) bool  { return c == '\n' }
func isBlankZ(c rune) bool { return isBlank(c) || isBreak(c) || c == 0 }

// --- indentation & simple keys ------------------------------------------

func (s *Scanner) staleSimpleKeys() error {
	mark := s.src.Mark()
	for i := range s.simpleKeys {
		k := &s.simpleKeys[i]
		if k.possible && (k.mark.Line < mark.Line || mark.Index-k.mark.Index > maxSimpleKeyLength) {
			if k.required {
				return NewScanError(k.mark, "could not find expected ':'")
			}
			k.possible = false
		}
	}
	return nil
}

func (s *Scanner) saveSimpleKey() error {
	mark := s.src.Mark()
	required := s.flowLevel == 0 && s.indent == mark.Column
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	if s.simpleKeyAllowed {
		*s.lastSimpleKey() = pendingSimpleKey{
			possible:    true,
			required:    required,
			tokenNumber: s.tokensEmitted + len(s.pending),
			mark:        mark,
		}
	}
	return nil
}

func (s *Scanner) removeSimpleKey() error {
	k := s.lastSimpleKey()
	if k.possible && k.required {
		return NewScanError(k.mark, "could not find expected ':'")
	}
	k.possible = false
	return nil
}

func (s *Scanner) increaseFlowLevel() {
	s.simpleKeys = append(s.simpleKeys, pendingSimpleKey{})
	s.flowLevel++
}

func (s *Scanner) decreaseFlowLevel() {
	if s.flowLevel > 0 {
		s.flowLevel--
		s.simpleKeys = s.simpleKeys[:len(s.simpleKeys)-1]
	}
}

// rollIndent pushes a new indentation level and inserts the given token at
// queue position number if column is strictly greater than the current
// indent. No-op in flow context (spec.md §4.2 "BlockSequenceStart"/
// "BlockMappingStart" triggers).
func (s *Scanner) rollIndent(column, number int, typ TokenType, mark Mark) error {
	if s.flowLevel > 0 {
		return nil
	}
	if s.indent < column {
		if len(s.indents) >= maxIndentDepth {
			return NewScanError(mark, "indentation stack depth exceeded")
		}
		s.indents = append(s.indents, s.indent)
		s.indent = column
		tok := Token{Type: typ, StartMark: mark, EndMark: mark}
		if number < 0 {
			s.insertToken(-1, tok)
		} else {
			s.insertToken(number, tok)
		}
	}
	return nil
}

// unrollIndent pops indentation levels, each with a matching BlockEnd, down
// to (not below) column. No-op in flow context.
func (s *Scanner) unrollIndent(column int) error {
	if s.flowLevel > 0 {
		return nil
	}
	mark := s.src.Mark()
	for s.indent > column {
		s.pending = append(s.pending, Token{Type: BlockEndToken, StartMark: mark, EndMark: mark})
		s.indent = s.indents[len(s.indents)-1]
		s.indents = s.indents[:len(s.indents)-1]
	}
	return nil
}

// --- whitespace / comments ------------------------------------------------

func (s *Scanner) skip() error { return s.src.Advance() }

// scanToNextToken skips a leading byte-order mark, blanks, comments, and
// line breaks until the next significant character, maintaining simple-key
// eligibility across lines. A BOM is only legal at a document boundary;
// Source.Advance reports an encoding error if one turns up mid-document, so
// skip's error is propagated rather than discarded.
func (s *Scanner) scanToNextToken() error {
	for {
		for isBlank(s.src.Peek(0)) {
			if err := s.skip(); err != nil {
				return err
			}
		}
		if s.src.Peek(0) == bomRune {
			if err := s.skip(); err != nil {
				return err
			}
			continue
		}
		if s.src.Peek(0) == '#' {
			for !isBreak(s.src.Peek(0)) && s.src.Peek(0) != 0 {
				if err := s.skip(); err != nil {
					return err
				}
			}
		}
		if isBreak(s.src.Peek(0)) {
			if err := s.skip(); err != nil {
				return err
			}
			if s.flowLevel == 0 {
				s.simpleKeyAllowed = true
			}
			continue
		}
		break
	}
	return nil
}

// --- stream start/end, directives, document indicators -------------------

func (s *Scanner) fetchStreamStart() error {
	s.streamStartProduced = true
	s.simpleKeyAllowed = true
	mark := s.src.Mark()
	s.insertToken(-1, Token{Type: StreamStartToken, StartMark: mark, EndMark: mark})
	return nil
}

func (s *Scanner) fetchStreamEnd() error {
	if err := s.unrollIndent(-1); err != nil {
		return err
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	s.streamEndProduced = true
	mark := s.src.Mark()
	s.insertToken(-1, Token{Type: StreamEndToken, StartMark: mark, EndMark: mark})
	return nil
}

func (s *Scanner) fetchDirective() error {
	if err := s.unrollIndent(-1); err != nil {
		return err
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	tok, ok, err := s.scanDirective()
	if err != nil {
		return err
	}
	if ok {
		s.insertToken(-1, tok)
	}
	return nil
}

// scanDirective scans a %YAML or %TAG directive into a token. Any other
// directive name is reserved by the spec and is skipped without producing
// a token, which scanDirective reports via ok=false.
func (s *Scanner) scanDirective() (Token, bool, error) {
	start := s.src.Mark()
	if err := s.skip(); err != nil { // '%'
		return Token{}, false, err
	}
	name, err := s.scanDirectiveName()
	if err != nil {
		return Token{}, false, err
	}
	switch name {
	case "YAML":
		tok, err := s.scanVersionDirectiveValue(start)
		return tok, true, err
	case "TAG":
		tok, err := s.scanTagDirectiveValue(start)
		return tok, true, err
	default:
		if err := s.skipRestOfLine(); err != nil {
			return Token{}, false, err
		}
		return Token{}, false, nil
	}
}

func (s *Scanner) scanDirectiveName() (string, error) {
	var b strings.Builder
	for isAlnum(s.src.Peek(0)) {
		b.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (s *Scanner) scanVersionDirectiveValue(start Mark) (Token, error) {
	if err := s.skipBlanks(); err != nil {
		return Token{}, err
	}
	major, err := s.scanVersionNumber()
	if err != nil {
		return Token{}, err
	}
	if s.src.Peek(0) != '.' {
		return Token{}, NewScanError(s.src.Mark(), "while scanning a %YAML directive, did not find expected digit or '.' character")
	}
	if err := s.skip(); err != nil {
		return Token{}, err
	}
	minor, err := s.scanVersionNumber()
	if err != nil {
		return Token{}, err
	}
	if major != 1 || (minor != 1 && minor != 2) {
		return Token{}, NewScanError(start, "found incompatible YAML document version")
	}
	if err := s.skipRestOfLine(); err != nil {
		return Token{}, err
	}
	return Token{Type: VersionDirectiveToken, StartMark: start, EndMark: s.src.Mark(), VersionMajor: major, VersionMinor: minor}, nil
}

func (s *Scanner) scanVersionNumber() (int, error) {
	var b strings.Builder
	for isDigit(s.src.Peek(0)) {
		b.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return 0, err
		}
	}
	if b.Len() == 0 {
		return 0, NewScanError(s.src.Mark(), "while scanning a version directive, did not find expected version number")
	}
	n, _ := strconv.Atoi(b.String())
	return n, nil
}

func (s *Scanner) scanTagDirectiveValue(start Mark) (Token, error) {
	if err := s.skipBlanks(); err != nil {
		return Token{}, err
	}
	handle, err := s.scanTagHandle(true)
	if err != nil {
		return Token{}, err
	}
	if err := s.skipBlanks(); err != nil {
		return Token{}, err
	}
	prefix, err := s.scanTagURI(true, "")
	if err != nil {
		return Token{}, err
	}
	if err := s.skipRestOfLine(); err != nil {
		return Token{}, err
	}
	return Token{Type: TagDirectiveToken, StartMark: start, EndMark: s.src.Mark(), Handle: handle, Suffix: prefix}, nil
}

func (s *Scanner) skipBlanks() error {
	for isBlank(s.src.Peek(0)) {
		if err := s.skip(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) skipRestOfLine() error {
	if err := s.skipBlanks(); err != nil {
		return err
	}
	if s.src.Peek(0) == '#' {
		for !isBreak(s.src.Peek(0)) && s.src.Peek(0) != 0 {
			if err := s.skip(); err != nil {
				return err
			}
		}
	}
	if isBreak(s.src.Peek(0)) {
		if err := s.skip(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) fetchDocumentIndicator(typ TokenType) error {
	if err := s.unrollIndent(-1); err != nil {
		return err
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.src.Mark()
	for i := 0; i < 3; i++ {
		if err := s.skip(); err != nil {
			return err
		}
	}
	s.insertToken(-1, Token{Type: typ, StartMark: start, EndMark: s.src.Mark()})
	if typ == DocumentEndToken {
		s.src.MarkDocumentBoundary()
	}
	return nil
}

// --- flow / block indicators ----------------------------------------------

func (s *Scanner) fetchFlowCollectionStart(typ TokenType) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.increaseFlowLevel()
	s.simpleKeyAllowed = true
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: typ, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

func (s *Scanner) fetchFlowCollectionEnd(typ TokenType) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.decreaseFlowLevel()
	s.simpleKeyAllowed = false
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: typ, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

func (s *Scanner) fetchFlowEntry() error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: FlowEntryToken, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

func (s *Scanner) fetchBlockEntry() error {
	mark := s.src.Mark()
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return NewScanError(mark, "block sequence entries are not allowed in this context")
		}
		if err := s.rollIndent(mark.Column, -1, BlockSequenceStartToken, mark); err != nil {
			return err
		}
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: BlockEntryToken, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

func (s *Scanner) fetchKey() error {
	mark := s.src.Mark()
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return NewScanError(mark, "mapping keys are not allowed in this context")
		}
		if err := s.rollIndent(mark.Column, -1, BlockMappingStartToken, mark); err != nil {
			return err
		}
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = s.flowLevel == 0
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: KeyToken, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

func (s *Scanner) fetchValue() error {
	k := s.lastSimpleKey()
	if k.possible {
		s.insertToken(k.tokenNumber, Token{Type: KeyToken, StartMark: k.mark, EndMark: k.mark})
		if err := s.rollIndent(k.mark.Column, k.tokenNumber, BlockMappingStartToken, k.mark); err != nil {
			return err
		}
		k.possible = false
		s.simpleKeyAllowed = false
	} else {
		if s.flowLevel == 0 {
			mark := s.src.Mark()
			if !s.simpleKeyAllowed {
				return NewScanError(mark, "mapping values are not allowed in this context")
			}
			if err := s.rollIndent(mark.Column, -1, BlockMappingStartToken, mark); err != nil {
				return err
			}
		}
		s.simpleKeyAllowed = s.flowLevel == 0
	}
	start := s.src.Mark()
	if err := s.skip(); err != nil {
		return err
	}
	s.insertToken(-1, Token{Type: ValueToken, StartMark: start, EndMark: s.src.Mark()})
	return nil
}

// --- anchors, aliases, tags ------------------------------------------------

func isAlnum(c rune) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '-'
}
func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (s *Scanner) fetchAnchor(typ TokenType) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.src.Mark()
	if err := s.skip(); err != nil { // '&' or '*'
		return err
	}
	var b strings.Builder
	for isAlnum(s.src.Peek(0)) {
		b.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return err
		}
		if b.Len() > maxAnchorNameLength {
			return NewScanError(start, "anchor name exceeds maximum length")
		}
	}
	if b.Len() == 0 {
		return NewScanError(start, "while scanning an anchor or alias, did not find expected alphabetic or numeric character")
	}
	s.insertToken(-1, Token{Type: typ, StartMark: start, EndMark: s.src.Mark(), Value: b.String()})
	return nil
}

func (s *Scanner) fetchTag() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	tok, err := s.scanTag()
	if err != nil {
		return err
	}
	s.insertToken(-1, tok)
	return nil
}

func (s *Scanner) scanTag() (Token, error) {
	start := s.src.Mark()
	if s.src.Peek(1) == '<' {
		if err := s.skip(); err != nil {
			return Token{}, err
		}
		if err := s.skip(); err != nil {
			return Token{}, err
		}
		uri, err := s.scanTagURI(false, "")
		if err != nil {
			return Token{}, err
		}
		if s.src.Peek(0) != '>' {
			return Token{}, NewScanError(s.src.Mark(), "while scanning a tag, did not find the expected '>'")
		}
		if err := s.skip(); err != nil {
			return Token{}, err
		}
		return Token{Type: TagToken, StartMark: start, EndMark: s.src.Mark(), Suffix: uri}, nil
	}
	handle, err := s.scanTagHandle(false)
	if err != nil {
		return Token{}, err
	}
	// Whatever tag-chars remain after the handle — "!!" (secondary), "!"
	// (primary/non-specific), or a named "!h!" handle — are the suffix.
	// Word characters read without a closing '!' ("!point") belong to the
	// suffix of the primary handle "!".
	head := ""
	if len(handle) > 1 && handle[len(handle)-1] != '!' {
		head, handle = handle[1:], "!"
	}
	suffix := head
	if s.src.Peek(0) != 0 && !isBlankZ(s.src.Peek(0)) {
		suffix, err = s.scanTagURI(false, head)
		if err != nil {
			return Token{}, err
		}
	}
	return Token{Type: TagToken, StartMark: start, EndMark: s.src.Mark(), Handle: handle, Suffix: suffix}, nil
}

func (s *Scanner) scanTagHandle(directive bool) (string, error) {
	start := s.src.Mark()
	if s.src.Peek(0) != '!' {
		return "", NewScanError(start, "while scanning a tag, did not find expected '!'")
	}
	var b strings.Builder
	b.WriteRune('!')
	if err := s.skip(); err != nil {
		return "", err
	}
	for isAlnum(s.src.Peek(0)) {
		b.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return "", err
		}
	}
	if s.src.Peek(0) == '!' {
		b.WriteRune('!')
		if err := s.skip(); err != nil {
			return "", err
		}
	} else if directive && b.String() != "!" {
		return "", NewScanError(start, "while scanning a tag directive, did not find expected '!'")
	}
	return b.String(), nil
}

func (s *Scanner) scanTagURI(directive bool, head string) (string, error) {
	var b strings.Builder
	b.WriteString(head)
	for isTagChar(s.src.Peek(0)) {
		if s.src.Peek(0) == '%' {
			esc, err := s.scanURIEscape()
			if err != nil {
				return "", err
			}
			b.WriteString(esc)
			continue
		}
		b.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return "", err
		}
	}
	if b.Len() == 0 {
		return "", NewScanError(s.src.Mark(), "while parsing a tag, did not find expected tag URI")
	}
	return b.String(), nil
}

func isTagChar(c rune) bool {
	if isBlankZ(c) || c == 0 {
		return false
	}
	switch c {
	case ',', '[', ']', '{', '}':
		return false
	}
	return c > 0x20
}

func (s *Scanner) scanURIEscape() (string, error) {
	var buf []byte
	for s.src.Peek(0) == '%' {
		if err := s.skip(); err != nil {
			return "", err
		}
		hi, ok1 := hexDigit(s.src.Peek(0))
		lo, ok2 := hexDigit(s.src.Peek(1))
		if !ok1 || !ok2 {
			return "", NewScanError(s.src.Mark(), "while parsing a tag, did not find URI escape sequence")
		}
		buf = append(buf, byte(hi<<4|lo))
		if err := s.skip(); err != nil {
			return "", err
		}
		if err := s.skip(); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}

func hexDigit(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// --- block scalars (literal '|' and folded '>') ---------------------------

func (s *Scanner) fetchBlockScalar(literal bool) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	tok, err := s.scanBlockScalar(literal)
	if err != nil {
		return err
	}
	s.insertToken(-1, tok)
	return nil
}

func (s *Scanner) scanBlockScalar(literal bool) (Token, error) {
	start := s.src.Mark()
	if err := s.skip(); err != nil { // '|' or '>'
		return Token{}, err
	}

	chompKeep, chompStrip := false, false
	increment := 0
	for i := 0; i < 2; i++ {
		switch s.src.Peek(0) {
		case '+':
			chompKeep = true
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		case '-':
			chompStrip = true
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			increment = int(s.src.Peek(0) - '0')
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		}
	}
	if err := s.skipBlanks(); err != nil {
		return Token{}, err
	}
	if s.src.Peek(0) == '#' {
		for !isBreak(s.src.Peek(0)) && s.src.Peek(0) != 0 {
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		}
	}
	if !isBreak(s.src.Peek(0)) && s.src.Peek(0) != 0 {
		return Token{}, NewScanError(s.src.Mark(), "while scanning a block scalar, did not find expected comment or line break")
	}
	if isBreak(s.src.Peek(0)) {
		if err := s.skip(); err != nil {
			return Token{}, err
		}
	}

	blockIndent := 0
	if increment > 0 {
		blockIndent = s.indentForBlockScalar() + increment
	}

	// lines holds one entry per physical line consumed, content or blank;
	// blank and moreIndented stay index-aligned with it so joinBlockLines
	// can see each line's own shape rather than a running break count.
	var lines []string
	var blank []bool
	var moreIndented []bool

	for {
		n := s.countLeadingSpaces()
		c := s.src.Peek(n)
		if c == 0 || isBreak(c) {
			for i := 0; i < n; i++ {
				if err := s.skip(); err != nil {
					return Token{}, err
				}
			}
			if c == 0 {
				break
			}
			if err := s.skip(); err != nil {
				return Token{}, err
			}
			lines = append(lines, "")
			blank = append(blank, true)
			moreIndented = append(moreIndented, false)
			continue
		}

		if blockIndent == 0 {
			blockIndent = n
		} else if n < blockIndent {
			break
		}

		for i := 0; i < blockIndent; i++ {
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		}
		var b strings.Builder
		for !isBreak(s.src.Peek(0)) && s.src.Peek(0) != 0 {
			b.WriteRune(s.src.Peek(0))
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		}
		lines = append(lines, b.String())
		blank = append(blank, false)
		moreIndented = append(moreIndented, n > blockIndent)

		if s.src.Peek(0) == 0 {
			break
		}
		if err := s.skip(); err != nil {
			return Token{}, err
		}
	}

	value := joinBlockLines(lines, blank, moreIndented, literal)
	switch {
	case chompStrip:
		value = strings.TrimRight(value, "\n")
	case chompKeep:
		// every physical line, blank or not, already contributed its own
		// break above; chomp-keep leaves them all in place.
	default:
		value = strings.TrimRight(value, "\n")
		if len(lines) > 0 {
			value += "\n"
		}
	}

	styleType := LiteralScalarStyle
	if !literal {
		styleType = FoldedScalarStyle
	}
	return Token{Type: ScalarToken, StartMark: start, EndMark: s.src.Mark(), Value: value, Style: styleType}, nil
}

// indentForBlockScalar reports the parent indentation that an explicit
// indentation indicator is added to: the innermost enclosing
// block-collection indent, or 0 at the top level.
func (s *Scanner) indentForBlockScalar() int {
	if s.indent < 0 {
		return 0
	}
	return s.indent
}

func (s *Scanner) countLeadingSpaces() int {
	n := 0
	for s.src.Peek(n) == ' ' {
		n++
	}
	return n
}

// joinBlockLines folds a block scalar's physical lines into a single
// string per spec §4.2.3. Every line (content or blank) contributes its
// own trailing break. Literal style (|) keeps all of them. Folded style
// (>) replaces the break between two adjacent, equally-indented content
// lines with a single space, but keeps the break literal whenever either
// side is a blank line or a line indented deeper than the scalar's own
// content indentation ("more-indented" lines are never folded with their
// neighbors).
func joinBlockLines(lines []string, blank, moreIndented []bool, literal bool) string {
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		last := i == len(lines)-1
		switch {
		case last:
			b.WriteByte('\n')
		case literal:
			b.WriteByte('\n')
		case blank[i] || blank[i+1] || moreIndented[i] || moreIndented[i+1]:
			b.WriteByte('\n')
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// --- flow scalars (single- and double-quoted) ------------------------------

func (s *Scanner) fetchFlowScalar(single bool) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	tok, err := s.scanFlowScalar(single)
	if err != nil {
		return err
	}
	s.insertToken(-1, tok)
	return nil
}

func (s *Scanner) scanFlowScalar(single bool) (Token, error) {
	start := s.src.Mark()
	s.src.SetInsideQuotedScalar(true)
	defer s.src.SetInsideQuotedScalar(false)
	quote := s.src.Peek(0)
	if err := s.skip(); err != nil {
		return Token{}, err
	}

	var b strings.Builder
	for {
		if s.src.Peek(0) == 0 {
			return Token{}, NewScanError(start, "while scanning a quoted scalar, found unexpected end of stream")
		}
		if s.src.Peek(0) == quote && !(single && quote == '\'' && s.src.Peek(1) == '\'') {
			break
		}
		switch {
		case single && s.src.Peek(0) == '\'' && s.src.Peek(1) == '\'':
			b.WriteByte('\'')
			if err := s.skip(); err != nil {
				return Token{}, err
			}
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		case !single && s.src.Peek(0) == '\\' && isBreak(s.src.Peek(1)):
			if err := s.skip(); err != nil {
				return Token{}, err
			}
			if err := s.skip(); err != nil {
				return Token{}, err
			}
			if err := s.skipFlowLineLeading(); err != nil {
				return Token{}, err
			}
		case !single && s.src.Peek(0) == '\\':
			esc, err := s.scanEscape(start)
			if err != nil {
				return Token{}, err
			}
			b.WriteString(esc)
		case isBlank(s.src.Peek(0)) || isBreak(s.src.Peek(0)):
			ws, breaks, err := s.scanLineFold()
			if err != nil {
				return Token{}, err
			}
			switch {
			case breaks == 0:
				b.WriteString(ws)
			case breaks == 1:
				b.WriteByte(' ')
			default:
				b.WriteString(strings.Repeat("\n", breaks-1))
			}
		default:
			b.WriteRune(s.src.Peek(0))
			if err := s.skip(); err != nil {
				return Token{}, err
			}
		}
	}
	if err := s.skip(); err != nil { // closing quote
		return Token{}, err
	}

	styleType := SingleQuotedScalarStyle
	if !single {
		styleType = DoubleQuotedScalarStyle
	}
	return Token{Type: ScalarToken, StartMark: start, EndMark: s.src.Mark(), Value: b.String(), Style: styleType}, nil
}

// scanLineFold consumes a maximal run of blanks and line breaks. If no
// break is seen, it returns the literal blanks with breaks == 0 — plain
// inline whitespace the caller should keep as-is. If one or more breaks
// are seen, ws is always "" (any blanks around a fold are discarded) and
// breaks reports how many: the caller folds exactly one break to a single
// space, and n breaks to n-1 literal newlines, per the line-folding rule
// shared by quoted and plain scalars.
func (s *Scanner) scanLineFold() (ws string, breaks int, err error) {
	var blanks strings.Builder
	for isBlank(s.src.Peek(0)) {
		blanks.WriteRune(s.src.Peek(0))
		if err := s.skip(); err != nil {
			return "", 0, err
		}
	}
	if !isBreak(s.src.Peek(0)) {
		return blanks.String(), 0, nil
	}
	for isBreak(s.src.Peek(0)) || isBlank(s.src.Peek(0)) {
		if isBreak(s.src.Peek(0)) {
			breaks++
		}
		if err := s.skip(); err != nil {
			return "", 0, err
		}
	}
	return "", breaks, nil
}

func (s *Scanner) skipFlowLineLeading() error {
	for isBlank(s.src.Peek(0)) {
		if err := s.skip(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) scanEscape(start Mark) (string, error) {
	if err := s.skip(); err != nil { // backslash
		return "", err
	}
	c := s.src.Peek(0)
	simple := map[rune]rune{
		'0': 0, 'a': '\a', 'b': '\b', 't': '\t', 'n': '\n', 'v': '\v',
		'f': '\f', 'r': '\r', 'e': 0x1B, ' ': ' ', '"': '"', '\\': '\\',
		'/': '/', 'N': 0x85, '_': 0xA0, 'L': 0x2028, 'P': 0x2029,
	}
	if r, ok := simple[c]; ok {
		if err := s.skip(); err != nil {
			return "", err
		}
		return string(r), nil
	}
	var width int
	switch c {
	case 'x':
		width = 2
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return "", NewScanError(start, "found unknown escape character")
	}
	if err := s.skip(); err != nil {
		return "", err
	}
	var v rune
	for i := 0; i < width; i++ {
		d, ok := hexDigit(s.src.Peek(0))
		if !ok {
			return "", NewScanError(start, "while parsing a quoted scalar, did not find expected hexadecimal number")
		}
		v = v<<4 | rune(d)
		if err := s.skip(); err != nil {
			return "", err
		}
	}
	return string(v), nil
}

// --- plain scalars ----------------------------------------------------------

func (s *Scanner) fetchPlainScalar() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	tok, err := s.scanPlainScalar()
	if err != nil {
		return err
	}
	s.insertToken(-1, tok)
	return nil
}

func (s *Scanner) scanPlainScalar() (Token, error) {
	start := s.src.Mark()
	indent := s.indent + 1

	var b strings.Builder
	pending := "" // whitespace or a line fold not yet committed to b; discarded if the scalar ends here
	spaceBefore := true // a scalar cannot start with blanks, but the boundary still counts for '#'

outer:
	for {
		if s.plainScalarBreaks() {
			break
		}
		for !isBlankZ(s.src.Peek(0)) {
			if s.src.Peek(0) == '#' && spaceBefore {
				break outer
			}
			if s.src.Peek(0) == ':' && isBlankZ(s.src.Peek(1)) {
				break outer
			}
			if s.flowLevel > 0 && strings.ContainsRune(",[]{}", s.src.Peek(0)) {
				break outer
			}
			if pending != "" {
				b.WriteString(pending)
				pending = ""
			}
			b.WriteRune(s.src.Peek(0))
			if err := s.skip(); err != nil {
				return Token{}, err
			}
			spaceBefore = false
		}

		ws, breaks, err := s.scanLineFold()
		if err != nil {
			return Token{}, err
		}
		spaceBefore = true
		if s.flowLevel == 0 && breaks > 0 && s.src.Mark().Column < indent {
			// The break just consumed ends the scalar rather than
			// continuing it onto the next line; it will not pass through
			// scanToNextToken, so restore simple-key eligibility here the
			// same way scanToNextToken would after skipping it.
			s.simpleKeyAllowed = true
			break
		}
		switch {
		case breaks == 0:
			pending = ws
		case breaks == 1:
			pending = " "
		default:
			pending = strings.Repeat("\n", breaks-1)
		}
	}

	return Token{Type: ScalarToken, StartMark: start, EndMark: s.src.Mark(), Value: b.String(), Style: PlainScalarStyle}, nil
}

func (s *Scanner) plainScalarBreaks() bool {
	c := s.src.Peek(0)
	return c == 0 || isBreak(c)
}
