// Copyright 2025 The goyaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

// Parser: a grammar-driven state machine that consumes Scanner tokens and
// produces the Event stream the loader composes into value trees. State
// names and transitions follow the classic libyaml design (explicit state
// stack rather than recursion, so arbitrarily nested flow/block
// collections do not grow the Go call stack).

package engine

import "fmt"

type parserState int

const (
	stateStreamStart parserState = iota
	stateImplicitDocumentStart
	stateDocumentStart
	stateDocumentContent
	stateDocumentEnd
	stateBlockNode
	stateBlockNodeOrIndentlessSequence
	stateFlowNode
	stateBlockSequenceFirstEntry
	stateBlockSequenceEntry
	stateIndentlessSequenceEntry
	stateBlockMappingFirstKey
	stateBlockMappingKey
	stateBlockMappingValue
	stateFlowSequenceFirstEntry
	stateFlowSequenceEntry
	stateFlowSequenceEntryMappingKey
	stateFlowSequenceEntryMappingValue
	stateFlowSequenceEntryMappingEnd
	stateFlowMappingFirstKey
	stateFlowMappingKey
	stateFlowMappingValue
	stateFlowMappingEmptyValue
	stateEnd
)

const defaultTagHandle = "!!"
const defaultTagPrefix = "tag:yaml.org,2002:"

// Parser turns a token stream into an event stream.
type Parser struct {
	scanner *Scanner

	state  parserState
	states []parserState

	tagDirectives []TagDirective

	lookahead   *Token
	done        bool
}

// NewParser creates a Parser consuming tokens from scanner.
func NewParser(scanner *Scanner) *Parser {
	return &Parser{scanner: scanner, state: stateStreamStart}
}

func (p *Parser) push(s parserState) { p.states = append(p.states, s) }

func (p *Parser) pop() parserState {
	n := len(p.states) - 1
	s := p.states[n]
	p.states = p.states[:n]
	return s
}

func (p *Parser) peekToken() (Token, error) {
	if p.lookahead == nil {
		tok, err := p.scanner.Peek()
		if err != nil {
			return Token{}, err
		}
		p.lookahead = &tok
	}
	return *p.lookahead, nil
}

func (p *Parser) nextToken() (Token, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Token{}, err
	}
	p.lookahead = nil
	if _, err := p.scanner.Next(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) expect(typ TokenType, context string) (Token, error) {
	tok, err := p.nextToken()
	if err != nil {
		return Token{}, err
	}
	if tok.Type != typ {
		return Token{}, NewParseErrorContext(context, tok.StartMark, tok.StartMark,
			fmt.Sprintf("did not find expected %s", typ))
	}
	return tok, nil
}

// Next produces the next event, or an error. Once StreamEndEvent has been
// returned, further calls return NoEvent, nil.
func (p *Parser) Next() (Event, error) {
	if p.done {
		return Event{Type: NoEvent}, nil
	}
	ev, err := p.step()
	if err != nil {
		p.done = true
		return Event{}, err
	}
	if ev.Type == StreamEndEvent {
		p.done = true
	}
	return ev, nil
}

func (p *Parser) step() (Event, error) {
	switch p.state {
	case stateStreamStart:
		return p.parseStreamStart()
	case stateImplicitDocumentStart:
		return p.parseDocumentStart(true)
	case stateDocumentStart:
		return p.parseDocumentStart(false)
	case stateDocumentContent:
		return p.parseDocumentContent()
	case stateDocumentEnd:
		return p.parseDocumentEnd()
	case stateBlockNode:
		return p.parseNode(true, false)
	case stateBlockNodeOrIndentlessSequence:
		return p.parseNode(true, true)
	case stateFlowNode:
		return p.parseNode(false, false)
	case stateBlockSequenceFirstEntry:
		if _, err := p.nextToken(); err != nil { // consume BLOCK_SEQUENCE_START
			return Event{}, err
		}
		return p.parseBlockSequenceEntry(true)
	case stateBlockSequenceEntry:
		return p.parseBlockSequenceEntry(false)
	case stateIndentlessSequenceEntry:
		return p.parseIndentlessSequenceEntry()
	case stateBlockMappingFirstKey:
		if _, err := p.nextToken(); err != nil { // consume BLOCK_MAPPING_START
			return Event{}, err
		}
		return p.parseBlockMappingKey(true)
	case stateBlockMappingKey:
		return p.parseBlockMappingKey(false)
	case stateBlockMappingValue:
		return p.parseBlockMappingValue()
	case stateFlowSequenceFirstEntry:
		if _, err := p.nextToken(); err != nil { // consume FLOW_SEQUENCE_START
			return Event{}, err
		}
		return p.parseFlowSequenceEntry(true)
	case stateFlowSequenceEntry:
		return p.parseFlowSequenceEntry(false)
	case stateFlowSequenceEntryMappingKey:
		return p.parseFlowSequenceEntryMappingKey()
	case stateFlowSequenceEntryMappingValue:
		return p.parseFlowSequenceEntryMappingValue()
	case stateFlowSequenceEntryMappingEnd:
		return p.parseFlowSequenceEntryMappingEnd()
	case stateFlowMappingFirstKey:
		if _, err := p.nextToken(); err != nil { // consume FLOW_MAPPING_START
			return Event{}, err
		}
		return p.parseFlowMappingKey(true)
	case stateFlowMappingKey:
		return p.parseFlowMappingKey(false)
	case stateFlowMappingValue:
		return p.parseFlowMappingValue(false)
	case stateFlowMappingEmptyValue:
		return p.parseFlowMappingValue(true)
	case stateEnd:
		return Event{Type: StreamEndEvent}, nil
	}
	return Event{}, fmt.Errorf("yaml: internal error: unknown parser state %d", p.state)
}

func (p *Parser) parseStreamStart() (Event, error) {
	tok, err := p.expect(StreamStartToken, "")
	if err != nil {
		return Event{}, err
	}
	p.state = stateImplicitDocumentStart
	return Event{Type: StreamStartEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
}

// parseDocumentStart handles both the implicit (no leading "---") and
// explicit document-start positions.
func (p *Parser) parseDocumentStart(implicit bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}

	if implicit {
		if tok.Type == StreamEndToken {
			t, err := p.nextToken()
			if err != nil {
				return Event{}, err
			}
			p.state = stateEnd
			return Event{Type: StreamEndEvent, StartMark: t.StartMark, EndMark: t.EndMark}, nil
		}
		if tok.Type != DocumentStartToken && tok.Type != VersionDirectiveToken && tok.Type != TagDirectiveToken {
			// bare content with no directives or explicit marker
			p.tagDirectives = defaultTagDirectives()
			p.states = append(p.states, stateDocumentEnd)
			p.state = stateBlockNode
			return Event{Type: DocumentStartEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, DocumentImplicit: true}, nil
		}
	} else {
		if tok.Type == StreamEndToken {
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			p.state = stateEnd
			return Event{Type: StreamEndEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
		}
	}

	start := tok.StartMark
	var versionMajor, versionMinor int
	hasVersion := false
	var directives []TagDirective
	for {
		tok, err = p.peekToken()
		if err != nil {
			return Event{}, err
		}
		if tok.Type == VersionDirectiveToken {
			if hasVersion {
				return Event{}, NewParseError(tok.StartMark, "found duplicate %YAML directive")
			}
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			versionMajor, versionMinor, hasVersion = tok.VersionMajor, tok.VersionMinor, true
			continue
		}
		if tok.Type == TagDirectiveToken {
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			for _, d := range directives {
				if d.Handle == tok.Handle {
					return Event{}, NewParseError(tok.StartMark, "found duplicate %TAG directive")
				}
			}
			directives = append(directives, TagDirective{Handle: tok.Handle, Prefix: tok.Suffix})
			continue
		}
		break
	}
	p.tagDirectives = append(defaultTagDirectives(), directives...)

	explicit := false
	if tok.Type == DocumentStartToken {
		explicit = true
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
	} else if len(directives) > 0 || hasVersion {
		return Event{}, NewParseError(tok.StartMark, "did not find expected '---' indicator")
	}

	p.push(stateDocumentEnd)
	p.state = stateDocumentContent
	return Event{
		Type: DocumentStartEvent, StartMark: start, EndMark: tok.StartMark,
		VersionMajor: versionMajor, VersionMinor: versionMinor, HasVersionDirective: hasVersion,
		TagDirectives: directives, DocumentImplicit: !explicit,
	}, nil
}

func defaultTagDirectives() []TagDirective {
	return []TagDirective{
		{Handle: "!", Prefix: "!"},
		{Handle: defaultTagHandle, Prefix: defaultTagPrefix},
	}
}

func (p *Parser) parseDocumentContent() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	switch tok.Type {
	case VersionDirectiveToken, TagDirectiveToken, DocumentStartToken, DocumentEndToken, StreamEndToken:
		// A document with no content at all resolves to a null scalar.
		p.state = p.pop()
		return Event{Type: ScalarEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, TagImplicit: true}, nil
	}
	p.state = stateBlockNode
	return p.parseNode(true, false)
}

func (p *Parser) parseDocumentEnd() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	start := tok.StartMark
	explicit := false
	if tok.Type == DocumentEndToken {
		explicit = true
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
	}
	p.state = stateDocumentStart
	return Event{Type: DocumentEndEvent, StartMark: start, EndMark: start, DocumentImplicit: !explicit}, nil
}

// parseNode parses a node (scalar, alias, or nested collection), dispatched
// from a block or flow context, optionally allowing an indentless sequence.
func (p *Parser) parseNode(block, indentlessSequence bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}

	if tok.Type == AliasToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		p.state = p.pop()
		return Event{Type: AliasEvent, StartMark: tok.StartMark, EndMark: tok.EndMark, Anchor: tok.Value}, nil
	}

	start := tok.StartMark
	var anchor string
	var tagHandle, tagSuffix string
	haveTag := false
	for {
		tok, err = p.peekToken()
		if err != nil {
			return Event{}, err
		}
		if tok.Type == AnchorToken {
			if anchor != "" {
				return Event{}, NewParseError(tok.StartMark, "found duplicate anchor")
			}
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			anchor = tok.Value
			continue
		}
		if tok.Type == TagToken {
			if haveTag {
				return Event{}, NewParseError(tok.StartMark, "found duplicate tag")
			}
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			tagHandle, tagSuffix, haveTag = tok.Handle, tok.Suffix, true
			continue
		}
		break
	}

	tag, tagImplicit, err := p.resolveTag(tagHandle, tagSuffix, haveTag, tok.StartMark)
	if err != nil {
		return Event{}, err
	}

	switch tok.Type {
	case ScalarToken:
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		p.state = p.pop()
		return Event{
			Type: ScalarEvent, StartMark: start, EndMark: tok.EndMark,
			Anchor: anchor, Tag: tag, TagImplicit: tagImplicit,
			Value: tok.Value, ScalarStyle: tok.Style,
		}, nil
	case FlowSequenceStartToken:
		p.state = stateFlowSequenceFirstEntry
		return Event{Type: SequenceStartEvent, StartMark: start, EndMark: tok.EndMark, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, CollectionStyle: FlowCollectionStyle}, nil
	case FlowMappingStartToken:
		p.state = stateFlowMappingFirstKey
		return Event{Type: MappingStartEvent, StartMark: start, EndMark: tok.EndMark, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, CollectionStyle: FlowCollectionStyle}, nil
	case BlockSequenceStartToken:
		if !block {
			return Event{}, NewParseError(tok.StartMark, "block sequence not allowed in flow context")
		}
		p.state = stateBlockSequenceFirstEntry
		return Event{Type: SequenceStartEvent, StartMark: start, EndMark: tok.EndMark, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, CollectionStyle: BlockCollectionStyle}, nil
	case BlockEntryToken:
		if !indentlessSequence {
			return Event{}, NewParseError(tok.StartMark, "found unexpected block entry")
		}
		p.state = stateIndentlessSequenceEntry
		return Event{Type: SequenceStartEvent, StartMark: start, EndMark: tok.EndMark, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, CollectionStyle: BlockCollectionStyle}, nil
	case BlockMappingStartToken:
		if !block {
			return Event{}, NewParseError(tok.StartMark, "block mapping not allowed in flow context")
		}
		p.state = stateBlockMappingFirstKey
		return Event{Type: MappingStartEvent, StartMark: start, EndMark: tok.EndMark, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, CollectionStyle: BlockCollectionStyle}, nil
	default:
		if anchor != "" || haveTag {
			p.state = p.pop()
			return Event{Type: ScalarEvent, StartMark: start, EndMark: start, Anchor: anchor, Tag: tag, TagImplicit: tagImplicit, ScalarStyle: PlainScalarStyle}, nil
		}
		return Event{}, NewParseErrorContext("while parsing a node", start, tok.StartMark, "did not find expected node content")
	}
}

// resolveTag expands a handle+suffix pair against the active %TAG
// directives into a full tag URI. When no tag was written, it reports
// tagImplicit = true and an empty tag, leaving classification to the
// schema resolver.
func (p *Parser) resolveTag(handle, suffix string, have bool, mark Mark) (tag string, tagImplicit bool, err error) {
	if !have {
		return "", true, nil
	}
	if handle == "" {
		return suffix, false, nil // verbatim "!<...>" tag
	}
	for _, d := range p.tagDirectives {
		if d.Handle == handle {
			return d.Prefix + suffix, false, nil
		}
	}
	return "", false, NewParseError(mark, fmt.Sprintf("found undefined tag handle %q", handle))
}

func (p *Parser) parseBlockSequenceEntry(first bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type == BlockEntryToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		nextTok, err := p.peekToken()
		if err != nil {
			return Event{}, err
		}
		if nextTok.Type != BlockEntryToken && nextTok.Type != BlockEndToken {
			p.push(stateBlockSequenceEntry)
			return p.parseNode(true, true)
		}
		// "- " with nothing else on the line: an empty (null) entry.
		p.state = stateBlockSequenceEntry
		return Event{Type: ScalarEvent, StartMark: nextTok.StartMark, EndMark: nextTok.StartMark, TagImplicit: true}, nil
	}
	if tok.Type != BlockEndToken {
		return Event{}, NewParseErrorContext("while parsing a block collection", tok.StartMark, tok.StartMark, "did not find expected '-' indicator")
	}
	if _, err := p.nextToken(); err != nil {
		return Event{}, err
	}
	p.state = p.pop()
	return Event{Type: SequenceEndEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
}

func (p *Parser) parseIndentlessSequenceEntry() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type != BlockEntryToken {
		p.state = p.pop()
		return Event{Type: SequenceEndEvent, StartMark: tok.StartMark, EndMark: tok.StartMark}, nil
	}
	if _, err := p.nextToken(); err != nil {
		return Event{}, err
	}
	nextTok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	switch nextTok.Type {
	case BlockEntryToken, KeyToken, ValueToken, BlockEndToken:
		p.state = stateIndentlessSequenceEntry
		return p.parseNode(true, true)
	}
	p.push(stateIndentlessSequenceEntry)
	return p.parseNode(true, true)
}

func (p *Parser) parseBlockMappingKey(first bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type == KeyToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		nextTok, err := p.peekToken()
		if err != nil {
			return Event{}, err
		}
		switch nextTok.Type {
		case KeyToken, ValueToken, BlockEndToken:
			p.state = stateBlockMappingValue
			return p.parseNode(true, true)
		}
		p.push(stateBlockMappingValue)
		return p.parseNode(true, true)
	}
	if tok.Type != BlockEndToken {
		return Event{}, NewParseErrorContext("while parsing a block mapping", tok.StartMark, tok.StartMark, "did not find expected key")
	}
	if _, err := p.nextToken(); err != nil {
		return Event{}, err
	}
	p.state = p.pop()
	return Event{Type: MappingEndEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
}

func (p *Parser) parseBlockMappingValue() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type == ValueToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		nextTok, err := p.peekToken()
		if err != nil {
			return Event{}, err
		}
		switch nextTok.Type {
		case KeyToken, ValueToken, BlockEndToken:
			p.state = stateBlockMappingKey
			return p.parseNode(true, true)
		}
		p.push(stateBlockMappingKey)
		return p.parseNode(true, true)
	}
	p.state = stateBlockMappingKey
	return p.parseNode(true, true)
}

func (p *Parser) parseFlowSequenceEntry(first bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type != FlowSequenceEndToken {
		if !first {
			if tok.Type == FlowEntryToken {
				if _, err := p.nextToken(); err != nil {
					return Event{}, err
				}
				tok, err = p.peekToken()
				if err != nil {
					return Event{}, err
				}
			} else {
				return Event{}, NewParseErrorContext("while parsing a flow sequence", tok.StartMark, tok.StartMark, "did not find expected ',' or ']'")
			}
		}
		if tok.Type == KeyToken {
			p.state = stateFlowSequenceEntryMappingKey
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			return Event{Type: MappingStartEvent, StartMark: tok.StartMark, EndMark: tok.EndMark, CollectionStyle: FlowCollectionStyle}, nil
		}
		if tok.Type != FlowSequenceEndToken {
			p.push(stateFlowSequenceEntry)
			return p.parseNode(false, false)
		}
	}
	if _, err := p.nextToken(); err != nil {
		return Event{}, err
	}
	p.state = p.pop()
	return Event{Type: SequenceEndEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
}

func (p *Parser) parseFlowSequenceEntryMappingKey() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	switch tok.Type {
	case ValueToken, FlowEntryToken, FlowSequenceEndToken:
		p.state = stateFlowSequenceEntryMappingValue
		return Event{Type: ScalarEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, TagImplicit: true}, nil
	}
	p.push(stateFlowSequenceEntryMappingValue)
	return p.parseNode(false, false)
}

func (p *Parser) parseFlowSequenceEntryMappingValue() (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type == ValueToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		nextTok, err := p.peekToken()
		if err != nil {
			return Event{}, err
		}
		switch nextTok.Type {
		case FlowEntryToken, FlowSequenceEndToken:
			p.state = stateFlowSequenceEntryMappingEnd
			return Event{Type: ScalarEvent, StartMark: nextTok.StartMark, EndMark: nextTok.StartMark, TagImplicit: true}, nil
		}
		p.push(stateFlowSequenceEntryMappingEnd)
		return p.parseNode(false, false)
	}
	p.state = stateFlowSequenceEntryMappingEnd
	return Event{Type: ScalarEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, TagImplicit: true}, nil
}

func (p *Parser) parseFlowSequenceEntryMappingEnd() (Event, error) {
	p.state = stateFlowSequenceEntry
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	return Event{Type: MappingEndEvent, StartMark: tok.StartMark, EndMark: tok.StartMark}, nil
}

func (p *Parser) parseFlowMappingKey(first bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if tok.Type != FlowMappingEndToken {
		if !first {
			if tok.Type == FlowEntryToken {
				if _, err := p.nextToken(); err != nil {
					return Event{}, err
				}
				tok, err = p.peekToken()
				if err != nil {
					return Event{}, err
				}
			} else {
				return Event{}, NewParseErrorContext("while parsing a flow mapping", tok.StartMark, tok.StartMark, "did not find expected ',' or '}'")
			}
		}
		switch tok.Type {
		case KeyToken:
			if _, err := p.nextToken(); err != nil {
				return Event{}, err
			}
			nextTok, err := p.peekToken()
			if err != nil {
				return Event{}, err
			}
			switch nextTok.Type {
			case ValueToken, FlowEntryToken, FlowMappingEndToken:
				p.state = stateFlowMappingValue
				return Event{Type: ScalarEvent, StartMark: nextTok.StartMark, EndMark: nextTok.StartMark, TagImplicit: true}, nil
			}
			p.push(stateFlowMappingValue)
			return p.parseNode(false, false)
		case FlowMappingEndToken:
		default:
			p.push(stateFlowMappingEmptyValue)
			return p.parseNode(false, false)
		}
	}
	if _, err := p.nextToken(); err != nil {
		return Event{}, err
	}
	p.state = p.pop()
	return Event{Type: MappingEndEvent, StartMark: tok.StartMark, EndMark: tok.EndMark}, nil
}

func (p *Parser) parseFlowMappingValue(empty bool) (Event, error) {
	tok, err := p.peekToken()
	if err != nil {
		return Event{}, err
	}
	if empty {
		p.state = stateFlowMappingKey
		return Event{Type: ScalarEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, TagImplicit: true}, nil
	}
	if tok.Type == ValueToken {
		if _, err := p.nextToken(); err != nil {
			return Event{}, err
		}
		nextTok, err := p.peekToken()
		if err != nil {
			return Event{}, err
		}
		switch nextTok.Type {
		case FlowEntryToken, FlowMappingEndToken:
			p.state = stateFlowMappingKey
			return Event{Type: ScalarEvent, StartMark: nextTok.StartMark, EndMark: nextTok.StartMark, TagImplicit: true}, nil
		}
		p.push(stateFlowMappingKey)
		return p.parseNode(false, false)
	}
	p.state = stateFlowMappingKey
	return Event{Type: ScalarEvent, StartMark: tok.StartMark, EndMark: tok.StartMark, TagImplicit: true}, nil
}
