// Package parser implements the WDL recursive-descent parser: single-token
// lookahead over the lexer's token buffer, with backtracking support for
// the few ambiguous constructs (spec.md 4.2).
package parser

import (
	"fmt"

	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// Parser holds a token buffer and a cursor; (save, restore) implement the
// backtracking the grammar needs for e.g. `(expr)` vs `(expr, expr)`.
type Parser struct {
	toks      []lexer.Token
	pos       int
	uri       string
	lx        *lexer.Lexer // non-nil on the document-level parser; used to resolve TCommandBlockRef
	nodeSeq   int
	scatterDepth int
}

func newParser(toks []lexer.Token, uri string, lx *lexer.Lexer) *Parser {
	return &Parser{toks: toks, uri: uri, lx: lx}
}

// ParseDocument lexes and parses a complete WDL source file.
func ParseDocument(source, uri string) (*ast.Document, error) {
	lx := lexer.New(source)
	toks, err := lx.Tokenize()
	if err != nil {
		return nil, &werrors.WDLError{Kind: werrors.KindSyntax, Message: err.Error()}
	}
	p := newParser(toks, uri, lx)
	return p.parseDocument()
}

func (p *Parser) save() int       { return p.pos }
func (p *Parser) restore(m int)   { p.pos = m }

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Type: lexer.TEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return lexer.Token{Type: lexer.TEOF}
	}
	return p.toks[idx]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(tt lexer.TokenType) bool { return p.cur().Type == tt }

func (p *Parser) pos2(t lexer.Token) *ast.Pos {
	return &ast.Pos{URI: p.uri, Line: t.Line, Col: t.Col, EndLine: t.Line, EndCol: t.Col}
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if !p.at(tt) {
		t := p.cur()
		return t, werrors.NewSyntaxError(p.pos2(t), "expected %s but found %s %q", tt, t.Type, t.Value)
	}
	return p.advance(), nil
}

func (p *Parser) nextNodeID(prefix string) string {
	p.nodeSeq++
	return fmt.Sprintf("%s-%d", prefix, p.nodeSeq)
}

// parseDocument parses `Document { version, imports, struct_typedefs,
// tasks, workflow? }` (spec.md 3.5).
func (p *Parser) parseDocument() (*ast.Document, error) {
	doc := &ast.Document{Pos: p.pos2(p.cur())}

	if _, err := p.expect(lexer.TVersion); err != nil {
		return nil, err
	}
	// The version directive's argument ("1.0", "1.1", "1.2", "draft-2")
	// lexes as a float/int token, not an identifier, for every dotted
	// numeric release name; only "draft-2"-style names come through as
	// TIdent followed by a TMinus/TInt pair.
	verTok := p.cur()
	switch verTok.Type {
	case lexer.TIdent, lexer.TFloat, lexer.TInt:
		p.advance()
		doc.Version = verTok.Value
		for p.at(lexer.TMinus) {
			p.advance()
			suffix, err := p.expect(lexer.TInt)
			if err != nil {
				return nil, err
			}
			doc.Version += "-" + suffix.Value
		}
	default:
		return nil, werrors.NewSyntaxError(p.pos2(verTok), "expected a version name but found %s %q", verTok.Type, verTok.Value)
	}

	for {
		switch p.cur().Type {
		case lexer.TImport:
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			doc.Imports = append(doc.Imports, imp)
		case lexer.TStruct:
			sd, err := p.parseStructTypedef()
			if err != nil {
				return nil, err
			}
			doc.StructTypedefs = append(doc.StructTypedefs, sd)
		case lexer.TTask:
			task, err := p.parseTask()
			if err != nil {
				return nil, err
			}
			doc.Tasks = append(doc.Tasks, task)
		case lexer.TWorkflow:
			if doc.Workflow != nil {
				return nil, werrors.NewValidationError(p.pos2(p.cur()), "a document may declare only one workflow")
			}
			wf, err := p.parseWorkflow()
			if err != nil {
				return nil, err
			}
			doc.Workflow = wf
		case lexer.TEOF:
			return doc, nil
		default:
			t := p.cur()
			return nil, werrors.NewSyntaxError(p.pos2(t), "unexpected token %s %q at document level", t.Type, t.Value)
		}
	}
}

func (p *Parser) parseImport() (*ast.Import, error) {
	tok := p.advance() // 'import'
	strTok, err := p.expect(lexer.TStringStart)
	_ = strTok
	if err != nil {
		return nil, err
	}
	uri := ""
	for !p.at(lexer.TStringEnd) {
		t := p.advance()
		if t.Type == lexer.TStringText {
			uri += t.Value
		}
	}
	if _, err := p.expect(lexer.TStringEnd); err != nil {
		return nil, err
	}
	imp := &ast.Import{URI: uri, Pos: p.pos2(tok)}
	if p.at(lexer.TAs) {
		p.advance()
		aliasTok, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}
		imp.Alias = aliasTok.Value
	}
	return imp, nil
}
