package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
)

// parseDecl parses a single `Type name [= expr]` declaration.
func (p *Parser) parseDecl() (*ast.Decl, error) {
	startTok := p.cur()
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}
	d := &ast.Decl{
		Name:           nameTok.Value,
		DeclType:       t,
		WorkflowNodeID: p.nextNodeID("decl-" + nameTok.Value),
		ScatterDepth:   p.scatterDepth,
		Pos:            p.pos2(startTok),
	}
	if p.at(lexer.TEquals) {
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		d.Expr = expr
	}
	return d, nil
}

// parseDeclBlock parses a `{ decl decl ... }` block used for `input { }`
// and `output { }` sections.
func (p *Parser) parseDeclBlock() ([]*ast.Decl, error) {
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	var decls []*ast.Decl
	for !p.at(lexer.TRBrace) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return decls, nil
}

// parseStructTypedef parses `struct Name { Type field ... }`.
func (p *Parser) parseStructTypedef() (*ast.StructTypedef, error) {
	tok := p.advance() // 'struct'
	nameTok, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	sd := &ast.StructTypedef{Name: nameTok.Value, Pos: p.pos2(tok)}
	for !p.at(lexer.TRBrace) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fieldTok, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}
		sd.Members = append(sd.Members, ast.StructMember{Name: fieldTok.Value, Type: t})
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return sd, nil
}

// parseMetaBlock parses a `{ key: value, ... }` meta/parameter_meta
// section, whose values are JSON-like (spec.md 4.2: strings, numbers,
// booleans, null, arrays, objects — no expressions).
func (p *Parser) parseMetaBlock() (map[string]any, error) {
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	out := map[string]any{}
	for !p.at(lexer.TRBrace) {
		keyTok, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TColon); err != nil {
			return nil, err
		}
		v, err := p.parseMetaValue()
		if err != nil {
			return nil, err
		}
		out[keyTok.Value] = v
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseMetaValue() (any, error) {
	switch p.cur().Type {
	case lexer.TInt:
		return p.advance().IntVal, nil
	case lexer.TFloat:
		return p.advance().FloatVal, nil
	case lexer.TTrue:
		p.advance()
		return true, nil
	case lexer.TFalse:
		p.advance()
		return false, nil
	case lexer.TNone:
		p.advance()
		return nil, nil
	case lexer.TStringStart:
		p.advance()
		var s string
		for !p.at(lexer.TStringEnd) {
			t := p.advance()
			if t.Type == lexer.TStringText {
				s += t.Value
			}
		}
		p.advance()
		return s, nil
	case lexer.TLBracket:
		p.advance()
		var arr []any
		for !p.at(lexer.TRBracket) {
			v, err := p.parseMetaValue()
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
			if p.at(lexer.TComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(lexer.TRBracket); err != nil {
			return nil, err
		}
		return arr, nil
	case lexer.TLBrace:
		p.advance()
		obj := map[string]any{}
		for !p.at(lexer.TRBrace) {
			keyTok, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TColon); err != nil {
				return nil, err
			}
			v, err := p.parseMetaValue()
			if err != nil {
				return nil, err
			}
			obj[keyTok.Value] = v
			if p.at(lexer.TComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(lexer.TRBrace); err != nil {
			return nil, err
		}
		return obj, nil
	default:
		t := p.advance()
		return t.Value, nil
	}
}

// parseRuntimeBlock parses `runtime { key: expr, ... }`, whose values are
// full expressions (spec.md 4.2), unlike meta.
func (p *Parser) parseRuntimeBlock() (map[string]ast.Expr, error) {
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	out := map[string]ast.Expr{}
	for !p.at(lexer.TRBrace) {
		keyTok, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TColon); err != nil {
			return nil, err
		}
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		out[keyTok.Value] = v
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return out, nil
}
