package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/types"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// parseType parses a type per the lattice in spec.md 3.2: primitives,
// Array[T][+], Map[K,V], Pair[L,R], Object, struct-type identifiers, each
// optionally suffixed with `?`.
func (p *Parser) parseType() (*types.Type, error) {
	var t *types.Type
	tok := p.cur()
	switch tok.Type {
	case lexer.TBoolean:
		p.advance()
		t = types.Boolean
	case lexer.TIntType:
		p.advance()
		t = types.Int
	case lexer.TFloatType:
		p.advance()
		t = types.Float
	case lexer.TStringType:
		p.advance()
		t = types.String
	case lexer.TFileType:
		p.advance()
		t = types.File
	case lexer.TDirectoryType:
		p.advance()
		t = types.Directory
	case lexer.TObjectType:
		p.advance()
		t = types.ObjectType()
	case lexer.TNone:
		p.advance()
		t = types.NoneType
	case lexer.TArrayType:
		p.advance()
		if _, err := p.expect(lexer.TLBracket); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TRBracket); err != nil {
			return nil, err
		}
		t = types.ArrayOf(elem)
		if p.at(lexer.TPlus) {
			p.advance()
			t.NonEmpty = true
		}
	case lexer.TMapType:
		p.advance()
		if _, err := p.expect(lexer.TLBracket); err != nil {
			return nil, err
		}
		k, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TComma); err != nil {
			return nil, err
		}
		v, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TRBracket); err != nil {
			return nil, err
		}
		t = types.MapOf(k, v)
	case lexer.TPairType:
		p.advance()
		if _, err := p.expect(lexer.TLBracket); err != nil {
			return nil, err
		}
		l, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TComma); err != nil {
			return nil, err
		}
		r, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TRBracket); err != nil {
			return nil, err
		}
		t = types.PairOf(l, r)
	case lexer.TIdent:
		p.advance()
		t = types.StructRef(tok.Value)
	default:
		return nil, werrors.NewSyntaxError(p.pos2(tok), "expected a type, found %s %q", tok.Type, tok.Value)
	}
	if p.at(lexer.TQuestion) {
		p.advance()
		t = t.Opt()
	}
	return t, nil
}
