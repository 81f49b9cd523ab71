package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// parseExpression is the entry point for the full precedence ladder,
// low to high: ternary ?: -> || -> && -> comparison -> + - -> * / % ->
// unary -> postfix (spec.md 4.2).
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Expr, error) {
	if p.at(lexer.TIf) {
		tok := p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TThen); err != nil {
			return nil, err
		}
		thenE, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TElse); err != nil {
			return nil, err
		}
		elseE, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return newIfElse(p, tok, cond, thenE, elseE), nil
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TOrOr) {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = newBinary(p, tok, ast.OpOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TAndAnd) {
		tok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = newBinary(p, tok, ast.OpAnd, left, right)
	}
	return left, nil
}

var cmpOps = map[lexer.TokenType]ast.BinOp{
	lexer.TEqEq: ast.OpEq, lexer.TNeq: ast.OpNeq,
	lexer.TLt: ast.OpLt, lexer.TLte: ast.OpLte,
	lexer.TGt: ast.OpGt, lexer.TGte: ast.OpGte,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur().Type]; ok {
		tok := p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return newBinary(p, tok, op, left, right), nil
	}
	return left, nil
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	left, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TPlus) || p.at(lexer.TMinus) {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Type == lexer.TMinus {
			op = ast.OpSub
		}
		right, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		left = newBinary(p, tok, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseMul() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TStar) || p.at(lexer.TSlash) || p.at(lexer.TPercent) {
		tok := p.advance()
		var op ast.BinOp
		switch tok.Type {
		case lexer.TStar:
			op = ast.OpMul
		case lexer.TSlash:
			op = ast.OpDiv
		case lexer.TPercent:
			op = ast.OpMod
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = newBinary(p, tok, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.at(lexer.TNot) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.NewBase(p.pos2(tok)), Op: ast.OpNot, Operand: operand}, nil
	}
	if p.at(lexer.TMinus) {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Base: ast.NewBase(p.pos2(tok)), Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case lexer.TDot:
			tok := p.advance()
			nameTok, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}
			e = &ast.Member{Base: ast.NewBase(p.pos2(tok)), Target: e, Name: nameTok.Value}
		case lexer.TLBracket:
			tok := p.advance()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TRBracket); err != nil {
				return nil, err
			}
			e = &ast.Index{Base: ast.NewBase(p.pos2(tok)), Target: e, Idx: idx}
		case lexer.TLParen:
			ident, ok := e.(*ast.Ident)
			if !ok {
				return e, nil
			}
			tok := p.advance()
			var args []ast.Expr
			for !p.at(lexer.TRParen) {
				a, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if p.at(lexer.TComma) {
					p.advance()
				} else {
					break
				}
			}
			if _, err := p.expect(lexer.TRParen); err != nil {
				return nil, err
			}
			e = &ast.Apply{Base: ast.NewBase(p.pos2(tok)), Function: ident.Name, Args: args}
		default:
			return e, nil
		}
	}
}

// parsePrimary handles literals, identifiers, parenthesized expr / pair
// literal (disambiguated by backtracking on comma), array/map/struct
// literals, and quoted strings.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case lexer.TInt:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.pos2(tok)), Kind: ast.LitInt, IntVal: tok.IntVal}, nil
	case lexer.TFloat:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.pos2(tok)), Kind: ast.LitFloat, FloatVal: tok.FloatVal}, nil
	case lexer.TTrue:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.pos2(tok)), Kind: ast.LitBool, BoolVal: true}, nil
	case lexer.TFalse:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.pos2(tok)), Kind: ast.LitBool, BoolVal: false}, nil
	case lexer.TNone:
		p.advance()
		return &ast.Literal{Base: ast.NewBase(p.pos2(tok)), Kind: ast.LitNull}, nil
	case lexer.TStringStart:
		return p.parseStringLiteral()
	case lexer.TIdent:
		// An identifier followed by '{' is a struct literal:
		// `TypeName { k: v, ... }` (spec.md 4.2).
		if p.peekAt(1).Type == lexer.TLBrace {
			return p.parseStructLit()
		}
		p.advance()
		return &ast.Ident{Base: ast.NewBase(p.pos2(tok)), Name: tok.Value}, nil
	case lexer.TLBracket:
		return p.parseArrayLit()
	case lexer.TLBrace:
		return p.parseMapLit()
	case lexer.TLParen:
		return p.parseParenOrPair()
	default:
		return nil, werrors.NewSyntaxError(p.pos2(tok), "unexpected token %s %q in expression", tok.Type, tok.Value)
	}
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	tok := p.advance() // '['
	var elems []ast.Expr
	for !p.at(lexer.TRBracket) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(lexer.TComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.TRBracket); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Base: ast.NewBase(p.pos2(tok)), Elements: elems}, nil
}

// parseMapLit parses `{ k: v, ... }`.
func (p *Parser) parseMapLit() (ast.Expr, error) {
	tok := p.advance() // '{'
	var entries []ast.MapEntry
	for !p.at(lexer.TRBrace) {
		k, err := p.parseExpression()
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
		entries = append(entries, ast.MapEntry{Key: k, Value: v})
		if p.at(lexer.TComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return &ast.MapLit{Base: ast.NewBase(p.pos2(tok)), Entries: entries}, nil
}

// parseStructLit parses `TypeName { field: v, ... }`.
func (p *Parser) parseStructLit() (ast.Expr, error) {
	nameTok := p.advance()
	tok := p.advance() // '{'
	var fields []ast.MapEntry
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
		fields = append(fields, ast.MapEntry{
			Key:   &ast.Ident{Base: ast.NewBase(p.pos2(keyTok)), Name: keyTok.Value},
			Value: v,
		})
		if p.at(lexer.TComma) {
			p.advance()
		} else {
			break
		}
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return &ast.StructLit{Base: ast.NewBase(p.pos2(tok)), TypeName: nameTok.Value, Fields: fields}, nil
}

// parseParenOrPair disambiguates `(expr)` from a `(l, r)` pair literal by
// committing after the first expression and peeking for a comma, using
// save/restore since the grammar shares the `(` opener (spec.md 4.2).
func (p *Parser) parseParenOrPair() (ast.Expr, error) {
	tok := p.advance() // '('
	mark := p.save()
	first, err := p.parseExpression()
	if err != nil {
		p.restore(mark)
		return nil, err
	}
	if p.at(lexer.TComma) {
		p.advance()
		second, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TRParen); err != nil {
			return nil, err
		}
		return &ast.PairLit{Base: ast.NewBase(p.pos2(tok)), Left: first, Right: second}, nil
	}
	if _, err := p.expect(lexer.TRParen); err != nil {
		return nil, err
	}
	return first, nil
}

func newBinary(p *Parser, tok lexer.Token, op ast.BinOp, left, right ast.Expr) ast.Expr {
	return &ast.Binary{Base: ast.NewBase(p.pos2(tok)), Op: op, Left: left, Right: right}
}

func newIfElse(p *Parser, tok lexer.Token, cond, thenE, elseE ast.Expr) ast.Expr {
	return &ast.IfElse{Base: ast.NewBase(p.pos2(tok)), Cond: cond, Then: thenE, Else: elseE}
}
