package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// parseStringLiteral parses a quoted string, whose interior is a sequence
// of text-or-placeholder parts (spec.md 3.4). The opening TStringStart has
// not yet been consumed.
func (p *Parser) parseStringLiteral() (ast.Expr, error) {
	startTok := p.advance() // TStringStart
	parts, err := p.parseStringParts(lexer.TStringEnd)
	if err != nil {
		return nil, err
	}
	return &ast.String{Base: ast.NewBase(p.pos2(startTok)), Parts: parts}, nil
}

// parseStringParts consumes TStringText/TPlaceholderOpen tokens until the
// given terminator token, which it also consumes (except TEOF, used for
// command bodies, which is left for the caller to observe).
func (p *Parser) parseStringParts(end lexer.TokenType) ([]ast.StringPart, error) {
	var parts []ast.StringPart
	for {
		switch p.cur().Type {
		case end:
			if end != lexer.TEOF {
				p.advance()
			}
			return parts, nil
		case lexer.TEOF:
			return parts, nil
		case lexer.TStringText:
			t := p.advance()
			if t.Value != "" {
				parts = append(parts, ast.StringPart{Text: t.Value})
			}
		case lexer.TPlaceholderOpen:
			ph, err := p.parsePlaceholder()
			if err != nil {
				return nil, err
			}
			parts = append(parts, ast.StringPart{Placeholder: ph})
		default:
			t := p.cur()
			return nil, werrors.NewSyntaxError(p.pos2(t), "unexpected token %s inside string/command", t.Type)
		}
	}
}

// parsePlaceholder parses `~{ [opt=val ...] expr }`, starting at the
// TPlaceholderOpen token and consuming through the matching
// TPlaceholderClose.
func (p *Parser) parsePlaceholder() (*ast.Placeholder, error) {
	p.advance() // TPlaceholderOpen
	ph := &ast.Placeholder{}
	for (p.at(lexer.TIdent) || p.at(lexer.TTrue) || p.at(lexer.TFalse)) && isPlaceholderOptionName(p.cur().Value) && p.peekAt(1).Type == lexer.TEquals {
		name := p.advance().Value
		p.advance() // '='
		valExpr, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		str := exprAsLiteralString(valExpr)
		switch name {
		case "sep":
			ph.Sep = &str
		case "true":
			ph.True = &str
		case "false":
			ph.False = &str
		case "default":
			ph.Default = valExpr
		}
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	ph.Expr = ast.RewriteInterpolationAdd(expr)
	if _, err := p.expect(lexer.TPlaceholderClose); err != nil {
		return nil, err
	}
	return ph, nil
}

func isPlaceholderOptionName(s string) bool {
	switch s {
	case "sep", "true", "false", "default":
		return true
	}
	return false
}

// exprAsLiteralString extracts the literal text of a parsed option value
// (placeholder options are always simple string literals in practice).
func exprAsLiteralString(e ast.Expr) string {
	if s, ok := e.(*ast.String); ok {
		var out string
		for _, part := range s.Parts {
			out += part.Text
		}
		return out
	}
	return ""
}

// parseCommand parses a task's `command { ... }` / `command <<< ... >>>`
// section. The preprocessor already extracted the body; here the parser
// sees `command` `{`|`<<<` TCommandBlockRef `}`|`>>>` and must lex the
// referenced body separately in Command mode (spec.md 4.1).
func (p *Parser) parseCommand() (*ast.String, error) {
	tok := p.advance() // 'command'
	var closer lexer.TokenType
	switch p.cur().Type {
	case lexer.TLBrace:
		p.advance()
		closer = lexer.TRBrace
	case lexer.THeredocOpen:
		p.advance()
		closer = lexer.THeredocClose
	default:
		t := p.cur()
		return nil, werrors.NewSyntaxError(p.pos2(t), "expected { or <<< after command")
	}
	refTok, err := p.expect(lexer.TCommandBlockRef)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(closer); err != nil {
		return nil, err
	}
	body := p.lx.CommandBody(int(refTok.IntVal))
	sub := lexer.NewForCommandBody(body)
	subToks, err := sub.Tokenize()
	if err != nil {
		return nil, werrors.NewSyntaxError(p.pos2(tok), "command body: %s", err.Error())
	}
	subP := newParser(subToks, p.uri, p.lx)
	parts, err := subP.parseStringParts(lexer.TEOF)
	if err != nil {
		return nil, err
	}
	return &ast.String{Base: ast.NewBase(p.pos2(tok)), Parts: parts}, nil
}
