package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// parseWorkflow parses `Workflow { name, inputs[]?, body[], outputs[]?,
// meta, parameter_meta }` (spec.md 3.5).
func (p *Parser) parseWorkflow() (*ast.Workflow, error) {
	tok := p.advance() // 'workflow'
	nameTok, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	wf := &ast.Workflow{Name: nameTok.Value, Pos: p.pos2(tok)}
	for !p.at(lexer.TRBrace) {
		switch p.cur().Type {
		case lexer.TInput:
			p.advance()
			decls, err := p.parseDeclBlock()
			if err != nil {
				return nil, err
			}
			wf.Inputs = decls
		case lexer.TOutput:
			p.advance()
			decls, err := p.parseDeclBlock()
			if err != nil {
				return nil, err
			}
			wf.Outputs = decls
		case lexer.TMeta:
			p.advance()
			m, err := p.parseMetaBlock()
			if err != nil {
				return nil, err
			}
			wf.Meta = m
		case lexer.TParameterMeta:
			p.advance()
			m, err := p.parseMetaBlock()
			if err != nil {
				return nil, err
			}
			wf.ParameterMeta = m
		default:
			el, err := p.parseWorkflowElement()
			if err != nil {
				return nil, err
			}
			wf.Body = append(wf.Body, el)
		}
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return wf, nil
}

// parseWorkflowElement parses one of Declaration | Call | Scatter |
// Conditional (spec.md 3.5).
func (p *Parser) parseWorkflowElement() (ast.WorkflowElement, error) {
	switch p.cur().Type {
	case lexer.TCall:
		return p.parseCall()
	case lexer.TScatter:
		return p.parseScatter()
	case lexer.TIf:
		return p.parseConditional()
	case lexer.TBoolean, lexer.TIntType, lexer.TFloatType, lexer.TStringType,
		lexer.TFileType, lexer.TDirectoryType, lexer.TArrayType, lexer.TMapType,
		lexer.TPairType, lexer.TObjectType, lexer.TIdent:
		return p.parseDecl()
	default:
		t := p.cur()
		return nil, werrors.NewSyntaxError(p.pos2(t), "unexpected token %s %q in workflow body", t.Type, t.Value)
	}
}

// parseCall parses `call t [as alias] [{ input: k = v, k2, ... }] [after
// t1, t2, ...]` (spec.md 4.2). A bare name in the input block is shorthand
// for `k = k`.
func (p *Parser) parseCall() (*ast.Call, error) {
	tok := p.advance() // 'call'
	task, err := p.parseDottedName()
	if err != nil {
		return nil, err
	}
	call := &ast.Call{
		Task:           task,
		Inputs:         map[string]ast.Expr{},
		WorkflowNodeID: p.nextNodeID("call-" + task),
		ScatterDepth:   p.scatterDepth,
		Pos:            p.pos2(tok),
	}
	if p.at(lexer.TAs) {
		p.advance()
		aliasTok, err := p.expect(lexer.TIdent)
		if err != nil {
			return nil, err
		}
		call.Alias = aliasTok.Value
	}
	if p.at(lexer.TLBrace) {
		p.advance()
		if p.at(lexer.TInput) {
			p.advance()
			if _, err := p.expect(lexer.TColon); err != nil {
				return nil, err
			}
		}
		for !p.at(lexer.TRBrace) {
			nameTok, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}
			if p.at(lexer.TEquals) {
				p.advance()
				v, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				call.Inputs[nameTok.Value] = v
			} else {
				call.Inputs[nameTok.Value] = &ast.Ident{Base: ast.NewBase(p.pos2(nameTok)), Name: nameTok.Value}
			}
			if p.at(lexer.TComma) {
				p.advance()
			} else {
				break
			}
		}
		if _, err := p.expect(lexer.TRBrace); err != nil {
			return nil, err
		}
	}
	if p.at(lexer.TAfter) {
		p.advance()
		for {
			depTok, err := p.expect(lexer.TIdent)
			if err != nil {
				return nil, err
			}
			call.After = append(call.After, depTok.Value)
			if p.at(lexer.TComma) {
				p.advance()
			} else {
				break
			}
		}
	}
	return call, nil
}

func (p *Parser) parseDottedName() (string, error) {
	tok, err := p.expect(lexer.TIdent)
	if err != nil {
		return "", err
	}
	name := tok.Value
	for p.at(lexer.TDot) {
		p.advance()
		part, err := p.expect(lexer.TIdent)
		if err != nil {
			return "", err
		}
		name += "." + part.Value
	}
	return name, nil
}

// parseScatter parses `scatter (v in e) { body }` (spec.md 3.5). Nesting
// increments ScatterDepth for everything in the body, composing the
// gather-typing rule (spec.md 3.7, 4.3).
func (p *Parser) parseScatter() (*ast.Scatter, error) {
	tok := p.advance() // 'scatter'
	if _, err := p.expect(lexer.TLParen); err != nil {
		return nil, err
	}
	varTok, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TIn); err != nil {
		return nil, err
	}
	iterand, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TRParen); err != nil {
		return nil, err
	}
	sc := &ast.Scatter{
		Variable:       varTok.Value,
		Iterand:        iterand,
		WorkflowNodeID: p.nextNodeID("scatter-" + varTok.Value),
		ScatterDepth:   p.scatterDepth,
		Pos:            p.pos2(tok),
	}
	p.scatterDepth++
	if _, err := p.expect(lexer.TLBrace); err != nil {
		p.scatterDepth--
		return nil, err
	}
	for !p.at(lexer.TRBrace) {
		el, err := p.parseWorkflowElement()
		if err != nil {
			p.scatterDepth--
			return nil, err
		}
		sc.Body = append(sc.Body, el)
	}
	p.scatterDepth--
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return sc, nil
}

// parseConditional parses `if (cond) { body }` (spec.md 3.5).
func (p *Parser) parseConditional() (*ast.Conditional, error) {
	tok := p.advance() // 'if'
	if _, err := p.expect(lexer.TLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TRParen); err != nil {
		return nil, err
	}
	c := &ast.Conditional{
		Cond:           cond,
		WorkflowNodeID: p.nextNodeID("if"),
		ScatterDepth:   p.scatterDepth,
		Pos:            p.pos2(tok),
	}
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	for !p.at(lexer.TRBrace) {
		el, err := p.parseWorkflowElement()
		if err != nil {
			return nil, err
		}
		c.Body = append(c.Body, el)
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	return c, nil
}
