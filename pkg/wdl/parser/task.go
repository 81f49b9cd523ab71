package parser

import (
	"github.com/bioflowy/flowy/pkg/wdl/ast"
	"github.com/bioflowy/flowy/pkg/wdl/lexer"
	"github.com/bioflowy/flowy/pkg/wdl/werrors"
)

// parseTask parses `Task { name, inputs[]?, post_inputs[], command (string
// expr), outputs[], runtime{key->expr}, meta, parameter_meta }` (spec.md
// 3.5). Sections may appear in any order once inside the body, matching
// real-world WDL documents; `command` is required.
func (p *Parser) parseTask() (*ast.Task, error) {
	tok := p.advance() // 'task'
	nameTok, err := p.expect(lexer.TIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TLBrace); err != nil {
		return nil, err
	}
	task := &ast.Task{Name: nameTok.Value, Pos: p.pos2(tok)}
	haveCommand := false
	for !p.at(lexer.TRBrace) {
		switch p.cur().Type {
		case lexer.TInput:
			p.advance()
			decls, err := p.parseDeclBlock()
			if err != nil {
				return nil, err
			}
			task.Inputs = decls
		case lexer.TOutput:
			p.advance()
			decls, err := p.parseDeclBlock()
			if err != nil {
				return nil, err
			}
			task.Outputs = decls
		case lexer.TCommand:
			cmd, err := p.parseCommand()
			if err != nil {
				return nil, err
			}
			task.Command = cmd
			haveCommand = true
		case lexer.TRuntime:
			p.advance()
			rt, err := p.parseRuntimeBlock()
			if err != nil {
				return nil, err
			}
			task.Runtime = rt
		case lexer.TMeta:
			p.advance()
			m, err := p.parseMetaBlock()
			if err != nil {
				return nil, err
			}
			task.Meta = m
		case lexer.TParameterMeta:
			p.advance()
			m, err := p.parseMetaBlock()
			if err != nil {
				return nil, err
			}
			task.ParameterMeta = m
		case lexer.TBoolean, lexer.TIntType, lexer.TFloatType, lexer.TStringType,
			lexer.TFileType, lexer.TDirectoryType, lexer.TArrayType, lexer.TMapType,
			lexer.TPairType, lexer.TObjectType, lexer.TIdent:
			// a bare declaration in the task body (post-input declaration)
			d, err := p.parseDecl()
			if err != nil {
				return nil, err
			}
			task.PostInputs = append(task.PostInputs, d)
		default:
			t := p.cur()
			return nil, werrors.NewSyntaxError(p.pos2(t), "unexpected token %s %q in task %q", t.Type, t.Value, task.Name)
		}
	}
	if _, err := p.expect(lexer.TRBrace); err != nil {
		return nil, err
	}
	if !haveCommand {
		return nil, werrors.NewValidationError(task.Pos, "task %q is missing a command section", task.Name)
	}
	return task, nil
}
