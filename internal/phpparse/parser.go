package phpparse

import (
	"fmt"

	"github.com/maravilla-labs/edgephp-wasmc/ast"
)

// Parser builds an ast.Program from a token stream via one token of
// lookahead, recursive descent for statements, and precedence climbing
// for expressions.
type Parser struct {
	lex *Lexer
	tok Token
}

// Parse lexes and parses src, returning the resulting ast.Program or the
// first syntax error encountered.
func Parse(src string) (*ast.Program, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.next(); err != nil {
		return nil, err
	}

	prog := &ast.Program{}
	for p.tok.Kind != TokenEOF {
		switch p.tok.Kind {
		case TokenInlineHTML:
			prog.Items = append(prog.Items, ast.InlineContent{Text: p.tok.Text})
			if err := p.next(); err != nil {
				return nil, err
			}
		case TokenPHPOpen:
			if err := p.next(); err != nil {
				return nil, err
			}
			block, err := p.parsePhpBlock()
			if err != nil {
				return nil, err
			}
			prog.Items = append(prog.Items, block)
		default:
			return nil, fmt.Errorf("line %d: unexpected token outside a PHP block", p.tok.Line)
		}
	}
	return prog, nil
}

func (p *Parser) next() error {
	t, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *Parser) expect(kind TokenKind, what string) error {
	if p.tok.Kind != kind {
		return fmt.Errorf("line %d: expected %s", p.tok.Line, what)
	}
	return p.next()
}

// parsePhpBlock parses statements until "?>" or end of input.
func (p *Parser) parsePhpBlock() (ast.PhpBlock, error) {
	var block ast.PhpBlock
	for p.tok.Kind != TokenPHPClose && p.tok.Kind != TokenEOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return block, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	if p.tok.Kind == TokenPHPClose {
		if err := p.next(); err != nil {
			return block, err
		}
	}
	return block, nil
}

func (p *Parser) parseBlockOrStatement() (ast.Block, error) {
	if p.tok.Kind == TokenLBrace {
		if err := p.next(); err != nil {
			return ast.Block{}, err
		}
		var block ast.Block
		for p.tok.Kind != TokenRBrace {
			if p.tok.Kind == TokenEOF {
				return block, fmt.Errorf("line %d: unterminated block, expected '}'", p.tok.Line)
			}
			stmt, err := p.parseStatement()
			if err != nil {
				return block, err
			}
			block.Statements = append(block.Statements, stmt)
		}
		return block, p.next()
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return ast.Block{}, err
	}
	return ast.Block{Statements: []ast.Statement{stmt}}, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.tok.Kind {
	case TokenEcho:
		return p.parseEcho()
	case TokenIf:
		return p.parseIf()
	case TokenWhile:
		return p.parseWhile()
	case TokenFor:
		return p.parseFor()
	case TokenBreak:
		if err := p.next(); err != nil {
			return nil, err
		}
		return ast.Break{}, p.expect(TokenSemi, "';'")
	case TokenContinue:
		if err := p.next(); err != nil {
			return nil, err
		}
		return ast.Continue{}, p.expect(TokenSemi, "';'")
	case TokenReturn:
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokenSemi {
			return ast.Return{}, p.next()
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.Return{Expr: expr}, p.expect(TokenSemi, "';'")
	case TokenLBrace:
		block, err := p.parseBlockOrStatement()
		if err != nil {
			return nil, err
		}
		return ast.StatementBlock{Body: block}, nil
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenSemi, "';'"); err != nil {
			return nil, err
		}
		return ast.ExpressionStatement{Expr: expr}, nil
	}
}

// parseEcho parses "echo expr (, expr)* ;".
func (p *Parser) parseEcho() (ast.Statement, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	var echo ast.Echo
	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		echo.Exprs = append(echo.Exprs, expr)
		if p.tok.Kind == TokenComma {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	return echo, p.expect(TokenSemi, "';'")
}

func (p *Parser) parseParenCondition() (ast.Expression, error) {
	if err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return cond, p.expect(TokenRParen, "')'")
}

// parseIf parses "if (cond) block (elseif (cond) block)* (else block)?".
func (p *Parser) parseIf() (ast.Statement, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	cond, err := p.parseParenCondition()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlockOrStatement()
	if err != nil {
		return nil, err
	}

	stmt := ast.If{Condition: cond, Then: then}
	for p.tok.Kind == TokenElseIf {
		if err := p.next(); err != nil {
			return nil, err
		}
		elifCond, err := p.parseParenCondition()
		if err != nil {
			return nil, err
		}
		elifThen, err := p.parseBlockOrStatement()
		if err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, ast.ElseIf{Condition: elifCond, Then: elifThen})
	}
	if p.tok.Kind == TokenElse {
		if err := p.next(); err != nil {
			return nil, err
		}
		elseBlock, err := p.parseBlockOrStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = &elseBlock
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	cond, err := p.parseParenCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlockOrStatement()
	if err != nil {
		return nil, err
	}
	return ast.While{Condition: cond, Body: body}, nil
}

// parseFor parses "for (init; cond; update) block", where each clause may
// be empty.
func (p *Parser) parseFor() (ast.Statement, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}

	var init ast.Statement
	if p.tok.Kind != TokenSemi {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		init = ast.ExpressionStatement{Expr: expr}
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return nil, err
	}

	var cond ast.Expression
	if p.tok.Kind != TokenSemi {
		var err error
		cond, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return nil, err
	}

	var update ast.Expression
	if p.tok.Kind != TokenRParen {
		var err error
		update, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}

	body, err := p.parseBlockOrStatement()
	if err != nil {
		return nil, err
	}
	return ast.For{Init: init, Condition: cond, Update: update, Body: body}, nil
}

// Expression grammar, loosest to tightest:
//
//	assignment   := ternary ('=' assignment)?
//	ternary      := logicalOr ('?' expression ':' expression)?
//	logicalOr    := logicalAnd ('||' logicalAnd)*
//	logicalAnd   := equality ('&&' equality)*
//	equality     := relational (('=='|'!='|'==='|'!==') relational)*
//	relational   := concat (('<'|'<='|'>'|'>=') concat)*
//	concat       := additive ('.' additive)*
//	additive     := multiplicative (('+'|'-') multiplicative)*
//	multiplicative := unary (('*'|'/'|'%') unary)*
//	unary        := ('!'|'-') unary | primary
//	primary      := literal | variable | '(' expression ')' | call
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (ast.Expression, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokenAssign {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return ast.Assignment{Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseTernary() (ast.Expression, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == TokenQuestion {
		if err := p.next(); err != nil {
			return nil, err
		}
		then, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenColon, "':'"); err != nil {
			return nil, err
		}
		els, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.Ternary{Condition: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

func (p *Parser) parseLogicalOr() (ast.Expression, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenOrOr {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAnd() (ast.Expression, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenAndAnd {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.And, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokenEq:
			op = ast.Equal
		case TokenNotEq:
			op = ast.NotEqual
		case TokenIdentical:
			op = ast.Identical
		case TokenNotIdentical:
			op = ast.NotIdentical
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseRelational() (ast.Expression, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokenLt:
			op = ast.LessThan
		case TokenLe:
			op = ast.LessThanOrEqual
		case TokenGt:
			op = ast.GreaterThan
		case TokenGe:
			op = ast.GreaterThanOrEqual
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseConcat() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenDot {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: ast.Concat, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokenPlus:
			op = ast.Add
		case TokenMinus:
			op = ast.Subtract
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.tok.Kind {
		case TokenStar:
			op = ast.Multiply
		case TokenSlash:
			op = ast.Divide
		case TokenPercent:
			op = ast.Modulo
		default:
			return left, nil
		}
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	switch p.tok.Kind {
	case TokenNot:
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.Not, Expr: expr}, nil
	case TokenMinus:
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.Unary{Op: ast.Negate, Expr: expr}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.tok.Kind {
	case TokenInt:
		v := p.tok.IntVal
		return ast.Literal{Value: ast.IntLiteral{Value: v}}, p.next()
	case TokenFloat:
		v := p.tok.FltVal
		return ast.Literal{Value: ast.FloatLiteral{Value: v}}, p.next()
	case TokenString:
		v := p.tok.Text
		return ast.Literal{Value: ast.StringLiteral{Value: v}}, p.next()
	case TokenInterpolatedString:
		parts, err := parseInterpolation(p.tok.Text)
		if err != nil {
			return nil, err
		}
		return ast.Literal{Value: ast.InterpolatedStringLiteral{Parts: parts}}, p.next()
	case TokenTrue:
		return ast.Literal{Value: ast.BoolLiteral{Value: true}}, p.next()
	case TokenFalse:
		return ast.Literal{Value: ast.BoolLiteral{Value: false}}, p.next()
	case TokenNull:
		return ast.Literal{Value: ast.NullLiteral{}}, p.next()
	case TokenVariable:
		name := p.tok.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return ast.Variable{Name: name}, nil
	case TokenIdent:
		return p.parseCall()
	case TokenLParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return expr, p.expect(TokenRParen, "')'")
	default:
		return nil, fmt.Errorf("line %d: unexpected token in expression", p.tok.Line)
	}
}

func (p *Parser) parseCall() (ast.Expression, error) {
	name := p.tok.Text
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Expression
	for p.tok.Kind != TokenRParen {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok.Kind == TokenComma {
			if err := p.next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expect(TokenRParen, "')'"); err != nil {
		return nil, err
	}
	return ast.Call{Name: name, Args: args}, nil
}

// parseInterpolation splits a decoded double-quoted string's contents on
// "$name" references into TextPart/VariablePart pieces.
func parseInterpolation(s string) ([]ast.InterpolatedPart, error) {
	var parts []ast.InterpolatedPart
	var text []byte
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && isIdentStart(s[i+1]) {
			if len(text) > 0 {
				parts = append(parts, ast.TextPart{Text: string(text)})
				text = nil
			}
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			parts = append(parts, ast.VariablePart{Name: s[i+1 : j]})
			i = j
			continue
		}
		text = append(text, s[i])
		i++
	}
	if len(text) > 0 {
		parts = append(parts, ast.TextPart{Text: string(text)})
	}
	return parts, nil
}
