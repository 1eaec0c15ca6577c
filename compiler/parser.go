package compiler

import "fmt"

// Parser consumes a Lexer's token stream and builds a RuleFile.
type Parser struct {
	lex  *Lexer
	tok  Token
	peek *Token
}

// NewParser returns a Parser over src.
func NewParser(src []byte) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	if p.peek != nil {
		p.tok = *p.peek
		p.peek = nil
		return nil
	}
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) expect(k TokKind, what string) (Token, error) {
	if p.tok.Kind != k {
		return Token{}, fmt.Errorf("compiler: expected %s at offset %d", what, p.tok.Pos)
	}
	t := p.tok
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return t, nil
}

// ParseFile parses the whole source as a sequence of rule declarations.
func (p *Parser) ParseFile() (*RuleFile, error) {
	f := &RuleFile{}
	for p.tok.Kind != TokEOF {
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		f.Rules = append(f.Rules, rule)
	}
	return f, nil
}

func (p *Parser) parseRule() (*RuleDecl, error) {
	if _, err := p.expect(TokKwRule, "'rule'"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokIdent, "rule identifier")
	if err != nil {
		return nil, err
	}
	decl := &RuleDecl{Identifier: name.Str, Pos: name.Pos}

	if _, err := p.expect(TokLBrace, "'{'"); err != nil {
		return nil, err
	}

	if p.tok.Kind == TokKwMeta {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, "':'"); err != nil {
			return nil, err
		}
		for p.tok.Kind == TokIdent {
			entry, err := p.parseMetaEntry()
			if err != nil {
				return nil, err
			}
			decl.Meta = append(decl.Meta, entry)
		}
	}

	if p.tok.Kind == TokKwStrings {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokColon, "':'"); err != nil {
			return nil, err
		}
		for p.tok.Kind == TokDollarIdent {
			sdecl, err := p.parseStringDecl()
			if err != nil {
				return nil, err
			}
			decl.Strings = append(decl.Strings, sdecl)
		}
	}

	if _, err := p.expect(TokKwCondition, "'condition'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon, "':'"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	decl.Condition = cond

	if _, err := p.expect(TokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseMetaEntry() (MetaEntry, error) {
	key := p.tok.Str
	if err := p.advance(); err != nil {
		return MetaEntry{}, err
	}
	if _, err := p.expect(TokEquals, "'='"); err != nil {
		return MetaEntry{}, err
	}
	switch p.tok.Kind {
	case TokString:
		v := p.tok.Str
		if err := p.advance(); err != nil {
			return MetaEntry{}, err
		}
		return MetaEntry{Key: key, Value: MetaLiteral{Kind: MetaLitString, Str: v}}, nil
	case TokInt:
		v := p.tok.Int
		if err := p.advance(); err != nil {
			return MetaEntry{}, err
		}
		return MetaEntry{Key: key, Value: MetaLiteral{Kind: MetaLitInt, Int: v}}, nil
	case TokKwTrue, TokKwFalse:
		v := p.tok.Kind == TokKwTrue
		if err := p.advance(); err != nil {
			return MetaEntry{}, err
		}
		return MetaEntry{Key: key, Value: MetaLiteral{Kind: MetaLitBool, Bool: v}}, nil
	default:
		return MetaEntry{}, fmt.Errorf("compiler: expected meta value at offset %d", p.tok.Pos)
	}
}

func (p *Parser) parseStringDecl() (StringDecl, error) {
	name := p.tok.Str
	if err := p.advance(); err != nil {
		return StringDecl{}, err
	}
	if _, err := p.expect(TokEquals, "'='"); err != nil {
		return StringDecl{}, err
	}
	lit, err := p.expect(TokString, "string literal")
	if err != nil {
		return StringDecl{}, err
	}
	return StringDecl{Name: name, Literal: lit.Str}, nil
}

// parseExpr is the condition grammar's entry point: or has the lowest
// precedence, then and, then not, then comparisons, then primaries.
func (p *Parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokKwOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = LogicalOr{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokKwAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = LogicalAnd{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.tok.Kind == TokKwNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return LogicalNot{Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.tok.Kind {
	case TokLT, TokLE, TokGT, TokGE, TokEQ, TokNE:
		op := p.tok.Kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return BinOp{Op: op, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	switch p.tok.Kind {
	case TokKwTrue:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return BoolLit{Value: true}, nil
	case TokKwFalse:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return BoolLit{Value: false}, nil
	case TokKwFilesize:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Filesize{}, nil
	case TokInt:
		v := p.tok.Int
		if err := p.advance(); err != nil {
			return nil, err
		}
		return IntLit{Value: v}, nil
	case TokDollarIdent:
		name := p.tok.Str
		if err := p.advance(); err != nil {
			return nil, err
		}
		return PatternRef{Name: name}, nil
	case TokIdent:
		path := []string{p.tok.Str}
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.Kind == TokDot {
			if err := p.advance(); err != nil {
				return nil, err
			}
			seg, err := p.expect(TokIdent, "field name after '.'")
			if err != nil {
				return nil, err
			}
			path = append(path, seg.Str)
		}
		return FieldRef{Path: path}, nil
	case TokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("compiler: unexpected token at offset %d", p.tok.Pos)
	}
}
