// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package compiler implements the rule-language front end spec.md scopes
// out of the core: a hand-written lexer and recursive-descent parser,
// in the buffered-scanner style of rwxrob/scan, over a small grammar
// (spec §6, §8 scenarios), lowering directly to internal/vm bytecode.
package compiler

import (
	"fmt"
	"strconv"
)

// TokKind tags one lexical token.
type TokKind int

const (
	TokEOF TokKind = iota
	TokIdent
	TokDollarIdent
	TokString
	TokInt
	TokLBrace
	TokRBrace
	TokLParen
	TokRParen
	TokColon
	TokEquals
	TokDot

	TokLT
	TokLE
	TokGT
	TokGE
	TokEQ
	TokNE

	TokKwRule
	TokKwMeta
	TokKwStrings
	TokKwCondition
	TokKwTrue
	TokKwFalse
	TokKwFilesize
	TokKwAnd
	TokKwOr
	TokKwNot
)

var keywords = map[string]TokKind{
	"rule":      TokKwRule,
	"meta":      TokKwMeta,
	"strings":   TokKwStrings,
	"condition": TokKwCondition,
	"true":      TokKwTrue,
	"false":     TokKwFalse,
	"filesize":  TokKwFilesize,
	"and":       TokKwAnd,
	"or":        TokKwOr,
	"not":       TokKwNot,
}

// Token is one lexed unit, with its source position for error reporting.
type Token struct {
	Kind TokKind
	Str  string
	Int  int64
	Pos  int
}

// Lexer turns rule source into a Token stream, one Next call at a time.
type Lexer struct {
	src []byte
	pos int
}

// NewLexer returns a Lexer over src.
func NewLexer(src []byte) *Lexer { return &Lexer{src: src} }

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// Next returns the next token, or a TokEOF token once the source is
// exhausted. A lexical error (unterminated string, stray byte) is
// reported via the returned error.
func (l *Lexer) Next() (Token, error) {
	l.skipSpaceAndComments()
	start := l.pos
	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == '{':
		l.pos++
		return Token{Kind: TokLBrace, Pos: start}, nil
	case c == '}':
		l.pos++
		return Token{Kind: TokRBrace, Pos: start}, nil
	case c == '(':
		l.pos++
		return Token{Kind: TokLParen, Pos: start}, nil
	case c == ')':
		l.pos++
		return Token{Kind: TokRParen, Pos: start}, nil
	case c == ':':
		l.pos++
		return Token{Kind: TokColon, Pos: start}, nil
	case c == '.':
		l.pos++
		return Token{Kind: TokDot, Pos: start}, nil
	case c == '"':
		return l.lexString(start)
	case c == '$':
		return l.lexDollarIdent(start)
	case c == '=':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return Token{Kind: TokEQ, Pos: start}, nil
		}
		return Token{Kind: TokEquals, Pos: start}, nil
	case c == '!':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return Token{Kind: TokNE, Pos: start}, nil
		}
		return Token{}, fmt.Errorf("compiler: unexpected '!' at offset %d", start)
	case c == '<':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return Token{Kind: TokLE, Pos: start}, nil
		}
		return Token{Kind: TokLT, Pos: start}, nil
	case c == '>':
		l.pos++
		if l.peekByte() == '=' {
			l.pos++
			return Token{Kind: TokGE, Pos: start}, nil
		}
		return Token{Kind: TokGT, Pos: start}, nil
	case isDigit(c):
		return l.lexInt(start)
	case isIdentStart(c):
		return l.lexIdent(start)
	default:
		return Token{}, fmt.Errorf("compiler: unexpected byte %q at offset %d", c, start)
	}
}

func (l *Lexer) lexString(start int) (Token, error) {
	l.pos++ // opening quote
	var out []byte
	for {
		if l.pos >= len(l.src) {
			return Token{}, fmt.Errorf("compiler: unterminated string starting at offset %d", start)
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			return Token{Kind: TokString, Str: string(out), Pos: start}, nil
		}
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			out = append(out, l.src[l.pos])
			l.pos++
			continue
		}
		out = append(out, c)
		l.pos++
	}
}

func (l *Lexer) lexDollarIdent(start int) (Token, error) {
	l.pos++ // '$'
	nameStart := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == nameStart {
		return Token{}, fmt.Errorf("compiler: expected pattern name after '$' at offset %d", start)
	}
	return Token{Kind: TokDollarIdent, Str: "$" + string(l.src[nameStart:l.pos]), Pos: start}, nil
}

func (l *Lexer) lexInt(start int) (Token, error) {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	n, err := strconv.ParseInt(string(l.src[start:l.pos]), 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("compiler: invalid integer literal at offset %d: %w", start, err)
	}
	return Token{Kind: TokInt, Int: n, Pos: start}, nil
}

func (l *Lexer) lexIdent(start int) (Token, error) {
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Str: text, Pos: start}, nil
	}
	return Token{Kind: TokIdent, Str: text, Pos: start}, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
