package compiler

import (
	"fmt"

	"github.com/saferwall/rulescan"
)

// SyntaxError reports a lexical or grammatical failure while compiling
// rule source. It implements error, matching spec §6's
// `compile(source_bytes) -> CompiledRules | SyntaxError`.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("compiler: syntax error at offset %d: %s", e.Offset, e.Msg)
}

// Compile parses and lowers source into a CompiledRules artifact.
func Compile(source []byte) (*rulescan.CompiledRules, error) {
	p, err := NewParser(source)
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	file, err := p.ParseFile()
	if err != nil {
		return nil, &SyntaxError{Offset: p.tok.Pos, Msg: err.Error()}
	}
	rules, err := lowerFile(file)
	if err != nil {
		return nil, &SyntaxError{Msg: err.Error()}
	}
	return rules, nil
}
