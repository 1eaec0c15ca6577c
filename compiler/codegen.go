package compiler

import (
	"fmt"

	"github.com/saferwall/rulescan"
	"github.com/saferwall/rulescan/internal/vm"
)

// lowerFile compiles a parsed RuleFile into a CompiledRules artifact via
// rulescan.Builder, the seam that lets this package depend on the root
// package without the root package depending back on the compiler.
func lowerFile(file *RuleFile) (*rulescan.CompiledRules, error) {
	b := rulescan.NewBuilder()
	for _, decl := range file.Rules {
		if err := lowerRule(b, decl); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

func lowerRule(b *rulescan.Builder, decl *RuleDecl) error {
	rule := rulescan.Rule{
		Identifier: decl.Identifier,
		Namespace:  decl.Namespace,
	}

	if len(decl.Meta) > 0 {
		rule.Meta = make(map[string]rulescan.MetaValue, len(decl.Meta))
		seen := make(map[string]bool, len(decl.Meta))
		for _, m := range decl.Meta {
			if seen[m.Key] {
				return fmt.Errorf("compiler: duplicate meta key %q in rule %s", m.Key, decl.Identifier)
			}
			seen[m.Key] = true
			rule.MetaOrder = append(rule.MetaOrder, m.Key)
			rule.Meta[m.Key] = lowerMetaLiteral(m.Value)
		}
	}

	patternIDs := make(map[string]uint32, len(decl.Strings))
	for _, sd := range decl.Strings {
		if sd.Literal == "" {
			return fmt.Errorf("compiler: empty pattern %s in rule %s", sd.Name, decl.Identifier)
		}
		id := b.InternPattern(decl.Identifier, sd.Name, []byte(sd.Literal))
		patternIDs[sd.Name] = id
		rule.Patterns = append(rule.Patterns, rulescan.PatternSpec{
			Name:    sd.Name,
			Literal: []byte(sd.Literal),
			ID:      id,
		})
	}

	var prog vm.Program
	if err := emit(&prog, decl.Condition, patternIDs, b); err != nil {
		return fmt.Errorf("compiler: rule %s: %w", decl.Identifier, err)
	}
	rule.Condition = prog

	b.AddRule(rule)
	return nil
}

func lowerMetaLiteral(l MetaLiteral) rulescan.MetaValue {
	switch l.Kind {
	case MetaLitInt:
		return rulescan.MetaValue{Kind: rulescan.MetaInt, Int: l.Int}
	case MetaLitBool:
		return rulescan.MetaValue{Kind: rulescan.MetaBool, Bool: l.Bool}
	default:
		return rulescan.MetaValue{Kind: rulescan.MetaString, Str: l.Str}
	}
}

// emit appends prog's instructions for expr, leaving exactly one value on
// the VM stack when it returns, matching vm.Store.Run's contract.
func emit(prog *vm.Program, expr Expr, patternIDs map[string]uint32, b *rulescan.Builder) error {
	switch e := expr.(type) {
	case BoolLit:
		*prog = append(*prog, vm.Instr{Op: vm.OpConstBool, Bool: e.Value})
	case IntLit:
		*prog = append(*prog, vm.Instr{Op: vm.OpConstInt, Int: e.Value})
	case Filesize:
		*prog = append(*prog, vm.Instr{Op: vm.OpLoadFilesize})
	case PatternRef:
		id, ok := patternIDs[e.Name]
		if !ok {
			return fmt.Errorf("undeclared pattern %s", e.Name)
		}
		*prog = append(*prog, vm.Instr{Op: vm.OpMatchPattern, PatternID: id})
	case FieldRef:
		if len(e.Path) > 0 {
			b.UseModule(e.Path[0])
		}
		*prog = append(*prog, vm.Instr{Op: vm.OpLoadField, Path: e.Path})
	case BinOp:
		if err := emit(prog, e.Left, patternIDs, b); err != nil {
			return err
		}
		if err := emit(prog, e.Right, patternIDs, b); err != nil {
			return err
		}
		*prog = append(*prog, vm.Instr{Op: binOpFor(e.Op)})
	case LogicalAnd:
		if err := emit(prog, e.Left, patternIDs, b); err != nil {
			return err
		}
		if err := emit(prog, e.Right, patternIDs, b); err != nil {
			return err
		}
		*prog = append(*prog, vm.Instr{Op: vm.OpAnd})
	case LogicalOr:
		if err := emit(prog, e.Left, patternIDs, b); err != nil {
			return err
		}
		if err := emit(prog, e.Right, patternIDs, b); err != nil {
			return err
		}
		*prog = append(*prog, vm.Instr{Op: vm.OpOr})
	case LogicalNot:
		if err := emit(prog, e.Operand, patternIDs, b); err != nil {
			return err
		}
		*prog = append(*prog, vm.Instr{Op: vm.OpNot})
	default:
		return fmt.Errorf("compiler: unhandled expression node %T", expr)
	}
	return nil
}

func binOpFor(k TokKind) vm.Op {
	switch k {
	case TokLT:
		return vm.OpCmpLT
	case TokLE:
		return vm.OpCmpLE
	case TokGT:
		return vm.OpCmpGT
	case TokGE:
		return vm.OpCmpGE
	case TokEQ:
		return vm.OpCmpEQ
	case TokNE:
		return vm.OpCmpNE
	default:
		return vm.OpCmpEQ
	}
}
