package rulescan

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/saferwall/rulescan/internal/patternscan"
)

// rulescanFormatVersion is bumped whenever the serialized envelope's shape
// changes; Deserialize rejects any other value.
const rulescanFormatVersion = 1

// ErrSerializationVersion is returned by Deserialize when the blob's
// version tag does not match rulescanFormatVersion.
var ErrSerializationVersion = errors.New("rulescan: unsupported serialization version")

// CompiledRules is the immutable artifact a Scanner borrows: an ordered
// rule list (RuleID == index), the modules a scan must populate, and the
// pattern automaton those rules' `$name` references search against.
//
// A CompiledRules is safe to share, immutably, across any number of
// Scanners: constructing a Scanner from it allocates no memory
// proportional to the rule count beyond the per-scanner context.
type CompiledRules struct {
	rules      []Rule
	modules    []string
	patterns   [][]byte // literal bytes, indexed by pattern ID
	automaton  *patternscan.Automaton
	patternIDs map[string]uint32 // "ruleIdentifier.$patName" -> pattern ID
}

// Rules returns every compiled rule, in RuleID order.
func (c *CompiledRules) Rules() []Rule { return c.rules }

// Rule returns the rule with the given ID.
func (c *CompiledRules) Rule(id RuleID) (*Rule, bool) {
	if int(id) >= len(c.rules) {
		return nil, false
	}
	return &c.rules[int(id)], true
}

// Len returns the number of compiled rules.
func (c *CompiledRules) Len() int { return len(c.rules) }

// Modules returns the imported module names a scan must populate, in
// declaration order.
func (c *CompiledRules) Modules() []string { return c.modules }

// Builder assembles a CompiledRules incrementally. It is the seam the
// out-of-core compiler package uses to hand back a finished artifact
// without this package depending on the compiler.
type Builder struct {
	rules      []Rule
	modules    []string
	patterns   [][]byte
	patternIDs map[string]uint32
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{patternIDs: make(map[string]uint32)}
}

// UseModule declares a module import, if not already declared.
func (b *Builder) UseModule(name string) {
	for _, m := range b.modules {
		if m == name {
			return
		}
	}
	b.modules = append(b.modules, name)
}

// InternPattern assigns (or reuses) a stable pattern ID for ruleIdentifier's
// $patName literal, registering it with the shared automaton built by
// Build.
func (b *Builder) InternPattern(ruleIdentifier, patName string, literal []byte) uint32 {
	key := ruleIdentifier + "." + patName
	if id, ok := b.patternIDs[key]; ok {
		return id
	}
	id := uint32(len(b.patterns))
	b.patterns = append(b.patterns, literal)
	b.patternIDs[key] = id
	return id
}

// AddRule appends a fully constructed rule; its ID is assigned as the
// current length of the rule list, preserving the dense-ID invariant.
func (b *Builder) AddRule(r Rule) RuleID {
	id := RuleID(len(b.rules))
	r.ID = id
	b.rules = append(b.rules, r)
	return id
}

// Build finalizes the artifact, constructing the shared pattern automaton
// once for every Scanner that will later borrow it.
func (b *Builder) Build() *CompiledRules {
	return &CompiledRules{
		rules:      b.rules,
		modules:    b.modules,
		patterns:   b.patterns,
		automaton:  patternscan.Build(b.patterns),
		patternIDs: b.patternIDs,
	}
}

// gobEnvelope is the on-disk shape Serialize/Deserialize round-trip.
// vm.Program instructions are gob-friendly flat structs, so no custom
// codec is needed beyond tagging the version.
type gobEnvelope struct {
	Version  int
	Rules    []Rule
	Modules  []string
	Patterns [][]byte
	// PatternIDs keys are "ruleIdentifier.$patName"; gob requires a
	// concrete map type, which map[string]uint32 already is.
	PatternIDs map[string]uint32
}

// Serialize encodes the artifact as a version-tagged gob envelope (the
// teacher's own universal choice for config persistence, and the
// simplest binary codec that round-trips vm.Program's flat Instr structs
// with no custom marshaling).
func (c *CompiledRules) Serialize() ([]byte, error) {
	env := gobEnvelope{
		Version:    rulescanFormatVersion,
		Rules:      c.rules,
		Modules:    c.modules,
		Patterns:   c.patterns,
		PatternIDs: c.patternIDs,
	}
	// The automaton is rebuilt from its source patterns on deserialize
	// rather than serialized directly, since patternscan.Automaton holds
	// unexported pointer-linked trie nodes that gob cannot encode.

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("rulescan: serialize: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize decodes bytes produced by Serialize, rejecting a mismatched
// version tag.
func Deserialize(data []byte) (*CompiledRules, error) {
	var env gobEnvelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, fmt.Errorf("rulescan: deserialize: %w", err)
	}
	if env.Version != rulescanFormatVersion {
		return nil, ErrSerializationVersion
	}
	return &CompiledRules{
		rules:      env.Rules,
		modules:    env.Modules,
		patterns:   env.Patterns,
		automaton:  patternscan.Build(env.Patterns),
		patternIDs: env.PatternIDs,
	}, nil
}
