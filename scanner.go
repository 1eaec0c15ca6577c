package rulescan

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/saferwall/rulescan/internal/patternscan"
	"github.com/saferwall/rulescan/internal/rtlog"
	"github.com/saferwall/rulescan/internal/stringpool"
	"github.com/saferwall/rulescan/internal/value"
	"github.com/saferwall/rulescan/internal/vm"
	"github.com/saferwall/rulescan/modules"
)

// Options configures a Scanner, in the teacher's functional-options-via-
// struct idiom (saferwall/pe's pe.Options): zero value is a sensible
// default.
type Options struct {
	// PoolResetThreshold is the string-pool byte size above which the
	// pool is discarded and reallocated between scans. Zero selects
	// stringpool.DefaultResetThreshold.
	PoolResetThreshold int

	// Registry overrides the module registry; nil selects modules.Default.
	Registry modules.Registry

	// Debug enables the schema-assertion fast-fail path described in
	// spec §4.2; off by default so a schema mismatch in a third-party
	// module never crashes a production scanner.
	Debug bool

	// Logger receives scan-time diagnostics (errors returned by a module's
	// Main); nil selects a stdout logger filtered to error level.
	Logger log.Logger
}

// scanContext is the per-scan mutable state described in spec §3: match
// bitmap and list, the data pointer valid only between Scan's entry and
// exit, the root symbol table assembled from module outputs, an optional
// override for dotted-path evaluation, and the runtime string pool.
type scanContext struct {
	rulesMatching []RuleID
	bitmap        *bitset

	scannedData []byte // nil outside the scan window

	rootStruct    map[string]value.Value
	currentStruct *value.Value

	pool *stringpool.Pool

	patternMatches map[uint32][]patternscan.Match
}

// Scanner evaluates one CompiledRules artifact's rules against repeated
// scan calls. It borrows the artifact for its own lifetime (spec §4.1,
// §9 "Scanner/rules lifetime") and is not safe for concurrent use (spec
// §5): callers wanting parallelism construct one Scanner per worker over
// a shared CompiledRules.
type Scanner struct {
	rules    *CompiledRules
	registry modules.Registry
	opts     Options
	logger   *log.Helper

	store *vm.Store
	ctx   *scanContext

	resultsInUse bool
}

// New constructs a Scanner over rules. Instantiation is fatal on failure
// (spec §4.1): an import naming an unregistered module aborts
// construction rather than deferring the failure to the first scan.
func New(rules *CompiledRules, opts *Options) (*Scanner, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	registry := o.Registry
	if registry == nil {
		registry = modules.Default
	}
	for _, name := range rules.Modules() {
		if _, ok := registry.Lookup(name); !ok {
			return nil, ErrUnknownModule
		}
	}
	if o.PoolResetThreshold == 0 {
		o.PoolResetThreshold = stringpool.DefaultResetThreshold
	}

	s := &Scanner{
		rules:    rules,
		registry: registry,
		opts:     o,
		logger:   rtlog.New(o.Logger),
		ctx: &scanContext{
			bitmap:         newBitset(rules.Len()),
			rootStruct:     make(map[string]value.Value),
			pool:           stringpool.New(),
			patternMatches: make(map[uint32][]patternscan.Match),
		},
	}

	s.store = vm.NewStore(vm.Imports{
		LookupField:  s.lookupField,
		MatchPattern: s.matchPattern,
	})
	return s, nil
}

// Scan drives one evaluation of every compiled rule against data,
// performing the six steps of spec §4.4. It returns a ScanResults view
// borrowing the scanner's context; the view must be released with its
// Release method before another scan may start, otherwise the next Scan
// returns ErrResultsInUse.
func (s *Scanner) Scan(data []byte) (*ScanResults, error) {
	return s.ScanWithContext(context.Background(), data)
}

// ScanWithContext is Scan with cooperative cancellation: ctx is checked
// between each rule's condition program, the closest pure-Go analogue of
// a sandboxed host's epoch-interruption mechanism (spec §5
// "Cancellation"). A deadline or cancellation observed mid-scan is
// reported as ErrScanTimeout with no partial results surfaced, matching
// "partial results from an interrupted scan are not observable."
func (s *Scanner) ScanWithContext(ctx context.Context, data []byte) (*ScanResults, error) {
	if s.resultsInUse {
		return nil, ErrResultsInUse
	}

	// Step 1: filesize global.
	s.store.Globals.Filesize = int64(len(data))

	// Step 2: reset per-scan state.
	s.ctx.bitmap.Clear()
	s.ctx.rulesMatching = s.ctx.rulesMatching[:0]
	s.ctx.scannedData = data
	s.ctx.currentStruct = nil
	for k := range s.ctx.patternMatches {
		delete(s.ctx.patternMatches, k)
	}
	s.ctx.pool.ResetIfLarge(s.opts.PoolResetThreshold)

	// Step 3: run every imported module's Main, insert into root_struct.
	for _, name := range s.rules.Modules() {
		desc, _ := s.registry.Lookup(name)
		v, err := desc.Main(&modules.Context{Data: data, Pool: s.ctx.pool})
		if err != nil {
			s.logger.Errorf("module %s: %v", name, err)
			v = value.Struct(nil, nil)
		} else if s.opts.Debug {
			if aerr := desc.AssertSchema(v); aerr != nil {
				panic(aerr)
			}
		}
		s.ctx.rootStruct[name] = v
	}

	// Pattern search: the automaton is static per CompiledRules, so only
	// the scan over data is per-scan work.
	s.ctx.patternMatches = s.rules.automaton.Scan(data)

	// Step 4: evaluate every rule's condition program in declared order.
	for i := range s.rules.rules {
		select {
		case <-ctx.Done():
			s.ctx.scannedData = nil
			return nil, ErrScanTimeout
		default:
		}
		rule := &s.rules.rules[i]
		matched, err := s.store.Run(rule.Condition)
		if err != nil {
			s.ctx.scannedData = nil
			return nil, &ScanError{Rule: rule, Err: err}
		}
		if matched {
			s.ctx.bitmap.Set(i)
			s.ctx.rulesMatching = append(s.ctx.rulesMatching, RuleID(i))
		}
	}

	// Step 5: clear scanned_data.
	s.ctx.scannedData = nil

	// Step 6: return a results view borrowing the context.
	s.resultsInUse = true
	return &ScanResults{scanner: s}, nil
}

// lookupField resolves a dotted module/field path against rootStruct (or
// currentStruct, when set) into a vm.Cell. The first path element names a
// module; subsequent elements are struct field names.
func (s *Scanner) lookupField(path []string) (vm.Cell, bool) {
	if len(path) == 0 {
		return vm.Cell{}, false
	}
	root := s.ctx.currentStruct
	var cur value.Value
	if root != nil {
		cur = *root
	} else {
		v, ok := s.ctx.rootStruct[path[0]]
		if !ok {
			return vm.Cell{}, false
		}
		cur = v
		path = path[1:]
	}
	for _, name := range path {
		next, ok := cur.Field(name)
		if !ok {
			return vm.Cell{}, false
		}
		cur = next
	}
	return cellFromValue(cur)
}

func cellFromValue(v value.Value) (vm.Cell, bool) {
	switch v.Kind() {
	case value.KindInt:
		n, _ := v.AsInt()
		return vm.CellInt(n), true
	case value.KindFloat:
		f, _ := v.AsFloat()
		return vm.CellFloat(f), true
	case value.KindBool:
		b, _ := v.AsBool()
		return vm.CellBool(b), true
	case value.KindString:
		str, _ := v.AsString()
		return vm.CellInt(int64(len(str))), true
	default:
		return vm.Cell{}, false
	}
}

// matchPattern reports whether patternID has at least one match in the
// current scan, the VM's OpMatchPattern host import.
func (s *Scanner) matchPattern(patternID uint32) bool {
	return patternscan.HasMatch(s.ctx.patternMatches, patternID)
}

// ScanWithTimeout scans data, aborting with ErrScanTimeout if d elapses
// first. The closest pure-Go analogue of a sandboxed host's deadline-
// enforced interruption (spec §5).
func (s *Scanner) ScanWithTimeout(data []byte, d time.Duration) (*ScanResults, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.ScanWithContext(ctx, data)
}
