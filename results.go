package rulescan

import "github.com/saferwall/rulescan/internal/patternscan"

// ScanResults is a read-only view over one completed scan, borrowing its
// owning Scanner's context. No mutation is possible through it, and the
// owning Scanner refuses to start another scan while a view remains
// unreleased (spec §3 "no concurrent scan may start while one exists").
type ScanResults struct {
	scanner *Scanner
}

// Release marks the view as no longer in use, permitting the next Scan
// call. Idempotent.
func (r *ScanResults) Release() {
	if r.scanner != nil {
		r.scanner.resultsInUse = false
	}
}

// MatchingRules returns the number of rules that matched.
func (r *ScanResults) MatchingRules() int {
	return len(r.scanner.ctx.rulesMatching)
}

// Iter returns a single-pass iterator over matched rules, in the order
// they were recorded during the scan (spec §4.5).
func (r *ScanResults) Iter() *MatchIterator {
	return &MatchIterator{scanner: r.scanner}
}

// IterNonMatches returns a single-pass iterator over unmatched rules, in
// ascending RuleID order, disjoint from Iter's results (spec §4.5 "must
// not visit any rule in rules_matching").
func (r *ScanResults) IterNonMatches() *NonMatchIterator {
	return &NonMatchIterator{scanner: r.scanner}
}

// PatternMatches returns the offset+length matches recorded during this
// scan for ruleID's pattern named patternName, the accessor spec §1 and
// §8 scenario 3 call for ("pattern $a has two matches at offsets 2 and 6,
// each of length 2"). ok is false when ruleID is out of range or names no
// such pattern; a true, empty result means the pattern was declared but
// did not occur in the scanned data.
func (r *ScanResults) PatternMatches(ruleID RuleID, patternName string) ([]patternscan.Match, bool) {
	rule, ok := r.scanner.rules.Rule(ruleID)
	if !ok {
		return nil, false
	}
	for _, p := range rule.Patterns {
		if p.Name == patternName {
			return r.scanner.ctx.patternMatches[p.ID], true
		}
	}
	return nil, false
}

// MatchIterator lazily yields matched rules in recorded order.
type MatchIterator struct {
	scanner *Scanner
	idx     int
}

// Next returns the next matched rule, or (nil, false) once exhausted.
func (it *MatchIterator) Next() (*Rule, bool) {
	ids := it.scanner.ctx.rulesMatching
	if it.idx >= len(ids) {
		return nil, false
	}
	id := ids[it.idx]
	it.idx++
	rule, _ := it.scanner.rules.Rule(id)
	return rule, true
}

// NonMatchIterator lazily yields unmatched rules in ascending RuleID
// order.
type NonMatchIterator struct {
	scanner *Scanner
	next    int
}

// Next returns the next unmatched rule, or (nil, false) once exhausted.
func (it *NonMatchIterator) Next() (*Rule, bool) {
	bm := it.scanner.ctx.bitmap
	for it.next < bm.Len() {
		i := it.next
		it.next++
		if !bm.Get(i) {
			rule, _ := it.scanner.rules.Rule(RuleID(i))
			return rule, true
		}
	}
	return nil, false
}
