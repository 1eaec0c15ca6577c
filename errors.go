package rulescan

import "errors"

// Sentinel errors for the scanner runtime, wrapped with %w at call
// boundaries per the teacher's helper.go convention.
var (
	// ErrResultsInUse is returned by Scan when a previously returned
	// ScanResults view has not yet been released: spec §3 forbids a
	// concurrent scan from starting while one is checked out.
	ErrResultsInUse = errors.New("rulescan: previous ScanResults still in use")

	// ErrScanTimeout is returned when a host-supplied deadline elapses
	// before a scan completes.
	ErrScanTimeout = errors.New("rulescan: scan exceeded deadline")

	// ErrUnknownModule is returned by Scanner.New when CompiledRules
	// imports a module name absent from the registry.
	ErrUnknownModule = errors.New("rulescan: unknown module import")
)

// ScanError wraps a VM trap observed during a scan. The scanner remains
// usable after one: its context is reset on the next Scan call.
type ScanError struct {
	Rule *Rule
	Err  error
}

func (e *ScanError) Error() string {
	if e.Rule != nil {
		return "rulescan: scan error in rule " + e.Rule.Identifier + ": " + e.Err.Error()
	}
	return "rulescan: scan error: " + e.Err.Error()
}

func (e *ScanError) Unwrap() error { return e.Err }
