package capi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileScanRoundTrip(t *testing.T) {
	rulesH, code, msg := CompileRules([]byte(`rule dummy { condition: true }`))
	require.Equal(t, Success, code, msg)
	defer RulesDestroy(rulesH)

	scannerH, code, msg := ScannerNew(rulesH)
	require.Equal(t, Success, code, msg)
	defer ScannerDestroy(scannerH)

	resultsH, code, msg := ScannerScan(scannerH, nil)
	require.Equal(t, Success, code, msg)
	defer ResultsDestroy(resultsH)

	count, code, msg := ResultsMatchingCount(resultsH)
	require.Equal(t, Success, code, msg)
	require.Equal(t, 1, count)
}

func TestCompileRulesSyntaxError(t *testing.T) {
	_, code, msg := CompileRules([]byte(`rule broken {`))
	require.Equal(t, SyntaxError, code)
	require.NotEmpty(t, msg)
}

func TestInvalidHandleIsInvalidArgument(t *testing.T) {
	_, code, _ := ScannerNew(Handle(999999))
	require.Equal(t, InvalidArgument, code)
}

func TestResultsRuleMetadataAndPatternMatches(t *testing.T) {
	rulesH, code, msg := CompileRules([]byte(
		`rule p { meta: author = "x" strings: $a = "AB" condition: $a }`))
	require.Equal(t, Success, code, msg)
	defer RulesDestroy(rulesH)

	scannerH, code, msg := ScannerNew(rulesH)
	require.Equal(t, Success, code, msg)
	defer ScannerDestroy(scannerH)

	resultsH, code, msg := ScannerScan(scannerH, []byte("xxABxxAB"))
	require.Equal(t, Success, code, msg)
	defer ResultsDestroy(resultsH)

	ruleH, code, msg := ResultsRuleAt(resultsH, 0)
	require.Equal(t, Success, code, msg)
	defer RuleDestroy(ruleH)

	ident, code, msg := RuleIdentifier(ruleH)
	require.Equal(t, Success, code, msg)
	require.Equal(t, "p", ident)

	metaCount, code, msg := RuleMetadataCount(ruleH)
	require.Equal(t, Success, code, msg)
	require.Equal(t, 1, metaCount)

	name, val, code, msg := RuleMetadataAt(ruleH, 0)
	require.Equal(t, Success, code, msg)
	require.Equal(t, "author", name)
	require.Equal(t, "x", val.Str)

	matchesH, code, msg := ResultsPatternMatches(resultsH, ruleH, "$a")
	require.Equal(t, Success, code, msg)
	defer MatchesDestroy(matchesH)

	count, code, msg := MatchesCount(matchesH)
	require.Equal(t, Success, code, msg)
	require.Equal(t, 2, count)

	offset, length, code, msg := MatchAt(matchesH, 0)
	require.Equal(t, Success, code, msg)
	require.Equal(t, 2, offset)
	require.Equal(t, 2, length)
}

func TestRuleNoMetadataReturnsNoMetadataCode(t *testing.T) {
	rulesH, code, msg := CompileRules([]byte(`rule dummy { condition: true }`))
	require.Equal(t, Success, code, msg)
	defer RulesDestroy(rulesH)

	scannerH, code, msg := ScannerNew(rulesH)
	require.Equal(t, Success, code, msg)
	defer ScannerDestroy(scannerH)

	resultsH, code, msg := ScannerScan(scannerH, nil)
	require.Equal(t, Success, code, msg)
	defer ResultsDestroy(resultsH)

	ruleH, code, msg := ResultsRuleAt(resultsH, 0)
	require.Equal(t, Success, code, msg)
	defer RuleDestroy(ruleH)

	_, code, _ = RuleMetadataCount(ruleH)
	require.Equal(t, NoMetadata, code)
}

func TestSerializeDeserializeHandles(t *testing.T) {
	rulesH, code, msg := CompileRules([]byte(`rule dummy { condition: true }`))
	require.Equal(t, Success, code, msg)
	defer RulesDestroy(rulesH)

	blob, code, msg := RulesSerialize(rulesH)
	require.Equal(t, Success, code, msg)

	restoredH, code, msg := RulesDeserialize(blob)
	require.Equal(t, Success, code, msg)
	defer RulesDestroy(restoredH)
}
