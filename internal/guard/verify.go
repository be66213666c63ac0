package guard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/lexicon"
	"github.com/yamahealth/medguard/internal/logger"
)

// numberRe extracts digit sequences, including decimal values written with
// either comma or point.
var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Verifier runs the independent safety checks over (source text, ledger,
// restored text). Checks never short-circuit: a caller always receives the
// complete violation set. Any single violation is sufficient to reject —
// absence of proof of safety is treated as unsafe.
type Verifier struct {
	negations *lexicon.Set
	cfg       config.SafetyConfig
	logger    *logger.Logger
}

// NewVerifier creates a safety verifier.
func NewVerifier(negations *lexicon.Set, cfg config.SafetyConfig, log *logger.Logger) *Verifier {
	return &Verifier{negations: negations, cfg: cfg, logger: log}
}

// Verify produces the safety report for one request. restorationIssues come
// from the restorer after any repair pass.
func (v *Verifier) Verify(sourceText string, ledger *SpanLedger, restoredText string, restorationIssues []RestorationIssue, sourceLang, targetLang string) *SafetyReport {
	report := &SafetyReport{}

	v.checkPlaceholderIntegrity(report, restorationIssues)
	v.checkEmptyTranslation(report, sourceText, restoredText)
	v.checkNumericIntegrity(report, sourceText, restoredText)
	v.checkNegationPreservation(report, sourceText, restoredText, ledger, sourceLang, targetLang)
	v.checkLengthAnomaly(report, sourceText, restoredText)

	report.Accepted = len(report.Violations) == 0
	if report.Accepted {
		report.RestoredText = restoredText
	}

	for _, violation := range report.Violations {
		v.logger.LogSafetyViolation(violation.Code, violation.Message, sourceText, restoredText)
	}

	return report
}

// checkPlaceholderIntegrity turns every unresolved restoration issue into a
// violation: a protected span that failed to round-trip is always fatal.
func (v *Verifier) checkPlaceholderIntegrity(report *SafetyReport, issues []RestorationIssue) {
	for _, issue := range issues {
		report.Violations = append(report.Violations, Violation{
			Code:    CodePlaceholderCorruption,
			Message: fmt.Sprintf("placeholder %s: %s", issue.PlaceholderID, issue.Detail),
		})
	}
}

func (v *Verifier) checkEmptyTranslation(report *SafetyReport, source, restored string) {
	if strings.TrimSpace(source) != "" && strings.TrimSpace(restored) == "" {
		report.Violations = append(report.Violations, Violation{
			Code:    CodeEmptyTranslation,
			Message: "translated text is empty",
		})
	}
}

// checkNumericIntegrity compares the multisets of digit sequences: grammar
// reordering is allowed, but no value may appear, disappear, or change.
func (v *Verifier) checkNumericIntegrity(report *SafetyReport, source, restored string) {
	sourceNums := extractNumbers(source)
	restoredNums := extractNumbers(restored)

	if !equalMultisets(sourceNums, restoredNums) {
		report.Violations = append(report.Violations, Violation{
			Code: CodeNumericMismatch,
			Message: fmt.Sprintf("digit sequences differ: source %v, translated %v",
				sourceNums, restoredNums),
		})
		v.logger.Debug("Numeric integrity check failed",
			zap.Strings("source_numbers", sourceNums),
			zap.Strings("restored_numbers", restoredNums),
		)
	}
}

// checkNegationPreservation re-scans both texts with the per-language
// lexicons. Negation markers are translated, not masked, so presence must
// be verified post-hoc in the target language.
func (v *Verifier) checkNegationPreservation(report *SafetyReport, source, restored string, ledger *SpanLedger, sourceLang, targetLang string) {
	sourceDet, okSource := v.negations.ForLanguage(sourceLang)
	targetDet, okTarget := v.negations.ForLanguage(targetLang)
	if !okSource || !okTarget {
		return
	}

	sourceMatches := sourceDet.FindAll(source)
	if len(sourceMatches) == 0 {
		return
	}

	if !targetDet.Contains(restored) {
		markers := make([]string, 0, len(sourceMatches))
		for _, m := range sourceMatches {
			markers = append(markers, m.Marker)
		}
		// Ledger bookkeeping from masking may carry markers the re-scan
		// window rules collapse; the union is reported.
		for _, m := range ledger.NegationMarkers() {
			if !containsString(markers, m) {
				markers = append(markers, m)
			}
		}

		report.Violations = append(report.Violations, Violation{
			Code: CodeNegationLoss,
			Message: fmt.Sprintf("source negation markers %v have no counterpart in the %s translation",
				markers, targetLang),
		})
	}
}

// checkLengthAnomaly is a heuristic signal only: a warning, never a
// rejection on its own.
func (v *Verifier) checkLengthAnomaly(report *SafetyReport, source, restored string) {
	sourceLen := len(strings.TrimSpace(source))
	restoredLen := len(strings.TrimSpace(restored))
	if sourceLen == 0 || restoredLen == 0 {
		return
	}

	ratio := float64(restoredLen) / float64(sourceLen)
	if ratio < v.cfg.LengthRatioMin || ratio > v.cfg.LengthRatioMax {
		report.Warnings = append(report.Warnings, fmt.Sprintf(
			"%s: length ratio %.2f outside tolerance [%.2f, %.2f]",
			CodeLengthAnomaly, ratio, v.cfg.LengthRatioMin, v.cfg.LengthRatioMax))
	}
}

// extractNumbers returns all digit sequences with decimal commas normalized
// to points, so "1,5" and "1.5" compare equal.
func extractNumbers(text string) []string {
	nums := numberRe.FindAllString(text, -1)
	for i, n := range nums {
		nums[i] = strings.ReplaceAll(n, ",", ".")
	}
	return nums
}

func equalMultisets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
