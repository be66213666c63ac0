package guard

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/logger"
)

// Restorer maps placeholder tokens found in translated output back to the
// original span content. Matching is by placeholder id, never by position:
// the model may reorder clauses freely. Loss, duplication and tag failures
// are collected as issues rather than thrown, so the verifier sees the full
// picture at once.
type Restorer struct {
	logger *logger.Logger
}

// NewRestorer creates an entity restorer.
func NewRestorer(log *logger.Logger) *Restorer {
	return &Restorer{logger: log}
}

// Restore substitutes original span content for every valid placeholder in
// translated. If a placeholder appears more times than expected, only the
// first occurrence is substituted and the extras are reported. Placeholders
// that never appear are reported as missing.
func (r *Restorer) Restore(translated string, ledger *SpanLedger) (string, []RestorationIssue) {
	var issues []RestorationIssue

	expected := make(map[string]ProtectedSpan)
	for _, span := range ledger.Placeholders() {
		expected[span.ID] = span
	}

	resolved := make(map[string]bool)

	var out strings.Builder
	out.Grow(len(translated))
	last := 0

	for _, loc := range candidateRe.FindAllStringSubmatchIndex(translated, -1) {
		token := translated[loc[0]:loc[1]]
		id := translated[loc[2]:loc[3]] + translated[loc[4]:loc[5]]
		tag := translated[loc[6]:loc[7]]

		span, known := expected[id]
		switch {
		case !known:
			issues = append(issues, RestorationIssue{
				Kind:          IssueCorrupted,
				PlaceholderID: id,
				Token:         token,
				Detail:        fmt.Sprintf("token %s references no ledger entry", token),
			})

		case span.Tag != tag:
			issues = append(issues, RestorationIssue{
				Kind:          IssueCorrupted,
				PlaceholderID: id,
				Token:         token,
				Detail:        fmt.Sprintf("integrity tag mismatch: got %q, want %q", tag, span.Tag),
				Recoverable:   !resolved[id],
			})

		case resolved[id]:
			issues = append(issues, RestorationIssue{
				Kind:          IssueDuplicate,
				PlaceholderID: id,
				Token:         token,
				Detail:        fmt.Sprintf("placeholder %s duplicated by the model", id),
			})

		default:
			out.WriteString(translated[last:loc[0]])
			out.WriteString(span.Original)
			last = loc[1]
			resolved[id] = true
		}
	}

	out.WriteString(translated[last:])

	// Anything the model dropped entirely.
	for _, span := range ledger.Placeholders() {
		if !resolved[span.ID] && !hasIssueFor(issues, span.ID) {
			issues = append(issues, RestorationIssue{
				Kind:          IssueMissing,
				PlaceholderID: span.ID,
				Detail:        fmt.Sprintf("placeholder %s absent from translated output", span.ID),
			})
		}
	}

	if len(issues) > 0 {
		r.logger.Warn("Restoration issues detected", zap.Int("count", len(issues)))
	}

	return out.String(), issues
}

func hasIssueFor(issues []RestorationIssue, id string) bool {
	for _, issue := range issues {
		if issue.PlaceholderID == id {
			return true
		}
	}
	return false
}
