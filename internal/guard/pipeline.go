package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/logger"
)

// Translator is the external model boundary. The engine knows nothing about
// its internals and assumes it may drop, duplicate, reorder, or garble
// placeholder tokens. Failures are propagated to the caller, never retried
// here.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Request is one translation request entering the pipeline.
type Request struct {
	ID         string
	Text       string
	SourceLang string
	TargetLang string
}

// Result is the final accept/reject outcome for a request. On rejection
// RestoredText is empty: a partially substituted or best-guess translation
// is never released.
type Result struct {
	RequestID    string         `json:"request_id"`
	Accepted     bool           `json:"accepted"`
	RestoredText string         `json:"restored_text,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Violations   []Violation    `json:"violations,omitempty"`
	SpanCount    int            `json:"span_count"`
	SpanKinds    map[string]int `json:"-"`
	Repaired     int            `json:"-"`
	Duration     time.Duration  `json:"-"`
}

// Pipeline wires mask → translate → restore (± repair) → verify for one
// request at a time. A single Pipeline is shared across all concurrent
// requests: every component it holds is read-only after construction, and
// all per-request state lives in local values.
type Pipeline struct {
	masker     *Masker
	restorer   *Restorer
	repairer   *Repairer
	verifier   *Verifier
	translator Translator
	logger     *logger.Logger
}

// NewPipeline assembles the safety pipeline around an external translator.
func NewPipeline(masker *Masker, restorer *Restorer, repairer *Repairer, verifier *Verifier, translator Translator, log *logger.Logger) *Pipeline {
	return &Pipeline{
		masker:     masker,
		restorer:   restorer,
		repairer:   repairer,
		verifier:   verifier,
		translator: translator,
		logger:     log,
	}
}

// Process runs one request through the full pipeline. A non-nil error means
// the upstream translation call failed and nothing was verified; safety
// rejections are reported through Result, not through error.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := p.logger.WithRequestID(req.ID)

	maskedText, ledger := p.masker.Mask(req.Text, req.SourceLang)
	log.Debug("Source masked",
		zap.Int("spans", len(ledger.Spans)),
		zap.Int("placeholders", len(ledger.Placeholders())),
	)

	translated, err := p.translator.Translate(ctx, maskedText, req.SourceLang, req.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("translation failed for request %s: %w", req.ID, err)
	}

	restored, issues := p.restorer.Restore(translated, ledger)

	// Single bounded repair pass for recoverable corruption, re-fed
	// through the restorer so the repaired token goes down the normal
	// validation path.
	repairedText, repairs := p.repairTokens(translated, ledger, issues)
	if repairs > 0 {
		restored, issues = p.restorer.Restore(repairedText, ledger)
	}

	report := p.verifier.Verify(req.Text, ledger, restored, issues, req.SourceLang, req.TargetLang)

	result := &Result{
		RequestID:  req.ID,
		Accepted:   report.Accepted,
		Warnings:   report.Warnings,
		Violations: report.Violations,
		SpanCount:  len(ledger.Spans),
		SpanKinds:  spanKindCounts(ledger),
		Repaired:   repairs,
		Duration:   time.Since(start),
	}
	if report.Accepted {
		result.RestoredText = report.RestoredText
	}

	log.LogVerdict(result.Accepted, violationCodes(result.Violations), result.Warnings,
		float64(result.Duration.Microseconds())/1000.0)

	return result, nil
}

// repairTokens rewrites recoverable garbled tokens into their expected form.
// Returns the rewritten text and the number of repairs applied.
func (p *Pipeline) repairTokens(translated string, ledger *SpanLedger, issues []RestorationIssue) (string, int) {
	resolved := make(map[string]bool)
	for _, span := range ledger.Placeholders() {
		resolved[span.ID] = !hasIssueFor(issues, span.ID) && tokenPresent(translated, span)
	}

	repairs := 0
	out := translated

	for _, issue := range issues {
		if !issue.Recoverable {
			continue
		}
		span, ok := p.repairer.AttemptRepair(issue.Token, ledger, resolved)
		if !ok {
			continue
		}
		out = strings.Replace(out, issue.Token, span.Token, 1)
		resolved[span.ID] = true
		repairs++
	}

	return out, repairs
}

func tokenPresent(text string, span ProtectedSpan) bool {
	return strings.Contains(text, span.Token)
}

func spanKindCounts(ledger *SpanLedger) map[string]int {
	counts := make(map[string]int)
	for _, s := range ledger.Spans {
		counts[string(s.Kind)]++
	}
	return counts
}

func violationCodes(violations []Violation) []string {
	codes := make([]string, 0, len(violations))
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	return codes
}
