// Package guard implements the entity protection and safety verification
// engine: masking of medically critical spans before translation,
// restoration afterwards, and the multi-check verdict that decides whether
// a translation can be released. Every unresolved doubt ends in rejection.
package guard

// SpanKind classifies a protected span.
type SpanKind string

const (
	SpanMedication SpanKind = "medication"
	SpanDosage     SpanKind = "dosage"
	SpanNegation   SpanKind = "negation"
)

// Violation codes. All except LENGTH_ANOMALY are fatal to the request.
const (
	CodePlaceholderCorruption = "PLACEHOLDER_CORRUPTION"
	CodeNumericMismatch       = "NUMERIC_MISMATCH"
	CodeNegationLoss          = "NEGATION_LOSS"
	CodeLengthAnomaly         = "LENGTH_ANOMALY"
	CodeEmptyTranslation      = "EMPTY_TRANSLATION"
)

// ProtectedSpan is one detected entity in the source text. Medication and
// dosage spans are substituted by their placeholder token; negation spans
// are registered for bookkeeping only and keep their surface form, since
// translating them correctly is part of the model's job.
type ProtectedSpan struct {
	Kind     SpanKind `json:"kind"`
	ID       string   `json:"placeholder_id"`
	Token    string   `json:"token,omitempty"`
	Tag      string   `json:"tag"`
	Original string   `json:"original_text"`
	Start    int      `json:"start_offset"`
	End      int      `json:"end_offset"`
}

// SpanLedger is the ordered record of protected spans for one request.
// It is owned by that request and discarded once the response is produced.
type SpanLedger struct {
	Spans []ProtectedSpan
}

// Placeholders returns the spans that were substituted in the masked text,
// in source order.
func (l *SpanLedger) Placeholders() []ProtectedSpan {
	out := make([]ProtectedSpan, 0, len(l.Spans))
	for _, s := range l.Spans {
		if s.Token != "" {
			out = append(out, s)
		}
	}
	return out
}

// ByID finds a span by placeholder id.
func (l *SpanLedger) ByID(id string) (ProtectedSpan, bool) {
	for _, s := range l.Spans {
		if s.ID == id {
			return s, true
		}
	}
	return ProtectedSpan{}, false
}

// NegationMarkers returns the source negation markers registered in the
// ledger.
func (l *SpanLedger) NegationMarkers() []string {
	var out []string
	for _, s := range l.Spans {
		if s.Kind == SpanNegation {
			out = append(out, s.Original)
		}
	}
	return out
}

// IssueKind classifies a restoration issue.
type IssueKind string

const (
	// IssueMissing means a placeholder never appeared in the translated text.
	IssueMissing IssueKind = "missing"
	// IssueDuplicate means a placeholder appeared more times than expected.
	IssueDuplicate IssueKind = "duplicate"
	// IssueCorrupted means a placeholder-shaped token failed integrity
	// validation.
	IssueCorrupted IssueKind = "corrupted"
)

// RestorationIssue records a single placeholder round-trip failure. Issues
// are collected, never thrown, so the verifier can apply holistic policy.
type RestorationIssue struct {
	Kind          IssueKind
	PlaceholderID string
	Token         string
	Detail        string
	// Recoverable marks corruption mild enough for a bounded repair
	// attempt: delimiters and kind+sequence prefix intact, tag garbled.
	Recoverable bool
}

// Violation is one failed safety check.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SafetyReport is the aggregate verdict for one request. Immutable after
// creation.
type SafetyReport struct {
	Violations   []Violation `json:"violations"`
	Warnings     []string    `json:"warnings"`
	RestoredText string      `json:"restored_text,omitempty"`
	Accepted     bool        `json:"accepted"`
}
