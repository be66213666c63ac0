package guard

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/lexicon"
	"github.com/yamahealth/medguard/internal/logger"
	"github.com/yamahealth/medguard/internal/meddb"
)

// dosagePatterns recognize a numeric value plus a unit token, optionally a
// frequency expression. All are anchored: the masker only probes positions
// that start with a digit. A bare number with no unit is deliberately NOT
// matched — it stays in the text and is covered by the numeric-integrity
// check instead.
var dosagePatterns = []*regexp.Regexp{
	// Frequency expressions, French and Wolof ("3 fois par jour", "2 yoon").
	regexp.MustCompile(`(?i)^\d+\s*(?:fois|x)\s*(?:par|/)\s*(?:jours?|semaines?|mois)`),
	regexp.MustCompile(`(?i)^\d+\s*yoon`),
	// Mass/volume doses ("500mg", "2,5 ml"). Longer units listed first.
	regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?\s*(?:mcg|µg|mg|ml|cl|dl|ui|g|l)`),
	// Counted forms ("3 comprimés", "10 gouttes").
	regexp.MustCompile(`(?i)^\d+\s*(?:comprimés?|comprimes?|gélules?|gelules?|gouttes?|sachets?|cp)`),
	// Biological values: temperature, blood pressure, lab units.
	regexp.MustCompile(`(?i)^\d+(?:[.,]\d+)?\s*(?:g/dl|mmol/l|ui/l|mg/l)`),
	regexp.MustCompile(`^\d+(?:[.,]\d+)?\s*°\s*[CF]?`),
	regexp.MustCompile(`^\d+/\d+\s*mmHg`),
}

// Masker scans source text and replaces medically critical spans with
// placeholder tokens. Masking is pure: it never mutates shared state, so a
// single Masker serves all concurrent requests.
type Masker struct {
	meds      *meddb.Index
	negations *lexicon.Set
	logger    *logger.Logger
}

// NewMasker creates an entity masker over the shared medication index and
// negation lexicons.
func NewMasker(meds *meddb.Index, negations *lexicon.Set, log *logger.Logger) *Masker {
	return &Masker{meds: meds, negations: negations, logger: log}
}

// Mask performs a single left-to-right scan over text. At each word start it
// tries, in priority order: medication (longest match), dosage pattern,
// negation marker. Medications and dosages are replaced by placeholder
// tokens; negation markers are registered in the ledger but left in place.
// Text with no protected entities comes back unchanged with an empty ledger.
func (m *Masker) Mask(text, sourceLang string) (string, *SpanLedger) {
	ledger := &SpanLedger{}
	if text == "" {
		return text, ledger
	}

	var negDetector *lexicon.Detector
	var lowerText string
	if m.negations != nil {
		if negDetector, _ = m.negations.ForLanguage(sourceLang); negDetector != nil {
			lowerText = strings.ToLower(text)
		}
	}

	var out strings.Builder
	out.Grow(len(text))

	seq := 0
	last := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !wordStart(text, i) {
			i += size
			continue
		}

		// 1. Medication via longest-match index lookup.
		if entry, n, ok := m.meds.LookupLongest(text, i); ok {
			span := m.newSpan(SpanMedication, seq, text[i:i+n], i, i+n)
			seq++
			ledger.Spans = append(ledger.Spans, span)

			out.WriteString(text[last:i])
			out.WriteString(span.Token)
			last = i + n
			i = last

			m.logger.Debug("Medication masked",
				zap.String("placeholder_id", span.ID),
				zap.String("canonical", entry.Name),
			)
			continue
		}

		// 2. Dosage pattern.
		if unicode.IsDigit(r) {
			if n := matchDosage(text[i:]); n > 0 && wordBoundary(text, i+n) {
				span := m.newSpan(SpanDosage, seq, text[i:i+n], i, i+n)
				seq++
				ledger.Spans = append(ledger.Spans, span)

				out.WriteString(text[last:i])
				out.WriteString(span.Token)
				last = i + n
				i = last

				m.logger.Debug("Dosage masked", zap.String("placeholder_id", span.ID))
				continue
			}
		}

		// 3. Negation marker: recorded, never substituted.
		if negDetector != nil {
			if match, ok := negDetector.MatchAtLowered(text, lowerText, i); ok {
				span := ProtectedSpan{
					Kind:     SpanNegation,
					ID:       placeholderID(SpanNegation, seq),
					Tag:      integrityTag(match.Marker),
					Original: match.Marker,
					Start:    match.Start,
					End:      match.End,
				}
				seq++
				ledger.Spans = append(ledger.Spans, span)

				// Advance past the first particle only: discontinuous
				// markers may bracket other protectable entities.
				first := strings.Split(match.Marker, " ... ")[0]
				i += len(first)

				m.logger.Debug("Negation registered",
					zap.String("placeholder_id", span.ID),
					zap.String("marker", match.Marker),
				)
				continue
			}
		}

		i += size
	}

	out.WriteString(text[last:])

	return out.String(), ledger
}

func (m *Masker) newSpan(kind SpanKind, seq int, original string, start, end int) ProtectedSpan {
	id := placeholderID(kind, seq)
	tag := integrityTag(original)
	return ProtectedSpan{
		Kind:     kind,
		ID:       id,
		Token:    renderToken(id, tag),
		Tag:      tag,
		Original: original,
		Start:    start,
		End:      end,
	}
}

// matchDosage returns the length of the longest dosage pattern match at the
// start of s, or 0.
func matchDosage(s string) int {
	best := 0
	for _, re := range dosagePatterns {
		if loc := re.FindStringIndex(s); loc != nil && loc[1] > best {
			best = loc[1]
		}
	}
	return best
}

func wordStart(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func wordBoundary(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
