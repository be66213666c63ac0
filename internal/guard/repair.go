package guard

import (
	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/logger"
)

// Repairer is the single self-healing step in the pipeline: a bounded,
// deterministic repair of placeholder tokens mildly garbled by the model
// (transliteration noise in the tag, not loss). A repair is accepted only
// when exactly one unresolved ledger candidate lies within the distance
// threshold — ambiguity always means rejection, never a guess.
type Repairer struct {
	maxDistance int
	logger      *logger.Logger
}

// NewRepairer creates a repairer with the given edit-distance threshold.
func NewRepairer(maxDistance int, log *logger.Logger) *Repairer {
	return &Repairer{maxDistance: maxDistance, logger: log}
}

// AttemptRepair tries to map a garbled candidate token onto an unresolved
// ledger span. resolved holds the placeholder ids already restored; those
// are never repair targets. Returns the matched span, or false when the
// token is unrepairable or ambiguous.
func (r *Repairer) AttemptRepair(candidateToken string, ledger *SpanLedger, resolved map[string]bool) (ProtectedSpan, bool) {
	sub := candidateRe.FindStringSubmatch(candidateToken)
	if sub == nil {
		// Delimiters or kind+sequence prefix damaged: not a recoverable
		// corruption class.
		return ProtectedSpan{}, false
	}
	candidateSig := sub[1] + sub[2] + ":" + sub[3]

	var (
		match ProtectedSpan
		hits  int
	)

	for _, span := range ledger.Placeholders() {
		if resolved[span.ID] {
			continue
		}
		sig := span.ID + ":" + span.Tag
		if levenshtein.ComputeDistance(candidateSig, sig) <= r.maxDistance {
			match = span
			hits++
		}
	}

	if hits != 1 {
		r.logger.Warn("Placeholder repair rejected",
			zap.String("token", candidateToken),
			zap.Int("candidates_within_threshold", hits),
		)
		return ProtectedSpan{}, false
	}

	r.logger.Info("Placeholder repaired",
		zap.String("token", candidateToken),
		zap.String("placeholder_id", match.ID),
	)

	return match, true
}
