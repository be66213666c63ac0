package guard

import (
	"strings"
	"testing"

	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/lexicon"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	negations, err := lexicon.NewSet(config.GetDefaults().Lexicons.Negations)
	if err != nil {
		t.Fatalf("Failed to build negation set: %v", err)
	}
	return NewVerifier(negations, config.GetDefaults().Safety, newTestLogger())
}

func hasViolation(report *SafetyReport, code string) bool {
	for _, v := range report.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func TestVerifierAcceptsCleanTranslation(t *testing.T) {
	verifier := newTestVerifier(t)

	report := verifier.Verify(
		"prendre paracétamol 500mg le matin",
		&SpanLedger{},
		"jël paracétamol 500mg ci suba",
		nil,
		config.LangFrench, config.LangWolof,
	)

	if !report.Accepted {
		t.Fatalf("Clean translation rejected: %+v", report.Violations)
	}
	if report.RestoredText == "" {
		t.Error("Accepted report must carry the restored text")
	}
}

func TestVerifierRejectionClearsRestoredText(t *testing.T) {
	verifier := newTestVerifier(t)

	report := verifier.Verify(
		"prendre 500mg",
		&SpanLedger{},
		"jël 250mg",
		nil,
		config.LangFrench, config.LangWolof,
	)

	if report.Accepted {
		t.Fatal("Numeric mismatch accepted")
	}
	if report.RestoredText != "" {
		t.Error("Rejected report must not expose restored text")
	}
}

func TestVerifierNumericIntegrity(t *testing.T) {
	verifier := newTestVerifier(t)

	t.Run("ValueChanged", func(t *testing.T) {
		report := verifier.Verify("donner 500mg", &SpanLedger{}, "donner 50mg", nil,
			config.LangFrench, config.LangWolof)
		if !hasViolation(report, CodeNumericMismatch) {
			t.Errorf("Changed value not flagged: %+v", report.Violations)
		}
	})

	t.Run("ValueDropped", func(t *testing.T) {
		report := verifier.Verify("donner 2 fois 500mg", &SpanLedger{}, "donner 500mg", nil,
			config.LangFrench, config.LangWolof)
		if !hasViolation(report, CodeNumericMismatch) {
			t.Errorf("Dropped value not flagged: %+v", report.Violations)
		}
	})

	t.Run("ReorderingAllowed", func(t *testing.T) {
		report := verifier.Verify("prendre 2 comprimés de 500mg", &SpanLedger{},
			"500mg ak 2 comprimés", nil, config.LangFrench, config.LangWolof)
		if hasViolation(report, CodeNumericMismatch) {
			t.Errorf("Reordered values flagged: %+v", report.Violations)
		}
	})

	t.Run("DecimalCommaEqualsPoint", func(t *testing.T) {
		report := verifier.Verify("donner 2,5 ml", &SpanLedger{}, "donner 2.5 ml", nil,
			config.LangFrench, config.LangWolof)
		if hasViolation(report, CodeNumericMismatch) {
			t.Errorf("Comma/point decimal variants flagged: %+v", report.Violations)
		}
	})
}

func TestVerifierNegationLoss(t *testing.T) {
	verifier := newTestVerifier(t)

	t.Run("LostNegation", func(t *testing.T) {
		// Source forbids; translation affirms.
		report := verifier.Verify(
			"Ne pas donner d'aspirine à l'enfant",
			&SpanLedger{},
			"Jox aspirine xale bi",
			nil,
			config.LangFrench, config.LangWolof,
		)
		if !hasViolation(report, CodeNegationLoss) {
			t.Fatalf("Lost negation not flagged: %+v", report.Violations)
		}

		// The violation names the missing source markers.
		for _, v := range report.Violations {
			if v.Code == CodeNegationLoss && !strings.Contains(v.Message, "ne pas") {
				t.Errorf("Violation does not name the source marker: %q", v.Message)
			}
		}
	})

	t.Run("PreservedNegation", func(t *testing.T) {
		report := verifier.Verify(
			"Ne pas donner d'aspirine à l'enfant",
			&SpanLedger{},
			"Bul jox aspirine xale bi",
			nil,
			config.LangFrench, config.LangWolof,
		)
		if hasViolation(report, CodeNegationLoss) {
			t.Errorf("Preserved negation flagged: %+v", report.Violations)
		}
	})

	t.Run("NoSourceNegation", func(t *testing.T) {
		report := verifier.Verify(
			"donner le traitement",
			&SpanLedger{},
			"jox garab gi",
			nil,
			config.LangFrench, config.LangWolof,
		)
		if hasViolation(report, CodeNegationLoss) {
			t.Errorf("Negation check fired without source negation: %+v", report.Violations)
		}
	})

	t.Run("WolofToFrench", func(t *testing.T) {
		report := verifier.Verify(
			"Bul jox xale bi aspirine",
			&SpanLedger{},
			"Donner de l'aspirine à l'enfant",
			nil,
			config.LangWolof, config.LangFrench,
		)
		if !hasViolation(report, CodeNegationLoss) {
			t.Errorf("Lost Wolof negation not flagged: %+v", report.Violations)
		}
	})
}

func TestVerifierPlaceholderIssuesAreFatal(t *testing.T) {
	verifier := newTestVerifier(t)

	issues := []RestorationIssue{
		{Kind: IssueMissing, PlaceholderID: "MED0", Detail: "placeholder MED0 absent from translated output"},
	}

	report := verifier.Verify("prendre paracétamol", &SpanLedger{}, "jël dara", issues,
		config.LangFrench, config.LangWolof)

	if report.Accepted {
		t.Fatal("Restoration issue accepted")
	}
	if !hasViolation(report, CodePlaceholderCorruption) {
		t.Errorf("Missing placeholder not mapped to violation: %+v", report.Violations)
	}
}

func TestVerifierEmptyTranslation(t *testing.T) {
	verifier := newTestVerifier(t)

	report := verifier.Verify("prendre le traitement", &SpanLedger{}, "   ", nil,
		config.LangFrench, config.LangWolof)

	if report.Accepted {
		t.Fatal("Empty translation accepted")
	}
	if !hasViolation(report, CodeEmptyTranslation) {
		t.Errorf("Empty translation not flagged: %+v", report.Violations)
	}
}

func TestVerifierLengthAnomalyIsWarningOnly(t *testing.T) {
	verifier := newTestVerifier(t)

	source := "prendre le traitement tous les matins avant le repas"
	report := verifier.Verify(source, &SpanLedger{}, "jël", nil,
		config.LangFrench, config.LangWolof)

	if !report.Accepted {
		t.Fatalf("Length anomaly alone must not reject: %+v", report.Violations)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("Expected a length anomaly warning")
	}
	if !strings.Contains(report.Warnings[0], CodeLengthAnomaly) {
		t.Errorf("Warning does not carry the anomaly code: %q", report.Warnings[0])
	}
}

func TestVerifierChecksDoNotShortCircuit(t *testing.T) {
	verifier := newTestVerifier(t)

	issues := []RestorationIssue{
		{Kind: IssueMissing, PlaceholderID: "DSG1", Detail: "placeholder DSG1 absent from translated output"},
	}

	// Placeholder loss, numeric drift, and negation loss all at once: the
	// report must list every one of them.
	report := verifier.Verify(
		"Ne pas dépasser 3 comprimés soit 1500mg",
		&SpanLedger{},
		"Jël 3 comprimés",
		issues,
		config.LangFrench, config.LangWolof,
	)

	if report.Accepted {
		t.Fatal("Multi-violation translation accepted")
	}
	for _, code := range []string{CodePlaceholderCorruption, CodeNumericMismatch, CodeNegationLoss} {
		if !hasViolation(report, code) {
			t.Errorf("Violation %s missing from report: %+v", code, report.Violations)
		}
	}
}
