package guard

import (
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/lexicon"
	"github.com/yamahealth/medguard/internal/logger"
	"github.com/yamahealth/medguard/internal/meddb"
)

var tokenShape = regexp.MustCompile(`^<<(MED|DSG)\d+:[0-9a-f]{4}>>$`)

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newTestMasker(t *testing.T) *Masker {
	t.Helper()
	index := meddb.NewIndex(meddb.DefaultEntries(), nil)
	negations, err := lexicon.NewSet(config.GetDefaults().Lexicons.Negations)
	if err != nil {
		t.Fatalf("Failed to build negation set: %v", err)
	}
	return NewMasker(index, negations, newTestLogger())
}

func TestMaskerMedicationAndDosage(t *testing.T) {
	masker := newTestMasker(t)

	text := "Le médecin prescrit du paracétamol 500mg matin et soir."
	masked, ledger := masker.Mask(text, config.LangFrench)

	placeholders := ledger.Placeholders()
	if len(placeholders) != 2 {
		t.Fatalf("Expected 2 placeholders, got %d: %+v", len(placeholders), ledger.Spans)
	}

	med, dsg := placeholders[0], placeholders[1]
	if med.Kind != SpanMedication || med.Original != "paracétamol" {
		t.Errorf("Wrong medication span: %+v", med)
	}
	if dsg.Kind != SpanDosage || dsg.Original != "500mg" {
		t.Errorf("Wrong dosage span: %+v", dsg)
	}

	for _, span := range placeholders {
		if !tokenShape.MatchString(span.Token) {
			t.Errorf("Malformed token: %q", span.Token)
		}
		if !strings.Contains(masked, span.Token) {
			t.Errorf("Token %q missing from masked text %q", span.Token, masked)
		}
		if strings.Contains(masked, span.Original) {
			t.Errorf("Original %q still present in masked text %q", span.Original, masked)
		}
	}

	if !strings.HasPrefix(masked, "Le médecin prescrit du ") {
		t.Errorf("Surrounding text damaged: %q", masked)
	}
}

func TestMaskerSequentialIDs(t *testing.T) {
	masker := newTestMasker(t)

	_, ledger := masker.Mask("aspirine 100mg et paracétamol 500mg", config.LangFrench)

	ids := make(map[string]bool)
	for _, span := range ledger.Spans {
		if ids[span.ID] {
			t.Errorf("Duplicate placeholder id %s", span.ID)
		}
		ids[span.ID] = true
	}
	if len(ledger.Spans) != 4 {
		t.Fatalf("Expected 4 spans, got %d", len(ledger.Spans))
	}
	if ledger.Spans[0].ID != "MED0" || ledger.Spans[1].ID != "DSG1" {
		t.Errorf("Sequence not in source order: %+v", ledger.Spans[:2])
	}
}

func TestMaskerNegationRegisteredNotSubstituted(t *testing.T) {
	masker := newTestMasker(t)

	text := "Ne pas donner d'aspirine à l'enfant"
	masked, ledger := masker.Mask(text, config.LangFrench)

	markers := ledger.NegationMarkers()
	if len(markers) == 0 {
		t.Fatal("Negation not registered in ledger")
	}

	// The marker text survives masking; only the medication is replaced.
	if !strings.Contains(strings.ToLower(masked), "ne pas") {
		t.Errorf("Negation marker removed from masked text: %q", masked)
	}
	if strings.Contains(masked, "aspirine") {
		t.Errorf("Medication not masked: %q", masked)
	}
	if len(ledger.Placeholders()) != 1 {
		t.Errorf("Expected exactly 1 placeholder, got %+v", ledger.Placeholders())
	}
}

func TestMaskerDiscontinuousNegationBracketsEntity(t *testing.T) {
	masker := newTestMasker(t)

	// The medication sits between the two negation particles; it must still
	// be masked.
	text := "Il ne faut pas prendre aspirine aujourd'hui, mais ne pas arrêter le paracétamol"
	masked, ledger := masker.Mask(text, config.LangFrench)

	meds := 0
	for _, span := range ledger.Spans {
		if span.Kind == SpanMedication {
			meds++
		}
	}
	if meds != 2 {
		t.Fatalf("Expected 2 medication spans, got %d: %+v", meds, ledger.Spans)
	}
	if strings.Contains(masked, "aspirine") || strings.Contains(masked, "paracétamol") {
		t.Errorf("Bracketed medication left unmasked: %q", masked)
	}
	if len(ledger.NegationMarkers()) == 0 {
		t.Error("Discontinuous negation not registered")
	}
}

func TestMaskerUnitlessNumberStays(t *testing.T) {
	masker := newTestMasker(t)

	text := "Revenir dans 3 jours avec 2 comprimés"
	masked, ledger := masker.Mask(text, config.LangFrench)

	// "2 comprimés" is a dosage; "3 jours" is not.
	if !strings.Contains(masked, "3 jours") {
		t.Errorf("Unitless duration masked: %q", masked)
	}
	if strings.Contains(masked, "2 comprimés") {
		t.Errorf("Counted dose not masked: %q", masked)
	}
	if len(ledger.Placeholders()) != 1 {
		t.Errorf("Expected 1 placeholder, got %+v", ledger.Placeholders())
	}
}

func TestMaskerDecimalDose(t *testing.T) {
	masker := newTestMasker(t)

	_, ledger := masker.Mask("donner 2,5 ml au bébé", config.LangFrench)
	placeholders := ledger.Placeholders()
	if len(placeholders) != 1 || placeholders[0].Original != "2,5 ml" {
		t.Fatalf("Decimal dosage not captured: %+v", placeholders)
	}
}

func TestMaskerNoEntities(t *testing.T) {
	masker := newTestMasker(t)

	text := "Bonjour, comment allez-vous aujourd'hui ?"
	masked, ledger := masker.Mask(text, config.LangFrench)

	if masked != text {
		t.Errorf("Text without entities changed: %q", masked)
	}
	if len(ledger.Spans) != 0 {
		t.Errorf("Spurious spans: %+v", ledger.Spans)
	}
}

func TestMaskerWolofSource(t *testing.T) {
	masker := newTestMasker(t)

	text := "Bul jox xale bi aspirine"
	masked, ledger := masker.Mask(text, config.LangWolof)

	if len(ledger.NegationMarkers()) != 1 {
		t.Fatalf("Wolof negation not registered: %+v", ledger.Spans)
	}
	if strings.Contains(masked, "aspirine") {
		t.Errorf("Medication not masked in Wolof text: %q", masked)
	}
	if !strings.HasPrefix(masked, "Bul jox") {
		t.Errorf("Negation particle altered: %q", masked)
	}
}
