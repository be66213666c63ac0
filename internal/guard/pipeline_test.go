package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/lexicon"
	"github.com/yamahealth/medguard/internal/meddb"
	"github.com/yamahealth/medguard/internal/translator"
)

// newTestPipeline assembles a pipeline around a scripted model.
func newTestPipeline(t *testing.T, model translator.Func) *Pipeline {
	t.Helper()

	index := meddb.NewIndex(meddb.DefaultEntries(), nil)
	negations, err := lexicon.NewSet(config.GetDefaults().Lexicons.Negations)
	if err != nil {
		t.Fatalf("Failed to build negation set: %v", err)
	}

	log := newTestLogger()
	return NewPipeline(
		NewMasker(index, negations, log),
		NewRestorer(log),
		NewRepairer(config.GetDefaults().Safety.RepairMaxDistance, log),
		NewVerifier(negations, config.GetDefaults().Safety, log),
		model,
		log,
	)
}

func TestPipelineAcceptsFaithfulTranslation(t *testing.T) {
	// The model translates surrounding words and echoes tokens untouched.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		out := strings.ReplaceAll(text, "Le médecin prescrit du", "Doktoor bi dagan na")
		out = strings.ReplaceAll(out, "matin et soir", "suba ak ngoon")
		return out, nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-1",
		Text:       "Le médecin prescrit du paracétamol 500mg matin et soir",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !result.Accepted {
		t.Fatalf("Faithful translation rejected: %+v", result.Violations)
	}
	if !strings.Contains(result.RestoredText, "paracétamol") || !strings.Contains(result.RestoredText, "500mg") {
		t.Errorf("Entities not restored: %q", result.RestoredText)
	}
	if strings.Contains(result.RestoredText, "<<") {
		t.Errorf("Placeholder leaked into output: %q", result.RestoredText)
	}
	if result.SpanCount != 2 {
		t.Errorf("Expected 2 spans, got %d", result.SpanCount)
	}
}

func TestPipelineWolofPrescriptionToFrench(t *testing.T) {
	// Wolof source: "take paracetamol 500mg, three times a day". The model
	// renders the surrounding Wolof in French and echoes tokens untouched.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		out := strings.ReplaceAll(text, "Jelel", "Prenez")
		out = strings.ReplaceAll(out, "ñetti yoon ci bés", "trois fois par jour")
		return out, nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-wol-fra",
		Text:       "Jelel paracétamol 500mg, ñetti yoon ci bés.",
		SourceLang: config.LangWolof,
		TargetLang: config.LangFrench,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.SpanCount != 2 {
		t.Errorf("Expected 2 protected spans, got %d", result.SpanCount)
	}
	if !result.Accepted {
		t.Fatalf("Faithful translation rejected: %+v", result.Violations)
	}
	if !strings.Contains(result.RestoredText, "paracétamol") || !strings.Contains(result.RestoredText, "500mg") {
		t.Errorf("Entities not restored verbatim: %q", result.RestoredText)
	}
	if strings.Contains(result.RestoredText, "<<") {
		t.Errorf("Placeholder leaked into output: %q", result.RestoredText)
	}
}

func TestPipelineNegationRenderedInWolof(t *testing.T) {
	// French prohibition translated into Wolof with the negation particle
	// intact: the discontinuous "ne ... pas" must be detected at masking time
	// and a Wolof marker must be present in the accepted output.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		out := strings.ReplaceAll(text, "Ne prenez pas d'", "Bul jël ")
		out = strings.ReplaceAll(out, "avec ce médicament", "ak garab bii")
		return out, nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-fra-wol",
		Text:       "Ne prenez pas d'aspirine avec ce médicament.",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !result.Accepted {
		t.Fatalf("Faithful translation rejected: %+v", result.Violations)
	}
	if !strings.Contains(result.RestoredText, "aspirine") {
		t.Errorf("Medication not restored verbatim: %q", result.RestoredText)
	}
	if !strings.Contains(strings.ToLower(result.RestoredText), "bul") {
		t.Errorf("Wolof negation marker missing: %q", result.RestoredText)
	}
	if kinds := result.SpanKinds[string(SpanNegation)]; kinds != 1 {
		t.Errorf("Expected 1 registered negation span, got %d", kinds)
	}
}

func TestPipelineRejectsDroppedPlaceholder(t *testing.T) {
	// The model drops every placeholder token.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		return candidateRe.ReplaceAllString(text, ""), nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-2",
		Text:       "prendre aspirine 100mg",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Accepted {
		t.Fatal("Dropped placeholders accepted")
	}
	if result.RestoredText != "" {
		t.Errorf("Rejected result carries text: %q", result.RestoredText)
	}

	found := false
	for _, v := range result.Violations {
		if v.Code == CodePlaceholderCorruption {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s, got %+v", CodePlaceholderCorruption, result.Violations)
	}
}

func TestPipelineRepairsGarbledTag(t *testing.T) {
	// The model flips one tag character on the sole placeholder.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		loc := candidateRe.FindStringIndex(text)
		if loc == nil {
			return text, nil
		}
		token := text[loc[0]:loc[1]]
		garbled := mutateTag(token[:len(token)-2]) + token[len(token)-2:]
		return strings.Replace(text, token, garbled, 1), nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-3",
		Text:       "prendre paracétamol ce soir",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !result.Accepted {
		t.Fatalf("Repairable corruption rejected: %+v", result.Violations)
	}
	if result.Repaired != 1 {
		t.Errorf("Expected 1 repair, got %d", result.Repaired)
	}
	if !strings.Contains(result.RestoredText, "paracétamol") {
		t.Errorf("Repaired token not restored: %q", result.RestoredText)
	}
}

func TestPipelineRejectsLostNegation(t *testing.T) {
	// The model silently drops the prohibition.
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		out := strings.ReplaceAll(text, "Ne pas donner", "Jox")
		out = strings.ReplaceAll(out, "à l'enfant", "xale bi")
		return out, nil
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-4",
		Text:       "Ne pas donner aspirine à l'enfant",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if result.Accepted {
		t.Fatal("Lost negation accepted")
	}
	found := false
	for _, v := range result.Violations {
		if v.Code == CodeNegationLoss {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s, got %+v", CodeNegationLoss, result.Violations)
	}
}

func TestPipelinePropagatesUpstreamError(t *testing.T) {
	wantErr := errors.New("model exploded")
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		return "", wantErr
	})

	pipeline := newTestPipeline(t, model)
	result, err := pipeline.Process(context.Background(), Request{
		ID:         "req-5",
		Text:       "prendre paracétamol",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	})

	if err == nil {
		t.Fatal("Upstream error swallowed")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Error chain broken: %v", err)
	}
	if result != nil {
		t.Error("Result produced despite upstream failure")
	}
}

func TestPipelineMaskedTextHidesEntities(t *testing.T) {
	var sawText string
	model := translator.Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		sawText = text
		return text, nil
	})

	pipeline := newTestPipeline(t, model)
	if _, err := pipeline.Process(context.Background(), Request{
		ID:         "req-6",
		Text:       "donner amoxicilline 250mg au patient",
		SourceLang: config.LangFrench,
		TargetLang: config.LangWolof,
	}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if strings.Contains(sawText, "amoxicilline") || strings.Contains(sawText, "250mg") {
		t.Errorf("Model saw unmasked entities: %q", sawText)
	}
}
