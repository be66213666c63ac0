package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
)

func testConfig(url string) config.TranslatorConfig {
	cfg := config.TranslatorConfig{
		URL:     url,
		Timeout: 2 * time.Second,
	}
	return cfg
}

func TestClientTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("Wrong path: %s", r.URL.Path)
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req.SourceLang != config.LangFrench || req.TargetLang != config.LangWolof {
			t.Errorf("Language pair not forwarded: %+v", req)
		}

		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "jël <<MED0:9f3a>> suba"})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	out, err := client.Translate(context.Background(), "prendre <<MED0:9f3a>> le matin",
		config.LangFrench, config.LangWolof)
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out != "jël <<MED0:9f3a>> suba" {
		t.Errorf("Wrong output: %q", out)
	}
}

func TestClientUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), zap.NewNop())

	_, err := client.Translate(context.Background(), "texte", config.LangFrench, config.LangWolof)
	if err == nil {
		t.Fatal("Expected an error")
	}
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Error not wrapped in ErrUpstream: %v", err)
	}
}

func TestClientUnreachable(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"), zap.NewNop())

	_, err := client.Translate(context.Background(), "texte", config.LangFrench, config.LangWolof)
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Connection failure not wrapped in ErrUpstream: %v", err)
	}
}

func TestClientCircuitBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Breaker.Enabled = true
	cfg.Breaker.ConsecutiveFailures = 2
	cfg.Breaker.OpenTimeout = time.Minute

	client := NewClient(cfg, zap.NewNop())

	// Trip the breaker.
	for i := 0; i < 2; i++ {
		if _, err := client.Translate(context.Background(), "texte", config.LangFrench, config.LangWolof); !errors.Is(err, ErrUpstream) {
			t.Fatalf("Attempt %d: expected ErrUpstream, got %v", i, err)
		}
	}

	// Open breaker now fails fast without touching the service.
	_, err := client.Translate(context.Background(), "texte", config.LangFrench, config.LangWolof)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Open breaker not reported as ErrUnavailable: %v", err)
	}
}

func TestFuncAdapter(t *testing.T) {
	f := Func(func(ctx context.Context, text, src, tgt string) (string, error) {
		return text + "!", nil
	})
	out, err := f.Translate(context.Background(), "a", "b", "c")
	if err != nil || out != "a!" {
		t.Errorf("Adapter broken: %q, %v", out, err)
	}
}
