// Package translator provides clients for the external NLLB inference
// service. The model is a black box consumed strictly over its HTTP
// boundary; this package never inspects or post-processes its output.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
)

// ErrUpstream marks an upstream translation failure. It is propagated to
// the caller untouched: no retry, no cached fallback; an explicit error is
// always preferred over silent degradation.
var ErrUpstream = errors.New("upstream translation failure")

// ErrUnavailable marks a request rejected locally because the circuit
// breaker is open. The inference service was never called.
var ErrUnavailable = errors.New("translation service unavailable")

// Func adapts a plain function to the pipeline's Translator interface.
// Tests use it to script model behavior.
type Func func(ctx context.Context, text, sourceLang, targetLang string) (string, error)

// Translate implements the Translator interface.
func (f Func) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return f(ctx, text, sourceLang, targetLang)
}

// translateRequest is the inference service request body.
type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// translateResponse is the inference service response body.
type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// Client calls the NLLB inference service over HTTP. A circuit breaker
// makes a down model fail fast instead of stacking up blocked requests.
type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates an HTTP translator client.
func NewClient(cfg config.TranslatorConfig, logger *zap.Logger) *Client {
	client := &Client{
		url: cfg.URL,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}

	if cfg.Breaker.Enabled {
		client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "translator",
			Timeout: cfg.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.Breaker.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Translator circuit breaker state change",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}

	return client
}

// Translate sends masked text to the inference service and returns its raw
// output. Any failure is wrapped in ErrUpstream.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	call := func() (interface{}, error) {
		return c.translateOnce(ctx, text, sourceLang, targetLang)
	}

	var (
		result interface{}
		err    error
	)
	if c.breaker != nil {
		result, err = c.breaker.Execute(call)
	} else {
		result, err = call()
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	return result.(string), nil
}

func (c *Client) translateOnce(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(payload))
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Model inference completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("input_len", len(text)),
		zap.Int("output_len", len(out.TranslatedText)),
	)

	return out.TranslatedText, nil
}
