package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/audit"
	"github.com/yamahealth/medguard/internal/cache"
	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/guard"
	"github.com/yamahealth/medguard/internal/translator"
	"github.com/yamahealth/medguard/internal/websocket"
)

// TranslateRequest is the POST /translate body.
type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// TranslateResponse is returned for both accepted (200) and rejected (422)
// translations. Rejections carry violations and no translated text.
type TranslateResponse struct {
	RequestID      string            `json:"request_id"`
	Accepted       bool              `json:"accepted"`
	TranslatedText string            `json:"translated_text,omitempty"`
	SourceLang     string            `json:"source_lang"`
	TargetLang     string            `json:"target_lang"`
	Violations     []guard.Violation `json:"violations,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
	Cached         bool              `json:"cached,omitempty"`
	DurationMS     float64           `json:"duration_ms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// suspiciousFragments are crude injection markers. Clinical text has no
// business containing any of them.
var suspiciousFragments = []string{
	"<script", "</script", "javascript:", "onerror=", "onload=",
	"\x00",
}

// handleTranslate runs one request through cache lookup and the safety
// pipeline.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if msg := s.validateRequest(&req); msg != "" {
		log.Warn("Request rejected by validation", zap.String("reason", msg))
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// Accepted results may be served from cache; rejections never are.
	if s.cache != nil {
		if hit, ok := s.cache.Get(r.Context(), req.Text, req.SourceLang, req.TargetLang); ok {
			if s.metrics != nil {
				s.metrics.RecordCacheHit()
			}
			writeJSON(w, http.StatusOK, TranslateResponse{
				RequestID:      requestID,
				Accepted:       true,
				TranslatedText: hit.RestoredText,
				SourceLang:     req.SourceLang,
				TargetLang:     req.TargetLang,
				Warnings:       hit.Warnings,
				Cached:         true,
			})
			return
		}
		if s.metrics != nil {
			s.metrics.RecordCacheMiss()
		}
	}

	result, err := s.processor.Process(r.Context(), guard.Request{
		ID:         requestID,
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		log.Error("Pipeline failed", zap.Error(err))
		switch {
		case errors.Is(err, translator.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "translation service unavailable")
		case errors.Is(err, translator.ErrUpstream):
			writeError(w, http.StatusBadGateway, "translation service error")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.recordResult(r, &req, result)

	status := http.StatusOK
	if !result.Accepted {
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, TranslateResponse{
		RequestID:      result.RequestID,
		Accepted:       result.Accepted,
		TranslatedText: result.RestoredText,
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		Violations:     result.Violations,
		Warnings:       result.Warnings,
		DurationMS:     float64(result.Duration.Microseconds()) / 1000.0,
	})
}

// validateRequest returns a rejection reason, or "" when the request is
// acceptable.
func (s *Server) validateRequest(req *TranslateRequest) string {
	if strings.TrimSpace(req.Text) == "" {
		return "text must not be empty"
	}
	if max := s.config.Safety.MaxInputLength; len(req.Text) > max {
		return "text exceeds maximum input length"
	}

	pair := map[string]bool{
		config.LangWolof:  true,
		config.LangFrench: true,
	}
	if !pair[req.SourceLang] || !pair[req.TargetLang] {
		return "unsupported language code"
	}
	if req.SourceLang == req.TargetLang {
		return "source and target language must differ"
	}

	lower := strings.ToLower(req.Text)
	for _, frag := range suspiciousFragments {
		if strings.Contains(lower, frag) {
			return "text contains disallowed content"
		}
	}

	return ""
}

// recordResult fans the verdict out to cache, metrics, audit trail, and the
// dashboard. All of it is best-effort: a failed side channel never changes
// the response.
func (s *Server) recordResult(r *http.Request, req *TranslateRequest, result *guard.Result) {
	if s.cache != nil && result.Accepted {
		s.cache.Set(r.Context(), req.Text, req.SourceLang, req.TargetLang, &cache.CachedResult{
			RestoredText: result.RestoredText,
			Warnings:     result.Warnings,
			CreatedAt:    time.Now(),
		})
	}

	if s.metrics != nil {
		s.metrics.RecordRequest(req.SourceLang, req.TargetLang, result.Accepted,
			violationCodes(result.Violations), result.Duration)
		s.metrics.RecordSpans(result.SpanKinds)
		for i := 0; i < result.Repaired; i++ {
			s.metrics.RecordRepair()
		}
	}

	if s.audit != nil {
		record := &audit.Record{
			RequestID:   result.RequestID,
			SourceLang:  req.SourceLang,
			TargetLang:  req.TargetLang,
			SourceChars: len(req.Text),
			SpanCount:   result.SpanCount,
			Accepted:    result.Accepted,
			Violations:  audit.MarshalViolations(result.Violations),
			Warnings:    audit.MarshalViolations(result.Warnings),
			DurationMS:  float64(result.Duration.Microseconds()) / 1000.0,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.audit.Insert(ctx, record); err != nil {
				s.logger.Error("Audit insert failed", zap.Error(err))
			}
		}()
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastVerdict(websocket.VerdictEvent{
			RequestID:  result.RequestID,
			SourceLang: req.SourceLang,
			TargetLang: req.TargetLang,
			Accepted:   result.Accepted,
			SpanCount:  result.SpanCount,
			Violations: violationCodes(result.Violations),
			Warnings:   result.Warnings,
			DurationMS: float64(result.Duration.Microseconds()) / 1000.0,
		})
	}
}

// handleRoot serves basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "medguard",
		"endpoints": []string{
			"POST /translate", "GET /health", "GET /statistics", "GET /metrics", "GET /ws",
		},
		"languages": []string{config.LangWolof, config.LangFrench},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"languages": []string{config.LangWolof, config.LangFrench},
	})
}

// handleStatistics serves the aggregate safety counters.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{}

	if s.metrics != nil {
		payload["engine"] = s.metrics.GetSnapshot()
	}
	if s.wsHub != nil {
		payload["dashboard"] = s.wsHub.GetStats()
	}
	if s.audit != nil {
		stats, err := s.audit.GetStats(r.Context())
		if err != nil {
			s.logger.Error("Audit stats query failed", zap.Error(err))
		} else {
			payload["audit"] = stats
		}
	}

	writeJSON(w, http.StatusOK, payload)
}

func violationCodes(violations []guard.Violation) []string {
	codes := make([]string, 0, len(violations))
	for _, v := range violations {
		codes = append(codes, v.Code)
	}
	return codes
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
