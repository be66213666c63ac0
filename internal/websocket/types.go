package websocket

import (
	"time"
)

// EventType identifies the kind of dashboard event
type EventType string

const (
	// EventTypeVerdict is emitted for every completed translation request
	EventTypeVerdict EventType = "verdict"
	// EventTypeViolation is emitted for each safety violation on a rejection
	EventTypeViolation EventType = "violation"
	// EventTypeSystemStatus is emitted for service lifecycle changes
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection is emitted when dashboard clients come and go
	EventTypeConnection EventType = "connection"
)

// Event is one message pushed to dashboard clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// VerdictEvent summarizes one translation verdict. Patient text is never
// included; only counts and codes cross the dashboard boundary.
type VerdictEvent struct {
	RequestID  string   `json:"request_id"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
	Accepted   bool     `json:"accepted"`
	SpanCount  int      `json:"span_count"`
	Violations []string `json:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	DurationMS float64  `json:"duration_ms"`
}

// ViolationEvent carries one safety violation
type ViolationEvent struct {
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// SystemStatusEvent carries service lifecycle information
type SystemStatusEvent struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ConnectionEvent carries client connect/disconnect information
type ConnectionEvent struct {
	Action   string `json:"action"`
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}

// ClientMessage is a message received from a dashboard client
type ClientMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// SubscriptionRequest filters which event types a client receives
type SubscriptionRequest struct {
	Events []EventType `json:"events"`
}
