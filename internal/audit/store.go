// Package audit persists translation verdicts to PostgreSQL. The audit
// trail is the clinical record of what the engine accepted and rejected;
// rejected requests are the most important rows in it.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/config"
)

// Record is one audited translation request.
type Record struct {
	ID          int64     `db:"id" json:"id"`
	RequestID   string    `db:"request_id" json:"request_id"`
	SourceLang  string    `db:"source_lang" json:"source_lang"`
	TargetLang  string    `db:"target_lang" json:"target_lang"`
	SourceChars int       `db:"source_chars" json:"source_chars"`
	SpanCount   int       `db:"span_count" json:"span_count"`
	Accepted    bool      `db:"accepted" json:"accepted"`
	Violations  string    `db:"violations" json:"violations"`
	Warnings    string    `db:"warnings" json:"warnings"`
	DurationMS  float64   `db:"duration_ms" json:"duration_ms"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Stats summarizes the audit trail for the statistics endpoint.
type Stats struct {
	TotalRequests  int64   `db:"total_requests" json:"total_requests"`
	Accepted       int64   `db:"accepted" json:"accepted"`
	Rejected       int64   `db:"rejected" json:"rejected"`
	AvgDurationMS  float64 `db:"avg_duration_ms" json:"avg_duration_ms"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// Store handles audit persistence with PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore connects to the audit database and ensures the schema exists.
func NewStore(cfg *config.AuditConfig, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}

	logger.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))

	return store, nil
}

// initialize checks the connection and creates the verdicts table.
// No source or translated text is ever stored, only verdict metadata:
// the audit trail must not become a secondary store of patient data.
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS translation_verdicts (
			id           BIGSERIAL PRIMARY KEY,
			request_id   TEXT        NOT NULL,
			source_lang  TEXT        NOT NULL,
			target_lang  TEXT        NOT NULL,
			source_chars INTEGER     NOT NULL,
			span_count   INTEGER     NOT NULL,
			accepted     BOOLEAN     NOT NULL,
			violations   JSONB       NOT NULL DEFAULT '[]',
			warnings     JSONB       NOT NULL DEFAULT '[]',
			duration_ms  DOUBLE PRECISION NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_verdicts_created_at ON translation_verdicts (created_at);
		CREATE INDEX IF NOT EXISTS idx_verdicts_accepted ON translation_verdicts (accepted);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Insert stores one verdict record.
func (s *Store) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO translation_verdicts
			(request_id, source_lang, target_lang, source_chars, span_count, accepted, violations, warnings, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		record.RequestID,
		record.SourceLang,
		record.TargetLang,
		record.SourceChars,
		record.SpanCount,
		record.Accepted,
		record.Violations,
		record.Warnings,
		record.DurationMS,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		s.logger.Error("Failed to insert audit record",
			zap.Error(err),
			zap.String("request_id", record.RequestID))
		return fmt.Errorf("failed to insert audit record: %w", err)
	}

	s.logger.Debug("Audit record stored",
		zap.Int64("id", record.ID),
		zap.String("request_id", record.RequestID),
		zap.Bool("accepted", record.Accepted))

	return nil
}

// RecentRejections returns the most recent rejected verdicts.
func (s *Store) RecentRejections(ctx context.Context, limit int) ([]Record, error) {
	var records []Record
	query := `
		SELECT id, request_id, source_lang, target_lang, source_chars, span_count,
		       accepted, violations::text AS violations, warnings::text AS warnings,
		       duration_ms, created_at
		FROM translation_verdicts
		WHERE NOT accepted
		ORDER BY created_at DESC
		LIMIT $1`

	if err := s.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query rejections: %w", err)
	}

	return records, nil
}

// GetStats aggregates the audit trail.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	query := `
		SELECT COUNT(*)                                   AS total_requests,
		       COUNT(*) FILTER (WHERE accepted)           AS accepted,
		       COUNT(*) FILTER (WHERE NOT accepted)       AS rejected,
		       COALESCE(AVG(duration_ms), 0)              AS avg_duration_ms
		FROM translation_verdicts`

	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to query audit stats: %w", err)
	}

	if stats.TotalRequests > 0 {
		stats.AcceptanceRate = float64(stats.Accepted) / float64(stats.TotalRequests)
	}

	return &stats, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarshalViolations encodes violation payloads for the JSONB column.
func MarshalViolations(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil || string(data) == "null" {
		return "[]"
	}
	return string(data)
}

// maskDatabaseURL hides credentials in log output.
func maskDatabaseURL(url string) string {
	if at := strings.LastIndex(url, "@"); at != -1 {
		if scheme := strings.Index(url, "://"); scheme != -1 {
			return url[:scheme+3] + "***" + url[at:]
		}
	}
	return url
}
