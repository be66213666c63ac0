// Package etl builds the medication reference file consumed by the engine.
// Pharmacy teams maintain drug lists as CSV, Parquet, or JSON exports; the
// pipeline validates and deduplicates them into the canonical JSON format.
package etl

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/meddb"
)

// Pipeline converts medication dataset files into the reference format.
type Pipeline struct {
	config *Config
	logger *zap.Logger
}

// NewPipeline creates a medication ETL pipeline.
func NewPipeline(config *Config, logger *zap.Logger) *Pipeline {
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	return &Pipeline{config: config, logger: logger}
}

// ProcessFile reads a dataset file and writes the reference JSON to
// outputPath.
func (p *Pipeline) ProcessFile(ctx context.Context, filePath, outputPath string) (*ProcessingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	format := DetectFileFormat(filePath)
	p.logger.Info("Starting medication ETL",
		zap.String("file", filePath),
		zap.String("format", string(format)),
		zap.String("output", outputPath))

	start := time.Now()
	result := &ProcessingResult{}

	var (
		entries []meddb.MedicationEntry
		err     error
	)
	switch format {
	case FormatCSV:
		entries, err = p.collect(ctx, result, p.csvReader(filePath))
	case FormatParquet:
		entries, err = p.collect(ctx, result, p.parquetReader(filePath))
	case FormatJSON:
		entries, err = p.collect(ctx, result, p.jsonReader(filePath))
	default:
		return result, fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return result, fmt.Errorf("%s processing failed: %w", format, err)
	}

	if err := writeReference(outputPath, entries); err != nil {
		return result, fmt.Errorf("failed to write reference file: %w", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("Medication ETL completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("duplicates", result.Duplicates),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// recordReader yields one record per call; (nil, io.EOF) ends the stream.
type recordReader func() (*DrugRecord, error)

// collect drains a reader, validating and deduplicating by normalized name.
// The first registration of a name wins, matching index insertion order.
func (p *Pipeline) collect(ctx context.Context, result *ProcessingResult, next recordReader) ([]meddb.MedicationEntry, error) {
	seen := make(map[string]bool)
	var entries []meddb.MedicationEntry

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			p.logger.Warn("Failed to read record", zap.Error(err))
			result.ProcessedFailed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		result.TotalRecords++

		if p.config.ValidateData && !validRecord(record) {
			result.ProcessedFailed++
			continue
		}

		key := meddb.Normalize(record.Name)
		if seen[key] {
			result.Duplicates++
			if p.config.SkipDuplicates {
				continue
			}
		}
		seen[key] = true

		entries = append(entries, meddb.MedicationEntry{
			Name:     strings.TrimSpace(record.Name),
			Category: strings.TrimSpace(record.Category),
			DCI:      strings.TrimSpace(record.DCI),
			Aliases:  record.AliasList(),
		})
		result.ProcessedOK++
	}
}

func validRecord(r *DrugRecord) bool {
	name := strings.TrimSpace(r.Name)
	return name != "" && len(name) <= 200
}

func (p *Pipeline) csvReader(filePath string) recordReader {
	file, err := os.Open(filePath)
	if err != nil {
		return failReader(fmt.Errorf("failed to open CSV file: %w", err))
	}

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return failReader(fmt.Errorf("failed to read CSV header: %w", err))
	}
	col := columnIndex(header)

	return func() (*DrugRecord, error) {
		row, err := reader.Read()
		if err == io.EOF {
			file.Close()
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		return &DrugRecord{
			Name:     field(row, col, "name"),
			Category: field(row, col, "category"),
			DCI:      field(row, col, "dci"),
			Aliases:  field(row, col, "aliases"),
		}, nil
	}
}

func (p *Pipeline) parquetReader(filePath string) recordReader {
	file, err := os.Open(filePath)
	if err != nil {
		return failReader(fmt.Errorf("failed to open Parquet file: %w", err))
	}

	reader := parquet.NewReader(file)

	return func() (*DrugRecord, error) {
		var record DrugRecord
		err := reader.Read(&record)
		if err == io.EOF {
			reader.Close()
			file.Close()
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		return &record, nil
	}
}

// jsonReader accepts one JSON object per line.
func (p *Pipeline) jsonReader(filePath string) recordReader {
	file, err := os.Open(filePath)
	if err != nil {
		return failReader(fmt.Errorf("failed to open JSON file: %w", err))
	}

	decoder := json.NewDecoder(file)

	return func() (*DrugRecord, error) {
		var record DrugRecord
		err := decoder.Decode(&record)
		if err == io.EOF {
			file.Close()
			return nil, io.EOF
		}
		if err != nil {
			return nil, err
		}
		return &record, nil
	}
}

func failReader(err error) recordReader {
	returned := false
	return func() (*DrugRecord, error) {
		if returned {
			return nil, io.EOF
		}
		returned = true
		return nil, err
	}
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// writeReference writes the canonical medication reference JSON.
func writeReference(outputPath string, entries []meddb.MedicationEntry) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Medications []meddb.MedicationEntry `json:"medications"`
	}{Medications: entries})
}
