package etl

import (
	"strings"
	"time"
)

// DrugRecord represents a single record from an input medication dataset.
// Aliases are pipe-separated in CSV and Parquet sources.
type DrugRecord struct {
	Name     string `csv:"name" parquet:"name" json:"name"`
	Category string `csv:"category" parquet:"category" json:"category"`
	DCI      string `csv:"dci" parquet:"dci" json:"dci"`
	Aliases  string `csv:"aliases" parquet:"aliases" json:"aliases"`
}

// AliasList splits the pipe-separated alias column.
func (r *DrugRecord) AliasList() []string {
	if strings.TrimSpace(r.Aliases) == "" {
		return nil
	}
	parts := strings.Split(r.Aliases, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ProcessingResult represents the result of building a reference file
type ProcessingResult struct {
	TotalRecords    int64         `json:"total_records"`
	ProcessedOK     int64         `json:"processed_ok"`
	ProcessedFailed int64         `json:"processed_failed"`
	Duplicates      int64         `json:"duplicates"`
	Duration        time.Duration `json:"duration"`
	Errors          []string      `json:"errors,omitempty"`
}

// Config contains ETL pipeline configuration
type Config struct {
	BatchSize      int  `yaml:"batch_size" mapstructure:"batch_size"`           // 1000
	SkipDuplicates bool `yaml:"skip_duplicates" mapstructure:"skip_duplicates"` // true
	ValidateData   bool `yaml:"validate_data" mapstructure:"validate_data"`     // true
}

// FileFormat represents supported file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch {
	case strings.HasSuffix(filename, ".csv"):
		return FormatCSV
	case strings.HasSuffix(filename, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(filename, ".json"):
		return FormatJSON
	default:
		return FormatCSV
	}
}
