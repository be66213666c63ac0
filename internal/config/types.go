package config

import "time"

// NLLB-200 language codes for the supported pair.
const (
	LangWolof  = "wol_Latn"
	LangFrench = "fra_Latn"
)

// Config represents the main configuration structure
type Config struct {
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Safety      SafetyConfig      `yaml:"safety" mapstructure:"safety"`
	Medications MedicationsConfig `yaml:"medications" mapstructure:"medications"`
	Lexicons    LexiconsConfig    `yaml:"lexicons" mapstructure:"lexicons"`
	Translator  TranslatorConfig  `yaml:"translator" mapstructure:"translator"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Audit       AuditConfig       `yaml:"audit" mapstructure:"audit"`
	WebSocket   WebSocketConfig   `yaml:"websocket" mapstructure:"websocket"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RateLimit    struct {
		Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
		RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
		Burst          int  `yaml:"burst" mapstructure:"burst"`
	} `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SafetyConfig contains the medical safety thresholds. These are the knobs
// of the verification engine; everything here fails closed.
type SafetyConfig struct {
	MaxInputLength    int     `yaml:"max_input_length" mapstructure:"max_input_length"`
	LengthRatioMin    float64 `yaml:"length_ratio_min" mapstructure:"length_ratio_min"`
	LengthRatioMax    float64 `yaml:"length_ratio_max" mapstructure:"length_ratio_max"`
	RepairMaxDistance int     `yaml:"repair_max_distance" mapstructure:"repair_max_distance"`
}

// MedicationsConfig points at the medication reference file produced by the
// medload tool. Empty path falls back to the built-in reference set.
type MedicationsConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// LexiconsConfig carries the per-language negation marker lists.
// Lexicons are data, not logic: adding a language is a config change.
type LexiconsConfig struct {
	Negations map[string][]string `yaml:"negations" mapstructure:"negations"`
}

// TranslatorConfig contains the upstream NLLB inference service configuration
type TranslatorConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Breaker struct {
		Enabled             bool          `yaml:"enabled" mapstructure:"enabled"`
		ConsecutiveFailures uint32        `yaml:"consecutive_failures" mapstructure:"consecutive_failures"`
		OpenTimeout         time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
	} `yaml:"breaker" mapstructure:"breaker"`
}

// CacheConfig contains Redis result cache configuration
type CacheConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// AuditConfig contains the Postgres audit store configuration
type AuditConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// WebSocketConfig contains the dashboard event stream configuration
type WebSocketConfig struct {
	Enabled        bool     `yaml:"enabled" mapstructure:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Safety: SafetyConfig{
			MaxInputLength:    10000,
			LengthRatioMin:    0.2,
			LengthRatioMax:    5.0,
			RepairMaxDistance: 1,
		},
		Medications: MedicationsConfig{
			File: "",
		},
		Lexicons: LexiconsConfig{
			Negations: map[string][]string{
				LangFrench: {
					"ne pas", "n'a pas", "ne jamais", "jamais",
					"aucun", "aucune", "interdit", "interdite",
					"contre-indiqué", "contre-indication",
					"éviter", "à éviter", "sans", "sauf", "excepté",
					"ne ... pas",
				},
				LangWolof: {
					"bul", "du", "dara", "amul", "deful",
				},
			},
		},
		Translator: TranslatorConfig{
			URL:     "http://localhost:8090",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			DefaultTTL:     time.Hour,
			MaxConnections: 10,
			MinIdleConns:   2,
		},
		Audit: AuditConfig{
			Enabled:         false,
			DatabaseURL:     "postgres://localhost:5432/medguard?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		WebSocket: WebSocketConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerMin = 120
	cfg.Server.RateLimit.Burst = 20

	cfg.Translator.Breaker.Enabled = true
	cfg.Translator.Breaker.ConsecutiveFailures = 5
	cfg.Translator.Breaker.OpenTimeout = 30 * time.Second

	cfg.Logging.File.Path = "logs/medguard.log"
	cfg.Logging.File.MaxSize = 100 // MB
	cfg.Logging.File.MaxAge = 30   // days
	cfg.Logging.File.Compress = true

	return cfg
}
