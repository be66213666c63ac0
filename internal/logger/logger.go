package logger

import (
	"os"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with additional functionality
type Logger struct {
	*zap.Logger
}

// Config contains logger configuration
type Config struct {
	Level  string
	Format string // json or console
	File   *FileConfig
}

// FileConfig contains file logging configuration
type FileConfig struct {
	Enabled  bool
	Path     string
	MaxSize  int
	MaxAge   int
	Compress bool
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	// Parse log level
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	// Create encoder config
	var encoderConfig zapcore.EncoderConfig
	if config.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// Create encoder
	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	// Create core
	var cores []zapcore.Core

	// Console output
	consoleCore := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		level,
	)
	cores = append(cores, consoleCore)

	// File output (if enabled)
	if config.File != nil && config.File.Enabled {
		file, err := os.OpenFile(config.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			level,
		)
		cores = append(cores, fileCore)
	}

	// Combine cores
	core := zapcore.NewTee(cores...)

	// Create logger
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{Logger: logger}, nil
}

// WithRequestID adds a request ID to the logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("request_id", requestID))}
}

// WithComponent adds a component name to the logger context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component))}
}

// WithLangPair adds a source→target language pair to the logger context
func (l *Logger) WithLangPair(sourceLang, targetLang string) *Logger {
	return &Logger{Logger: l.Logger.With(
		zap.String("source_lang", sourceLang),
		zap.String("target_lang", targetLang),
	)}
}

// LogVerdict logs the outcome of a translation request. Rejections carry the
// full violation set at error level so they can be alerted on.
func (l *Logger) LogVerdict(accepted bool, violations []string, warnings []string, durationMS float64) {
	fields := []zap.Field{
		zap.Bool("accepted", accepted),
		zap.Float64("duration_ms", durationMS),
		zap.Int("warning_count", len(warnings)),
	}

	if accepted {
		l.Info("Translation accepted", fields...)
		return
	}

	fields = append(fields, zap.Strings("violations", violations))
	l.Error("Translation rejected", fields...)
}

// LogSafetyViolation logs a single safety violation at elevated severity.
// Source and translated text are truncated so full clinical content never
// lands in the log stream.
func (l *Logger) LogSafetyViolation(code, message, sourceText, translatedText string) {
	l.Error("Safety violation",
		zap.String("code", code),
		zap.String("message", message),
		zap.String("source_preview", truncate(sourceText, 200)),
		zap.String("translated_preview", truncate(translatedText, 200)),
	)
}

// truncate cuts s to at most n bytes, backing up to a rune boundary so the
// preview never carries a split multi-byte character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
