// Package logger builds the zap logger shared by all burrowdb components.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultService is the service tag applied when the config names none.
const DefaultService = "burrowdb"

// Config holds all the configuration for the logger.
type Config struct {
	// Service is the value of the "service" field stamped on every line.
	Service string `yaml:"service"`
	// Level sets the minimum log level (e.g., "debug", "info", "warn", "error").
	Level string `yaml:"level"`
	// Format specifies the log output format ("json" or "console").
	Format string `yaml:"format"`
	// OutputFile specifies the file to write logs to. "stdout" or "stderr"
	// can be used to log to the console.
	OutputFile string `yaml:"output_file"`
}

// New creates a zap.Logger from the configuration. Unknown levels fall back
// to info rather than failing startup; a bad output path is an error, since
// a logger that silently drops everything is worse than no process at all.
func New(config Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	service := config.Service
	if service == "" {
		service = DefaultService
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding(config.Format),
		EncoderConfig:    encoderConfig(),
		OutputPaths:      []string{outputPath(config.OutputFile)},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]interface{}{"service": service},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Component returns a child logger tagged with the subsystem name, so log
// lines from the buffer pool, disk scheduler and trie store can be told
// apart.
func Component(base *zap.Logger, name string) *zap.Logger {
	return base.With(zap.String("component", name))
}

func encoding(format string) string {
	if strings.EqualFold(format, "console") {
		return "console"
	}
	return "json"
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// outputPath maps the configured destination onto a zap output path. Zap
// opens regular file paths itself, so only the console aliases need
// normalizing.
func outputPath(outputFile string) string {
	switch strings.ToLower(outputFile) {
	case "", "stdout":
		return "stdout"
	case "stderr":
		return "stderr"
	default:
		return outputFile
	}
}
