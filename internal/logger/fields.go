package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldDatabase is the structured log field key for the workspace database id.
	FieldDatabase = "database_id"
	// FieldProvider is the structured log field key for the metric provider name.
	FieldProvider = "metric_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger, falling back to a
// no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// PipelineFields describes which database is read and who fills the placeholder metrics.
func PipelineFields(databaseID, provider string) []zap.Field {
	return StringFields(
		StringField{Key: FieldDatabase, Value: databaseID},
		StringField{Key: FieldProvider, Value: provider},
	)
}

// WithPipelineFields attaches PipelineFields to the logger.
func WithPipelineFields(logger *zap.Logger, databaseID, provider string) *zap.Logger {
	return WithFields(logger, PipelineFields(databaseID, provider)...)
}
