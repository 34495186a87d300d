package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by the providers, the analyzer and chat.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldUser     = "user_id"
	FieldCacheKey = "cache_key"
	FieldScore    = "match_score"
	FieldForced   = "forced"
)

// StringField is a key/value pair that is only logged when both sides are set.
type StringField struct {
	Key   string
	Value string
}

func (f StringField) field() (zap.Field, bool) {
	key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
	if key == "" || value == "" {
		return zap.Skip(), false
	}
	return zap.String(key, value), true
}

// StringFields trims every pair and drops the incomplete ones.
func StringFields(fields ...StringField) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if zf, ok := f.field(); ok {
			out = append(out, zf)
		}
	}
	return out
}

// WithFields returns logger extended with fields. A nil logger becomes a
// no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// CommonFields names the provider and model of an AI call.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// AnalysisFields describes a single analysis request. Forced requests have
// no cache key.
func AnalysisFields(cacheKey string, score int, forced bool) []zap.Field {
	fields := StringFields(StringField{Key: FieldCacheKey, Value: cacheKey})
	return append(fields, zap.Int(FieldScore, score), zap.Bool(FieldForced, forced))
}
