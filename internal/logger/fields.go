package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured field keys shared by the packages.
const (
	FieldProvider = "ai_provider"
	FieldModel    = "ai_model"
	FieldStep     = "analysis_step"
	FieldState    = "wizard_state"
)

// pairs turns alternating keys and values into string fields. Pairs with a
// blank key or value are dropped; the rest are trimmed.
func pairs(kv ...string) []zap.Field {
	fields := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, value := strings.TrimSpace(kv[i]), strings.TrimSpace(kv[i+1])
		if key == "" || value == "" {
			continue
		}
		fields = append(fields, zap.String(key, value))
	}
	return fields
}

// CommonFields identifies the AI provider and model.
func CommonFields(provider, model string) []zap.Field {
	return pairs(FieldProvider, provider, FieldModel, model)
}

// WithCommonFields attaches CommonFields to l. A nil l yields a no-op logger.
func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	return with(l, CommonFields(provider, model))
}

// StepFields describes an analysis step and the wizard state it targets.
func StepFields(step, state string) []zap.Field {
	return pairs(FieldStep, step, FieldState, state)
}

func with(l *zap.Logger, fields []zap.Field) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
