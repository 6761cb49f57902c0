package logging

import "go.uber.org/zap"

// KV adapts a zap.Logger to the keysAndValues logging interfaces consumed by
// the application and interface layers.
type KV struct {
	logger *zap.Logger
}

// NewKV wraps the given logger
func NewKV(logger *zap.Logger) *KV {
	return &KV{logger: logger}
}

// Info logs at info level with alternating key/value pairs
func (a *KV) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, toZapFields(keysAndValues...)...)
}

// Error logs at error level with alternating key/value pairs
func (a *KV) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, toZapFields(keysAndValues...)...)
}

// toZapFields converts key-value pairs to zap fields
func toZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
