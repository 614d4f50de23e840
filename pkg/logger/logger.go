package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log  *zap.Logger
	once sync.Once
)

func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			built = zap.NewNop()
		}
		log = built
	})
}

func Info(event string, fields map[string]interface{}) {
	logger().Info(event, toZapFields(fields)...)
}

func Warn(event string, fields map[string]interface{}) {
	logger().Warn(event, toZapFields(fields)...)
}

func Error(event string, fields map[string]interface{}) {
	logger().Error(event, toZapFields(fields)...)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	zapFields := append(toZapFields(fields), zap.String("user_id", userID))
	logger().Info(event, zapFields...)
}

func logger() *zap.Logger {
	if log == nil {
		Init()
	}
	return log
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return zapFields
}
