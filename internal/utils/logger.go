package utils

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logMu  sync.RWMutex
	logger = zap.NewNop()
)

// InitLogger replaces the process logger. Production uses JSON, anything else a
// colored console encoder.
func InitLogger(env, level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var encoder zapcore.Encoder
	if env == "production" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(lvl))
	SetLogger(zap.New(core))
	return nil
}

func SetLogger(l *zap.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = l
}

func Logger() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

func Sync() {
	_ = Logger().Sync()
}

func format(message string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

func LogInfo(component, message string, args ...interface{}) {
	Logger().Info(format(message, args), zap.String("component", component))
}

func LogSuccess(component, message string, args ...interface{}) {
	Logger().Info(format(message, args), zap.String("component", component), zap.Bool("success", true))
}

func LogWarning(component, message string, args ...interface{}) {
	Logger().Warn(format(message, args), zap.String("component", component))
}

func LogError(component, message string, err error) {
	if err != nil {
		Logger().Error(message, zap.String("component", component), zap.Error(err))
		return
	}
	Logger().Error(message, zap.String("component", component))
}

func LogDebug(component, message string, args ...interface{}) {
	Logger().Debug(format(message, args), zap.String("component", component))
}

func LogRequest(method, path, accountID string) {
	Logger().Info("request",
		zap.String("component", "HTTP"),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("account_id", accountID))
}

func LogResponse(path string, statusCode int, duration time.Duration) {
	fields := []zap.Field{
		zap.String("component", "HTTP"),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Duration("duration", duration),
	}

	switch {
	case statusCode >= 500:
		Logger().Error("response", fields...)
	case statusCode >= 400:
		Logger().Warn("response", fields...)
	default:
		Logger().Info("response", fields...)
	}
}

func LogDB(operation, query string) {
	Logger().Debug(query, zap.String("component", "DB"), zap.String("operation", operation))
}
