package utils

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the server logger and installs it as zap's global. Dev mode gets
// zap's development preset (console output, stack traces on warnings); otherwise the
// production preset with sampling is used. An empty encoding follows the mode.
func NewLogger(cfg LoggingConfig, devMode bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if devMode {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.Level); err == nil && cfg.Level != "" {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	switch enc := strings.ToLower(strings.TrimSpace(cfg.Encoding)); enc {
	case "json", "console":
		zapCfg.Encoding = enc
	}
	if zapCfg.Encoding == "console" {
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !devMode {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}
	zapCfg.EncoderConfig.TimeKey = "time"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableCaller = !cfg.EnableCaller && !devMode

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(cfg.ServiceName); name != "" {
		logger = logger.Named(name)
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
