package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option изменяет конфигурацию zap перед сборкой
type Option func(*zap.Config)

// WithOutput направляет логи в указанные пути вместо stdout
func WithOutput(paths ...string) Option {
	return func(c *zap.Config) {
		c.OutputPaths = paths
	}
}

// New создает логгер: json в обычном режиме, цветной console при уровне debug
func New(level string, opts ...Option) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	if level == "debug" {
		config.Development = true
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	for _, opt := range opts {
		opt(&config)
	}

	return config.Build()
}
