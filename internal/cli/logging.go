package cli

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel maps a config level name to a zap level. verbose counts
// -v flags; each one lowers the threshold by a step.
func ParseLogLevel(name string, verbose int) (zapcore.Level, error) {
	level := zapcore.WarnLevel
	if name != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
			return level, fmt.Errorf("invalid log level %q", name)
		}
	}
	for ; verbose > 0 && level > zapcore.DebugLevel; verbose-- {
		level--
	}
	return level, nil
}

// NewLogger builds the console logger diagnostics go to. Timestamps are
// left out; messages are meant for a terminal.
func NewLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddStacktrace(zapcore.DPanicLevel)).Named("helpcomp")
}
