package logging

import (
	"fmt"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Condensed from the teacher's theme-able minimal_encoder.go: a single
// muted palette instead of a selectable theme, since this daemon has no
// per-user UI surface to theme for.
const (
	colorReset = "\x1b[0m"
	colorDim   = "\x1b[38;5;245m" // timestamps
	colorInfo  = "\x1b[38;5;109m" // blue
	colorWarn  = "\x1b[38;5;214m" // yellow
	colorError = "\x1b[38;5;167m" // red
	colorDebug = "\x1b[38;5;102m" // grey-green
)

func levelColor(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return colorDebug
	case zapcore.WarnLevel:
		return colorWarn
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorError
	default:
		return colorInfo
	}
}

// consoleEncoder renders one line per entry: dim timestamp, colored level,
// component (logger name), message, then key=value fields in call order.
type consoleEncoder struct {
	zapcore.Encoder
}

func newConsoleEncoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return &consoleEncoder{Encoder: zapcore.NewConsoleEncoder(cfg)}
}

func (e *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: e.Encoder.Clone()}
}

func (e *consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := buffer.NewPool().Get()

	line.AppendString(colorDim)
	line.AppendString(entry.Time.Format("15:04:05.000"))
	line.AppendString(colorReset + " ")

	line.AppendString(levelColor(entry.Level))
	line.AppendString(fmt.Sprintf("%-5s", entry.Level.CapitalString()))
	line.AppendString(colorReset + " ")

	if entry.LoggerName != "" {
		line.AppendString("[" + entry.LoggerName + "] ")
	}

	line.AppendString(entry.Message)

	for _, f := range fields {
		line.AppendString(fmt.Sprintf(" %s=%v", f.Key, fieldValue(f)))
	}
	line.AppendString("\n")

	return line, nil
}

func fieldValue(f zapcore.Field) interface{} {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.Int64Type, zapcore.Int32Type:
		return f.Integer
	case zapcore.Float64Type:
		return f.Interface
	default:
		if f.Interface != nil {
			return f.Interface
		}
		return f.String
	}
}
