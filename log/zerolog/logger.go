package zerolog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/Konsultn-Engineering/sqlfrag/log"
)

// Logger adapts a zerolog.Logger to log.Logger.
type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// longer values are truncated
const logMaxBytes = 10000

type Config struct {
	Level  string
	Format string // "json" or "console"
	Out    io.Writer
}

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{zerologger: zl}
}

// New builds a zerolog logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339Nano}
	}

	logger := zerolog.New(out).With().Timestamp().Logger().Level(level)
	return &logger
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Trace(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Debug(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Info(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Warn().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Error().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Panic(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Panic(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

func withFields(event *zerolog.Event, fieldMaps ...loglib.Fields) *zerolog.Event {
	for _, m := range fieldMaps {
		for key, value := range m {
			switch v := value.(type) {
			case string:
				event = event.Str(key, v)
			case int:
				event = event.Int(key, v)
			case int64:
				event = event.Int64(key, v)
			case uint64:
				event = event.Uint64(key, v)
			case bool:
				event = event.Bool(key, v)
			case []byte:
				if len(v) > logMaxBytes {
					v = v[:logMaxBytes]
				}
				event = event.Bytes(key, v)
			case time.Duration:
				event = event.Dur(key, v)
			case []string:
				event = event.Strs(key, v)
			default:
				event = event.Any(key, v)
			}
		}
	}
	return event
}
