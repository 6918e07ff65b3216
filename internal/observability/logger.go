package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerOptions struct {
	Level string
	// File enables an additional rotated log file next to stdout.
	File   string
	Output io.Writer
}

type Logger struct {
	base zerolog.Logger
	file *lumberjack.Logger
}

func NewLogger(options LoggerOptions) *Logger {
	var out io.Writer = os.Stdout
	if options.Output != nil {
		out = options.Output
	}

	var file *lumberjack.Logger
	if path := strings.TrimSpace(options.File); path != "" {
		file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		out = io.MultiWriter(out, file)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(options.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return &Logger{
		base: zerolog.New(out).Level(level).With().Timestamp().Logger(),
		file: file,
	}
}

func NopLogger() *Logger {
	return &Logger{base: zerolog.Nop()}
}

func (l *Logger) Debug(message string, fields map[string]any) {
	l.base.Debug().Fields(fields).Msg(message)
}

func (l *Logger) Info(message string, fields map[string]any) {
	l.base.Info().Fields(fields).Msg(message)
}

func (l *Logger) Warn(message string, fields map[string]any) {
	l.base.Warn().Fields(fields).Msg(message)
}

func (l *Logger) Error(message string, fields map[string]any) {
	l.base.Error().Fields(fields).Msg(message)
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
