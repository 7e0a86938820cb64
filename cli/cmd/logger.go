package cmd

import (
	"os"

	"github.com/rs/zerolog"
)

// zerologAdapter bridges the SDK's Logger interface onto zerolog.
type zerologAdapter struct {
	l zerolog.Logger
}

func newLogger(verbose bool) zerologAdapter {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return zerologAdapter{l: l}
}

func (z zerologAdapter) Debug(msg string, fields map[string]any) {
	z.l.Debug().Fields(fields).Msg(msg)
}

func (z zerologAdapter) Info(msg string, fields map[string]any) {
	z.l.Info().Fields(fields).Msg(msg)
}

func (z zerologAdapter) Warn(msg string, fields map[string]any) {
	z.l.Warn().Fields(fields).Msg(msg)
}

func (z zerologAdapter) Error(msg string, fields map[string]any) {
	z.l.Error().Fields(fields).Msg(msg)
}
