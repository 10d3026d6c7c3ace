// Package log wraps slog with component-tagged loggers shared by the
// server and worker binaries.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger permanently tagged with a component
// attribute. Deriving a new component always starts from the untagged
// base logger, so every line carries exactly one component field.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

// Config controls handler construction. A nil Handler means a text
// handler on stdout at the configured level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

func New(cfg Config) *Logger {
	handler := cfg.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	}
	base := slog.New(handler)
	return &Logger{
		Logger:    base.With(FieldComponent, cfg.Component),
		base:      base,
		component: cfg.Component,
	}
}

// WithComponent derives a logger for another component over the same
// handler.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.base.With(FieldComponent, component),
		base:      l.base,
		component: component,
	}
}

// SetDefault routes package-level slog calls through this logger.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}

// Component returns the component this logger is tagged with.
func (l *Logger) Component() string {
	return l.component
}
