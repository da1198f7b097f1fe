package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Env       string
	AddSource bool
}

// Logger is a thin wrapper around slog.Logger
type Logger struct {
	*slog.Logger
}

func New(config Config) (*Logger, error) {
	handlerOpts := &slog.HandlerOptions{
		Level:     parseLogLevel(config.Env),
		AddSource: config.AddSource,
	}

	handler, err := determineHandler(config.Env, handlerOpts)
	if err != nil {
		return nil, err
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{Logger: logger}, nil
}

// Must panics if logger creation fails
// Useful for initialization where errors are unrecoverable
func Must(logger *Logger, err error) *Logger {
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

func determineHandler(env string, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(env) {
	case "prod":
		return slog.NewJSONHandler(os.Stdout, opts), nil
	case "dev":
		return slog.NewTextHandler(os.Stdout, opts), nil
	case "test":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}), nil
	default:
		return nil, fmt.Errorf("unknown env %q: expected dev/prod/test", env)
	}
}

func parseLogLevel(env string) slog.Level {
	switch strings.ToLower(env) {
	case "dev":
		return slog.LevelDebug
	case "prod":
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
