// Package logging configures the process-wide slog logger and bridges
// it into the actor system.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

// Config selects the handler flavor and verbosity.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is "text" (tint) or "json".
	Format string
}

// Setup builds the handler described by cfg, installs it as the slog
// default, and returns the logger for explicit injection.
func Setup(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ActorSystemLogger adapts a configured logger for
// actor.WithLoggerFactory, tagging every record with the actor system
// id.
func ActorSystemLogger(base *slog.Logger) func(system *actor.ActorSystem) *slog.Logger {
	return func(system *actor.ActorSystem) *slog.Logger {
		return base.With("lib", "Proto.Actor", "system", system.ID)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
