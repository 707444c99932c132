package logger

import (
	"log/slog"
	"time"
)

// slowCommand is the completion time above which a successful command is
// logged as a warning.
const slowCommand = 2 * time.Second

// LogCommandResult logs the outcome of one slash command.
func LogCommandResult(name, userID string, took time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("name", name),
		slog.String("user_id", userID),
		slog.Duration("took", took),
	}

	switch {
	case err != nil:
		slog.Error("Command failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
	case took > slowCommand:
		slog.Warn("Command executed slowly", append(attrs,
			slog.String("status", "slow"),
		)...)
	default:
		slog.Info("Command completed", append(attrs,
			slog.String("status", "success"),
		)...)
	}
}

// LogComponentResult logs the outcome of one component interaction, such as
// a trade feedback button press.
func LogComponentResult(name, userID string, took time.Duration, err error) {
	attrs := []any{
		slog.String("type", "cmd"),
		slog.String("component", name),
		slog.String("user_id", userID),
		slog.Duration("took", took),
	}
	if err != nil {
		slog.Error("Component interaction failed", append(attrs,
			slog.Any("error", err),
			slog.String("status", "failed"),
		)...)
		return
	}
	slog.Info("Component interaction completed", append(attrs,
		slog.String("status", "success"),
	)...)
}

// LogQuery logs one raw SQL statement issued outside the ORM, typically
// schema setup.
func LogQuery(operation, query string, took time.Duration, err error) {
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", operation),
		slog.String("query", query),
		slog.Duration("took", took),
	}
	if err != nil {
		slog.Error("Query failed", append(attrs, slog.Any("error", err))...)
		return
	}
	slog.Debug("Query executed", attrs...)
}
