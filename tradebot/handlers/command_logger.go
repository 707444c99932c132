package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot/logger"
)

const commandTimeout = 10 * time.Second

// WrapWithLogging wraps a command handler with start/finish logging and a
// hard timeout.
func WrapWithLogging(name string, h handler.CommandHandler) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		start := time.Now()

		slog.Info("Command started",
			slog.String("type", "cmd"),
			slog.String("name", name),
			slog.String("user_id", e.User().ID.String()),
			slog.String("user_name", e.User().Username),
			slog.String("channel_id", e.Channel().ID().String()),
		)

		done := make(chan error, 1)
		go func() {
			done <- h(e)
		}()

		select {
		case err := <-done:
			logger.LogCommandResult(name, e.User().ID.String(), time.Since(start), err)
			return err

		case <-time.After(commandTimeout):
			slog.Error("Command timed out",
				slog.String("type", "cmd"),
				slog.String("name", name),
				slog.String("user_id", e.User().ID.String()),
				slog.String("status", "timeout"),
				slog.Duration("timeout", commandTimeout),
			)
			return fmt.Errorf("command timed out after %s", commandTimeout)
		}
	}
}

// WrapComponentWithLogging wraps a component handler the same way.
func WrapComponentWithLogging(name string, h handler.ComponentHandler) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		start := time.Now()
		err := h(e)
		logger.LogComponentResult(name, e.User().ID.String(), time.Since(start), err)
		return err
	}
}
