package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/events"

	"github.com/ravenhold/tradehall/tradebot"
)

// MessageHandler keeps trade threads alive: any participant message in a
// tracked thread resets that trade's inactivity clock and re-arms its
// warning.
func MessageHandler(b *tradebot.Bot) bot.EventListener {
	return bot.NewListenerFunc(func(e *events.GuildMessageCreate) {
		if e.Message.Author.Bot {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := b.TradeManager.TouchThreadActivity(ctx, int64(e.ChannelID)); err != nil {
			slog.Warn("Failed to touch trade activity",
				slog.String("type", "trade"),
				slog.String("channel_id", e.ChannelID.String()),
				slog.Any("error", err),
			)
		}
	})
}
