package tradebot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/ravenhold/tradehall/tradebot/database"
	"github.com/ravenhold/tradehall/tradebot/database/repositories"
	"github.com/ravenhold/tradehall/tradebot/reputation"
	"github.com/ravenhold/tradehall/tradebot/services"
	"github.com/ravenhold/tradehall/tradebot/trading"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	DB        *database.DB

	UserRepository          repositories.UserRepository
	ListingRepository       repositories.ListingRepository
	TradeRepository         repositories.TradeRepository
	FeedbackRepository      repositories.FeedbackRepository
	GuildSettingsRepository repositories.GuildSettingsRepository

	Notifier     *services.Notifier
	NameCache    *services.NameCache
	AlertService *services.AlertService
	Reputation   *reputation.Service
	TradeManager *trading.Manager
	Sweeper      *trading.Sweeper
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	b.Notifier.SetClient(client)
	b.NameCache.SetClient(client)
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("TradeHall Bot is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the trade floor"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
