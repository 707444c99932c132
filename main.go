package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"

	"github.com/ravenhold/tradehall/tradebot"
	"github.com/ravenhold/tradehall/tradebot/commands"
	"github.com/ravenhold/tradehall/tradebot/database"
	"github.com/ravenhold/tradehall/tradebot/database/repositories"
	"github.com/ravenhold/tradehall/tradebot/handlers"
	"github.com/ravenhold/tradehall/tradebot/logger"
	"github.com/ravenhold/tradehall/tradebot/reputation"
	"github.com/ravenhold/tradehall/tradebot/services"
	"github.com/ravenhold/tradehall/tradebot/trading"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	customHandler := logger.NewHandler()
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting TradeHall Discord Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := tradebot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	slog.Info("Database connected successfully",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	slog.Info("Initializing database schema...")
	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}
	slog.Info("Database schema initialized successfully")

	defer db.Close()

	b := tradebot.New(*cfg, version, commit)
	b.DB = db

	b.UserRepository = repositories.NewUserRepository(db.BunDB(), db)
	b.ListingRepository = repositories.NewListingRepository(db.BunDB(), db)
	b.TradeRepository = repositories.NewTradeRepository(db.BunDB(), db)
	b.FeedbackRepository = repositories.NewFeedbackRepository(db.BunDB(), db)
	b.GuildSettingsRepository = repositories.NewGuildSettingsRepository(db.BunDB(), db)

	// Discord-facing services get their client in SetupBot.
	b.Notifier = services.NewNotifier(nil, b.GuildSettingsRepository, services.NotifierConfig{
		GuildID:   cfg.Bot.GuildID,
		LevelRole: cfg.Rep.LevelRole,
	})
	b.NameCache = services.NewNameCache(nil)
	b.AlertService = services.NewAlertService(b.ListingRepository, b.Notifier)

	b.Reputation = reputation.NewService(b.UserRepository, b.FeedbackRepository, b.Notifier, reputation.Config{
		QuickRatingCooldown: cfg.Rep.QuickRatingCooldown(),
		RoleLevelThreshold:  cfg.Rep.RoleLevelThreshold,
	})
	b.TradeManager = trading.NewManager(b.TradeRepository, b.Notifier, b.Reputation)
	b.Sweeper = trading.NewSweeper(b.TradeRepository, b.Notifier, trading.SweeperConfig{
		Interval:   cfg.Trade.SweepInterval(),
		WarnAfter:  cfg.Trade.InactivityWarning(),
		CloseAfter: cfg.Trade.InactivityClose(),
	})

	h := handler.New()

	h.Command("/version", commands.VersionHandler(b))
	h.Command("/settings", handlers.WrapWithLogging("settings", commands.SettingsHandler(b)))

	h.Command("/stock", handlers.WrapWithLogging("stock", commands.StockHandler(b)))
	h.Autocomplete("/stock", commands.StockAutocomplete(b))
	h.Command("/wishlist", handlers.WrapWithLogging("wishlist", commands.WishlistHandler(b)))
	h.Command("/alerts", handlers.WrapWithLogging("alerts", commands.AlertsHandler(b)))
	h.Command("/search", handlers.WrapWithLogging("search", commands.SearchHandler(b)))
	h.Autocomplete("/search", commands.SearchAutocomplete(b))

	h.Command("/trade", handlers.WrapWithLogging("trade", commands.TradeHandler(b)))
	h.Component("/trade_feedback/", handlers.WrapComponentWithLogging("trade-feedback", commands.TradeFeedbackComponentHandler(b)))

	h.Command("/rep", handlers.WrapWithLogging("rep", commands.RepHandler(b)))
	h.Command("/repadmin", handlers.WrapWithLogging("repadmin", commands.RepAdminHandler(b)))
	h.Command("/review", handlers.WrapWithLogging("review", commands.ReviewHandler(b)))
	h.Command("/profile", handlers.WrapWithLogging("profile", commands.ProfileHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", commands.LeaderboardHandler(b)))

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady), handlers.MessageHandler(b)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
			)
		}
	}

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	b.Sweeper.Start(sweepCtx)

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
		)
		os.Exit(-1)
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down bot...")
}
