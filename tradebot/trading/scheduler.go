package trading

import (
	"context"
	"log/slog"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/repositories"
)

// SweeperConfig controls the inactivity sweep timing.
type SweeperConfig struct {
	Interval   time.Duration
	WarnAfter  time.Duration
	CloseAfter time.Duration
}

// Sweeper periodically closes trades whose threads have gone quiet. A trade
// gets one warning at WarnAfter of silence and a forced cancellation at
// CloseAfter. Posting in the thread resets the clock and re-arms the warning.
type Sweeper struct {
	trades   repositories.TradeRepository
	notifier Notifier
	cfg      SweeperConfig
}

func NewSweeper(trades repositories.TradeRepository, notifier Notifier, cfg SweeperConfig) *Sweeper {
	return &Sweeper{
		trades:   trades,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx, time.Now())
			}
		}
	}()
}

// sweep makes one pass over all active threaded trades. Each trade is
// handled independently so one failed notification never blocks the rest.
func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	trades, err := s.trades.ListActiveThreadTrades(ctx)
	if err != nil {
		slog.Error("Inactivity sweep failed to list trades",
			slog.String("type", "trade"),
			slog.Any("error", err),
		)
		return
	}

	for _, trade := range trades {
		idle := now.Sub(trade.LastActivityAt)

		switch {
		case idle >= s.cfg.CloseAfter:
			applied, err := s.trades.CancelExpired(ctx, trade.ID, now)
			if err != nil {
				slog.Error("Failed to cancel inactive trade",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", err),
				)
				continue
			}
			if !applied {
				// A participant closed it between the listing and now;
				// no cancellation to announce.
				continue
			}
			if err := s.notifier.NotifyInactivityCancel(ctx, trade); err != nil {
				slog.Warn("Failed to announce inactivity cancellation",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", err),
				)
			}
			if err := s.notifier.TeardownThread(ctx, trade); err != nil {
				slog.Warn("Failed to tear down trade thread",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", err),
				)
			}
			slog.Info("Cancelled inactive trade",
				slog.String("type", "trade"),
				slog.Int64("trade_id", trade.ID),
				slog.Duration("idle", idle),
			)

		case idle >= s.cfg.WarnAfter && !trade.InactivityWarningSent:
			if err := s.notifier.WarnInactivity(ctx, trade, idle); err != nil {
				slog.Warn("Failed to send inactivity warning",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", err),
				)
				continue
			}
			if err := s.trades.MarkWarningSent(ctx, trade.ID); err != nil {
				slog.Error("Failed to mark inactivity warning",
					slog.String("type", "trade"),
					slog.Int64("trade_id", trade.ID),
					slog.Any("error", err),
				)
			}
		}
	}
}
