package services

import (
	"context"
	"log/slog"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/matching"
)

// AlertSource lists every stored alert. Satisfied by the listing repository.
type AlertSource interface {
	AllAlerts(ctx context.Context) ([]*models.AlertEntry, error)
}

// DigestSender delivers one user's grouped alert hits.
type DigestSender interface {
	SendAlertDigest(ctx context.Context, userID, posterID string, matches []matching.AlertMatch) error
}

// AlertService fans newly posted stock out to everyone whose alerts match.
type AlertService struct {
	listings AlertSource
	digests  DigestSender
}

func NewAlertService(listings AlertSource, digests DigestSender) *AlertService {
	return &AlertService{
		listings: listings,
		digests:  digests,
	}
}

// NotifyStockChange fans a single stock entry out to watchers after an add
// or a restock. Changes that leave the item out of stock notify nobody.
func (s *AlertService) NotifyStockChange(ctx context.Context, posterID, item string, quantity int) {
	if quantity <= 0 {
		return
	}
	s.NotifyMatches(ctx, posterID, []string{item})
}

// NotifyMatches checks the just-posted items against every alert and DMs each
// watching user one digest. Delivery failures are logged per user and never
// block the posting that triggered them.
func (s *AlertService) NotifyMatches(ctx context.Context, posterID string, items []string) {
	if len(items) == 0 {
		return
	}

	alerts, err := s.listings.AllAlerts(ctx)
	if err != nil {
		slog.Error("Failed to load alerts for matching",
			slog.String("type", "sys"),
			slog.Any("error", err),
		)
		return
	}

	hits := matching.MatchAlerts(alerts, items, posterID)
	for userID, matches := range hits {
		if err := s.digests.SendAlertDigest(ctx, userID, posterID, matches); err != nil {
			slog.Warn("Failed to deliver alert digest",
				slog.String("type", "sys"),
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}
}
