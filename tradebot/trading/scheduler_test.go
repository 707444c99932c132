package trading

import (
	"context"
	"testing"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
)

func seedThreadedTrade(repo *fakeTradeRepo, lastActivity time.Time) *models.Trade {
	trade := &models.Trade{
		SellerID:       "seller",
		BuyerID:        "buyer",
		Item:           "blue shell",
		CreatedAt:      lastActivity,
		LastActivityAt: lastActivity,
	}
	repo.Create(context.Background(), trade)
	repo.AttachThread(context.Background(), trade.ID, 9000+trade.ID)
	trade.LastActivityAt = lastActivity
	return trade
}

func newTestSweeper() (*Sweeper, *fakeTradeRepo, *fakeNotifier) {
	repo := newFakeTradeRepo()
	notifier := &fakeNotifier{}
	sweeper := NewSweeper(repo, notifier, SweeperConfig{
		Interval:   5 * time.Minute,
		WarnAfter:  12 * time.Hour,
		CloseAfter: 24 * time.Hour,
	})
	return sweeper, repo, notifier
}

func TestSweep_FreshTradeUntouched(t *testing.T) {
	sweeper, repo, notifier := newTestSweeper()
	now := time.Now()
	trade := seedThreadedTrade(repo, now.Add(-1*time.Hour))

	sweeper.sweep(context.Background(), now)

	if len(notifier.warnings) != 0 || len(notifier.cancelNotices) != 0 {
		t.Errorf("fresh trade was touched: warnings=%v cancels=%v", notifier.warnings, notifier.cancelNotices)
	}
	if repo.trades[trade.ID].Status != models.TradePending {
		t.Errorf("status = %s, want pending", repo.trades[trade.ID].Status)
	}
}

func TestSweep_WarnsOnceAtThreshold(t *testing.T) {
	sweeper, repo, notifier := newTestSweeper()
	now := time.Now()
	trade := seedThreadedTrade(repo, now.Add(-13*time.Hour))

	sweeper.sweep(context.Background(), now)
	sweeper.sweep(context.Background(), now.Add(time.Minute))

	if len(notifier.warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", notifier.warnings)
	}
	if !repo.trades[trade.ID].InactivityWarningSent {
		t.Error("warning flag not set")
	}
	if repo.trades[trade.ID].Status != models.TradePending {
		t.Errorf("warned trade status = %s, want pending", repo.trades[trade.ID].Status)
	}
}

func TestSweep_CancelsAfterDeadline(t *testing.T) {
	sweeper, repo, notifier := newTestSweeper()
	now := time.Now()
	trade := seedThreadedTrade(repo, now.Add(-25*time.Hour))

	sweeper.sweep(context.Background(), now)

	if repo.trades[trade.ID].Status != models.TradeCancelled {
		t.Fatalf("status = %s, want cancelled", repo.trades[trade.ID].Status)
	}
	if len(notifier.cancelNotices) != 1 {
		t.Errorf("cancel notices = %v, want one", notifier.cancelNotices)
	}
	if len(notifier.teardowns) != 1 {
		t.Errorf("teardowns = %v, want one", notifier.teardowns)
	}

	// Second pass must be a no-op: the trade is terminal now.
	sweeper.sweep(context.Background(), now.Add(time.Minute))
	if len(notifier.cancelNotices) != 1 || len(notifier.teardowns) != 1 {
		t.Errorf("terminal trade swept again: cancels=%v teardowns=%v", notifier.cancelNotices, notifier.teardowns)
	}
}

func TestSweep_ActivityResetsClock(t *testing.T) {
	sweeper, repo, notifier := newTestSweeper()
	now := time.Now()
	trade := seedThreadedTrade(repo, now.Add(-13*time.Hour))

	sweeper.sweep(context.Background(), now)
	if len(notifier.warnings) != 1 {
		t.Fatalf("warnings = %v, want one", notifier.warnings)
	}

	// A participant posts in the thread.
	repo.TouchActivityByThread(context.Background(), *trade.ThreadID, now)

	if repo.trades[trade.ID].InactivityWarningSent {
		t.Error("warning flag not re-armed by activity")
	}

	// Going quiet again earns a fresh warning.
	sweeper.sweep(context.Background(), now.Add(13*time.Hour))
	if len(notifier.warnings) != 2 {
		t.Errorf("warnings after second idle stretch = %v, want two", notifier.warnings)
	}
}

// staleListRepo serves a snapshot taken before a participant closed the
// trade, the way a sweep can race a concurrent /trade complete.
type staleListRepo struct {
	*fakeTradeRepo
	snapshot []*models.Trade
}

func (s *staleListRepo) ListActiveThreadTrades(context.Context) ([]*models.Trade, error) {
	return s.snapshot, nil
}

func TestSweep_ClosedDuringSweepNotNotified(t *testing.T) {
	repo := newFakeTradeRepo()
	notifier := &fakeNotifier{}
	now := time.Now()
	trade := seedThreadedTrade(repo, now.Add(-25*time.Hour))

	stale := *repo.trades[trade.ID]
	closedAt := now.Add(-time.Minute)
	repo.trades[trade.ID].Status = models.TradeCompleted
	repo.trades[trade.ID].ClosedAt = &closedAt

	sweeper := NewSweeper(&staleListRepo{
		fakeTradeRepo: repo,
		snapshot:      []*models.Trade{&stale},
	}, notifier, SweeperConfig{
		Interval:   5 * time.Minute,
		WarnAfter:  12 * time.Hour,
		CloseAfter: 24 * time.Hour,
	})

	sweeper.sweep(context.Background(), now)

	if repo.trades[trade.ID].Status != models.TradeCompleted {
		t.Fatalf("status = %s, want completed left intact", repo.trades[trade.ID].Status)
	}
	if len(notifier.cancelNotices) != 0 {
		t.Errorf("cancel notices = %v, want none for a completed trade", notifier.cancelNotices)
	}
	if len(notifier.teardowns) != 0 {
		t.Errorf("teardowns = %v, want none for a completed trade", notifier.teardowns)
	}
}

func TestSweep_IgnoresThreadlessTrades(t *testing.T) {
	sweeper, repo, notifier := newTestSweeper()
	now := time.Now()

	trade := &models.Trade{
		SellerID:       "seller",
		BuyerID:        "buyer",
		Item:           "blue shell",
		LastActivityAt: now.Add(-48 * time.Hour),
	}
	repo.Create(context.Background(), trade)
	repo.trades[trade.ID].LastActivityAt = now.Add(-48 * time.Hour)

	sweeper.sweep(context.Background(), now)

	if len(notifier.cancelNotices) != 0 {
		t.Errorf("threadless trade swept: %v", notifier.cancelNotices)
	}
	if repo.trades[trade.ID].Status != models.TradePending {
		t.Errorf("status = %s, want pending", repo.trades[trade.ID].Status)
	}
}
