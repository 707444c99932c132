package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/database/repositories"
)

var (
	// ErrSelfTrade is returned when buyer and seller are the same user.
	ErrSelfTrade = errors.New("cannot open a trade with yourself")
	// ErrEmptyItem is returned when the trade item resolves to an empty name.
	ErrEmptyItem = errors.New("trade item cannot be empty")
)

// Notifier performs the platform side effects of trade transitions. All
// methods may fail without corrupting trade state; only thread creation
// failure during Create rolls the trade back.
type Notifier interface {
	OpenTradeThread(ctx context.Context, trade *models.Trade) (int64, error)
	NotifyStatusChange(ctx context.Context, trade *models.Trade, status models.TradeStatus) error
	PromptFeedback(ctx context.Context, trade *models.Trade) error
	WarnInactivity(ctx context.Context, trade *models.Trade, idle time.Duration) error
	NotifyInactivityCancel(ctx context.Context, trade *models.Trade) error
	TeardownThread(ctx context.Context, trade *models.Trade) error
}

// ResponseRecorder folds a completed trade's responsiveness score into a
// user's running average.
type ResponseRecorder interface {
	AddResponseScore(ctx context.Context, discordID string, score int) error
}

// Manager drives the trade lifecycle. Transitions delegate to guarded
// repository updates; a false return from those means the caller lost a race
// or was not entitled to the transition, and the manager reports it as not
// applied rather than an error.
type Manager struct {
	trades    repositories.TradeRepository
	notifier  Notifier
	responses ResponseRecorder
}

func NewManager(trades repositories.TradeRepository, notifier Notifier, responses ResponseRecorder) *Manager {
	return &Manager{
		trades:    trades,
		notifier:  notifier,
		responses: responses,
	}
}

// Create opens a pending trade between buyer and seller and spins up its
// thread. If the thread cannot be created the trade row is deleted again so
// no orphaned trade lingers without a venue.
func (m *Manager) Create(ctx context.Context, sellerID, buyerID, item string) (*models.Trade, error) {
	if sellerID == buyerID {
		return nil, ErrSelfTrade
	}
	if strings.TrimSpace(item) == "" {
		return nil, ErrEmptyItem
	}

	trade := &models.Trade{
		SellerID: sellerID,
		BuyerID:  buyerID,
		Item:     item,
	}
	if err := m.trades.Create(ctx, trade); err != nil {
		return nil, err
	}

	threadID, err := m.notifier.OpenTradeThread(ctx, trade)
	if err != nil {
		if delErr := m.trades.Delete(ctx, trade.ID); delErr != nil {
			slog.Error("Failed to roll back trade after thread failure",
				slog.String("type", "trade"),
				slog.Int64("trade_id", trade.ID),
				slog.Any("error", delErr),
			)
		}
		return nil, fmt.Errorf("failed to open trade thread: %w", err)
	}

	if err := m.trades.AttachThread(ctx, trade.ID, threadID); err != nil {
		return nil, err
	}
	trade.ThreadID = &threadID

	slog.Info("Trade created",
		slog.String("type", "trade"),
		slog.Int64("trade_id", trade.ID),
		slog.String("seller_id", sellerID),
		slog.String("buyer_id", buyerID),
		slog.String("item", item),
	)
	return trade, nil
}

// Accept moves a pending trade to open. Seller only.
func (m *Manager) Accept(ctx context.Context, tradeID int64, actorID string) (bool, error) {
	applied, err := m.trades.Accept(ctx, tradeID, actorID, time.Now())
	if err != nil || !applied {
		return applied, err
	}
	m.notifyTransition(ctx, tradeID, models.TradeOpen)
	return true, nil
}

// Reject declines a pending trade. Seller only.
func (m *Manager) Reject(ctx context.Context, tradeID int64, actorID string) (bool, error) {
	applied, err := m.trades.Reject(ctx, tradeID, actorID, time.Now())
	if err != nil || !applied {
		return applied, err
	}
	m.notifyTransition(ctx, tradeID, models.TradeRejected)
	return true, nil
}

// Complete closes an open trade, records both parties' responsiveness scores
// once, and prompts for feedback.
func (m *Manager) Complete(ctx context.Context, tradeID int64, actorID string) (bool, error) {
	applied, err := m.trades.Complete(ctx, tradeID, actorID, time.Now())
	if err != nil || !applied {
		return applied, err
	}

	trade, err := m.trades.GetByID(ctx, tradeID)
	if err != nil {
		return true, err
	}

	m.recordResponseScores(ctx, trade)

	if err := m.notifier.NotifyStatusChange(ctx, trade, models.TradeCompleted); err != nil {
		slog.Warn("Failed to announce trade completion",
			slog.String("type", "trade"),
			slog.Int64("trade_id", tradeID),
			slog.Any("error", err),
		)
	}
	if err := m.notifier.PromptFeedback(ctx, trade); err != nil {
		slog.Warn("Failed to prompt for trade feedback",
			slog.String("type", "trade"),
			slog.Int64("trade_id", tradeID),
			slog.Any("error", err),
		)
	}
	return true, nil
}

// Cancel closes a pending or open trade. Either participant.
func (m *Manager) Cancel(ctx context.Context, tradeID int64, actorID string) (bool, error) {
	applied, err := m.trades.Cancel(ctx, tradeID, actorID, time.Now())
	if err != nil || !applied {
		return applied, err
	}
	m.notifyTransition(ctx, tradeID, models.TradeCancelled)
	return true, nil
}

func (m *Manager) Get(ctx context.Context, tradeID int64) (*models.Trade, error) {
	return m.trades.GetByID(ctx, tradeID)
}

func (m *Manager) ActiveForUser(ctx context.Context, discordID string) ([]*models.Trade, error) {
	return m.trades.ListActiveForUser(ctx, discordID)
}

// TouchThreadActivity resets the inactivity clock when a participant posts in
// a trade thread.
func (m *Manager) TouchThreadActivity(ctx context.Context, threadID int64) error {
	_, err := m.trades.TouchActivityByThread(ctx, threadID, time.Now())
	return err
}

func (m *Manager) notifyTransition(ctx context.Context, tradeID int64, status models.TradeStatus) {
	trade, err := m.trades.GetByID(ctx, tradeID)
	if err != nil {
		slog.Warn("Failed to load trade for notification",
			slog.String("type", "trade"),
			slog.Int64("trade_id", tradeID),
			slog.Any("error", err),
		)
		return
	}
	if err := m.notifier.NotifyStatusChange(ctx, trade, status); err != nil {
		slog.Warn("Failed to announce trade transition",
			slog.String("type", "trade"),
			slog.Int64("trade_id", tradeID),
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
	}
}

// recordResponseScores scores the completed trade for both parties exactly
// once, guarded by the trade's response_recorded flag.
func (m *Manager) recordResponseScores(ctx context.Context, trade *models.Trade) {
	if trade.AcceptedAt == nil || trade.ClosedAt == nil {
		return
	}

	first, err := m.trades.MarkResponseRecorded(ctx, trade.ID)
	if err != nil {
		slog.Warn("Failed to mark response scoring",
			slog.String("type", "trade"),
			slog.Int64("trade_id", trade.ID),
			slog.Any("error", err),
		)
		return
	}
	if !first {
		return
	}

	score := ResponseScore(trade.CreatedAt, *trade.AcceptedAt, *trade.ClosedAt)
	for _, id := range []string{trade.SellerID, trade.BuyerID} {
		if err := m.responses.AddResponseScore(ctx, id, score); err != nil {
			slog.Warn("Failed to record response score",
				slog.String("type", "trade"),
				slog.Int64("trade_id", trade.ID),
				slog.String("user_id", id),
				slog.Any("error", err),
			)
		}
	}
}
