package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/uptrace/bun"
)

// TradeRepository persists the trade lifecycle. Every transition is a single
// conditional UPDATE whose WHERE clause encodes both the required current
// status and the authorized actor; a zero row count means the transition was
// not applicable and the caller reports it without guessing why.
type TradeRepository interface {
	Create(ctx context.Context, trade *models.Trade) error
	Delete(ctx context.Context, tradeID int64) error
	GetByID(ctx context.Context, tradeID int64) (*models.Trade, error)
	GetByThread(ctx context.Context, threadID int64) (*models.Trade, error)
	ListActiveForUser(ctx context.Context, discordID string) ([]*models.Trade, error)

	Accept(ctx context.Context, tradeID int64, sellerID string, now time.Time) (bool, error)
	Reject(ctx context.Context, tradeID int64, sellerID string, now time.Time) (bool, error)
	Complete(ctx context.Context, tradeID int64, actorID string, now time.Time) (bool, error)
	Cancel(ctx context.Context, tradeID int64, actorID string, now time.Time) (bool, error)
	CancelExpired(ctx context.Context, tradeID int64, now time.Time) (bool, error)

	AttachThread(ctx context.Context, tradeID int64, threadID int64) error
	ListActiveThreadTrades(ctx context.Context) ([]*models.Trade, error)
	TouchActivityByThread(ctx context.Context, threadID int64, now time.Time) (bool, error)
	MarkWarningSent(ctx context.Context, tradeID int64) error
	MarkResponseRecorded(ctx context.Context, tradeID int64) (bool, error)
}

type tradeRepository struct {
	db     *bun.DB
	runner TxRunner
}

func NewTradeRepository(db *bun.DB, runner TxRunner) TradeRepository {
	return &tradeRepository{db: db, runner: runner}
}

func (r *tradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	now := time.Now()
	trade.Status = models.TradePending
	trade.CreatedAt = now
	trade.LastActivityAt = now
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewInsert().Model(trade).Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// Delete removes a trade row outright. Used only to compensate a creation
// whose side effects (thread, notification) could not be delivered.
func (r *tradeRepository) Delete(ctx context.Context, tradeID int64) error {
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewDelete().
			Model((*models.Trade)(nil)).
			Where("id = ?", tradeID).
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", tradeID, err)
	}
	return nil
}

func (r *tradeRepository) GetByID(ctx context.Context, tradeID int64) (*models.Trade, error) {
	trade := new(models.Trade)
	err := r.db.NewSelect().
		Model(trade).
		Where("id = ?", tradeID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return trade, nil
}

func (r *tradeRepository) GetByThread(ctx context.Context, threadID int64) (*models.Trade, error) {
	trade := new(models.Trade)
	err := r.db.NewSelect().
		Model(trade).
		Where("thread_id = ?", threadID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return trade, nil
}

func (r *tradeRepository) ListActiveForUser(ctx context.Context, discordID string) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.NewSelect().
		Model(&trades).
		Where("(seller_id = ? OR buyer_id = ?)", discordID, discordID).
		Where("status IN (?)", bun.In([]models.TradeStatus{models.TradePending, models.TradeOpen})).
		Order("created_at DESC").
		Scan(ctx)
	return trades, err
}

// Accept moves pending -> open. Seller only. accepted_at is set once and
// survives a retried call through COALESCE.
func (r *tradeRepository) Accept(ctx context.Context, tradeID int64, sellerID string, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("status = ?", models.TradeOpen).
			Set("accepted_at = COALESCE(accepted_at, ?)", now).
			Set("last_activity_at = ?", now).
			Where("id = ? AND seller_id = ? AND status = ?", tradeID, sellerID, models.TradePending).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to accept trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}

func (r *tradeRepository) Reject(ctx context.Context, tradeID int64, sellerID string, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("status = ?", models.TradeRejected).
			Set("closed_at = ?", now).
			Where("id = ? AND seller_id = ? AND status = ?", tradeID, sellerID, models.TradePending).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to reject trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}

// Complete closes an open trade. Either participant may complete.
func (r *tradeRepository) Complete(ctx context.Context, tradeID int64, actorID string, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("status = ?", models.TradeCompleted).
			Set("closed_at = ?", now).
			Where("id = ? AND (seller_id = ? OR buyer_id = ?) AND status = ?",
				tradeID, actorID, actorID, models.TradeOpen).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}

// Cancel closes a pending or open trade. Either participant may cancel.
func (r *tradeRepository) Cancel(ctx context.Context, tradeID int64, actorID string, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("status = ?", models.TradeCancelled).
			Set("closed_at = ?", now).
			Where("id = ? AND (seller_id = ? OR buyer_id = ?) AND status IN (?)",
				tradeID, actorID, actorID,
				bun.In([]models.TradeStatus{models.TradePending, models.TradeOpen})).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to cancel trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}

// CancelExpired is the sweeper's cancel: no actor restriction, same status
// guard, so a user action racing the sweep wins cleanly either way.
func (r *tradeRepository) CancelExpired(ctx context.Context, tradeID int64, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("status = ?", models.TradeCancelled).
			Set("closed_at = ?", now).
			Where("id = ? AND status IN (?)",
				tradeID, bun.In([]models.TradeStatus{models.TradePending, models.TradeOpen})).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to cancel expired trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}

func (r *tradeRepository) AttachThread(ctx context.Context, tradeID int64, threadID int64) error {
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("thread_id = ?", threadID).
			Where("id = ?", tradeID).
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to attach thread to trade %d: %w", tradeID, err)
	}
	return nil
}

// ListActiveThreadTrades returns every non-terminal trade with a thread,
// the working set of the inactivity sweeper.
func (r *tradeRepository) ListActiveThreadTrades(ctx context.Context) ([]*models.Trade, error) {
	var trades []*models.Trade
	err := r.db.NewSelect().
		Model(&trades).
		Where("status IN (?)", bun.In([]models.TradeStatus{models.TradePending, models.TradeOpen})).
		Where("thread_id IS NOT NULL").
		Scan(ctx)
	return trades, err
}

// TouchActivityByThread resets the inactivity clock for the trade owning the
// thread and re-arms the warning.
func (r *tradeRepository) TouchActivityByThread(ctx context.Context, threadID int64, now time.Time) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("last_activity_at = ?", now).
			Set("inactivity_warning_sent = ?", false).
			Where("thread_id = ? AND status IN (?)",
				threadID, bun.In([]models.TradeStatus{models.TradePending, models.TradeOpen})).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to touch trade activity: %w", err)
	}
	return rows > 0, nil
}

func (r *tradeRepository) MarkWarningSent(ctx context.Context, tradeID int64) error {
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("inactivity_warning_sent = ?", true).
			Where("id = ?", tradeID).
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to mark warning sent for trade %d: %w", tradeID, err)
	}
	return nil
}

// MarkResponseRecorded flips the once-only flag for response scoring.
// Returns false if scoring already happened for this trade.
func (r *tradeRepository) MarkResponseRecorded(ctx context.Context, tradeID int64) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.Trade)(nil)).
			Set("response_recorded = ?", true).
			Where("id = ? AND response_recorded = ?", tradeID, false).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to mark response recorded for trade %d: %w", tradeID, err)
	}
	return rows > 0, nil
}
