package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/uptrace/bun"
)

// TxRunner serializes mutating transactions behind the process-wide write
// gate. Satisfied by *database.DB.
type TxRunner interface {
	RunWrite(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
}

// FeedbackRepository owns every reputation-bearing write. Each operation runs
// as one gated transaction so the uniqueness and cooldown checks can never
// interleave with a concurrent rating.
type FeedbackRepository interface {
	RecordTradeFeedback(ctx context.Context, fb *models.TradeFeedback) (bool, error)
	HasTradeFeedback(ctx context.Context, tradeID int64, raterID string) (bool, error)
	RecordQuickRating(ctx context.Context, raterID, targetID string, score int, cooldown time.Duration, now time.Time) (bool, time.Duration, error)
	UpsertReview(ctx context.Context, review *models.TradeReview) (bool, error)
	RecentReviews(ctx context.Context, targetID string, limit int) ([]*models.TradeReview, error)
	AddResponseScore(ctx context.Context, discordID string, score int) error
}

type feedbackRepository struct {
	db     *bun.DB
	runner TxRunner
}

func NewFeedbackRepository(db *bun.DB, runner TxRunner) FeedbackRepository {
	return &feedbackRepository{db: db, runner: runner}
}

// RecordTradeFeedback stores one vote per (trade, rater) and bumps the
// partner's lifetime counter. Returns false when the rater already voted on
// this trade; counters are untouched in that case.
func (r *feedbackRepository) RecordTradeFeedback(ctx context.Context, fb *models.TradeFeedback) (bool, error) {
	if fb.Score != 1 && fb.Score != -1 {
		return false, fmt.Errorf("invalid feedback score %d", fb.Score)
	}

	applied := false
	err := r.runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		fb.CreatedAt = time.Now()
		res, err := tx.NewInsert().
			Model(fb).
			On("CONFLICT (trade_id, rater_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert trade feedback: %w", err)
		}
		rows, _ := res.RowsAffected()
		if rows == 0 {
			return nil
		}

		if err := adjustRepTx(ctx, tx, fb.PartnerID, fb.Score); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *feedbackRepository) HasTradeFeedback(ctx context.Context, tradeID int64, raterID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.TradeFeedback)(nil)).
		Where("trade_id = ? AND rater_id = ?", tradeID, raterID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check trade feedback: %w", err)
	}
	return exists, nil
}

// RecordQuickRating applies an out-of-trade rating if the ordered
// (rater, target) pair is outside its cooldown window. When the cooldown is
// still running, returns false and the remaining wait.
func (r *feedbackRepository) RecordQuickRating(ctx context.Context, raterID, targetID string, score int, cooldown time.Duration, now time.Time) (bool, time.Duration, error) {
	if score != 1 && score != -1 {
		return false, 0, fmt.Errorf("invalid feedback score %d", score)
	}

	var applied bool
	var retryAfter time.Duration
	err := r.runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		var last time.Time
		err := tx.NewSelect().
			Model((*models.QuickRating)(nil)).
			ColumnExpr("created_at").
			Where("rater_id = ? AND target_id = ?", raterID, targetID).
			Order("created_at DESC").
			Limit(1).
			Scan(ctx, &last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check rating cooldown: %w", err)
		}
		if err == nil {
			if elapsed := now.Sub(last); elapsed < cooldown {
				retryAfter = cooldown - elapsed
				return nil
			}
		}

		rating := &models.QuickRating{
			RaterID:   raterID,
			TargetID:  targetID,
			Score:     score,
			CreatedAt: now,
		}
		if _, err := tx.NewInsert().Model(rating).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert quick rating: %w", err)
		}

		if err := adjustRepTx(ctx, tx, targetID, score); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, retryAfter, err
}

// UpsertReview stores a written review, but only when the reviewer has
// already left feedback on the trade. Resubmitting replaces the text.
func (r *feedbackRepository) UpsertReview(ctx context.Context, review *models.TradeReview) (bool, error) {
	var applied bool
	err := r.runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.TradeFeedback)(nil)).
			Where("trade_id = ? AND rater_id = ?", review.TradeID, review.ReviewerID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check feedback before review: %w", err)
		}
		if !exists {
			return nil
		}

		review.CreatedAt = time.Now()
		_, err = tx.NewInsert().
			Model(review).
			On("CONFLICT (trade_id, reviewer_id) DO UPDATE").
			Set("review = EXCLUDED.review").
			Set("created_at = EXCLUDED.created_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert review: %w", err)
		}
		applied = true
		return nil
	})
	return applied, err
}

func (r *feedbackRepository) RecentReviews(ctx context.Context, targetID string, limit int) ([]*models.TradeReview, error) {
	var reviews []*models.TradeReview
	err := r.db.NewSelect().
		Model(&reviews).
		Where("target_id = ?", targetID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews for %s: %w", targetID, err)
	}
	return reviews, nil
}

// AddResponseScore folds one completed trade's responsiveness score into the
// user's running average.
func (r *feedbackRepository) AddResponseScore(ctx context.Context, discordID string, score int) error {
	return r.runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := ensureUserTx(ctx, tx, discordID); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*models.UserProfile)(nil)).
			Set("response_total = response_total + ?", score).
			Set("response_count = response_count + 1").
			Set("updated_at = ?", time.Now()).
			Where("discord_id = ?", discordID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add response score for %s: %w", discordID, err)
		}
		return nil
	})
}

func adjustRepTx(ctx context.Context, tx bun.Tx, discordID string, score int) error {
	if err := ensureUserTx(ctx, tx, discordID); err != nil {
		return err
	}

	column := "rep_positive"
	if score < 0 {
		column = "rep_negative"
	}
	_, err := tx.NewUpdate().
		Model((*models.UserProfile)(nil)).
		Set("? = ? + 1", bun.Ident(column), bun.Ident(column)).
		Set("updated_at = ?", time.Now()).
		Where("discord_id = ?", discordID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust reputation for %s: %w", discordID, err)
	}
	return nil
}

func ensureUserTx(ctx context.Context, tx bun.Tx, discordID string) error {
	now := time.Now()
	user := &models.UserProfile{
		DiscordID: discordID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := tx.NewInsert().
		Model(user).
		On("CONFLICT (discord_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", discordID, err)
	}
	return nil
}
