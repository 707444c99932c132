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

type UserRepository interface {
	GetOrCreate(ctx context.Context, discordID string) (*models.UserProfile, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.UserProfile, error)
	SetContact(ctx context.Context, discordID, contact string) error
	SetTimezone(ctx context.Context, discordID, timezone string) error
	SetBio(ctx context.Context, discordID, bio string) error
	SetPremium(ctx context.Context, discordID string, premium bool) error
	AdjustReputation(ctx context.Context, discordID string, deltaPositive, deltaNegative int) (*models.UserProfile, error)
	SetReputation(ctx context.Context, discordID string, positive, negative int) (*models.UserProfile, error)
	GetTopByReputation(ctx context.Context, limit int) ([]*models.UserProfile, error)
}

type userRepository struct {
	db     *bun.DB
	runner TxRunner
}

func NewUserRepository(db *bun.DB, runner TxRunner) UserRepository {
	return &userRepository{db: db, runner: runner}
}

// GetOrCreate returns the profile for discordID, inserting a zeroed row on
// first contact. Concurrent first-contact inserts resolve through the unique
// constraint on discord_id.
func (r *userRepository) GetOrCreate(ctx context.Context, discordID string) (*models.UserProfile, error) {
	user, err := r.GetByDiscordID(ctx, discordID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	user = &models.UserProfile{
		DiscordID: discordID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewInsert().
			Model(user).
			On("CONFLICT (discord_id) DO NOTHING").
			Exec(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", discordID, err)
	}

	return r.GetByDiscordID(ctx, discordID)
}

func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.UserProfile, error) {
	user := new(models.UserProfile)
	err := r.db.NewSelect().
		Model(user).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetContact(ctx context.Context, discordID, contact string) error {
	return r.setField(ctx, discordID, "contact", contact)
}

func (r *userRepository) SetTimezone(ctx context.Context, discordID, timezone string) error {
	return r.setField(ctx, discordID, "timezone", timezone)
}

func (r *userRepository) SetBio(ctx context.Context, discordID, bio string) error {
	return r.setField(ctx, discordID, "bio", bio)
}

func (r *userRepository) SetPremium(ctx context.Context, discordID string, premium bool) error {
	return r.setField(ctx, discordID, "premium", premium)
}

func (r *userRepository) setField(ctx context.Context, discordID, column string, value interface{}) error {
	if _, err := r.GetOrCreate(ctx, discordID); err != nil {
		return err
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.UserProfile)(nil)).
			Set("? = ?", bun.Ident(column), value).
			Set("updated_at = ?", time.Now()).
			Where("discord_id = ?", discordID).
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to update %s for user %s: %w", column, discordID, err)
	}
	return nil
}

// AdjustReputation applies moderator deltas to the vote counters, flooring
// both at zero. Returns the updated profile.
func (r *userRepository) AdjustReputation(ctx context.Context, discordID string, deltaPositive, deltaNegative int) (*models.UserProfile, error) {
	if _, err := r.GetOrCreate(ctx, discordID); err != nil {
		return nil, err
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.UserProfile)(nil)).
			Set("rep_positive = GREATEST(rep_positive + ?, 0)", deltaPositive).
			Set("rep_negative = GREATEST(rep_negative + ?, 0)", deltaNegative).
			Set("updated_at = ?", time.Now()).
			Where("discord_id = ?", discordID).
			Exec(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to adjust reputation for user %s: %w", discordID, err)
	}
	return r.GetByDiscordID(ctx, discordID)
}

// SetReputation overwrites the vote counters outright.
func (r *userRepository) SetReputation(ctx context.Context, discordID string, positive, negative int) (*models.UserProfile, error) {
	if positive < 0 || negative < 0 {
		return nil, fmt.Errorf("reputation counters cannot be negative")
	}
	if _, err := r.GetOrCreate(ctx, discordID); err != nil {
		return nil, err
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.UserProfile)(nil)).
			Set("rep_positive = ?", positive).
			Set("rep_negative = ?", negative).
			Set("updated_at = ?", time.Now()).
			Where("discord_id = ?", discordID).
			Exec(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set reputation for user %s: %w", discordID, err)
	}
	return r.GetByDiscordID(ctx, discordID)
}

// GetTopByReputation orders by weighted XP with positive count and fewest
// negatives as tie breakers.
func (r *userRepository) GetTopByReputation(ctx context.Context, limit int) ([]*models.UserProfile, error) {
	var users []*models.UserProfile
	err := r.db.NewSelect().
		Model(&users).
		Where("rep_positive > 0 OR rep_negative > 0").
		OrderExpr("GREATEST(rep_positive * 10 - rep_negative * 2, 0) DESC").
		OrderExpr("rep_positive DESC").
		OrderExpr("rep_negative ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get reputation leaderboard: %w", err)
	}
	return users, nil
}
