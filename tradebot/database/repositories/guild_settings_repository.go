package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/uptrace/bun"
)

type GuildSettingsRepository interface {
	Get(ctx context.Context, guildID int64) (*models.GuildSettings, error)
	SetTradeChannel(ctx context.Context, guildID, channelID int64) error
	SetTradeThreadChannel(ctx context.Context, guildID, channelID int64) error
}

type guildSettingsRepository struct {
	db     *bun.DB
	runner TxRunner
}

func NewGuildSettingsRepository(db *bun.DB, runner TxRunner) GuildSettingsRepository {
	return &guildSettingsRepository{db: db, runner: runner}
}

// Get returns the settings row for a guild, or an empty row when the guild
// has never been configured.
func (r *guildSettingsRepository) Get(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	settings := new(models.GuildSettings)
	err := r.db.NewSelect().
		Model(settings).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.GuildSettings{GuildID: guildID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}
	return settings, nil
}

func (r *guildSettingsRepository) SetTradeChannel(ctx context.Context, guildID, channelID int64) error {
	return r.upsertChannel(ctx, guildID, "trade_channel_id", channelID)
}

func (r *guildSettingsRepository) SetTradeThreadChannel(ctx context.Context, guildID, channelID int64) error {
	return r.upsertChannel(ctx, guildID, "trade_thread_channel_id", channelID)
}

// upsertChannel ensures the settings row exists and writes the channel
// column, both inside one gated transaction.
func (r *guildSettingsRepository) upsertChannel(ctx context.Context, guildID int64, column string, channelID int64) error {
	return r.runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		settings := &models.GuildSettings{GuildID: guildID}
		if _, err := tx.NewInsert().
			Model(settings).
			On("CONFLICT (guild_id) DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to ensure guild settings row: %w", err)
		}

		if _, err := tx.NewUpdate().
			Model((*models.GuildSettings)(nil)).
			Set("? = ?", bun.Ident(column), channelID).
			Where("guild_id = ?", guildID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to set %s: %w", column, err)
		}
		return nil
	})
}
