package models

import (
	"github.com/uptrace/bun"
)

type GuildSettings struct {
	bun.BaseModel `bun:"table:guild_settings,alias:gs"`

	GuildID              int64  `bun:"guild_id,pk"`
	TradeChannelID       *int64 `bun:"trade_channel_id"`
	TradeThreadChannelID *int64 `bun:"trade_thread_channel_id"`
}
