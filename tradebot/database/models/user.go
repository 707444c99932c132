package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UserProfile is created lazily on a user's first interaction and never deleted.
// RepPositive/RepNegative are lifetime counters; the level is always derived,
// never stored.
type UserProfile struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        int64  `bun:"id,pk,autoincrement"`
	DiscordID string `bun:"discord_id,notnull,unique"`

	Contact  string `bun:"contact,notnull,default:''"`
	Timezone string `bun:"timezone,notnull,default:''"`
	Bio      string `bun:"bio,notnull,default:''"`
	Premium  bool   `bun:"premium,notnull,default:false"`

	RepPositive int `bun:"rep_positive,notnull,default:0"`
	RepNegative int `bun:"rep_negative,notnull,default:0"`

	// Aggregate response-speed score fed by completed trades.
	ResponseTotal int `bun:"response_total,notnull,default:0"`
	ResponseCount int `bun:"response_count,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
