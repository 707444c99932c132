package models

import (
	"time"

	"github.com/uptrace/bun"
)

// StockEntry is one item a user has available for trade. Unique per
// (user_id, item); quantities accumulate on repeated adds and the row is
// removed when the quantity would reach zero.
type StockEntry struct {
	bun.BaseModel `bun:"table:stock_entries,alias:se"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,unique:stock_user_item"`
	Item      string    `bun:"item,notnull,unique:stock_user_item"`
	Quantity  int       `bun:"quantity,notnull,default:1"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// WishlistEntry is one item a user wants, with an optional free-text note.
type WishlistEntry struct {
	bun.BaseModel `bun:"table:wishlist_entries,alias:we"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,unique:wishlist_user_item"`
	Item      string    `bun:"item,notnull,unique:wishlist_user_item"`
	Note      string    `bun:"note,notnull,default:''"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// AlertEntry is a watch term; the per-user count is capped by tier.
type AlertEntry struct {
	bun.BaseModel `bun:"table:alert_entries,alias:ae"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull,unique:alert_user_item"`
	Item      string    `bun:"item,notnull,unique:alert_user_item"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
