package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeOpen      TradeStatus = "open"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
	TradeRejected  TradeStatus = "rejected"
)

// Terminal reports whether no further transition may leave the status.
func (s TradeStatus) Terminal() bool {
	switch s {
	case TradeCompleted, TradeCancelled, TradeRejected:
		return true
	}
	return false
}

// Trade moves pending -> open -> {completed | cancelled}, with
// pending -> {rejected | cancelled} as the alternate exits. Transitions are
// guarded conditional updates and never regress.
type Trade struct {
	bun.BaseModel `bun:"table:trades,alias:t"`

	ID       int64       `bun:"id,pk,autoincrement"`
	SellerID string      `bun:"seller_id,notnull"`
	BuyerID  string      `bun:"buyer_id,notnull"`
	Item     string      `bun:"item,notnull"`
	Status   TradeStatus `bun:"status,notnull"`

	CreatedAt  time.Time  `bun:"created_at,notnull"`
	AcceptedAt *time.Time `bun:"accepted_at"`
	ClosedAt   *time.Time `bun:"closed_at"`

	ThreadID              *int64    `bun:"thread_id"`
	LastActivityAt        time.Time `bun:"last_activity_at,notnull"`
	InactivityWarningSent bool      `bun:"inactivity_warning_sent,notnull,default:false"`
	ResponseRecorded      bool      `bun:"response_recorded,notnull,default:false"`
}

// TradeFeedback holds at most one +1/-1 vote per (trade, rater), enforced by
// the primary key and insert-if-absent writes.
type TradeFeedback struct {
	bun.BaseModel `bun:"table:trade_feedback,alias:tf"`

	TradeID   int64     `bun:"trade_id,pk"`
	RaterID   string    `bun:"rater_id,pk"`
	PartnerID string    `bun:"partner_id,notnull"`
	Role      string    `bun:"role,notnull"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// QuickRating is an append-only log used only to enforce the per-pair
// cooldown on out-of-trade ratings.
type QuickRating struct {
	bun.BaseModel `bun:"table:quick_ratings,alias:qr"`

	ID        int64     `bun:"id,pk,autoincrement"`
	RaterID   string    `bun:"rater_id,notnull"`
	TargetID  string    `bun:"target_id,notnull"`
	Score     int       `bun:"score,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// TradeReview is an optional written review, insertable only after the
// reviewer has left feedback on the same trade; resubmitting overwrites.
type TradeReview struct {
	bun.BaseModel `bun:"table:trade_reviews,alias:tr"`

	TradeID    int64     `bun:"trade_id,pk"`
	ReviewerID string    `bun:"reviewer_id,pk"`
	TargetID   string    `bun:"target_id,notnull"`
	Review     string    `bun:"review,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}
