package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/ravenhold/tradehall/tradebot/database/models"
)

var errGateClosed = errors.New("gate closed")

// refusingRunner stands in for the write gate and rejects every transaction.
// A mutation that errors with errGateClosed provably went through the gate,
// since the backing address is never dialed.
type refusingRunner struct {
	calls int
}

func (r *refusingRunner) RunWrite(context.Context, func(context.Context, bun.Tx) error) error {
	r.calls++
	return errGateClosed
}

func undialedDB() *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr("127.0.0.1:1"),
		pgdriver.WithInsecure(true),
	))
	return bun.NewDB(sqldb, pgdialect.New())
}

func TestMutationsRouteThroughWriteGate(t *testing.T) {
	db := undialedDB()
	defer db.Close()

	runner := &refusingRunner{}
	ctx := context.Background()
	now := time.Now()

	trades := NewTradeRepository(db, runner)
	listings := NewListingRepository(db, runner)
	guilds := NewGuildSettingsRepository(db, runner)

	tests := []struct {
		name string
		call func() error
	}{
		{"trade create", func() error {
			return trades.Create(ctx, &models.Trade{SellerID: "s", BuyerID: "b", Item: "blue shell"})
		}},
		{"trade accept", func() error {
			_, err := trades.Accept(ctx, 1, "s", now)
			return err
		}},
		{"trade complete", func() error {
			_, err := trades.Complete(ctx, 1, "s", now)
			return err
		}},
		{"trade cancel expired", func() error {
			_, err := trades.CancelExpired(ctx, 1, now)
			return err
		}},
		{"trade touch activity", func() error {
			_, err := trades.TouchActivityByThread(ctx, 9001, now)
			return err
		}},
		{"stock add", func() error {
			return listings.AddStock(ctx, "u", "blue shell", 1)
		}},
		{"stock quantity", func() error {
			_, err := listings.SetStockQuantity(ctx, "u", "blue shell", 3)
			return err
		}},
		{"stock clear", func() error {
			_, err := listings.ClearStock(ctx, "u")
			return err
		}},
		{"wishlist add", func() error {
			return listings.AddWishlist(ctx, "u", "blue shell", "")
		}},
		{"alert add", func() error {
			return listings.AddAlert(ctx, "u", "blue shell")
		}},
		{"alert remove", func() error {
			_, err := listings.RemoveAlert(ctx, "u", "blue shell")
			return err
		}},
		{"guild trade channel", func() error {
			return guilds.SetTradeChannel(ctx, 1, 2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := runner.calls
			err := tt.call()
			if !errors.Is(err, errGateClosed) {
				t.Fatalf("err = %v, want the gate's refusal", err)
			}
			if runner.calls != before+1 {
				t.Errorf("gate invoked %d times, want once", runner.calls-before)
			}
		})
	}
}
