package repositories

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// runGatedExec executes one mutating statement through the write gate and
// returns how many rows it touched. Single-statement writes still go through
// RunWrite so every mutation in the process serializes on the same gate.
func runGatedExec(ctx context.Context, runner TxRunner, fn func(ctx context.Context, tx bun.Tx) (sql.Result, error)) (int64, error) {
	var rows int64
	err := runner.RunWrite(ctx, func(ctx context.Context, tx bun.Tx) error {
		res, err := fn(ctx, tx)
		if err != nil {
			return err
		}
		if res != nil {
			rows, _ = res.RowsAffected()
		}
		return nil
	})
	return rows, err
}
