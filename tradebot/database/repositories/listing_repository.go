package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/uptrace/bun"
)

// ListingRepository covers the three per-user item lists: stock, wishlist and
// alerts. Stock rows carry a quantity and merge on duplicate item names; the
// other two are plain name sets.
type ListingRepository interface {
	AddStock(ctx context.Context, userID, item string, quantity int) error
	SetStockQuantity(ctx context.Context, userID, item string, quantity int) (bool, error)
	RemoveStock(ctx context.Context, userID, item string) (bool, error)
	ClearStock(ctx context.Context, userID string) (int, error)
	ListStock(ctx context.Context, userID string) ([]*models.StockEntry, error)
	CountStock(ctx context.Context, userID string) (int, error)
	SearchStock(ctx context.Context, sellers []string) ([]*models.StockEntry, error)
	AllStockItems(ctx context.Context) ([]string, error)

	SearchWishlist(ctx context.Context, users []string) ([]*models.WishlistEntry, error)

	AddWishlist(ctx context.Context, userID, item, note string) error
	RemoveWishlist(ctx context.Context, userID, item string) (bool, error)
	ListWishlist(ctx context.Context, userID string) ([]*models.WishlistEntry, error)
	CountWishlist(ctx context.Context, userID string) (int, error)

	AddAlert(ctx context.Context, userID, item string) error
	RemoveAlert(ctx context.Context, userID, item string) (bool, error)
	ListAlerts(ctx context.Context, userID string) ([]*models.AlertEntry, error)
	CountAlerts(ctx context.Context, userID string) (int, error)
	AllAlerts(ctx context.Context) ([]*models.AlertEntry, error)
}

type listingRepository struct {
	db     *bun.DB
	runner TxRunner
}

func NewListingRepository(db *bun.DB, runner TxRunner) ListingRepository {
	return &listingRepository{db: db, runner: runner}
}

// AddStock merges into an existing row for the same (user, item) pair by
// adding quantities instead of inserting a duplicate.
func (r *listingRepository) AddStock(ctx context.Context, userID, item string, quantity int) error {
	now := time.Now()
	entry := &models.StockEntry{
		UserID:    userID,
		Item:      item,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, item) DO UPDATE").
			Set("quantity = stock_entries.quantity + EXCLUDED.quantity").
			Set("updated_at = ?", now).
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add stock entry: %w", err)
	}
	return nil
}

// SetStockQuantity sets the quantity for an existing row, deleting it when
// quantity reaches zero. Returns false when no row matched.
func (r *listingRepository) SetStockQuantity(ctx context.Context, userID, item string, quantity int) (bool, error) {
	if quantity <= 0 {
		return r.RemoveStock(ctx, userID, item)
	}
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewUpdate().
			Model((*models.StockEntry)(nil)).
			Set("quantity = ?", quantity).
			Set("updated_at = ?", time.Now()).
			Where("user_id = ? AND item = ?", userID, item).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to update stock quantity: %w", err)
	}
	return rows > 0, nil
}

func (r *listingRepository) RemoveStock(ctx context.Context, userID, item string) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewDelete().
			Model((*models.StockEntry)(nil)).
			Where("user_id = ? AND item = ?", userID, item).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove stock entry: %w", err)
	}
	return rows > 0, nil
}

func (r *listingRepository) ClearStock(ctx context.Context, userID string) (int, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewDelete().
			Model((*models.StockEntry)(nil)).
			Where("user_id = ?", userID).
			Exec(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear stock: %w", err)
	}
	return int(rows), nil
}

func (r *listingRepository) ListStock(ctx context.Context, userID string) ([]*models.StockEntry, error) {
	var entries []*models.StockEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("item ASC").
		Scan(ctx)
	return entries, err
}

func (r *listingRepository) CountStock(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.StockEntry)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

// SearchStock returns the stock rows for the given seller IDs, used to score
// each seller's inventory against a search query.
func (r *listingRepository) SearchStock(ctx context.Context, sellers []string) ([]*models.StockEntry, error) {
	if len(sellers) == 0 {
		var entries []*models.StockEntry
		err := r.db.NewSelect().Model(&entries).Scan(ctx)
		return entries, err
	}
	var entries []*models.StockEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id IN (?)", bun.In(sellers)).
		Scan(ctx)
	return entries, err
}

// AllStockItems returns every distinct item name across all stock lists,
// feeding autocomplete and strict-match suggestions.
func (r *listingRepository) AllStockItems(ctx context.Context) ([]string, error) {
	var items []string
	err := r.db.NewSelect().
		Model((*models.StockEntry)(nil)).
		ColumnExpr("DISTINCT item").
		Order("item ASC").
		Scan(ctx, &items)
	return items, err
}

// SearchWishlist mirrors SearchStock for wishlist rows.
func (r *listingRepository) SearchWishlist(ctx context.Context, users []string) ([]*models.WishlistEntry, error) {
	var entries []*models.WishlistEntry
	q := r.db.NewSelect().Model(&entries)
	if len(users) > 0 {
		q = q.Where("user_id IN (?)", bun.In(users))
	}
	err := q.Scan(ctx)
	return entries, err
}

func (r *listingRepository) AddWishlist(ctx context.Context, userID, item, note string) error {
	entry := &models.WishlistEntry{
		UserID:    userID,
		Item:      item,
		Note:      note,
		CreatedAt: time.Now(),
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, item) DO UPDATE").
			Set("note = EXCLUDED.note").
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add wishlist entry: %w", err)
	}
	return nil
}

func (r *listingRepository) RemoveWishlist(ctx context.Context, userID, item string) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewDelete().
			Model((*models.WishlistEntry)(nil)).
			Where("user_id = ? AND item = ?", userID, item).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove wishlist entry: %w", err)
	}
	return rows > 0, nil
}

func (r *listingRepository) ListWishlist(ctx context.Context, userID string) ([]*models.WishlistEntry, error) {
	var entries []*models.WishlistEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("item ASC").
		Scan(ctx)
	return entries, err
}

func (r *listingRepository) CountWishlist(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.WishlistEntry)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

func (r *listingRepository) AddAlert(ctx context.Context, userID, item string) error {
	entry := &models.AlertEntry{
		UserID:    userID,
		Item:      item,
		CreatedAt: time.Now(),
	}
	_, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewInsert().
			Model(entry).
			On("CONFLICT (user_id, item) DO NOTHING").
			Exec(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add alert: %w", err)
	}
	return nil
}

func (r *listingRepository) RemoveAlert(ctx context.Context, userID, item string) (bool, error) {
	rows, err := runGatedExec(ctx, r.runner, func(ctx context.Context, tx bun.Tx) (sql.Result, error) {
		return tx.NewDelete().
			Model((*models.AlertEntry)(nil)).
			Where("user_id = ? AND item = ?", userID, item).
			Exec(ctx)
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove alert: %w", err)
	}
	return rows > 0, nil
}

func (r *listingRepository) ListAlerts(ctx context.Context, userID string) ([]*models.AlertEntry, error) {
	var entries []*models.AlertEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("item ASC").
		Scan(ctx)
	return entries, err
}

func (r *listingRepository) CountAlerts(ctx context.Context, userID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.AlertEntry)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
}

func (r *listingRepository) AllAlerts(ctx context.Context) ([]*models.AlertEntry, error) {
	var entries []*models.AlertEntry
	err := r.db.NewSelect().
		Model(&entries).
		Order("user_id ASC, item ASC").
		Scan(ctx)
	return entries, err
}
