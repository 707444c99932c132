package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/ravenhold/tradehall/tradebot/database/models"
	"github.com/ravenhold/tradehall/tradebot/logger"
	"github.com/uptrace/bun"
	"golang.org/x/sync/semaphore"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

type DB struct {
	pool      *pgxpool.Pool
	bunDB     *bun.DB
	writeGate *semaphore.Weighted
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	var conn net.Conn
	var err error

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = net.DialTimeout("tcp", addr, defaultConnTimeout)
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &DB{
		pool:      pool,
		bunDB:     newBunDB(pool),
		writeGate: semaphore.NewWeighted(1),
	}, nil
}

func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) GetPool() *pgxpool.Pool {
	return db.pool
}

// RunWrite serializes all mutating transactions behind one process-wide gate
// so that check-then-mutate sequences (cooldowns, uniqueness, guarded status
// updates) never interleave with another writer. Reads are not gated.
func (db *DB) RunWrite(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	if err := db.writeGate.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire write gate: %w", err)
	}
	defer db.writeGate.Release(1)

	return db.bunDB.RunInTx(ctx, &sql.TxOptions{}, fn)
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	logger.LogQuery("exec", sql, time.Since(start), err)
	return result, err
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	logger.LogQuery("query", sql, time.Since(start), err)
	return rows, err
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// InitializeSchema creates all required tables, applies additive column
// migrations and creates indexes. There is no versioned migration chain:
// upgrades are idempotent column-presence checks.
func (db *DB) InitializeSchema(ctx context.Context) error {
	tables := []interface{}{
		(*models.UserProfile)(nil),
		(*models.StockEntry)(nil),
		(*models.WishlistEntry)(nil),
		(*models.AlertEntry)(nil),
		(*models.Trade)(nil),
		(*models.TradeFeedback)(nil),
		(*models.QuickRating)(nil),
		(*models.TradeReview)(nil),
		(*models.GuildSettings)(nil),
	}

	for _, model := range tables {
		query := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists()

		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if err := db.MigrateSchema(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_stock_entries_user_id ON stock_entries(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_wishlist_entries_user_id ON wishlist_entries(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_alert_entries_user_id ON alert_entries(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_trades_seller_id ON trades(seller_id);",
		"CREATE INDEX IF NOT EXISTS idx_trades_buyer_id ON trades(buyer_id);",
		"CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);",
		"CREATE INDEX IF NOT EXISTS idx_trades_active_threads ON trades(status, thread_id) WHERE status IN ('pending', 'open') AND thread_id IS NOT NULL;",
		"CREATE INDEX IF NOT EXISTS idx_quick_ratings_pair_time ON quick_ratings(rater_id, target_id, created_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_trade_reviews_target ON trade_reviews(target_id, created_at DESC);",
		"CREATE INDEX IF NOT EXISTS idx_users_rep ON users(rep_positive, rep_negative);",
	}

	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// MigrateSchema applies additive changes to tables created by earlier
// generations of the bot.
func (db *DB) MigrateSchema(ctx context.Context) error {
	userColumnsSQL := []string{
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS contact TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS timezone TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS bio TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS premium BOOLEAN NOT NULL DEFAULT false;`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS rep_positive INTEGER NOT NULL DEFAULT 0;`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS rep_negative INTEGER NOT NULL DEFAULT 0;`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS response_total INTEGER NOT NULL DEFAULT 0;`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS response_count INTEGER NOT NULL DEFAULT 0;`,
	}

	tradeColumnsSQL := []string{
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS accepted_at TIMESTAMPTZ;`,
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS closed_at TIMESTAMPTZ;`,
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS thread_id BIGINT;`,
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS last_activity_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP;`,
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS inactivity_warning_sent BOOLEAN NOT NULL DEFAULT false;`,
		`ALTER TABLE trades ADD COLUMN IF NOT EXISTS response_recorded BOOLEAN NOT NULL DEFAULT false;`,
	}

	guildColumnsSQL := []string{
		`ALTER TABLE guild_settings ADD COLUMN IF NOT EXISTS trade_channel_id BIGINT;`,
		`ALTER TABLE guild_settings ADD COLUMN IF NOT EXISTS trade_thread_channel_id BIGINT;`,
	}

	for _, stmts := range [][]string{userColumnsSQL, tradeColumnsSQL, guildColumnsSQL} {
		for _, stmt := range stmts {
			if _, err := db.ExecWithLog(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply column migration: %w", err)
			}
		}
	}

	return nil
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}
	return nil
}
