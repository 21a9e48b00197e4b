// Package db provides the PostgreSQL store: a pgxpool-based connection pool
// with prepared statement registration, schema bootstrap and health checking.
package db

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/petcare-telemetry/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// Pool wraps pgxpool.Pool with application-specific helpers. It implements
// store.Store.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool. When cfg.DBAutoMigrate is
// set the schema is applied first, since prepared statements reference it.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if cfg.DBAutoMigrate {
		if err := Migrate(ctx, cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema over a dedicated connection. Every
// statement is idempotent.
func Migrate(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping runs a trivial query to verify the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Close releases every pooled connection.
func (p *Pool) Close() error {
	p.Pool.Close()
	return nil
}

const petColumns = `id, name, photo, photo_mime, birth_date, weight, breed,
	meals, water, humidity, temperature, activity,
	recorded_at, low_water_alert_at, high_temp_alert_at,
	version, created_at, updated_at`

// registerPreparedStatements registers all statements the store uses.
// Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Pet state
		"pet_get": "SELECT " + petColumns + " FROM pets LIMIT 1",
		"pet_insert": `INSERT INTO pets (
				id, name, photo, photo_mime, birth_date, weight, breed,
				meals, water, humidity, temperature, activity,
				recorded_at, low_water_alert_at, high_temp_alert_at,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			ON CONFLICT (singleton) DO NOTHING`,
		"pet_update": `UPDATE pets SET
				name = $2, photo = $3, photo_mime = $4, birth_date = $5, weight = $6, breed = $7,
				meals = $8, water = $9, humidity = $10, temperature = $11, activity = $12,
				recorded_at = $13, low_water_alert_at = $14, high_temp_alert_at = $15,
				updated_at = $16, version = version + 1
			WHERE id = $1 AND version = $17
			RETURNING version`,

		// Activity log
		"event_insert":    "INSERT INTO activity_events (pet_id, occurred_at, activity_type) VALUES ($1, $2, $3) RETURNING id",
		"events_in_range": "SELECT id, pet_id, occurred_at, activity_type FROM activity_events WHERE pet_id = $1 AND occurred_at >= $2 AND occurred_at < $3 ORDER BY occurred_at, id",
		"events_purge":    "DELETE FROM activity_events",
		"events_prune":    "DELETE FROM activity_events WHERE occurred_at < $1",

		// Notifications
		"notification_insert":     "INSERT INTO notifications (id, type, title, message, created_at, is_read) VALUES ($1, $2, $3, $4, $5, $6)",
		"notifications_recent":    "SELECT id, type, title, message, created_at, is_read FROM notifications ORDER BY created_at DESC, seq DESC LIMIT $1",
		"notification_mark":       "UPDATE notifications SET is_read = $2 WHERE id = $1 RETURNING id, type, title, message, created_at, is_read",
		"notifications_mark_many": "UPDATE notifications SET is_read = $2 WHERE id = ANY($1)",
		"notifications_purge":     "DELETE FROM notifications",
		"notifications_prune":     "DELETE FROM notifications WHERE is_read AND created_at < $1",

		// Push subscriptions
		"subscription_upsert": `INSERT INTO push_subscriptions (endpoint, p256dh, auth, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			ON CONFLICT (endpoint) DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, updated_at = EXCLUDED.updated_at`,
		"subscriptions_all":   "SELECT endpoint, p256dh, auth, created_at, updated_at FROM push_subscriptions ORDER BY created_at, endpoint",
		"subscription_delete": "DELETE FROM push_subscriptions WHERE endpoint = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
