// Package storage persists dashboard sessions in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	applog "sgfcp/internal/log"
	"sgfcp/internal/session"
)

// SQLiteRepository implements session.Store on a SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
	now    func() time.Time
}

// NewSQLiteRepository opens dbPath, creating its directory, and migrates
// the schema.
func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = applog.Discard()
	}
	return &SQLiteRepository{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Load(ctx context.Context, id string) (session.Values, error) {
	var (
		data      string
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM sessions WHERE id = ?`, id).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if r.now().Unix() >= expiresAt {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			r.logger.WarnContext(ctx, "Failed to delete expired session", applog.FieldError, err)
		}
		return nil, session.ErrNotFound
	}

	var values session.Values
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return values, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, id string, values session.Values, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	now := r.now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, data, expires_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data,
			expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		id, string(data), now.Add(ttl).Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Touch(ctx context.Context, id string, ttl time.Duration) error {
	now := r.now()
	if _, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ?, updated_at = ? WHERE id = ?`,
		now.Add(ttl).Unix(), now.Unix(), id); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired session and returns how many rows went.
func (r *SQLiteRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.InfoContext(ctx, "Expired sessions purged", "count", n)
	}
	return n, nil
}

// CleanExpired adapts PurgeExpired to the cache cleanup manager.
func (r *SQLiteRepository) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := r.PurgeExpired(ctx)
	if err != nil {
		r.logger.Warn("Session purge failed", applog.FieldError, err)
	}
	return int(n)
}
