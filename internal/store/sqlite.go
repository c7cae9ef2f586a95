package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bonustrack-dev/bonustrack/internal/model"
	"github.com/bonustrack-dev/bonustrack/internal/store/migrations"
)

// SQLiteFile is the database file name inside the data directory.
const SQLiteFile = "bonustrack.db"

// SQLite keeps the bonus list as one row of a key/value table.
type SQLite struct {
	sqlDB *sql.DB
	key   string
}

// OpenSQLite opens <dir>/bonustrack.db and applies embedded migrations.
func OpenSQLite(dir, key string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(filepath.Clean(dir), SQLiteFile)
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLite{sqlDB: sqlDB, key: key}, nil
}

// Load returns the list stored under the key.
func (s *SQLite) Load(ctx context.Context) ([]model.Bonus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.Bonus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	bonuses, err := decode([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	return bonuses, nil
}

// Save upserts the list under the key.
func (s *SQLite) Save(ctx context.Context, bonuses []model.Bonus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	data, err := encode(bonuses)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.key,
		string(data),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
