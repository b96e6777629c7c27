package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteCache persists image blobs across runs.
type SQLiteCache struct {
	db *sql.DB
}

func NewSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS images (
  url TEXT PRIMARY KEY,
  content_type TEXT NOT NULL,
  data BLOB NOT NULL,
  expires_at INTEGER NOT NULL
);
`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT content_type, data, expires_at FROM images WHERE url = ?`, key,
	).Scan(&e.ContentType, &e.Data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query image %s: %w", key, err)
	}
	if time.Now().UnixNano() > expiresAt {
		_ = c.Delete(ctx, key)
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx, `
INSERT INTO images (url, content_type, data, expires_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(url) DO UPDATE SET
  content_type=excluded.content_type,
  data=excluded.data,
  expires_at=excluded.expires_at
`, key, entry.ContentType, entry.Data, time.Now().Add(ttl).UnixNano())
	if err != nil {
		return fmt.Errorf("save image %s: %w", key, err)
	}
	return nil
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM images WHERE url = ?`, key); err != nil {
		return fmt.Errorf("delete image %s: %w", key, err)
	}
	return nil
}

// Prune removes expired rows and reports how many were deleted.
func (c *SQLiteCache) Prune(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM images WHERE expires_at < ?`, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune images: %w", err)
	}
	return res.RowsAffected()
}

func (c *SQLiteCache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
