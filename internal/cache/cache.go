// Package cache persists optimization results keyed by image content and
// worker configuration, so repeated runs over the same tree skip the
// expensive binary pipeline. Payload bytes live as files next to a SQLite
// index.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"imageoptim/internal/imagepath"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS results (
    key        TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    size       INTEGER NOT NULL,
    created_at TEXT NOT NULL
);
`

// Store is a content-addressed result cache. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	dir string
}

// Open initializes or connects to the cache under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Store{db: db, dir: dir}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FileKey derives the cache key for the file at path under the given
// worker signature. The key combines a content digest with a digest of the
// applicable worker set and options, so changing configuration invalidates
// only what it affects.
func FileKey(path, signature string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	content := xxhash.New()
	if _, err := io.Copy(content, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s",
		hex.EncodeToString(content.Sum(nil)),
		hex.EncodeToString(sumString(signature))), nil
}

// DataKey is FileKey over an in-memory payload.
func DataKey(data []byte, signature string) string {
	content := xxhash.Sum64(data)
	return fmt.Sprintf("%016x-%s", content, hex.EncodeToString(sumString(signature)))
}

func sumString(s string) []byte {
	h := xxhash.New()
	_, _ = h.WriteString(s)
	return h.Sum(nil)
}

// Fetch looks up key. A hit with an empty payload records a previous
// "cannot be optimized" verdict; hit with a payload materializes the
// cached bytes into dst.
func (s *Store) Fetch(ctx context.Context, key string, dst *imagepath.Path) (hit, optimizable bool, err error) {
	var payload string
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM results WHERE key = ?`, key)
	switch err := row.Scan(&payload); err {
	case nil:
	case sql.ErrNoRows:
		return false, false, nil
	default:
		return false, false, fmt.Errorf("cache lookup: %w", err)
	}

	if payload == "" {
		return true, false, nil
	}
	stored, err := imagepath.New(filepath.Join(s.dir, payload))
	if err != nil {
		return false, false, err
	}
	if err := stored.Copy(dst.String()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Payload pruned from under the index; treat as a miss.
			return false, false, nil
		}
		return false, false, fmt.Errorf("restore cached payload: %w", err)
	}
	return true, true, nil
}

// Store records an optimization outcome: result nil means the image could
// not be reduced, otherwise result's bytes are copied into the cache.
func (s *Store) Store(ctx context.Context, key string, result *imagepath.Path) error {
	payload := ""
	var size int64
	if result != nil {
		payload = key + filepath.Ext(result.String())
		if err := result.Copy(filepath.Join(s.dir, payload)); err != nil {
			return fmt.Errorf("store cache payload: %w", err)
		}
		var err error
		if size, err = result.Size(); err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (key, payload, size, created_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET payload = excluded.payload,
                                        size = excluded.size,
                                        created_at = excluded.created_at`,
		key, payload, size, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record cache entry: %w", err)
	}
	return nil
}
