// Package history keeps a local record of delivered quota
// notifications, so repeated scan cycles do not renotify the same
// entity before its cooldown has passed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	_ "modernc.org/sqlite" // Import the modernc sqlite driver

	"github.com/hpcfs/quotascan/pkg/quotascan"
)

const DefaultDBPath = "/var/lib/quotascan/notifications.db"

type SqliteDatabase struct {
	db *sql.DB
}

func EnsureDirectoryExists(directory string) error {
	_, err := os.Stat(directory)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(directory, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		} else {
			return fmt.Errorf("failed to stat directory: %w", err)
		}
	}
	return nil
}

func GetDatabase(ctx context.Context, path string) (*SqliteDatabase, error) {
	logger := log.Ctx(ctx)
	if err := EnsureDirectoryExists(filepath.Dir(path)); err != nil {
		logger.Error().Err(err).Msg("Failed to create notification history directory")
		return nil, err
	}

	dsn := "file:" + path
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open notification history database")
		return nil, err
	}

	// Ensure table creation
	query := `
	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		storage TEXT NOT NULL,
		kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		exceed TEXT,
		notified_at INTEGER NOT NULL,
		UNIQUE(storage, kind, entity_id)
	);`
	if _, err := db.Exec(query); err != nil {
		logger.Error().Err(err).Msg("Failed to create notifications table")
		return nil, err
	}

	return &SqliteDatabase{db: db}, nil
}

func (d *SqliteDatabase) Close() error {
	return d.db.Close()
}

// LastNotified returns the time the entity was last notified, or nil
// when it never was.
func (d *SqliteDatabase) LastNotified(ctx context.Context, storage string, kind quotascan.EntityKind, id string) (*time.Time, error) {
	query := `
	SELECT notified_at
	FROM notifications
	WHERE storage = ? AND kind = ? AND entity_id = ?;
	`
	var unix int64
	err := d.db.QueryRowContext(ctx, query, storage, string(kind), id).Scan(&unix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up notification history: %w", err)
	}
	at := time.Unix(unix, 0)
	return &at, nil
}

// MarkNotified records a delivered notification, replacing any earlier
// record for the same entity.
func (d *SqliteDatabase) MarkNotified(ctx context.Context, storage string, kind quotascan.EntityKind, id string, exceed quotascan.ExceedKind, at time.Time) error {
	query := `
	INSERT INTO notifications (storage, kind, entity_id, exceed, notified_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(storage, kind, entity_id) DO UPDATE SET exceed = excluded.exceed, notified_at = excluded.notified_at;
	`
	if _, err := d.db.ExecContext(ctx, query, storage, string(kind), id, string(exceed), at.Unix()); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// Prune drops records older than the retention period.
func (d *SqliteDatabase) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	query := `
	DELETE FROM notifications
	WHERE notified_at < ?;
	`
	result, err := d.db.ExecContext(ctx, query, time.Now().Add(-retention).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune notification history: %w", err)
	}
	pruned, _ := result.RowsAffected()
	return pruned, nil
}
