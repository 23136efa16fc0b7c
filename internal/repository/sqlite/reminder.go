package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/venturehub/internal/repository"
)

var _ repository.ReminderLedger = (*DB)(nil)

const dayLayout = "2006-01-02"

// MarkSent inserts (user, day) and reports whether the row is new.
// INSERT OR IGNORE makes the check and the write one statement, so two
// concurrent callers cannot both get true.
func (db *DB) MarkSent(ctx context.Context, userID string, day time.Time) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminders_sent (user_id, day, sent_at) VALUES (?, ?, ?)`,
		userID, day.UTC().Format(dayLayout), time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking reminder for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	return n == 1, nil
}

func (db *DB) Forget(ctx context.Context, userID string, day time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM reminders_sent WHERE user_id = ? AND day = ?`,
		userID, day.UTC().Format(dayLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: forgetting reminder for %s: %w", userID, err)
	}
	return nil
}

// Purge removes entries for days before before.
func (db *DB) Purge(ctx context.Context, before time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM reminders_sent WHERE day < ?`, before.UTC().Format(dayLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging reminders: %w", err)
	}
	return res.RowsAffected()
}
