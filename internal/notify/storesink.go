package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStoreSink returns a DeliverFunc that persists reminders as notification
// inbox rows. It de-duplicates by (user, tag, calendar day): the second
// evaluation run of the same day finds the existing row and skips, which is
// what makes repeated CheckAndNotify calls idempotent per day.
//
// The day boundary resolves in the reference timezone, matching the one the
// scheduler computes days-remaining with. CURRENT_DATE would use the
// database session timezone instead, which can disagree near midnight.
func NewStoreSink(pool *pgxpool.Pool, loc *time.Location) DeliverFunc {
	return func(ctx context.Context, userID string, msg Message) error {
		bookID, _ := msg.Data["bookId"].(string)

		var exists bool
		err := pool.QueryRow(ctx, `
			SELECT EXISTS(
				SELECT 1 FROM notifications
				WHERE user_id = $1 AND tag = $2
				  AND (created_at AT TIME ZONE $3)::date = $4::date
			)
		`, userID, msg.Tag, loc.String(), refDay(time.Now(), loc)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check existing notification: %w", err)
		}
		if exists {
			return ErrAlreadyDelivered
		}

		data, err := json.Marshal(msg.Data)
		if err != nil {
			return fmt.Errorf("marshal notification data: %w", err)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO notifications (user_id, book_id, title, body, tag, data)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, nullIfEmpty(bookID), msg.Title, msg.Body, msg.Tag, data)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		return nil
	}
}

// refDay formats t's calendar day in the reference timezone.
func refDay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
