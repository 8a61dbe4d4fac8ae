// Package cron runs the periodic due-date reminder sweep.
package cron

import (
	"context"
	"log"
	"time"

	"bookmate-backend/internal/database"
	"bookmate-backend/internal/models"
	"bookmate-backend/internal/notify"
)

// StartNotifier launches a background goroutine that runs once immediately
// and then on every tick of the configured interval, evaluating the active
// books of every user who has notifications enabled. Each cycle is
// independent and idempotent: the delivery sink de-duplicates per day, so an
// overlapping manual check cannot double-notify.
func StartNotifier(db database.Service, loc *time.Location, deliver notify.DeliverFunc, interval time.Duration) {
	if interval <= 0 {
		interval = notify.DefaultCheckInterval
	}

	go func() {
		runCycle(db, loc, deliver)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			runCycle(db, loc, deliver)
		}
	}()

	log.Printf("[cron] reminder notifier started – runs every %s", interval)
}

// runCycle evaluates every opted-in user's active books once.
// A failure for one user is logged and the sweep continues with the next.
func runCycle(db database.Service, loc *time.Location, deliver notify.DeliverFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool := db.GetPool()
	now := time.Now()

	rows, err := pool.Query(ctx, `
		SELECT id FROM users WHERE notifications_enabled = TRUE
	`)
	if err != nil {
		log.Printf("[cron] error querying users: %v", err)
		return
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		userIDs = append(userIDs, id)
	}

	if len(userIDs) == 0 {
		log.Println("[cron] no users with notifications enabled")
		return
	}

	totalBooks, totalSent := 0, 0
	for _, userID := range userIDs {
		bookRows, err := pool.Query(ctx, `
			SELECT id, user_id, title, author, catalog_id, issue_date, due_date,
			       fine_per_day, reissue_count, status, returned_at, cover_url,
			       created_at, updated_at
			FROM books WHERE user_id = $1 AND status = 'active'
		`, userID)
		if err != nil {
			log.Printf("[cron] error querying books for %s: %v", userID, err)
			continue
		}

		books := []models.Book{}
		for bookRows.Next() {
			var b models.Book
			if err := bookRows.Scan(
				&b.ID, &b.UserID, &b.Title, &b.Author, &b.CatalogID,
				&b.IssueDate, &b.DueDate, &b.FinePerDay, &b.ReissueCount,
				&b.Status, &b.ReturnedAt, &b.CoverURL, &b.CreatedAt, &b.UpdatedAt,
			); err != nil {
				continue
			}
			books = append(books, b)
		}
		bookRows.Close()

		res := notify.CheckAndNotify(ctx, books, now, loc, deliver)
		totalBooks += res.TotalBooks
		totalSent += res.NotificationsSent

		if _, err := pool.Exec(ctx, `
			UPDATE users SET last_notification_check = NOW() WHERE id = $1
		`, userID); err != nil {
			log.Printf("[cron] error recording check time for %s: %v", userID, err)
		}
	}

	log.Printf("[cron] reminder sweep complete – %d notifications from %d books across %d users",
		totalSent, totalBooks, len(userIDs))
}
