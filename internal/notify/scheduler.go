// Package notify decides, for each borrowed book at one evaluation instant,
// whether a reminder is due right now and what it should say. The decision is
// a pure predicate over the book's days-remaining value; it keeps no memory
// of prior notifications. De-duplication within a day belongs to the delivery
// sink, and run-frequency throttling belongs to the caller via CheckDue.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"bookmate-backend/internal/bookdue"
	"bookmate-backend/internal/models"
)

// ── Reminder Policy ──────────────────────────────────────────────

// Reminder thresholds: one-shot warnings at 3 days out, 1 day out and on the
// due day itself, then a reminder on EVERY evaluation while overdue so the
// user sees the fine accumulating. The one-shot values fire at most once per
// calendar day because the day-value only equals 3 (or 1, or 0) on one day.
const (
	RemindDaysAhead = 3

	// DefaultCheckInterval is the minimum spacing between batch evaluation
	// runs for one user. Running more often only produces duplicate
	// decisions for the same day-value.
	DefaultCheckInterval = 6 * time.Hour
)

// ShouldNotify reports whether a reminder is due for a book with the given
// days-remaining value. Pure and memoryless.
func ShouldNotify(daysRemaining int) bool {
	return daysRemaining == RemindDaysAhead || daysRemaining == 1 || daysRemaining <= 0
}

// CheckDue reports whether enough time has passed since lastCheck for a new
// batch run. The timestamp is an explicit parameter — callers persist it with
// last-write-wins semantics; a lost update only causes one extra idempotent
// evaluation. A zero lastCheck always permits a run.
func CheckDue(lastCheck, now time.Time, minInterval time.Duration) bool {
	if minInterval <= 0 {
		minInterval = DefaultCheckInterval
	}
	if lastCheck.IsZero() {
		return true
	}
	return now.Sub(lastCheck) >= minInterval
}

// ── Message Building ─────────────────────────────────────────────

// Message is the delivery-channel payload. Tag identifies the logical
// reminder so channels can collapse repeats for the same book.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tag   string         `json:"tag"`
	Data  map[string]any `json:"data,omitempty"`
}

// BuildMessage formats the reminder for one book. The fine is the value the
// fine calculator already produced for this evaluation — it is carried
// through, never recomputed, so the displayed amount always matches the one
// shown elsewhere.
func BuildMessage(book models.Book, daysRemaining, fine int) Message {
	title := fmt.Sprintf("📚 BookMate: %s", book.Title)

	var body string
	switch {
	case daysRemaining < 0:
		days := -daysRemaining
		unit := "days"
		if days == 1 {
			unit = "day"
		}
		body = fmt.Sprintf("Overdue by %d %s! Fine: ₹%d", days, unit, fine)
	case daysRemaining == 0:
		body = "Due today! Return to avoid fine."
	case daysRemaining == 1:
		body = "Due tomorrow! Don't forget to return."
	default:
		body = fmt.Sprintf("Due in %d days. Plan your return!", daysRemaining)
	}

	return Message{
		Title: title,
		Body:  body,
		Tag:   "book-" + book.ID,
		Data: map[string]any{
			"bookId":        book.ID,
			"bookTitle":     book.Title,
			"dueDate":       book.DueDate.Format("2006-01-02"),
			"daysRemaining": daysRemaining,
			"fine":          fine,
		},
	}
}

// ── Batch Evaluation ─────────────────────────────────────────────

// DeliverFunc hands a built message to a delivery channel (inbox rows, a
// message queue, a push service). Success or failure of actual display is
// opaque to the scheduler.
type DeliverFunc func(ctx context.Context, userID string, msg Message) error

// ErrAlreadyDelivered is returned by sinks that de-duplicate per day. It is
// counted as a skip, not a failure.
var ErrAlreadyDelivered = errors.New("notification already delivered today")

// Result summarizes one batch evaluation run.
type Result struct {
	TotalBooks          int    `json:"totalBooks"`
	NotificationsNeeded int    `json:"notificationsNeeded"`
	NotificationsSent   int    `json:"notificationsSent"`
	Error               string `json:"error,omitempty"`
}

// CheckAndNotify evaluates every active book once and delivers a reminder for
// each eligible one. A delivery failure for one book is logged and does not
// abort the remaining books; only successful deliveries are counted.
func CheckAndNotify(ctx context.Context, books []models.Book, now time.Time, loc *time.Location, deliver DeliverFunc) Result {
	res := Result{TotalBooks: len(books)}

	for _, book := range books {
		if book.Status != models.BookStatusActive {
			continue
		}

		// Due dates come out of a DATE column as midnight UTC; pin the
		// day to the reference zone before comparing.
		due := bookdue.DateIn(book.DueDate, loc)
		daysRemaining := bookdue.DaysRemaining(due, now, loc)
		if !ShouldNotify(daysRemaining) {
			continue
		}
		res.NotificationsNeeded++

		fine := bookdue.Fine(daysRemaining, book.FinePerDay)
		msg := BuildMessage(book, daysRemaining, fine)

		if err := deliver(ctx, book.UserID, msg); err != nil {
			if !errors.Is(err, ErrAlreadyDelivered) {
				log.Printf("[notify] delivery failed for book %s: %v", book.ID, err)
			}
			continue
		}
		res.NotificationsSent++
	}

	return res
}
