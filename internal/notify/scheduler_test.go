package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmate-backend/internal/bookdue"
	"bookmate-backend/internal/models"
)

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		daysRemaining int
		want          bool
	}{
		{5, false},
		{4, false},
		{3, true},
		{2, false},
		{1, true},
		{0, true},
		{-1, true},
		{-30, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldNotify(tt.daysRemaining),
			"ShouldNotify(%d)", tt.daysRemaining)
	}
}

func TestCheckDue(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.True(t, CheckDue(time.Time{}, now, DefaultCheckInterval), "never checked")
	assert.True(t, CheckDue(now.Add(-7*time.Hour), now, DefaultCheckInterval), "stale check")
	assert.False(t, CheckDue(now.Add(-time.Hour), now, DefaultCheckInterval), "recent check")
	assert.True(t, CheckDue(now.Add(-6*time.Hour), now, DefaultCheckInterval), "exactly at interval")

	// Zero interval falls back to the default rather than disabling throttling.
	assert.False(t, CheckDue(now.Add(-time.Hour), now, 0))
}

func TestBuildMessage(t *testing.T) {
	book := models.Book{
		ID:      "b1",
		Title:   "The Go Programming Language",
		DueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	t.Run("overdue includes fine", func(t *testing.T) {
		msg := BuildMessage(book, -3, 15)
		assert.Equal(t, "📚 BookMate: The Go Programming Language", msg.Title)
		assert.Equal(t, "Overdue by 3 days! Fine: ₹15", msg.Body)
		assert.Equal(t, "book-b1", msg.Tag)
		assert.Equal(t, 15, msg.Data["fine"])
	})

	t.Run("overdue by one day, singular", func(t *testing.T) {
		msg := BuildMessage(book, -1, 5)
		assert.Equal(t, "Overdue by 1 day! Fine: ₹5", msg.Body)
	})

	t.Run("due today", func(t *testing.T) {
		msg := BuildMessage(book, 0, 0)
		assert.Equal(t, "Due today! Return to avoid fine.", msg.Body)
	})

	t.Run("due tomorrow", func(t *testing.T) {
		msg := BuildMessage(book, 1, 0)
		assert.Equal(t, "Due tomorrow! Don't forget to return.", msg.Body)
	})

	t.Run("upcoming", func(t *testing.T) {
		msg := BuildMessage(book, 3, 0)
		assert.Equal(t, "Due in 3 days. Plan your return!", msg.Body)
	})
}

// The message carries the fine the caller computed; it must never derive its
// own. A deliberately wrong fine showing up verbatim proves there is no
// second computation path.
func TestBuildMessage_DoesNotRecomputeFine(t *testing.T) {
	book := models.Book{ID: "b1", Title: "X", FinePerDay: 5,
		DueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}

	msg := BuildMessage(book, -10, 7)
	assert.Equal(t, "Overdue by 10 days! Fine: ₹7", msg.Body)
}

func testBooks(now time.Time, loc *time.Location) []models.Book {
	day := func(offset int) time.Time {
		return now.In(loc).AddDate(0, 0, offset)
	}
	return []models.Book{
		{ID: "b1", UserID: "u1", Title: "Overdue", Status: models.BookStatusActive, FinePerDay: 5, DueDate: day(-2)},
		{ID: "b2", UserID: "u1", Title: "Due today", Status: models.BookStatusActive, FinePerDay: 5, DueDate: day(0)},
		{ID: "b3", UserID: "u1", Title: "Far out", Status: models.BookStatusActive, FinePerDay: 5, DueDate: day(10)},
		{ID: "b4", UserID: "u1", Title: "Two days", Status: models.BookStatusActive, FinePerDay: 5, DueDate: day(2)},
		{ID: "b5", UserID: "u1", Title: "Returned", Status: models.BookStatusReturned, FinePerDay: 5, DueDate: day(-5)},
	}
}

func TestCheckAndNotify(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, loc)
	books := testBooks(now, loc)

	t.Run("counts eligible books and deliveries", func(t *testing.T) {
		var delivered []Message
		res := CheckAndNotify(context.Background(), books, now, loc,
			func(ctx context.Context, userID string, msg Message) error {
				delivered = append(delivered, msg)
				return nil
			})

		assert.Equal(t, 5, res.TotalBooks)
		assert.Equal(t, 2, res.NotificationsNeeded) // overdue + due today
		assert.Equal(t, 2, res.NotificationsSent)
		require.Len(t, delivered, 2)
		assert.Equal(t, "Overdue by 2 days! Fine: ₹10", delivered[0].Body)
	})

	t.Run("one failing delivery does not abort the rest", func(t *testing.T) {
		res := CheckAndNotify(context.Background(), books, now, loc,
			func(ctx context.Context, userID string, msg Message) error {
				if msg.Tag == "book-b1" {
					return errors.New("channel rejected")
				}
				return nil
			})

		assert.Equal(t, 5, res.TotalBooks)
		assert.Equal(t, 2, res.NotificationsNeeded)
		assert.Equal(t, 1, res.NotificationsSent)
		assert.Empty(t, res.Error)
	})

	t.Run("per-day dedup skips are not failures", func(t *testing.T) {
		res := CheckAndNotify(context.Background(), books, now, loc,
			func(ctx context.Context, userID string, msg Message) error {
				return ErrAlreadyDelivered
			})

		assert.Equal(t, 2, res.NotificationsNeeded)
		assert.Equal(t, 0, res.NotificationsSent)
	})

	t.Run("repeat run with no time elapsed is identical", func(t *testing.T) {
		deliver := func(ctx context.Context, userID string, msg Message) error { return nil }
		first := CheckAndNotify(context.Background(), books, now, loc, deliver)
		second := CheckAndNotify(context.Background(), books, now, loc, deliver)
		assert.Equal(t, first, second)
	})
}

// The scheduler and the dashboard both consume bookdue.DaysRemaining, so a
// book eligible for an overdue reminder always carries the matching fine.
func TestCheckAndNotify_FineMatchesCalculator(t *testing.T) {
	loc := time.UTC
	now := time.Date(2025, 1, 18, 9, 0, 0, 0, loc)
	book := models.Book{
		ID: "b1", UserID: "u1", Title: "X", Status: models.BookStatusActive,
		FinePerDay: 5, DueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
	}

	var got Message
	CheckAndNotify(context.Background(), []models.Book{book}, now, loc,
		func(ctx context.Context, userID string, msg Message) error {
			got = msg
			return nil
		})

	wantFine := bookdue.Fine(bookdue.DaysRemaining(book.DueDate, now, loc), book.FinePerDay)
	assert.Equal(t, wantFine, got.Data["fine"])
	assert.Equal(t, 15, wantFine)
}

// Due dates scanned from a DATE column arrive as midnight UTC. With a
// reference zone west of UTC that instant is still the previous evening, so
// a book due today must not be treated as a day overdue and fined.
func TestCheckAndNotify_DateColumnWestOfUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, ny)
	book := models.Book{
		ID: "b1", UserID: "u1", Title: "Due today", Status: models.BookStatusActive,
		FinePerDay: 5, DueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	var got Message
	res := CheckAndNotify(context.Background(), []models.Book{book}, now, ny,
		func(ctx context.Context, userID string, msg Message) error {
			got = msg
			return nil
		})

	assert.Equal(t, 1, res.NotificationsSent)
	assert.Equal(t, "Due today! Return to avoid fine.", got.Body)
	assert.Equal(t, 0, got.Data["fine"])
}
