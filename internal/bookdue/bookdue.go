// Package bookdue provides pure functions for loan due-date and fine
// calculations. These functions have ZERO dependencies on HTTP, database, or
// any other infrastructure — making them trivially testable and reusable.
//
// All calendar arithmetic happens in an explicit reference timezone so that
// results are identical regardless of where the code runs. Day differences
// are calendar-day differences, never elapsed durations: a book due at
// 11:58 PM yesterday is one day overdue at 12:01 AM today.
package bookdue

import (
	"fmt"
	"math"
	"time"
)

// ── Loan Constants ───────────────────────────────────────────────

const (
	// LoanPeriodDays is the standard borrowing period.
	LoanPeriodDays = 14

	// DefaultFinePerDay is applied when a book carries no stored rate.
	// A missing rate must never turn a genuinely overdue book into a
	// zero-fine book.
	DefaultFinePerDay = 1

	// MinFinePerDay and MaxFinePerDay bound the user-configurable rate.
	MinFinePerDay = 1
	MaxFinePerDay = 50
)

// ── Book Status Constants ────────────────────────────────────────
// Status is always computed from (dueDate, now). It is never stored
// in the database.

const (
	StatusOverdue     = "overdue"      // Past due — fines accumulating
	StatusDueToday    = "due-today"    // Due this calendar day
	StatusDueTomorrow = "due-tomorrow" // Due the next calendar day
	StatusDueSoon     = "due-soon"     // Due within 3 days
	StatusActive      = "active"       // More than 3 days remaining
)

// ── Due Date ─────────────────────────────────────────────────────

// DueDate returns the issue date advanced by exactly LoanPeriodDays calendar
// days, normalized to the start of its day in the reference timezone. The
// time-of-day component is stripped up front; every downstream comparison
// works on day boundaries, which is what keeps the math stable near midnight.
func DueDate(issueDate time.Time, loc *time.Location) time.Time {
	return startOfDay(issueDate, loc).AddDate(0, 0, LoanPeriodDays)
}

// ── Days Remaining ───────────────────────────────────────────────

// DaysRemaining returns the signed number of calendar days between now and
// the due date, both taken at start of day in the reference timezone.
// Positive = due in N days, zero = due today, negative = overdue by |N| days.
//
// The division result is rounded, not floored: a day shortened or stretched
// by a DST transition is still one calendar day, and rounding absorbs the
// residual ±1h without biasing the count.
func DaysRemaining(dueDate, now time.Time, loc *time.Location) int {
	due := startOfDay(dueDate, loc)
	today := startOfDay(now, loc)
	return int(math.Round(due.Sub(today).Hours() / 24))
}

// ── Fine Calculation ─────────────────────────────────────────────

// Fine returns the accumulated fine for a book given its days-remaining value
// and per-day rate. Books that are not overdue — including books due today —
// are never fined. A zero or negative rate falls back to DefaultFinePerDay.
func Fine(daysRemaining, finePerDay int) int {
	if daysRemaining >= 0 {
		return 0
	}
	if finePerDay <= 0 {
		finePerDay = DefaultFinePerDay
	}
	return -daysRemaining * finePerDay
}

// ── Status Classification ────────────────────────────────────────

// StatusInfo describes the urgency of a borrowed book at one instant.
// Fine is carried through from the caller so the amount shown anywhere in
// the system is the same one the fine calculator produced.
type StatusInfo struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Priority string `json:"priority"` // "high" | "medium" | "low"
	Fine     int    `json:"fine"`
}

// Classify derives the display status for a days-remaining value. The fine
// argument is only attached for overdue books; it is never recomputed here.
func Classify(daysRemaining, fine int) StatusInfo {
	switch {
	case daysRemaining < 0:
		return StatusInfo{
			Status:   StatusOverdue,
			Message:  fmt.Sprintf("%d %s overdue", -daysRemaining, plural(-daysRemaining, "day")),
			Priority: "high",
			Fine:     fine,
		}
	case daysRemaining == 0:
		return StatusInfo{Status: StatusDueToday, Message: "Due today", Priority: "medium"}
	case daysRemaining == 1:
		return StatusInfo{Status: StatusDueTomorrow, Message: "Due tomorrow", Priority: "medium"}
	case daysRemaining <= 3:
		return StatusInfo{
			Status:   StatusDueSoon,
			Message:  fmt.Sprintf("Due in %d days", daysRemaining),
			Priority: "medium",
		}
	default:
		return StatusInfo{
			Status:   StatusActive,
			Message:  fmt.Sprintf("%d days remaining", daysRemaining),
			Priority: "low",
		}
	}
}

// ── Date Parsing ─────────────────────────────────────────────────

// ParseDate parses an RFC 3339 timestamp or a bare YYYY-MM-DD date.
// A bare date names a calendar day, not an instant, so it is anchored to
// midnight in the reference timezone; parsing it as UTC would shift the day
// for any reference zone west of UTC. Malformed input is a caller contract
// violation and fails fast; dates are never silently coerced to "today".
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

// DateIn pins a date-only value's calendar day to the reference timezone.
// Date-only values — a scanned DATE column, most notably — arrive as
// midnight in some other zone (pgx hands back midnight UTC). Converting
// that instant with In() lands on the previous day for any reference zone
// west of it, so DateIn rebuilds the day from the value's own
// year/month/day instead.
func DateIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ── Internal Helpers ─────────────────────────────────────────────

// startOfDay converts t into the reference timezone and strips the time
// component, keeping only the calendar date.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
