package bookdue

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func TestDueDate(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata")

	issue := time.Date(2025, 1, 1, 15, 30, 0, 0, loc)
	due := DueDate(issue, loc)

	want := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)
	if !due.Equal(want) {
		t.Errorf("DueDate() = %v, want %v", due, want)
	}
}

func TestDaysRemaining(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata")

	tests := []struct {
		name    string
		dueDate time.Time
		now     time.Time
		want    int
	}{
		{
			name:    "due today at 9am - zero, not one",
			dueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
			now:     time.Date(2025, 1, 15, 9, 0, 0, 0, loc),
			want:    0,
		},
		{
			name:    "due late yesterday, checked just after midnight - one calendar day",
			dueDate: time.Date(2025, 1, 14, 23, 58, 0, 0, loc),
			now:     time.Date(2025, 1, 15, 0, 1, 0, 0, loc),
			want:    -1,
		},
		{
			name:    "three days overdue",
			dueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
			now:     time.Date(2025, 1, 18, 12, 0, 0, 0, loc),
			want:    -3,
		},
		{
			name:    "three days left",
			dueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
			now:     time.Date(2025, 1, 12, 18, 45, 0, 0, loc),
			want:    3,
		},
		{
			name:    "full loan period ahead",
			dueDate: time.Date(2025, 1, 15, 0, 0, 0, 0, loc),
			now:     time.Date(2025, 1, 1, 8, 0, 0, 0, loc),
			want:    14,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysRemaining(tt.dueDate, tt.now, loc)
			if got != tt.want {
				t.Errorf("DaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

// The count is independent of the execution host's timezone: the same two
// instants must yield the same value whether they arrive as UTC or as local
// wall-clock times.
func TestDaysRemaining_HostTimezoneIndependent(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata")

	due := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)
	now := time.Date(2025, 1, 12, 9, 0, 0, 0, loc)

	if got := DaysRemaining(due.UTC(), now.UTC(), loc); got != 3 {
		t.Errorf("DaysRemaining(UTC inputs) = %d, want 3", got)
	}
	ny := mustLoad(t, "America/New_York")
	if got := DaysRemaining(due.In(ny), now.In(ny), loc); got != 3 {
		t.Errorf("DaysRemaining(NY inputs) = %d, want 3", got)
	}
}

// Crossing a DST transition must not shift the count: the spring-forward day
// is 23 hours long and the fall-back day 25, but both are one calendar day.
func TestDaysRemaining_AcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name    string
		dueDate time.Time
		now     time.Time
		want    int
	}{
		{
			name:    "spring forward 2025-03-09, due day after",
			dueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, ny),
			now:     time.Date(2025, 3, 8, 12, 0, 0, 0, ny),
			want:    2,
		},
		{
			name:    "spring forward, overdue across transition",
			dueDate: time.Date(2025, 3, 8, 0, 0, 0, 0, ny),
			now:     time.Date(2025, 3, 10, 12, 0, 0, 0, ny),
			want:    -2,
		},
		{
			name:    "fall back 2025-11-02 spanned",
			dueDate: time.Date(2025, 11, 3, 0, 0, 0, 0, ny),
			now:     time.Date(2025, 11, 1, 12, 0, 0, 0, ny),
			want:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysRemaining(tt.dueDate, tt.now, ny)
			if got != tt.want {
				t.Errorf("DaysRemaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

// Shifting a due date by k days shifts the result by exactly k, even when the
// shift crosses a DST boundary.
func TestDaysRemaining_AdditiveConsistency(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	now := time.Date(2025, 3, 8, 10, 0, 0, 0, ny) // day before spring forward
	due := time.Date(2025, 3, 8, 0, 0, 0, 0, ny)

	base := DaysRemaining(due, now, ny)
	for k := -10; k <= 10; k++ {
		shifted := DaysRemaining(due.AddDate(0, 0, k), now, ny)
		if shifted != base+k {
			t.Errorf("k=%d: DaysRemaining = %d, want %d", k, shifted, base+k)
		}
	}
}

func TestFine(t *testing.T) {
	tests := []struct {
		name          string
		daysRemaining int
		finePerDay    int
		want          int
	}{
		{"not due yet", 5, 3, 0},
		{"due today - grace, no fine", 0, 3, 0},
		{"one day overdue", -1, 3, 3},
		{"three days overdue at rate 5", -3, 5, 15},
		{"thirty days overdue", -30, 2, 60},
		{"zero rate falls back to default", -4, 0, 4},
		{"negative rate falls back to default", -4, -7, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fine(tt.daysRemaining, tt.finePerDay)
			if got != tt.want {
				t.Errorf("Fine(%d, %d) = %d, want %d", tt.daysRemaining, tt.finePerDay, got, tt.want)
			}
		})
	}
}

// Fine and days-remaining are pure: the same inputs always produce the same
// outputs, so overlapping evaluation runs can never double-charge.
func TestFine_Idempotent(t *testing.T) {
	loc := mustLoad(t, "Asia/Kolkata")
	due := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)
	now := time.Date(2025, 1, 18, 7, 0, 0, 0, loc)

	first := Fine(DaysRemaining(due, now, loc), 5)
	second := Fine(DaysRemaining(due, now, loc), 5)
	if first != second || first != 15 {
		t.Errorf("repeated evaluation gave %d then %d, want 15 both times", first, second)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		daysRemaining int
		fine          int
		wantStatus    string
		wantMessage   string
		wantFine      int
	}{
		{"overdue plural", -3, 15, StatusOverdue, "3 days overdue", 15},
		{"overdue singular", -1, 5, StatusOverdue, "1 day overdue", 5},
		{"due today", 0, 0, StatusDueToday, "Due today", 0},
		{"due tomorrow", 1, 0, StatusDueTomorrow, "Due tomorrow", 0},
		{"due soon", 3, 0, StatusDueSoon, "Due in 3 days", 0},
		{"active", 10, 0, StatusActive, "10 days remaining", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.daysRemaining, tt.fine)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Fine != tt.wantFine {
				t.Errorf("Fine = %d, want %d", got.Fine, tt.wantFine)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2025-01-15", time.UTC); err != nil {
		t.Errorf("bare date rejected: %v", err)
	}
	if _, err := ParseDate("2025-01-15T10:30:00+05:30", time.UTC); err != nil {
		t.Errorf("RFC 3339 rejected: %v", err)
	}
	if _, err := ParseDate("15/01/2025", time.UTC); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := ParseDate("", time.UTC); err == nil {
		t.Error("expected error for empty date")
	}
}

// A bare date names a calendar day in the reference zone. Parsed as UTC it
// would be 7pm the previous evening in New York, and a book due "today"
// would already count as overdue there.
func TestParseDate_BareDateWestOfUTC(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	due, err := ParseDate("2025-01-15", ny)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, ny)
	if got := DaysRemaining(due, now, ny); got != 0 {
		t.Errorf("due date parsed from bare string: DaysRemaining = %d, want 0", got)
	}

	issue, err := ParseDate("2025-01-01", ny)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, ny)
	if got := DueDate(issue, ny); !got.Equal(want) {
		t.Errorf("DueDate = %v, want %v", got, want)
	}
}

// DATE columns scan as midnight UTC; DateIn must keep the stored day
// rather than converting the instant into the reference zone.
func TestDateIn(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	scanned := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	got := DateIn(scanned, ny)
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, ny)
	if !got.Equal(want) {
		t.Errorf("DateIn = %v, want %v", got, want)
	}

	now := time.Date(2025, 1, 15, 9, 0, 0, 0, ny)
	if days := DaysRemaining(got, now, ny); days != 0 {
		t.Errorf("DaysRemaining on pinned date = %d, want 0", days)
	}

	// No-op when the value is already in the reference zone.
	if got := DateIn(want, ny); !got.Equal(want) {
		t.Errorf("DateIn not idempotent: %v", got)
	}
}
