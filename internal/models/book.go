package models

import (
	"time"

	"bookmate-backend/internal/bookdue"
)

// ── Core Book ────────────────────────────────────────────────────

// Book represents one borrowed-book tracking entry in the database.
type Book struct {
	ID           string     `json:"id"`
	UserID       string     `json:"-"` // Owner — never exposed, books are always user-scoped
	Title        string     `json:"title"`
	Author       string     `json:"author,omitempty"`
	CatalogID    string     `json:"catalogId,omitempty"` // Library catalog / accession number
	IssueDate    time.Time  `json:"issueDate"`
	DueDate      time.Time  `json:"dueDate"`
	FinePerDay   int        `json:"finePerDay"`   // Snapshotted from the owner's rate at add/reissue
	ReissueCount int        `json:"reissueCount"` // Times the due date was extended
	Status       string     `json:"status"`       // "active" | "returned"
	ReturnedAt   *time.Time `json:"returnedAt,omitempty"`
	CoverURL     string     `json:"coverUrl,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Book status values. Terminal once returned.
const (
	BookStatusActive   = "active"
	BookStatusReturned = "returned"
)

// ── Book with Computed Due Fields ────────────────────────────────

// BookWithDue extends Book with due-date info that is COMPUTED on every
// read — never stored in the database.
type BookWithDue struct {
	Book

	DaysRemaining int                `json:"daysRemaining"` // Negative = overdue
	Fine          int                `json:"fine"`          // Accumulated fine, 0 unless overdue
	StatusInfo    bookdue.StatusInfo `json:"statusInfo,omitzero"` // Zero for returned books
}

// ── Create / Update Requests ─────────────────────────────────────

// CreateBookRequest holds the fields for registering a borrowed book.
// IssueDate is optional and defaults to today; it may be backdated but
// never set in the future.
type CreateBookRequest struct {
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	CatalogID string `json:"catalogId,omitempty"`
	IssueDate string `json:"issueDate,omitempty"` // RFC 3339 or YYYY-MM-DD
	CoverURL  string `json:"coverUrl,omitempty"`
}

// Validate checks if the create request contains valid data.
func (r *CreateBookRequest) Validate() map[string]string {
	errors := map[string]string{}

	if len(r.Title) < 1 {
		errors["title"] = "Title is required"
	}
	if r.IssueDate != "" {
		if _, err := bookdue.ParseDate(r.IssueDate, time.UTC); err != nil {
			errors["issueDate"] = "Issue date must be RFC 3339 or YYYY-MM-DD"
		}
	}

	return errors
}

// UpdateBookRequest holds the fields that can be partially updated.
// The due date may be edited manually; status transitions go through the
// dedicated return/reissue endpoints instead.
type UpdateBookRequest struct {
	Title     *string `json:"title,omitempty"`
	Author    *string `json:"author,omitempty"`
	CatalogID *string `json:"catalogId,omitempty"`
	DueDate   *string `json:"dueDate,omitempty"` // RFC 3339 or YYYY-MM-DD
	CoverURL  *string `json:"coverUrl,omitempty"`
}

// Validate checks if the update request contains valid data.
func (r *UpdateBookRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Title != nil && *r.Title == "" {
		errors["title"] = "Title cannot be empty"
	}
	if r.DueDate != nil {
		if _, err := bookdue.ParseDate(*r.DueDate, time.UTC); err != nil {
			errors["dueDate"] = "Due date must be RFC 3339 or YYYY-MM-DD"
		}
	}

	return errors
}

// ── Reading Stats ────────────────────────────────────────────────

// ReadingStats summarizes a user's borrowing history.
type ReadingStats struct {
	TotalBooksRead     int `json:"totalBooksRead"`
	CurrentlyBorrowed  int `json:"currentlyBorrowed"`
	AverageReadingDays int `json:"averageReadingDays"`
}
