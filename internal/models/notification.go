package models

// Notification is a persisted reminder row, shown in the in-app inbox.
// Rows are de-duplicated per (user, book, tag, calendar day) at insert time.
type Notification struct {
	ID        string  `json:"id"`
	BookID    *string `json:"bookId,omitempty"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Tag       string  `json:"tag"`
	Read      bool    `json:"read"`
	CreatedAt string  `json:"createdAt"`
}

// DashboardMetrics aggregates the numbers shown on the dashboard header.
// Fine totals are computed in Go from each book's due date and stored rate,
// never in SQL, so they always match the per-book figures.
type DashboardMetrics struct {
	CurrentlyBorrowed int `json:"currentlyBorrowed"`
	Overdue           int `json:"overdue"`
	DueSoon           int `json:"dueSoon"` // Due within the next 3 days
	OutstandingFines  int `json:"outstandingFines"`
	BooksRead         int `json:"booksRead"`
}
