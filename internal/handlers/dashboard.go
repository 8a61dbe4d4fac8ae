package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"bookmate-backend/internal/bookdue"
	"bookmate-backend/internal/ctxkeys"
	"bookmate-backend/internal/database"
	"bookmate-backend/internal/models"
)

// DashboardHandler aggregates the numbers shown on the dashboard header.
type DashboardHandler struct {
	db  database.Service
	loc *time.Location
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(db database.Service, loc *time.Location) *DashboardHandler {
	return &DashboardHandler{db: db, loc: loc}
}

// GetMetrics handles GET /api/dashboard/metrics.
// Overdue counts and fine totals are derived from each active book's due
// date through the same day-difference math used everywhere else — doing
// this in SQL would be a second, divergent implementation of that logic.
func (h *DashboardHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	metrics := models.DashboardMetrics{}

	err := pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'returned')
		FROM books WHERE user_id = $1
	`, userID).Scan(&metrics.BooksRead)
	if err != nil {
		log.Printf("Error querying books read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}

	rows, err := pool.Query(ctx, `
		SELECT due_date, fine_per_day
		FROM books WHERE user_id = $1 AND status = 'active'
	`, userID)
	if err != nil {
		log.Printf("Error querying active books: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch metrics")
		return
	}
	defer rows.Close()

	now := time.Now()
	for rows.Next() {
		var dueDate time.Time
		var rate int
		if err := rows.Scan(&dueDate, &rate); err != nil {
			continue
		}

		metrics.CurrentlyBorrowed++

		daysRemaining := bookdue.DaysRemaining(bookdue.DateIn(dueDate, h.loc), now, h.loc)
		switch {
		case daysRemaining < 0:
			metrics.Overdue++
			metrics.OutstandingFines += bookdue.Fine(daysRemaining, rate)
		case daysRemaining <= 3:
			metrics.DueSoon++
		}
	}

	JSON(w, http.StatusOK, metrics)
}
