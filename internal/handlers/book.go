package handlers

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"bookmate-backend/internal/bookdue"
	"bookmate-backend/internal/ctxkeys"
	"bookmate-backend/internal/database"
	"bookmate-backend/internal/models"
)

// BookHandler handles borrowed-book CRUD and lifecycle requests.
// All queries are scoped to the authenticated user.
type BookHandler struct {
	db  database.Service
	loc *time.Location
}

// NewBookHandler creates a BookHandler using the given reference timezone
// for all calendar-day computations.
func NewBookHandler(db database.Service, loc *time.Location) *BookHandler {
	return &BookHandler{db: db, loc: loc}
}

const bookColumns = `
	id, user_id, title, author, catalog_id, issue_date, due_date,
	fine_per_day, reissue_count, status, returned_at, cover_url,
	created_at, updated_at`

func scanBook(row pgx.Row) (models.Book, error) {
	var b models.Book
	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.CatalogID,
		&b.IssueDate, &b.DueDate, &b.FinePerDay, &b.ReissueCount,
		&b.Status, &b.ReturnedAt, &b.CoverURL, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// withDue attaches the computed due-date fields. Fine and status always come
// from the same days-remaining value so list, detail, dashboard and reminders
// can never disagree.
func (h *BookHandler) withDue(b models.Book, now time.Time) models.BookWithDue {
	if b.Status == models.BookStatusReturned {
		// Fines stop accruing at return.
		return models.BookWithDue{Book: b}
	}
	// due_date is a DATE column; pin the scanned day to the reference
	// zone before comparing.
	due := bookdue.DateIn(b.DueDate, h.loc)
	daysRemaining := bookdue.DaysRemaining(due, now, h.loc)
	fine := bookdue.Fine(daysRemaining, b.FinePerDay)
	return models.BookWithDue{
		Book:          b,
		DaysRemaining: daysRemaining,
		Fine:          fine,
		StatusInfo:    bookdue.Classify(daysRemaining, fine),
	}
}

// ── Create ───────────────────────────────────────────────────────

// Create handles POST /api/books.
// The due date is derived server-side as issue date + 14 days, and the
// owner's current fine rate is snapshotted onto the book.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	var req models.CreateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	now := time.Now()

	issueDate := now
	if req.IssueDate != "" {
		parsed, err := bookdue.ParseDate(req.IssueDate, h.loc)
		if err != nil {
			JSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		issueDate = parsed
	}
	// Backdating is fine; future issue dates are not.
	if bookdue.DaysRemaining(issueDate, now, h.loc) > 0 {
		JSONError(w, http.StatusUnprocessableEntity, "Issue date cannot be in the future")
		return
	}

	dueDate := bookdue.DueDate(issueDate, h.loc)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	// Snapshot the user's current fine rate onto the book. Later changes to
	// the global rate do not touch this book unless the settings update
	// explicitly asks for it.
	var fineRate int
	if err := pool.QueryRow(ctx,
		`SELECT fine_per_day FROM users WHERE id = $1`, userID,
	).Scan(&fineRate); err != nil {
		log.Printf("Failed to fetch fine rate for %s: %v", userID, err)
		fineRate = bookdue.DefaultFinePerDay
	}

	book, err := scanBook(pool.QueryRow(ctx, `
		INSERT INTO books (user_id, title, author, catalog_id, issue_date, due_date, fine_per_day, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING`+bookColumns,
		userID, req.Title, req.Author, req.CatalogID,
		issueDate.In(h.loc), dueDate, fineRate, req.CoverURL,
	))
	if err != nil {
		log.Printf("Failed to create book: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to add book")
		return
	}

	JSON(w, http.StatusCreated, h.withDue(book, now))
}

// ── List / History ───────────────────────────────────────────────

// List handles GET /api/books — the user's active (borrowed) books,
// newest first, with computed due info on each. `?status=all` includes
// returned books too.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.BookStatusActive
	if r.URL.Query().Get("status") == "all" {
		status = ""
	}

	books, ok := h.queryBooks(w, r, status, "created_at DESC")
	if !ok {
		return
	}

	now := time.Now()
	result := []models.BookWithDue{}
	for _, b := range books {
		result = append(result, h.withDue(b, now))
	}

	JSON(w, http.StatusOK, result)
}

// History handles GET /api/books/history — returned books, most recent
// first. No due fields here: a returned book's fine stopped accruing at
// return, so recomputing it against today would be wrong.
func (h *BookHandler) History(w http.ResponseWriter, r *http.Request) {
	books, ok := h.queryBooks(w, r, models.BookStatusReturned, "returned_at DESC")
	if !ok {
		return
	}

	JSON(w, http.StatusOK, books)
}

func (h *BookHandler) queryBooks(w http.ResponseWriter, r *http.Request, status, order string) ([]models.Book, bool) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.db.GetPool().Query(ctx, `
		SELECT `+bookColumns+`
		FROM books
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY `+order,
		userID, status,
	)
	if err != nil {
		log.Printf("Failed to list books: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch books")
		return nil, false
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			log.Printf("Failed to scan book: %v", err)
			continue
		}
		books = append(books, b)
	}

	return books, true
}

// GetByID handles GET /api/books/{id}.
func (h *BookHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	book, err := scanBook(h.db.GetPool().QueryRow(ctx, `
		SELECT `+bookColumns+` FROM books WHERE id = $1 AND user_id = $2`,
		bookID, userID,
	))
	if err != nil {
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	JSON(w, http.StatusOK, h.withDue(book, time.Now()))
}

// ── Update / Delete ──────────────────────────────────────────────

// Update handles PUT /api/books/{id}. Partial update of display fields plus
// manual due-date edits. Status transitions go through Return/Reissue.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	var req models.UpdateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": errs,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	book, err := scanBook(pool.QueryRow(ctx, `
		SELECT `+bookColumns+` FROM books WHERE id = $1 AND user_id = $2`,
		bookID, userID,
	))
	if err != nil {
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.CatalogID != nil {
		book.CatalogID = *req.CatalogID
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.DueDate != nil {
		parsed, err := bookdue.ParseDate(*req.DueDate, h.loc)
		if err != nil {
			JSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		book.DueDate = parsed
	}

	book, err = scanBook(pool.QueryRow(ctx, `
		UPDATE books
		SET title = $1, author = $2, catalog_id = $3, due_date = $4,
		    cover_url = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING`+bookColumns,
		book.Title, book.Author, book.CatalogID, book.DueDate.In(h.loc),
		book.CoverURL, bookID, userID,
	))
	if err != nil {
		log.Printf("Failed to update book %s: %v", bookID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to update book")
		return
	}

	JSON(w, http.StatusOK, h.withDue(book, time.Now()))
}

// Delete handles DELETE /api/books/{id}. Physical delete, user-initiated only.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx,
		`DELETE FROM books WHERE id = $1 AND user_id = $2`, bookID, userID)
	if err != nil {
		log.Printf("Failed to delete book %s: %v", bookID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to delete book")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ── Return / Reissue ─────────────────────────────────────────────

// Return handles PATCH /api/books/{id}/return. Terminal: a returned book
// never becomes active again (reissue a fresh entry instead is not needed —
// the record keeps its history and stats read from it).
func (h *BookHandler) Return(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	book, err := scanBook(pool.QueryRow(ctx, `
		UPDATE books
		SET status = 'returned', returned_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'active'
		RETURNING`+bookColumns,
		bookID, userID,
	))
	if err != nil {
		// Distinguish "already returned" from "not found"
		var status string
		if lookupErr := pool.QueryRow(ctx,
			`SELECT status FROM books WHERE id = $1 AND user_id = $2`, bookID, userID,
		).Scan(&status); lookupErr == nil && status == models.BookStatusReturned {
			JSONError(w, http.StatusConflict, "Book is already returned")
			return
		}
		JSONError(w, http.StatusNotFound, "Book not found")
		return
	}

	JSON(w, http.StatusOK, h.withDue(book, time.Now()))
}

// Reissue handles POST /api/books/{id}/reissue.
// Extends the due date to today + 14 days, bumps the reissue counter, and
// re-snapshots the owner's current fine rate onto the book.
func (h *BookHandler) Reissue(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	bookID := chi.URLParam(r, "id")

	now := time.Now()
	newDue := bookdue.DueDate(now, h.loc)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	book, err := scanBook(pool.QueryRow(ctx, `
		UPDATE books
		SET due_date = $1,
		    reissue_count = reissue_count + 1,
		    fine_per_day = (SELECT fine_per_day FROM users WHERE id = $2),
		    updated_at = NOW()
		WHERE id = $3 AND user_id = $2 AND status = 'active'
		RETURNING`+bookColumns,
		newDue, userID, bookID,
	))
	if err != nil {
		JSONError(w, http.StatusNotFound, "Active book not found")
		return
	}

	JSON(w, http.StatusOK, h.withDue(book, now))
}

// ── Stats ────────────────────────────────────────────────────────

// Stats handles GET /api/books/stats — the user's reading summary.
func (h *BookHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()
	stats := models.ReadingStats{}

	err := pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'returned'),
			COUNT(*) FILTER (WHERE status = 'active')
		FROM books WHERE user_id = $1
	`, userID).Scan(&stats.TotalBooksRead, &stats.CurrentlyBorrowed)
	if err != nil {
		log.Printf("Failed to fetch stats for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}

	rows, err := pool.Query(ctx, `
		SELECT issue_date, returned_at FROM books
		WHERE user_id = $1 AND status = 'returned'
	`, userID)
	if err != nil {
		log.Printf("Failed to fetch reading history for %s: %v", userID, err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	defer rows.Close()

	totalDays, count := 0, 0
	for rows.Next() {
		var issued time.Time
		var returned *time.Time
		if err := rows.Scan(&issued, &returned); err != nil {
			continue
		}
		days := bookdue.LoanPeriodDays // fallback when the record predates returned_at
		if returned != nil {
			elapsed := int(math.Ceil(returned.Sub(issued).Hours() / 24))
			if elapsed > 0 {
				days = elapsed
			}
		}
		totalDays += days
		count++
	}
	if count > 0 {
		stats.AverageReadingDays = int(math.Round(float64(totalDays) / float64(count)))
	}

	JSON(w, http.StatusOK, stats)
}
