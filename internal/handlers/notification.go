package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"bookmate-backend/internal/ctxkeys"
	"bookmate-backend/internal/database"
	"bookmate-backend/internal/models"
	"bookmate-backend/internal/notify"
)

// NotificationHandler serves the reminder inbox and the manual check trigger.
type NotificationHandler struct {
	db          database.Service
	loc         *time.Location
	deliver     notify.DeliverFunc
	minInterval time.Duration
}

// NewNotificationHandler creates a NotificationHandler. deliver is the
// configured reminder sink; minInterval throttles manual check runs per user.
func NewNotificationHandler(db database.Service, loc *time.Location, deliver notify.DeliverFunc, minInterval time.Duration) *NotificationHandler {
	return &NotificationHandler{db: db, loc: loc, deliver: deliver, minInterval: minInterval}
}

// List handles GET /api/notifications — newest first, capped at 50.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := h.db.GetPool().Query(ctx, `
		SELECT id, book_id, title, body, tag, read, created_at::text
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 50
	`, userID)
	if err != nil {
		log.Printf("Failed to list notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.BookID, &n.Title, &n.Body, &n.Tag, &n.Read, &n.CreatedAt); err != nil {
			continue
		}
		notifications = append(notifications, n)
	}

	JSON(w, http.StatusOK, notifications)
}

// UnreadCount handles GET /api/notifications/count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var count int
	err := h.db.GetPool().QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		log.Printf("Failed to count notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch count")
		return
	}

	JSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		log.Printf("Failed to mark notification read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Notification not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// MarkAllRead handles PATCH /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE
	`, userID); err != nil {
		log.Printf("Failed to mark all read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// ── Manual Check ─────────────────────────────────────────────────

// checkResponse wraps the batch result with throttle info for the client.
type checkResponse struct {
	notify.Result
	Throttled bool `json:"throttled,omitempty"`
}

// Check handles POST /api/notifications/check — an on-demand batch
// evaluation of the user's active books. Failures come back as a structured
// result with zero sent and an error reason, never as a bare 5xx, so the
// client can show a graceful "could not check right now".
func (h *NotificationHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())
	now := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	var enabled bool
	var lastCheck *time.Time
	err := pool.QueryRow(ctx, `
		SELECT notifications_enabled, last_notification_check
		FROM users WHERE id = $1
	`, userID).Scan(&enabled, &lastCheck)
	if err != nil {
		log.Printf("[check] failed to load user %s: %v", userID, err)
		JSON(w, http.StatusOK, checkResponse{Result: notify.Result{Error: "Could not check right now"}})
		return
	}

	if !enabled {
		JSON(w, http.StatusOK, checkResponse{Result: notify.Result{Error: "Notifications are not enabled"}})
		return
	}

	last := time.Time{}
	if lastCheck != nil {
		last = *lastCheck
	}
	if !notify.CheckDue(last, now, h.minInterval) {
		JSON(w, http.StatusOK, checkResponse{Throttled: true})
		return
	}

	rows, err := pool.Query(ctx, `
		SELECT `+bookColumns+`
		FROM books WHERE user_id = $1 AND status = 'active'
	`, userID)
	if err != nil {
		log.Printf("[check] failed to load books for %s: %v", userID, err)
		JSON(w, http.StatusOK, checkResponse{Result: notify.Result{Error: "Could not check right now"}})
		return
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			continue
		}
		books = append(books, b)
	}

	res := notify.CheckAndNotify(ctx, books, now, h.loc, h.deliver)

	// Last-write-wins: a lost update only causes one extra idempotent run.
	if _, err := pool.Exec(ctx, `
		UPDATE users SET last_notification_check = NOW() WHERE id = $1
	`, userID); err != nil {
		log.Printf("[check] failed to record check time for %s: %v", userID, err)
	}

	JSON(w, http.StatusOK, checkResponse{Result: res})
}
