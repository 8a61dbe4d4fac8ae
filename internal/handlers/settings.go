package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"bookmate-backend/internal/ctxkeys"
	"bookmate-backend/internal/database"
	"bookmate-backend/internal/models"
)

// SettingsHandler manages user preferences: the default fine rate and the
// notifications toggle.
type SettingsHandler struct {
	db database.Service
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(db database.Service) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var settings models.Settings
	err := h.db.GetPool().QueryRow(ctx, `
		SELECT fine_per_day, notifications_enabled FROM users WHERE id = $1
	`, userID).Scan(&settings.FinePerDay, &settings.NotificationsEnabled)
	if err != nil {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	JSON(w, http.StatusOK, settings)
}

// Update handles PUT /api/settings. A fine-rate change applies to newly
// added and reissued books; it only touches already-borrowed books when the
// request sets applyToExisting, in which case the new rate is written onto
// every book of the user in the same transaction.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.GetUserID(r.Context())

	var req models.UpdateSettingsRequest
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

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Printf("Failed to begin settings tx: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}
	defer tx.Rollback(ctx)

	if req.FinePerDay != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET fine_per_day = $1, updated_at = NOW() WHERE id = $2
		`, *req.FinePerDay, userID); err != nil {
			log.Printf("Failed to update fine rate for %s: %v", userID, err)
			JSONError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}

		if req.ApplyToExisting {
			if _, err := tx.Exec(ctx, `
				UPDATE books SET fine_per_day = $1, updated_at = NOW() WHERE user_id = $2
			`, *req.FinePerDay, userID); err != nil {
				log.Printf("Failed to apply fine rate to books for %s: %v", userID, err)
				JSONError(w, http.StatusInternalServerError, "Failed to save settings")
				return
			}
		}
	}

	if req.NotificationsEnabled != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE users SET notifications_enabled = $1, updated_at = NOW() WHERE id = $2
		`, *req.NotificationsEnabled, userID); err != nil {
			log.Printf("Failed to update notifications flag for %s: %v", userID, err)
			JSONError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	var settings models.Settings
	if err := tx.QueryRow(ctx, `
		SELECT fine_per_day, notifications_enabled FROM users WHERE id = $1
	`, userID).Scan(&settings.FinePerDay, &settings.NotificationsEnabled); err != nil {
		JSONError(w, http.StatusNotFound, "User not found")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Failed to commit settings tx: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	JSON(w, http.StatusOK, settings)
}
