package models

import "bookmate-backend/internal/bookdue"

// User represents an authenticated user in the system.
// Each user owns their tracked books and notification preferences.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose in JSON responses
	Name         string `json:"name"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// RegisterRequest contains the fields needed to create a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate checks that all required registration fields are present.
func (r *RegisterRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if len(r.Password) < 6 {
		errors["password"] = "Password must be at least 6 characters"
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// AuthResponse is sent back after successful login/registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ── Settings ─────────────────────────────────────────────────────

// Settings is the user's preference record.
type Settings struct {
	FinePerDay           int  `json:"finePerDay"`
	NotificationsEnabled bool `json:"notificationsEnabled"`
}

// UpdateSettingsRequest holds the preference fields that can be changed.
// ApplyToExisting controls whether a fine-rate change is also written onto
// the user's already-borrowed books; by default existing books keep the
// rate snapshotted when they were added or last reissued.
type UpdateSettingsRequest struct {
	FinePerDay           *int  `json:"finePerDay,omitempty"`
	NotificationsEnabled *bool `json:"notificationsEnabled,omitempty"`
	ApplyToExisting      bool  `json:"applyToExisting,omitempty"`
}

// Validate checks that the fine rate, when present, is within bounds.
func (r *UpdateSettingsRequest) Validate() map[string]string {
	errors := map[string]string{}

	if r.FinePerDay != nil {
		if *r.FinePerDay < bookdue.MinFinePerDay || *r.FinePerDay > bookdue.MaxFinePerDay {
			errors["finePerDay"] = "Fine rate must be between 1 and 50"
		}
	}

	return errors
}
