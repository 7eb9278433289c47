package handler

import (
	"encoding/json"
	"net/http"

	"nudge/internal/auth"
	"nudge/internal/prefs"
)

type PreferencesHandler struct {
	Prefs *prefs.Store
}

type preferenceDTO struct {
	Email          *string `json:"email"`
	ReminderOffset *int    `json:"reminder_offset"`
	Enabled        *bool   `json:"enabled"`
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	p, err := h.Prefs.Get(r.Context(), uid)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(preferenceDTO{
		Email:          p.Email,
		ReminderOffset: p.ReminderOffset,
		Enabled:        p.Enabled,
	})
}

func (h *PreferencesHandler) Put(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req preferenceDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.ReminderOffset != nil && *req.ReminderOffset < 0 {
		http.Error(w, "reminder_offset must be >= 0", http.StatusBadRequest)
		return
	}

	p, err := h.Prefs.Put(r.Context(), prefs.Preference{
		UserID:         uid,
		Email:          req.Email,
		ReminderOffset: req.ReminderOffset,
		Enabled:        req.Enabled,
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(preferenceDTO{
		Email:          p.Email,
		ReminderOffset: p.ReminderOffset,
		Enabled:        p.Enabled,
	})
}
