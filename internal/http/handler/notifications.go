package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nudge/internal/auth"
	"nudge/internal/notiflog"
)

type NotificationsHandler struct {
	Feed *notiflog.Store
}

type notificationDTO struct {
	ID         uint64     `json:"id"`
	TaskID     uint64     `json:"task_id"`
	Message    string     `json:"message"`
	Outcome    string     `json:"outcome"`
	Superseded bool       `json:"superseded"`
	SentAt     *time.Time `json:"sent_at"`
	FailedAt   *time.Time `json:"failed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	includeSuperseded := strings.EqualFold(r.URL.Query().Get("superseded"), "true")

	rows, err := h.Feed.ListForUser(r.Context(), uid, limit, offset, includeSuperseded)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]notificationDTO, 0, len(rows))
	for _, e := range rows {
		out = append(out, notificationDTO{
			ID:         e.ID,
			TaskID:     e.TaskID,
			Message:    e.Message,
			Outcome:    e.Outcome,
			Superseded: e.Superseded,
			SentAt:     e.SentAt,
			FailedAt:   e.FailedAt,
			CreatedAt:  e.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func queryInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
