package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nudge/internal/reminder"
)

type Ingestor interface {
	Ingest(ctx context.Context, ev reminder.Event) (reminder.Result, error)
}

// WebhookHandler receives task-change events from the task data layer.
type WebhookHandler struct {
	Intake Ingestor
	Token  string // shared secret; empty disables the check
}

func (h *WebhookHandler) TaskEvent(w http.ResponseWriter, r *http.Request) {
	if h.Token != "" && r.Header.Get("X-Webhook-Token") != h.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var ev reminder.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	res, err := h.Intake.Ingest(r.Context(), ev)
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrMissingTaskID):
			http.Error(w, "taskId required", http.StatusBadRequest)
		case errors.Is(err, reminder.ErrInvalidDueDate):
			http.Error(w, "invalid dueDate", http.StatusBadRequest)
		default:
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if res.Skipped {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "skipped",
			"reason": res.Reason,
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "queued",
		"jobId":  res.JobID,
		"fireAt": res.FireAt,
	})
}
