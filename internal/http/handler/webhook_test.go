package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nudge/internal/reminder"
)

type fakeIngestor struct {
	lastEvent reminder.Event
	result    reminder.Result
	err       error
}

func (f *fakeIngestor) Ingest(ctx context.Context, ev reminder.Event) (reminder.Result, error) {
	f.lastEvent = ev
	return f.result, f.err
}

func postEvent(h *WebhookHandler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/task-event", strings.NewReader(body))
	if token != "" {
		req.Header.Set("X-Webhook-Token", token)
	}
	rec := httptest.NewRecorder()
	h.TaskEvent(rec, req)
	return rec
}

func TestWebhook_QueuesJob(t *testing.T) {
	fireAt := time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)
	in := &fakeIngestor{result: reminder.Result{JobID: 7, FireAt: fireAt}}
	h := &WebhookHandler{Intake: in}

	rec := postEvent(h, "", `{"taskId":42,"title":"write report","dueDate":"2024-01-10T10:00:00Z"}`)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if resp["status"] != "queued" || resp["jobId"] != float64(7) {
		t.Fatalf("unexpected response: %v", resp)
	}
	if in.lastEvent.TaskID != 42 {
		t.Fatalf("expected taskId 42, got %d", in.lastEvent.TaskID)
	}
}

func TestWebhook_SkipsWithoutDueDate(t *testing.T) {
	in := &fakeIngestor{result: reminder.Result{Skipped: true, Reason: "no due date"}}
	h := &WebhookHandler{Intake: in}

	rec := postEvent(h, "", `{"taskId":42}`)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "skipped" {
		t.Fatalf("expected skipped, got %v", resp)
	}
}

func TestWebhook_InvalidDueDateIs400(t *testing.T) {
	in := &fakeIngestor{err: reminder.ErrInvalidDueDate}
	h := &WebhookHandler{Intake: in}

	rec := postEvent(h, "", `{"taskId":42,"dueDate":"soon"}`)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_MissingTaskIDIs400(t *testing.T) {
	in := &fakeIngestor{err: reminder.ErrMissingTaskID}
	h := &WebhookHandler{Intake: in}

	rec := postEvent(h, "", `{"dueDate":"2024-01-10"}`)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_BadJSONIs400(t *testing.T) {
	h := &WebhookHandler{Intake: &fakeIngestor{}}

	rec := postEvent(h, "", `{`)

	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhook_TokenGuard(t *testing.T) {
	in := &fakeIngestor{result: reminder.Result{JobID: 1}}
	h := &WebhookHandler{Intake: in, Token: "s3cret"}

	if rec := postEvent(h, "", `{"taskId":42,"dueDate":"2024-01-10"}`); rec.Code != 401 {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := postEvent(h, "s3cret", `{"taskId":42,"dueDate":"2024-01-10"}`); rec.Code != 200 {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}
