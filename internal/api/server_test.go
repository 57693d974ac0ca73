package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/repository/memory"
	"github.com/habitloop/habitloop/internal/service"
)

const testUserID = "user-1"

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(ctx context.Context, user *models.User, habit *models.Habit, reminder *models.Reminder) error {
	return nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	users := memory.NewUserRepository()
	if _, err := users.Create(context.Background(), &models.User{
		ID:    testUserID,
		Email: "test@example.com",
	}); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	svc := service.New(logger, users,
		memory.NewHabitRepository(),
		memory.NewReminderRepository(),
		nopDispatcher{})

	return NewServer(svc, logger)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-User-ID", testUserID)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func createHabitRequest() map[string]any {
	return map[string]any{
		"question": "Did you stretch?",
		"frequency": map[string]any{
			"kind": "daily",
		},
		"slots": []map[string]any{{"hour": 9, "minute": 0}},
	}
}

func createdHabit(t *testing.T, srv *Server) models.Habit {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/habits", createHabitRequest())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create habit returned %d: %s", rec.Code, rec.Body.String())
	}

	var habit models.Habit
	if err := json.Unmarshal(rec.Body.Bytes(), &habit); err != nil {
		t.Fatalf("failed to decode habit: %v", err)
	}
	return habit
}

func TestCreateAndGetHabit(t *testing.T) {
	srv := newTestServer(t)

	habit := createdHabit(t, srv)
	if habit.ID == "" {
		t.Fatal("created habit has no id")
	}
	if habit.State != models.HabitStateRunning {
		t.Errorf("created habit state = %s, want running", habit.State)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/habits/"+habit.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get habit returned %d: %s", rec.Code, rec.Body.String())
	}

	var got models.Habit
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode habit: %v", err)
	}
	if got.ID != habit.ID || got.Question != "Did you stretch?" {
		t.Errorf("got habit %s %q", got.ID, got.Question)
	}
}

func TestRequireUserID(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header returned %d, want 401", rec.Code)
	}
}

func TestCreateHabitValidation(t *testing.T) {
	srv := newTestServer(t)

	body := createHabitRequest()
	delete(body, "slots")
	if rec := doJSON(t, srv, http.MethodPost, "/api/habits", body); rec.Code != http.StatusBadRequest {
		t.Errorf("missing slots returned %d, want 400", rec.Code)
	}

	body = createHabitRequest()
	body["frequency"] = map[string]any{"kind": "once", "date": "not-a-date"}
	if rec := doJSON(t, srv, http.MethodPost, "/api/habits", body); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date returned %d, want 400", rec.Code)
	}

	body = createHabitRequest()
	body["frequency"] = map[string]any{"kind": "weekly"}
	if rec := doJSON(t, srv, http.MethodPost, "/api/habits", body); rec.Code != http.StatusBadRequest {
		t.Errorf("weekly without weekdays returned %d, want 400", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodGet, "/api/habits/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown habit returned %d, want 404", rec.Code)
	}

	habit := createdHabit(t, srv)

	// Same-state transition maps to conflict.
	rec := doJSON(t, srv, http.MethodPut,
		fmt.Sprintf("/api/habits/%s/state", habit.ID),
		map[string]any{"state": "running"})
	if rec.Code != http.StatusConflict {
		t.Errorf("same-state transition returned %d, want 409", rec.Code)
	}

	// An impossible calendar date maps to unprocessable entity.
	body := createHabitRequest()
	body["frequency"] = map[string]any{"kind": "yearly_date", "month": 2, "day": 30}
	if rec := doJSON(t, srv, http.MethodPost, "/api/habits", body); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("impossible date returned %d, want 422", rec.Code)
	}
}

func TestReminderRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	habit := createdHabit(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/reminders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list reminders returned %d: %s", rec.Code, rec.Body.String())
	}

	var reminders []models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &reminders); err != nil {
		t.Fatalf("failed to decode reminders: %v", err)
	}
	if len(reminders) != 1 || reminders[0].HabitID != habit.ID {
		t.Fatalf("expected the habit's upcoming reminder, got %d rows", len(reminders))
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/reminders/"+reminders[0].ID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete returned %d: %s", rec.Code, rec.Body.String())
	}

	var answered models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &answered); err != nil {
		t.Fatalf("failed to decode reminder: %v", err)
	}
	if answered.Status != models.ReminderStatusAnswered || answered.Value != models.ReminderValueCompleted {
		t.Errorf("got %s/%s, want answered/completed", answered.Status, answered.Value)
	}

	// Answering again conflicts.
	rec = doJSON(t, srv, http.MethodPut, "/api/reminders/"+reminders[0].ID+"/dismiss", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second answer returned %d, want 409", rec.Code)
	}
}

func TestSnoozeValidation(t *testing.T) {
	srv := newTestServer(t)
	habit := createdHabit(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/api/reminders", nil)
	var reminders []models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &reminders); err != nil {
		t.Fatalf("failed to decode reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected one reminder for habit %s, got %d", habit.ID, len(reminders))
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/reminders/"+reminders[0].ID+"/snooze",
		map[string]any{"minutes": 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero-minute snooze returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/reminders/"+reminders[0].ID+"/snooze",
		map[string]any{"minutes": 15})
	if rec.Code != http.StatusOK {
		t.Errorf("snooze returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteHabitCascade(t *testing.T) {
	srv := newTestServer(t)
	habit := createdHabit(t, srv)

	if rec := doJSON(t, srv, http.MethodDelete, "/api/habits/"+habit.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete habit returned %d", rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/reminders", nil)
	var reminders []models.Reminder
	if err := json.Unmarshal(rec.Body.Bytes(), &reminders); err != nil {
		t.Fatalf("failed to decode reminders: %v", err)
	}
	if len(reminders) != 0 {
		t.Errorf("%d reminders survived the habit delete", len(reminders))
	}

	if rec := doJSON(t, srv, http.MethodGet, "/api/habits/"+habit.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted habit returned %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz returned %d, want 200", rec.Code)
	}
}
