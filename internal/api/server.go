package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/habitloop/internal/models"
	"github.com/habitloop/habitloop/internal/schedule"
	"github.com/habitloop/habitloop/internal/service"
)

// Server provides the HTTP API over the reminder engine.
type Server struct {
	svc      *service.Service
	logger   *logrus.Logger
	validate *validator.Validate
	mux      *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
func NewServer(svc *service.Service, logger *logrus.Logger) *Server {
	s := &Server{
		svc:      svc,
		logger:   logger,
		validate: validator.New(),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Habits
	s.mux.HandleFunc("POST /api/habits", s.handleCreateHabit)
	s.mux.HandleFunc("GET /api/habits", s.handleListHabits)
	s.mux.HandleFunc("GET /api/habits/{id}", s.handleGetHabit)
	s.mux.HandleFunc("PUT /api/habits/{id}", s.handleUpdateHabit)
	s.mux.HandleFunc("PUT /api/habits/{id}/state", s.handleSetHabitState)
	s.mux.HandleFunc("DELETE /api/habits/{id}", s.handleDeleteHabit)

	// API – Reminders
	s.mux.HandleFunc("GET /api/reminders", s.handleListReminders)
	s.mux.HandleFunc("PUT /api/reminders/{id}/complete", s.handleCompleteReminder)
	s.mux.HandleFunc("PUT /api/reminders/{id}/dismiss", s.handleDismissReminder)
	s.mux.HandleFunc("PUT /api/reminders/{id}/snooze", s.handleSnoozeReminder)
	s.mux.HandleFunc("DELETE /api/reminders/{id}", s.handleDeleteReminder)

	// Operational
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps engine errors onto HTTP statuses.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSchedule):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, schedule.ErrExhausted):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.WithError(err).Error("request failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON reads the request body into dst and validates it. The caller
// should return immediately when ok == false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil {
		s.respondError(w, http.StatusBadRequest, "request body is empty")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// requireUserID reads the calling user's id from the X-User-ID header. The
// authentication layer in front of this API is expected to set it.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		s.respondError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return "", false
	}
	return userID, true
}

// ---------------------------------------------------------------------------
// Habits
// ---------------------------------------------------------------------------

type timeSlotRequest struct {
	Hour   int `json:"hour" validate:"min=0,max=23"`
	Minute int `json:"minute" validate:"min=0,max=59"`
}

type frequencyRequest struct {
	Kind      string `json:"kind" validate:"required"`
	Weekdays  []int  `json:"weekdays,omitempty" validate:"dive,min=0,max=6"`
	MonthDays []int  `json:"month_days,omitempty" validate:"dive,min=1,max=31"`
	Weekday   int    `json:"weekday,omitempty" validate:"min=0,max=6"`
	Ordinal   int    `json:"ordinal,omitempty" validate:"min=0,max=5"`
	Month     int    `json:"month,omitempty" validate:"min=0,max=12"`
	Day       int    `json:"day,omitempty" validate:"min=0,max=31"`
	Date      string `json:"date,omitempty"` // 2006-01-02
}

func (f frequencyRequest) toModel() (models.Frequency, error) {
	freq := models.Frequency{
		Kind:      models.FrequencyKind(f.Kind),
		MonthDays: f.MonthDays,
		Weekday:   time.Weekday(f.Weekday),
		Ordinal:   f.Ordinal,
		Month:     time.Month(f.Month),
		Day:       f.Day,
	}
	for _, d := range f.Weekdays {
		freq.Weekdays = append(freq.Weekdays, time.Weekday(d))
	}
	if f.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", f.Date, time.Local)
		if err != nil {
			return models.Frequency{}, fmt.Errorf("date must be in YYYY-MM-DD format")
		}
		freq.Date = date
	}
	return freq, nil
}

type habitRequest struct {
	Question  string            `json:"question" validate:"required"`
	Details   string            `json:"details"`
	Icon      string            `json:"icon"`
	Frequency frequencyRequest  `json:"frequency" validate:"required"`
	Slots     []timeSlotRequest `json:"slots" validate:"required,min=1,max=5,dive"`
}

func (req habitRequest) toModel(userID string) (*models.Habit, error) {
	frequency, err := req.Frequency.toModel()
	if err != nil {
		return nil, err
	}

	habit := &models.Habit{
		UserID:    userID,
		Question:  req.Question,
		Details:   req.Details,
		Icon:      req.Icon,
		Frequency: frequency,
	}
	for _, slot := range req.Slots {
		habit.Slots = append(habit.Slots, models.TimeSlot{Hour: slot.Hour, Minute: slot.Minute})
	}
	return habit, nil
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req habitRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	habit, err := req.toModel(userID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.svc.CreateHabit(r.Context(), habit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	habits, err := s.svc.ListHabits(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if habits == nil {
		habits = []*models.Habit{}
	}

	s.respondJSON(w, http.StatusOK, habits)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	habit, err := s.svc.GetHabit(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, habit)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req habitRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	habit, err := req.toModel(userID)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	habit.ID = r.PathValue("id")

	updated, err := s.svc.UpdateHabit(r.Context(), habit)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

type setStateRequest struct {
	State string `json:"state" validate:"required,oneof=running paused archived"`
}

func (s *Server) handleSetHabitState(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req setStateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.svc.SetHabitState(r.Context(), r.PathValue("id"), userID, models.HabitState(req.State))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteHabit(r.Context(), r.PathValue("id"), userID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}

// ---------------------------------------------------------------------------
// Reminders
// ---------------------------------------------------------------------------

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	reminders, err := s.svc.ListReminders(r.Context(), userID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	if reminders == nil {
		reminders = []*models.Reminder{}
	}

	s.respondJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := s.svc.CompleteReminder(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDismissReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	updated, err := s.svc.DismissReminder(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

type snoozeRequest struct {
	Minutes int `json:"minutes" validate:"required,min=1"`
}

func (s *Server) handleSnoozeReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	var req snoozeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.svc.SnoozeReminder(r.Context(), r.PathValue("id"), userID, req.Minutes)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	if err := s.svc.DeleteReminder(r.Context(), r.PathValue("id"), userID); err != nil {
		s.respondServiceError(w, err)
		return
	}

	s.respondJSON(w, http.StatusNoContent, nil)
}
