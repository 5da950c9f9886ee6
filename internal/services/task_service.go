package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jioearn/backend/internal/middleware"
	"github.com/jioearn/backend/internal/models"
)

// TaskService exposes the task catalogue and completion flow over HTTP.
// Task creation and deletion are admin-only; a task's reward is immutable
// once published.
type TaskService struct {
	db        *sql.DB
	ledger    *LedgerService
	events    *EventBus
	validator *ValidationHelper
}

func NewTaskService(db *sql.DB, ledger *LedgerService, events *EventBus) *TaskService {
	return &TaskService{
		db:        db,
		ledger:    ledger,
		events:    events,
		validator: NewValidationHelper(),
	}
}

// List returns the task catalogue
// @Summary List tasks
// @Description All published tasks, newest first
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Task
// @Router /tasks [get]
func (s *TaskService) List(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.QueryContext(r.Context(),
		`SELECT id, title, reward, created_at FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		log.Printf("[TASK] Failed to list tasks: %v", err)
		SendErrorResponse(w, "Failed to list tasks", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Reward, &task.CreatedAt); err != nil {
			log.Printf("[TASK] Failed to scan task row: %v", err)
			SendErrorResponse(w, "Failed to list tasks", http.StatusInternalServerError, nil)
			return
		}
		tasks = append(tasks, task)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tasks)
}

// Complete credits the task reward to the caller
// @Summary Complete a task
// @Description Credit the task's reward once per member
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task ID"
// @Success 200 {object} object{newBalance=int64}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /tasks/{taskId}/complete [post]
func (s *TaskService) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	taskID := chi.URLParam(r, "taskId")

	newBalance, err := s.ledger.CompleteTask(r.Context(), userID, taskID)
	if err != nil {
		SendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"newBalance": newBalance,
	})
}

// Create publishes a new task
// @Summary Create task
// @Description Admin publishes a task with a fixed reward
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,reward=int64} true "Task definition"
// @Success 201 {object} models.Task
// @Failure 403 {object} ErrorResponse
// @Router /tasks [post]
func (s *TaskService) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	if err := s.ledger.AuthorizeAdmin(r.Context(), actorID); err != nil {
		SendServiceError(w, err)
		return
	}

	var req struct {
		Title  string `json:"title" validate:"required,min=3"`
		Reward int64  `json:"reward" validate:"required,gt=0"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	task := models.Task{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Reward:    req.Reward,
		CreatedAt: time.Now(),
	}

	if _, err := s.db.ExecContext(r.Context(),
		`INSERT INTO tasks (id, title, reward, created_at) VALUES ($1, $2, $3, $4)`,
		task.ID, task.Title, task.Reward, task.CreatedAt); err != nil {
		log.Printf("[TASK] Failed to create task: %v", err)
		SendErrorResponse(w, "Failed to create task", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[TASK] Task %s created with reward %d", task.ID, task.Reward)
	s.events.PublishRequestsChanged(r.Context(), FeedTasks)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

// Delete removes a task from the catalogue
// @Summary Delete task
// @Description Admin unpublishes a task; past completions keep their credit
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param taskId path string true "Task ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tasks/{taskId} [delete]
func (s *TaskService) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.UserID(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	if err := s.ledger.AuthorizeAdmin(r.Context(), actorID); err != nil {
		SendServiceError(w, err)
		return
	}

	taskID := chi.URLParam(r, "taskId")

	res, err := s.db.ExecContext(r.Context(), `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		log.Printf("[TASK] Failed to delete task %s: %v", taskID, err)
		SendErrorResponse(w, "Failed to delete task", http.StatusInternalServerError, nil)
		return
	}
	affected, err := res.RowsAffected()
	if err != nil {
		SendErrorResponse(w, "Failed to delete task", http.StatusInternalServerError, nil)
		return
	}
	if affected == 0 {
		SendServiceError(w, ErrTaskNotFound)
		return
	}

	log.Printf("[TASK] Task %s deleted", taskID)
	s.events.PublishRequestsChanged(r.Context(), FeedTasks)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Task deleted"})
}
