package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/grouptree"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/store"
	"github.com/taskdeck/taskdeck-api/internal/taskflow"
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// TaskHandler handles task requests
type TaskHandler struct {
	store    *store.FileStore
	pipeline *taskflow.Pipeline
	events   events.Publisher
	logger   *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(st *store.FileStore, pipeline *taskflow.Pipeline, ev events.Publisher, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: st, pipeline: pipeline, events: ev, logger: logger}
}

// RegisterRoutes registers task routes on the given router.
// The router should already have the /tasks prefix.
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("", h.UpdateTasks).Methods("PATCH")
	r.HandleFunc("/{id}", h.GetTask).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteTask).Methods("DELETE")
}

// CreateTaskRequest represents a create task request
type CreateTaskRequest struct {
	Name          string                `json:"name" validate:"required,min=1,max=500"`
	Description   string                `json:"description" validate:"max=5000"`
	DueDate       *string               `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	DueTime       *string               `json:"dueTime" validate:"omitempty,datetime=15:04"`
	Recurring     *models.RecurringRule `json:"recurring" validate:"omitempty,recurring_rule"`
	RecurringMode models.RecurringMode  `json:"recurringMode" validate:"omitempty,recurring_mode"`
	Estimation    *int                  `json:"estimation" validate:"omitempty,min=0"`
	Priority      models.Priority       `json:"priority" validate:"omitempty,oneof=low medium high"`
	Labels        []string              `json:"labels"`
	ProjectID     string                `json:"projectId"`
	// GroupID optionally files the new task under an existing task group.
	GroupID string `json:"groupId"`
}

// ListTasks lists tasks, optionally filtered by completion and project
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var completed *bool
	if c := r.URL.Query().Get("completed"); c != "" {
		v := c == "true" || c == "1"
		completed = &v
	}
	projectID := r.URL.Query().Get("projectId")

	var tasks []*models.Task
	err := h.store.View(func(f *models.DataFile) error {
		tasks = make([]*models.Task, 0, len(f.Tasks))
		for _, t := range f.Tasks {
			if completed != nil && t.Completed != *completed {
				continue
			}
			if projectID != "" && t.ProjectID != projectID {
				continue
			}
			tasks = append(tasks, t)
		}
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"total": len(tasks),
	})
}

// CreateTask creates a new task and optionally files it under a task group
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	now := time.Now()
	task := &models.Task{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Description:   validation.SanitizeText(req.Description),
		Completed:     false,
		DueDate:       req.DueDate,
		DueTime:       req.DueTime,
		Recurring:     req.Recurring,
		RecurringMode: req.RecurringMode,
		Estimation:    req.Estimation,
		Priority:      req.Priority,
		Labels:        req.Labels,
		ProjectID:     req.ProjectID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := h.store.Update(func(f *models.DataFile) error {
		if req.GroupID != "" {
			res, found := grouptree.Find(f, req.GroupID)
			if !found {
				return fmt.Errorf("%w: %s", grouptree.ErrParentNotFound, req.GroupID)
			}
			if res.Group.Type != models.GroupTypeTask {
				return fmt.Errorf("%w: tasks can only be filed under task groups, got %q", grouptree.ErrTypeMismatch, res.Group.Type)
			}
			res.Group.Items = append(res.Group.Items, models.NewLeafRef(task.ID))
		}
		f.Tasks = append(f.Tasks, task)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeTaskCreated, map[string]any{
		"task_id": task.ID,
	}))

	respondJSON(w, http.StatusCreated, task)
}

// UpdateTasksResponse reports the tasks actually updated
type UpdateTasksResponse struct {
	Updated []*models.Task `json:"updated"`
	Count   int            `json:"count"`
}

// UpdateTasks applies a batch of sparse task patches through the pipeline.
// The body may be a single patch object or an array. Patches referencing
// unknown ids are skipped; the count reflects tasks actually updated.
func (h *TaskHandler) UpdateTasks(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	patches, err := decodeSingleOrArray[taskflow.Patch](body)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	for _, p := range patches {
		if msg := validatePatch(p); msg != "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", msg)
			return
		}
	}

	var updated []*models.Task
	err = h.store.Update(func(f *models.DataFile) error {
		updated = h.pipeline.ApplyPatches(r.Context(), f, patches)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	ids := make([]string, 0, len(updated))
	for _, t := range updated {
		ids = append(ids, t.ID)
	}
	h.events.Publish(r.Context(), events.New(events.TypeTasksUpdated, map[string]any{
		"task_ids": ids,
		"count":    len(ids),
	}))

	respondJSON(w, http.StatusOK, UpdateTasksResponse{Updated: updated, Count: len(updated)})
}

// validatePatch checks the wire-level constraints of one task patch.
// Explicit nulls are always acceptable; only present values are validated.
func validatePatch(p taskflow.Patch) string {
	if p.ID == "" {
		return "Each update must carry an id"
	}
	if p.Name != nil && validation.SanitizeText(*p.Name) == "" {
		return "Name cannot be empty after sanitization"
	}
	if p.DueDate.Set && p.DueDate.Valid {
		if err := validation.ValidateDueDate(p.DueDate.Value); err != nil {
			return err.Error()
		}
	}
	if p.DueTime.Set && p.DueTime.Valid {
		if err := validation.ValidateDueTime(p.DueTime.Value); err != nil {
			return err.Error()
		}
	}
	if p.Recurring.Set && p.Recurring.Valid {
		if err := validation.ValidateRecurringRule(string(p.Recurring.Value)); err != nil {
			return err.Error()
		}
	}
	if p.RecurringMode != nil {
		if err := validation.ValidateRecurringMode(string(*p.RecurringMode)); err != nil {
			return err.Error()
		}
	}
	if p.Priority != nil {
		switch *p.Priority {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		default:
			return fmt.Sprintf("invalid priority: %s (must be 'low', 'medium', or 'high')", *p.Priority)
		}
	}
	if p.Estimation.Set && p.Estimation.Valid && p.Estimation.Value < 0 {
		return "estimation must not be negative"
	}
	return ""
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var task *models.Task
	err := h.store.View(func(f *models.DataFile) error {
		task = f.FindTask(id)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	if task == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// DeleteTask deletes a task and strips its leaf references from the task
// group forest
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	found := false
	err := h.store.Update(func(f *models.DataFile) error {
		for i, t := range f.Tasks {
			if t.ID == id {
				f.Tasks = append(f.Tasks[:i], f.Tasks[i+1:]...)
				found = true
				break
			}
		}
		if found {
			grouptree.RemoveLeafRef(f, grouptree.KindTask, id)
		}
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeTaskDeleted, map[string]any{
		"task_id": id,
	}))

	w.WriteHeader(http.StatusNoContent)
}
