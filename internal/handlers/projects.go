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
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// ProjectHandler handles project requests
type ProjectHandler struct {
	store  *store.FileStore
	events events.Publisher
	logger *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(st *store.FileStore, ev events.Publisher, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: st, events: ev, logger: logger}
}

// RegisterRoutes registers project routes on the given router.
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListProjects).Methods("GET")
	r.HandleFunc("", h.CreateProject).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteProject).Methods("DELETE")
}

// CreateProjectRequest represents a create project request
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Color       string `json:"color" validate:"max=50"`
	// GroupID optionally files the new project under an existing project group.
	GroupID string `json:"groupId"`
}

// ListProjects lists all projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	var projects []*models.Project
	err := h.store.View(func(f *models.DataFile) error {
		projects = f.Projects
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"total":    len(projects),
	})
}

// CreateProject creates a new project
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req CreateProjectRequest
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

	color := req.Color
	if color == "" {
		color = models.DefaultPalette[0]
	}
	project := &models.Project{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: validation.SanitizeText(req.Description),
		Color:       color,
		CreatedAt:   time.Now(),
	}

	err := h.store.Update(func(f *models.DataFile) error {
		if req.GroupID != "" {
			res, found := grouptree.Find(f, req.GroupID)
			if !found {
				return fmt.Errorf("%w: %s", grouptree.ErrParentNotFound, req.GroupID)
			}
			if res.Group.Type != models.GroupTypeProject {
				return fmt.Errorf("%w: projects can only be filed under project groups, got %q", grouptree.ErrTypeMismatch, res.Group.Type)
			}
			res.Group.Items = append(res.Group.Items, models.NewLeafRef(project.ID))
		}
		f.Projects = append(f.Projects, project)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeProjectCreated, map[string]any{
		"project_id": project.ID,
	}))

	respondJSON(w, http.StatusCreated, project)
}

// DeleteProject deletes a project, strips its leaf references from the
// project group forest and detaches it from tasks
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	found := false
	err := h.store.Update(func(f *models.DataFile) error {
		for i, p := range f.Projects {
			if p.ID == id {
				f.Projects = append(f.Projects[:i], f.Projects[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		grouptree.RemoveLeafRef(f, grouptree.KindProject, id)
		for _, t := range f.Tasks {
			if t.ProjectID == id {
				t.ProjectID = ""
			}
		}
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Project not found")
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeProjectDeleted, map[string]any{
		"project_id": id,
	}))

	w.WriteHeader(http.StatusNoContent)
}
