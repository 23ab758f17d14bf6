package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/grouptree"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/store"
	"github.com/taskdeck/taskdeck-api/internal/validation"
)

// GroupHandler handles group-tree requests
type GroupHandler struct {
	store  *store.FileStore
	events events.Publisher
	logger *zap.Logger
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(st *store.FileStore, ev events.Publisher, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{store: st, events: ev, logger: logger}
}

// RegisterRoutes registers group routes on the given router.
// The router should already have the /groups prefix.
func (h *GroupHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListGroups).Methods("GET")
	r.HandleFunc("", h.CreateGroup).Methods("POST")
	r.HandleFunc("", h.UpdateGroups).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteGroup).Methods("DELETE")
}

// CreateGroupRequest represents a create group request
type CreateGroupRequest struct {
	ParentID    string           `json:"parentId" validate:"required"`
	Type        models.GroupType `json:"type" validate:"required,group_type"`
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description string           `json:"description" validate:"max=2000"`
	Color       string           `json:"color" validate:"max=50"`
}

// ListGroupsResponse carries all three forests
type ListGroupsResponse struct {
	TaskGroups    []*models.Group `json:"taskGroups"`
	ProjectGroups []*models.Group `json:"projectGroups"`
	LabelGroups   []*models.Group `json:"labelGroups"`
}

// ListGroups returns all three forests
func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	var resp ListGroupsResponse
	err := h.store.View(func(f *models.DataFile) error {
		resp = ListGroupsResponse{
			TaskGroups:    f.TaskGroups,
			ProjectGroups: f.ProjectGroups,
			LabelGroups:   f.LabelGroups,
		}
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateGroup creates a new group under an existing parent of the same type
func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
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
	req.Description = validation.SanitizeText(req.Description)

	var created *models.Group
	err := h.store.Update(func(f *models.DataFile) error {
		g, err := grouptree.Insert(f, req.ParentID, grouptree.NewGroup{
			Type:        req.Type,
			Name:        req.Name,
			Description: req.Description,
			Color:       req.Color,
		})
		if err != nil {
			return err
		}
		created = g
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeGroupCreated, map[string]any{
		"group_id":  created.ID,
		"type":      string(created.Type),
		"parent_id": req.ParentID,
	}))

	respondJSON(w, http.StatusCreated, created)
}

// UpdateGroupsResponse reports which groups were actually touched
type UpdateGroupsResponse struct {
	Updated []*models.Group `json:"updated"`
	Count   int             `json:"count"`
}

// UpdateGroups applies sparse patches to groups. The body may be a single
// patch object or an array; patches referencing unknown ids are skipped and
// the operation still succeeds with a reduced count.
func (h *GroupHandler) UpdateGroups(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	patches, err := decodeSingleOrArray[grouptree.Patch](body)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	for _, p := range patches {
		if p.ID == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Each update must carry an id")
			return
		}
		if p.Name != nil && validation.SanitizeText(*p.Name) == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
	}

	var updated []*models.Group
	err = h.store.Update(func(f *models.DataFile) error {
		updated = grouptree.Update(f, patches)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	ids := make([]string, 0, len(updated))
	for _, g := range updated {
		ids = append(ids, g.ID)
	}
	h.events.Publish(r.Context(), events.New(events.TypeGroupsUpdated, map[string]any{
		"group_ids": ids,
		"count":     len(ids),
	}))

	respondJSON(w, http.StatusOK, UpdateGroupsResponse{Updated: updated, Count: len(updated)})
}

// DeleteGroupResponse reports how many groups were removed (0 or 1)
type DeleteGroupResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteGroup removes a group and its whole subtree. An unknown id is not an
// error; the response reports zero deletions.
func (h *GroupHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	removed := false
	err := h.store.Update(func(f *models.DataFile) error {
		removed = grouptree.Delete(f, id)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	deleted := 0
	if removed {
		deleted = 1
		h.events.Publish(r.Context(), events.New(events.TypeGroupDeleted, map[string]any{
			"group_id": id,
		}))
	}

	respondJSON(w, http.StatusOK, DeleteGroupResponse{Deleted: deleted})
}
