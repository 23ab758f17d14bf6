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

// LabelHandler handles label requests
type LabelHandler struct {
	store  *store.FileStore
	events events.Publisher
	logger *zap.Logger
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(st *store.FileStore, ev events.Publisher, logger *zap.Logger) *LabelHandler {
	return &LabelHandler{store: st, events: ev, logger: logger}
}

// RegisterRoutes registers label routes on the given router.
func (h *LabelHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListLabels).Methods("GET")
	r.HandleFunc("", h.CreateLabel).Methods("POST")
	r.HandleFunc("/{id}", h.DeleteLabel).Methods("DELETE")
}

// CreateLabelRequest represents a create label request
type CreateLabelRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color" validate:"max=50"`
	// GroupID optionally files the new label under an existing label group.
	GroupID string `json:"groupId"`
}

// ListLabels lists all labels
func (h *LabelHandler) ListLabels(w http.ResponseWriter, r *http.Request) {
	var labels []*models.Label
	err := h.store.View(func(f *models.DataFile) error {
		labels = f.Labels
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"labels": labels,
		"total":  len(labels),
	})
}

// CreateLabel creates a new label
func (h *LabelHandler) CreateLabel(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req CreateLabelRequest
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
	label := &models.Label{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Color:     color,
		CreatedAt: time.Now(),
	}

	err := h.store.Update(func(f *models.DataFile) error {
		if req.GroupID != "" {
			res, found := grouptree.Find(f, req.GroupID)
			if !found {
				return fmt.Errorf("%w: %s", grouptree.ErrParentNotFound, req.GroupID)
			}
			if res.Group.Type != models.GroupTypeLabel {
				return fmt.Errorf("%w: labels can only be filed under label groups, got %q", grouptree.ErrTypeMismatch, res.Group.Type)
			}
			res.Group.Items = append(res.Group.Items, models.NewLeafRef(label.ID))
		}
		f.Labels = append(f.Labels, label)
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeLabelCreated, map[string]any{
		"label_id": label.ID,
	}))

	respondJSON(w, http.StatusCreated, label)
}

// DeleteLabel deletes a label, strips its leaf references from the label
// group forest and removes it from tasks
func (h *LabelHandler) DeleteLabel(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	found := false
	err := h.store.Update(func(f *models.DataFile) error {
		for i, l := range f.Labels {
			if l.ID == id {
				f.Labels = append(f.Labels[:i], f.Labels[i+1:]...)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
		grouptree.RemoveLeafRef(f, grouptree.KindLabel, id)
		for _, t := range f.Tasks {
			kept := t.Labels[:0]
			for _, l := range t.Labels {
				if l != id {
					kept = append(kept, l)
				}
			}
			t.Labels = kept
		}
		return nil
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}
	if !found {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Label not found")
		return
	}

	h.events.Publish(r.Context(), events.New(events.TypeLabelDeleted, map[string]any{
		"label_id": id,
	}))

	w.WriteHeader(http.StatusNoContent)
}
