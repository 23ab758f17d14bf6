package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/models"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

func newLabelTestServer(t *testing.T) (*mux.Router, *store.FileStore) {
	t.Helper()

	st := store.New(filepath.Join(t.TempDir(), "data.json"), zap.NewNop())
	err := st.Update(func(f *models.DataFile) error {
		f.Labels = []*models.Label{{ID: "l1", Name: "urgent", Color: "#ef4444"}}
		f.LabelGroups = []*models.Group{{
			ID:   "root-l",
			Type: models.GroupTypeLabel,
			Name: "Labels",
			Items: []models.GroupItem{
				models.NewLeafRef("l1"),
			},
		}}
		f.Tasks = []*models.Task{
			{ID: "t1", Name: "tagged", Labels: []string{"l1", "l2"}},
			{ID: "t2", Name: "untagged"},
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}

	h := NewLabelHandler(st, events.NopPublisher{}, zap.NewNop())
	router := mux.NewRouter()
	h.RegisterRoutes(router.PathPrefix("/api/v1/labels").Subrouter())
	return router, st
}

func TestListLabels(t *testing.T) {
	t.Parallel()

	router, _ := newLabelTestServer(t)
	w := doJSON(t, router, "GET", "/api/v1/labels", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	env := decodeEnvelope(t, w)
	var resp struct {
		Labels []*models.Label `json:"labels"`
		Total  int             `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if resp.Total != 1 || resp.Labels[0].Name != "urgent" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestCreateLabel(t *testing.T) {
	t.Parallel()

	t.Run("filed under a label group", func(t *testing.T) {
		t.Parallel()

		router, st := newLabelTestServer(t)
		w := doJSON(t, router, "POST", "/api/v1/labels", map[string]any{
			"name":    "blocked",
			"color":   "#f59e0b",
			"groupId": "root-l",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
		}

		env := decodeEnvelope(t, w)
		var created models.Label
		if err := json.Unmarshal(env.Data, &created); err != nil {
			t.Fatalf("decode created label: %v", err)
		}

		err := st.View(func(f *models.DataFile) error {
			if f.FindLabel(created.ID) == nil {
				t.Error("label not persisted")
			}
			items := f.LabelGroups[0].Items
			if items[len(items)-1].Ref != created.ID {
				t.Error("leaf reference not appended to label group")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("view: %v", err)
		}
	})

	t.Run("unknown group is 404", func(t *testing.T) {
		t.Parallel()

		router, _ := newLabelTestServer(t)
		w := doJSON(t, router, "POST", "/api/v1/labels", map[string]any{
			"name":    "orphan",
			"groupId": "ghost",
		})
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})
}

func TestDeleteLabel(t *testing.T) {
	t.Parallel()

	router, st := newLabelTestServer(t)
	w := doJSON(t, router, "DELETE", "/api/v1/labels/l1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	err := st.View(func(f *models.DataFile) error {
		if f.FindLabel("l1") != nil {
			t.Error("label still present")
		}
		if len(f.LabelGroups[0].Items) != 0 {
			t.Errorf("leaf reference still present: %+v", f.LabelGroups[0].Items)
		}
		tagged := f.FindTask("t1")
		if len(tagged.Labels) != 1 || tagged.Labels[0] != "l2" {
			t.Errorf("task labels = %v, want [l2]", tagged.Labels)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}
