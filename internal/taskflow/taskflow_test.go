package taskflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

type capturePublisher struct {
	published []events.Event
}

func (c *capturePublisher) Publish(_ context.Context, e events.Event) { c.published = append(c.published, e) }
func (c *capturePublisher) Close() error                              { return nil }

func fixedNow() time.Time {
	return time.Date(2026, time.May, 4, 10, 0, 0, 0, time.Local)
}

func newPipeline(next NextOccurrenceFunc, pub events.Publisher) *Pipeline {
	return &Pipeline{
		Next:   next,
		Events: pub,
		Logger: zap.NewNop(),
		Now:    fixedNow,
	}
}

func fileWithTask(task *models.Task) *models.DataFile {
	f := models.NewDataFile()
	f.Tasks = append(f.Tasks, task)
	return f
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestApplyPatchesCompletionTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		start         models.Task
		patch         Patch
		wantCompleted bool
		wantStamp     bool
	}{
		{
			name:          "false to true stamps completedAt",
			start:         models.Task{ID: "t1"},
			patch:         Patch{ID: "t1", Completed: boolPtr(true)},
			wantCompleted: true,
			wantStamp:     true,
		},
		{
			name: "true to false clears completedAt",
			start: func() models.Task {
				at := fixedNow().Add(-time.Hour)
				return models.Task{ID: "t1", Completed: true, CompletedAt: &at}
			}(),
			patch:         Patch{ID: "t1", Completed: boolPtr(false)},
			wantCompleted: false,
			wantStamp:     false,
		},
		{
			name: "true to true keeps the original stamp",
			start: func() models.Task {
				at := fixedNow().Add(-time.Hour)
				return models.Task{ID: "t1", Completed: true, CompletedAt: &at}
			}(),
			patch:         Patch{ID: "t1", Completed: boolPtr(true)},
			wantCompleted: true,
			wantStamp:     true,
		},
		{
			name:          "absent flag leaves completion alone",
			start:         models.Task{ID: "t1"},
			patch:         Patch{ID: "t1", Name: strPtr("renamed")},
			wantCompleted: false,
			wantStamp:     false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := tt.start
			f := fileWithTask(&task)
			p := newPipeline(nil, nil)

			updated := p.ApplyPatches(context.Background(), f, []Patch{tt.patch})
			if len(updated) != 1 {
				t.Fatalf("updated %d tasks, want 1", len(updated))
			}
			if task.Completed != tt.wantCompleted {
				t.Errorf("completed = %v, want %v", task.Completed, tt.wantCompleted)
			}
			if (task.CompletedAt != nil) != tt.wantStamp {
				t.Errorf("completedAt presence = %v, want %v", task.CompletedAt != nil, tt.wantStamp)
			}
			if !task.UpdatedAt.Equal(fixedNow()) {
				t.Errorf("updatedAt = %s, want pipeline clock", task.UpdatedAt)
			}
		})
	}
}

func TestApplyPatchesPreexistingStampSurvivesRepeatedComplete(t *testing.T) {
	t.Parallel()

	at := fixedNow().Add(-24 * time.Hour)
	task := models.Task{ID: "t1", Completed: true, CompletedAt: &at}
	f := fileWithTask(&task)
	p := newPipeline(nil, nil)

	p.ApplyPatches(context.Background(), f, []Patch{{ID: "t1", Completed: boolPtr(true)}})
	if task.CompletedAt == nil || !task.CompletedAt.Equal(at) {
		t.Errorf("completedAt rewritten on true->true transition")
	}
}

func TestApplyPatchesNullNormalization(t *testing.T) {
	t.Parallel()

	due := "2026-05-01"
	dueTime := "08:00"
	rule := models.RecurringWeekly
	est := 30
	task := models.Task{
		ID:         "t1",
		DueDate:    &due,
		DueTime:    &dueTime,
		Recurring:  &rule,
		Estimation: &est,
	}
	f := fileWithTask(&task)
	p := newPipeline(nil, nil)

	// explicit nulls on the wire clear the fields
	var patch Patch
	if err := json.Unmarshal([]byte(`{
		"id": "t1",
		"dueDate": null,
		"dueTime": null,
		"recurring": null,
		"estimation": null
	}`), &patch); err != nil {
		t.Fatalf("unmarshal patch: %v", err)
	}

	p.ApplyPatches(context.Background(), f, []Patch{patch})
	if task.DueDate != nil || task.DueTime != nil || task.Recurring != nil || task.Estimation != nil {
		t.Errorf("explicit nulls did not clear fields: %+v", task)
	}

	// absent fields leave values untouched
	task.DueDate = &due
	var sparse Patch
	if err := json.Unmarshal([]byte(`{"id": "t1", "name": "renamed"}`), &sparse); err != nil {
		t.Fatalf("unmarshal patch: %v", err)
	}
	p.ApplyPatches(context.Background(), f, []Patch{sparse})
	if task.DueDate == nil || *task.DueDate != due {
		t.Error("absent dueDate cleared the stored value")
	}
	if task.Name != "renamed" {
		t.Errorf("name = %q", task.Name)
	}
}

func TestApplyPatchesSkipsUnknownIDs(t *testing.T) {
	t.Parallel()

	task := models.Task{ID: "known"}
	f := fileWithTask(&task)
	p := newPipeline(nil, nil)

	updated := p.ApplyPatches(context.Background(), f, []Patch{
		{ID: "ghost", Name: strPtr("x")},
		{ID: "known", Name: strPtr("y")},
	})
	if len(updated) != 1 || updated[0].ID != "known" {
		t.Fatalf("updated = %+v, want only the known task", updated)
	}
}

func TestApplyPatchesSpawnsRecurringInstance(t *testing.T) {
	t.Parallel()

	rule := models.RecurringDaily
	task := models.Task{ID: "t1", Name: "water plants", Recurring: &rule}
	f := fileWithTask(&task)
	pub := &capturePublisher{}

	instance := &models.Task{ID: "t1-next", Name: "water plants"}
	var gotSnapshot *models.Task
	p := newPipeline(func(snapshot *models.Task, _ time.Time) (*models.Task, error) {
		gotSnapshot = snapshot
		return instance, nil
	}, pub)

	p.ApplyPatches(context.Background(), f, []Patch{{ID: "t1", Completed: boolPtr(true)}})

	if len(f.Tasks) != 2 || f.Tasks[1].ID != "t1-next" {
		t.Fatalf("instance not appended: %d tasks", len(f.Tasks))
	}
	if gotSnapshot == nil || !gotSnapshot.Completed || gotSnapshot.CompletedAt == nil {
		t.Error("snapshot passed to the rule must carry the completion stamp")
	}
	found := false
	for _, e := range pub.published {
		e := e
		if e.Type == events.TypeRecurringInstanceCreated {
			found = true
		}
	}
	if !found {
		t.Error("recurring_task_instance_created event not published")
	}
}

func TestApplyPatchesNoSpawnWithoutTransition(t *testing.T) {
	t.Parallel()

	rule := models.RecurringDaily

	tests := []struct {
		name  string
		start models.Task
		patch Patch
	}{
		{
			name:  "already completed",
			start: models.Task{ID: "t1", Completed: true, Recurring: &rule},
			patch: Patch{ID: "t1", Completed: boolPtr(true)},
		},
		{
			name:  "uncompleting",
			start: models.Task{ID: "t1", Completed: true, Recurring: &rule},
			patch: Patch{ID: "t1", Completed: boolPtr(false)},
		},
		{
			name:  "no recurrence rule",
			start: models.Task{ID: "t1"},
			patch: Patch{ID: "t1", Completed: boolPtr(true)},
		},
		{
			name:  "rule cleared in the same patch",
			start: models.Task{ID: "t1", Recurring: &rule},
			patch: func() Patch {
				var p Patch
				if err := json.Unmarshal([]byte(`{"id":"t1","completed":true,"recurring":null}`), &p); err != nil {
					panic(err)
				}
				return p
			}(),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := tt.start
			f := fileWithTask(&task)
			called := false
			p := newPipeline(func(*models.Task, time.Time) (*models.Task, error) {
				called = true
				return nil, nil
			}, nil)

			p.ApplyPatches(context.Background(), f, []Patch{tt.patch})
			if called {
				t.Error("recurrence rule invoked without a false->true transition on a recurring task")
			}
			if len(f.Tasks) != 1 {
				t.Errorf("task collection grew to %d", len(f.Tasks))
			}
		})
	}
}

func TestApplyPatchesBestEffortRecurrence(t *testing.T) {
	t.Parallel()

	rule := models.RecurringDaily

	tests := []struct {
		name string
		next NextOccurrenceFunc
	}{
		{
			name: "rule error is swallowed",
			next: func(*models.Task, time.Time) (*models.Task, error) {
				return nil, errors.New("calendar exploded")
			},
		},
		{
			name: "rule panic is recovered",
			next: func(*models.Task, time.Time) (*models.Task, error) {
				panic("boom")
			},
		},
		{
			name: "nil instance means no follow-up",
			next: func(*models.Task, time.Time) (*models.Task, error) {
				return nil, nil
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			task := models.Task{ID: "t1", Recurring: &rule}
			f := fileWithTask(&task)
			pub := &capturePublisher{}
			p := newPipeline(tt.next, pub)

			updated := p.ApplyPatches(context.Background(), f, []Patch{{ID: "t1", Completed: boolPtr(true)}})

			// the triggering completion always commits
			if len(updated) != 1 {
				t.Fatalf("updated %d tasks, want 1", len(updated))
			}
			if !task.Completed || task.CompletedAt == nil {
				t.Error("completion lost when recurrence failed")
			}
			if len(f.Tasks) != 1 {
				t.Errorf("task collection grew to %d", len(f.Tasks))
			}
		})
	}
}

func TestApplyPatchesPublishesErrorEvent(t *testing.T) {
	t.Parallel()

	rule := models.RecurringDaily
	task := models.Task{ID: "t1", Recurring: &rule}
	f := fileWithTask(&task)
	pub := &capturePublisher{}
	p := newPipeline(func(*models.Task, time.Time) (*models.Task, error) {
		return nil, errors.New("bad rule state")
	}, pub)

	p.ApplyPatches(context.Background(), f, []Patch{{ID: "t1", Completed: boolPtr(true)}})

	if len(pub.published) != 1 || pub.published[0].Type != events.TypeRecurringTaskError {
		t.Fatalf("published = %+v, want one recurring error event", pub.published)
	}
}

func TestMergeCopiesLabels(t *testing.T) {
	t.Parallel()

	labels := []string{"a", "b"}
	task := models.Task{ID: "t1"}
	merge(&task, Patch{ID: "t1", Labels: &labels})

	labels[0] = "mutated"
	if task.Labels[0] != "a" {
		t.Error("merged labels alias the patch slice")
	}
}
