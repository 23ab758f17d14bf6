// Package taskflow applies batch task patches: sparse merging,
// null-normalization of optional scheduling fields, the completedAt
// transition, and best-effort recurring-instance generation.
package taskflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taskdeck/taskdeck-api/internal/events"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// Patch is one sparse task update. Pointer fields follow the usual
// present-or-absent convention; Optional fields additionally accept an
// explicit JSON null meaning "clear this field".
type Patch struct {
	ID            string                                `json:"id" validate:"required"`
	Name          *string                               `json:"name,omitempty"`
	Description   *string                               `json:"description,omitempty"`
	Completed     *bool                                 `json:"completed,omitempty"`
	Priority      *models.Priority                      `json:"priority,omitempty"`
	Labels        *[]string                             `json:"labels,omitempty"`
	ProjectID     *string                               `json:"projectId,omitempty"`
	DueDate       models.Optional[string]               `json:"dueDate"`
	DueTime       models.Optional[string]               `json:"dueTime"`
	Recurring     models.Optional[models.RecurringRule] `json:"recurring"`
	RecurringMode *models.RecurringMode                 `json:"recurringMode,omitempty"`
	Estimation    models.Optional[int]                  `json:"estimation"`
}

// NextOccurrenceFunc computes the follow-up instance for a completed task
// snapshot, or (nil, nil) when the rule produces none. It may fail or panic;
// the pipeline treats both as best-effort.
type NextOccurrenceFunc func(snapshot *models.Task, now time.Time) (*models.Task, error)

// Pipeline merges task patches into the data file's task collection.
type Pipeline struct {
	Next   NextOccurrenceFunc
	Events events.Publisher
	Logger *zap.Logger
	// Now overrides the clock in tests; nil means time.Now.
	Now func() time.Time
}

func (p *Pipeline) clock() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) publish(ctx context.Context, eventType string, payload map[string]any) {
	if p.Events == nil {
		return
	}
	p.Events.Publish(ctx, events.New(eventType, payload))
}

// ApplyPatches merges the patches into the task collection in input order.
// Patches referencing unknown task ids are skipped; the returned slice holds
// only the tasks actually updated. Recurring-instance generation runs after
// a task's own merge and can never fail the batch.
func (p *Pipeline) ApplyPatches(ctx context.Context, f *models.DataFile, patches []Patch) []*models.Task {
	updated := make([]*models.Task, 0, len(patches))
	for _, patch := range patches {
		task := f.FindTask(patch.ID)
		if task == nil {
			continue
		}

		now := p.clock()
		wasCompleted := task.Completed
		merge(task, patch)

		// completedAt follows the completed flag: false->true stamps it,
		// true->false clears it, an absent flag leaves it alone. This runs
		// before recurrence so the completed snapshot carries the timestamp.
		if patch.Completed != nil {
			switch {
			case !wasCompleted && *patch.Completed:
				t := now
				task.CompletedAt = &t
			case wasCompleted && !*patch.Completed:
				task.CompletedAt = nil
			}
		}
		task.UpdatedAt = now

		if patch.Completed != nil && *patch.Completed && !wasCompleted && task.Recurring != nil {
			p.spawnNextInstance(ctx, f, task, now)
		}

		updated = append(updated, task)
	}
	return updated
}

// merge overwrites only the fields present in the patch. Optional fields set
// to explicit null become the internal absent representation, so stored
// tasks never hold a null.
func merge(task *models.Task, patch Patch) {
	if patch.Name != nil {
		task.Name = *patch.Name
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Labels != nil {
		task.Labels = append([]string(nil), (*patch.Labels)...)
	}
	if patch.ProjectID != nil {
		task.ProjectID = *patch.ProjectID
	}
	if patch.DueDate.Set {
		task.DueDate = patch.DueDate.Ptr()
	}
	if patch.DueTime.Set {
		task.DueTime = patch.DueTime.Ptr()
	}
	if patch.Recurring.Set {
		task.Recurring = patch.Recurring.Ptr()
	}
	if patch.RecurringMode != nil {
		task.RecurringMode = *patch.RecurringMode
	}
	if patch.Estimation.Set {
		task.Estimation = patch.Estimation.Ptr()
	}
}

// spawnNextInstance asks the recurrence collaborator for a follow-up
// instance and appends it to the task collection. Errors and panics are
// logged and published, never propagated: the triggering task's completion
// must commit regardless.
func (p *Pipeline) spawnNextInstance(ctx context.Context, f *models.DataFile, task *models.Task, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("recurring_task_processing_panic",
				zap.String("task_id", task.ID),
				zap.Any("error", r),
			)
			p.publish(ctx, events.TypeRecurringTaskError, map[string]any{
				"task_id": task.ID,
				"error":   fmt.Sprint(r),
			})
		}
	}()

	if p.Next == nil {
		return
	}

	snapshot := *task
	instance, err := p.Next(&snapshot, now)
	if err != nil {
		p.Logger.Warn("recurring_task_processing_error",
			zap.String("task_id", task.ID),
			zap.Error(err),
		)
		p.publish(ctx, events.TypeRecurringTaskError, map[string]any{
			"task_id": task.ID,
			"error":   err.Error(),
		})
		return
	}
	if instance == nil {
		// rule decided no follow-up is due
		return
	}

	f.Tasks = append(f.Tasks, instance)
	p.Logger.Info("recurring_task_instance_created",
		zap.String("task_id", task.ID),
		zap.String("instance_id", instance.ID),
	)
	p.publish(ctx, events.TypeRecurringInstanceCreated, map[string]any{
		"task_id":     task.ID,
		"instance_id": instance.ID,
	})
}
