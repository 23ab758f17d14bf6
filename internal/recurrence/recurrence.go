// Package recurrence computes the follow-up instance for completed recurring
// tasks. It is a pure calendar-arithmetic collaborator: it never touches the
// data file and callers treat its failures as best-effort.
package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/taskdeck/taskdeck-api/internal/models"
)

// NextOccurrence computes the next instance of a task that was just
// completed. The snapshot must already carry completed=true and a
// completedAt timestamp. A task without a recurrence rule yields (nil, nil):
// no follow-up, no error.
//
// The base date depends on the task's recurring mode: dueDate mode advances
// from the due date (falling back to the completion date when the task never
// had one), completionDate mode advances from the completion date.
func NextOccurrence(snapshot *models.Task, now time.Time) (*models.Task, error) {
	if snapshot.Recurring == nil {
		return nil, nil
	}
	rule := *snapshot.Recurring
	if !models.ValidRecurringRule(rule) {
		return nil, fmt.Errorf("unknown recurrence rule %q", rule)
	}

	base, err := baseDate(snapshot, now)
	if err != nil {
		return nil, err
	}
	next := Advance(base, rule)

	due := next.Format(models.DueDateLayout)
	inst := &models.Task{
		ID:            uuid.NewString(),
		Name:          snapshot.Name,
		Description:   snapshot.Description,
		Completed:     false,
		DueDate:       &due,
		DueTime:       cloneString(snapshot.DueTime),
		Recurring:     cloneRule(snapshot.Recurring),
		RecurringMode: snapshot.RecurringMode,
		Estimation:    cloneInt(snapshot.Estimation),
		Priority:      snapshot.Priority,
		Labels:        append([]string(nil), snapshot.Labels...),
		ProjectID:     snapshot.ProjectID,
		// completion state, comments and attachments start fresh
		CreatedAt: now,
		UpdatedAt: now,
	}
	return inst, nil
}

func baseDate(snapshot *models.Task, now time.Time) (time.Time, error) {
	mode := snapshot.RecurringMode
	if mode == "" {
		mode = models.RecurringModeDueDate
	}
	if !models.ValidRecurringMode(mode) {
		return time.Time{}, fmt.Errorf("unknown recurrence mode %q", mode)
	}

	completed := now
	if snapshot.CompletedAt != nil {
		completed = *snapshot.CompletedAt
	}

	if mode == models.RecurringModeDueDate && snapshot.DueDate != nil {
		due, err := time.ParseInLocation(models.DueDateLayout, *snapshot.DueDate, time.Local)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse due date %q: %w", *snapshot.DueDate, err)
		}
		return due, nil
	}
	return time.Date(completed.Year(), completed.Month(), completed.Day(), 0, 0, 0, 0, time.Local), nil
}

// Advance moves a base date forward by one occurrence of the rule. Unknown
// rules must be rejected by the caller; Advance treats them as daily.
func Advance(base time.Time, rule models.RecurringRule) time.Time {
	switch rule {
	case models.RecurringWeekdays:
		next := base.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next
	case models.RecurringWeekly:
		return base.AddDate(0, 0, 7)
	case models.RecurringBiweekly:
		return base.AddDate(0, 0, 14)
	case models.RecurringMonthly:
		return base.AddDate(0, 1, 0)
	case models.RecurringYearly:
		return base.AddDate(1, 0, 0)
	default:
		return base.AddDate(0, 0, 1)
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneRule(r *models.RecurringRule) *models.RecurringRule {
	if r == nil {
		return nil
	}
	v := *r
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
