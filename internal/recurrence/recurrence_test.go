package recurrence

import (
	"testing"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

func strPtr(s string) *string { return &s }

func rulePtr(r models.RecurringRule) *models.RecurringRule { return &r }

func TestAdvance(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 13, 0, 0, 0, 0, time.Local) // a Friday

	tests := []struct {
		name string
		rule models.RecurringRule
		want time.Time
	}{
		{"daily", models.RecurringDaily, base.AddDate(0, 0, 1)},
		{"weekdays skips the weekend", models.RecurringWeekdays, time.Date(2026, time.March, 16, 0, 0, 0, 0, time.Local)},
		{"weekly", models.RecurringWeekly, base.AddDate(0, 0, 7)},
		{"biweekly", models.RecurringBiweekly, base.AddDate(0, 0, 14)},
		{"monthly", models.RecurringMonthly, base.AddDate(0, 1, 0)},
		{"yearly", models.RecurringYearly, base.AddDate(1, 0, 0)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Advance(base, tt.rule)
			if !got.Equal(tt.want) {
				t.Errorf("Advance(%s) = %s, want %s", tt.rule, got.Format(models.DueDateLayout), tt.want.Format(models.DueDateLayout))
			}
		})
	}
}

func TestAdvanceWeekdaysMidweek(t *testing.T) {
	t.Parallel()

	// Tuesday advances to Wednesday, no skipping
	base := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.Local)
	got := Advance(base, models.RecurringWeekdays)
	if got.Weekday() != time.Wednesday {
		t.Errorf("expected Wednesday, got %s", got.Weekday())
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.April, 10, 15, 30, 0, 0, time.Local)
	completedAt := time.Date(2026, time.April, 8, 9, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		task    models.Task
		wantDue string
		wantNil bool
		wantErr bool
	}{
		{
			name:    "no rule yields nothing",
			task:    models.Task{ID: "t1", Name: "plain"},
			wantNil: true,
		},
		{
			name: "dueDate mode advances from due date",
			task: models.Task{
				ID:            "t2",
				Name:          "weekly report",
				Recurring:     rulePtr(models.RecurringWeekly),
				RecurringMode: models.RecurringModeDueDate,
				DueDate:       strPtr("2026-04-06"),
				CompletedAt:   &completedAt,
			},
			wantDue: "2026-04-13",
		},
		{
			name: "completionDate mode advances from completion date",
			task: models.Task{
				ID:            "t3",
				Name:          "watering",
				Recurring:     rulePtr(models.RecurringDaily),
				RecurringMode: models.RecurringModeCompletion,
				DueDate:       strPtr("2026-04-01"),
				CompletedAt:   &completedAt,
			},
			wantDue: "2026-04-09",
		},
		{
			name: "dueDate mode without a due date falls back to completion date",
			task: models.Task{
				ID:            "t4",
				Name:          "adhoc",
				Recurring:     rulePtr(models.RecurringMonthly),
				RecurringMode: models.RecurringModeDueDate,
				CompletedAt:   &completedAt,
			},
			wantDue: "2026-05-08",
		},
		{
			name: "empty mode defaults to dueDate",
			task: models.Task{
				ID:          "t5",
				Name:        "default mode",
				Recurring:   rulePtr(models.RecurringWeekly),
				DueDate:     strPtr("2026-04-06"),
				CompletedAt: &completedAt,
			},
			wantDue: "2026-04-13",
		},
		{
			name: "unknown rule errors",
			task: models.Task{
				ID:        "t6",
				Name:      "bad",
				Recurring: rulePtr(models.RecurringRule("fortnightly-ish")),
			},
			wantErr: true,
		},
		{
			name: "malformed due date errors",
			task: models.Task{
				ID:            "t7",
				Name:          "bad date",
				Recurring:     rulePtr(models.RecurringWeekly),
				RecurringMode: models.RecurringModeDueDate,
				DueDate:       strPtr("04/06/2026"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			inst, err := NextOccurrence(&tt.task, now)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NextOccurrence returned error: %v", err)
			}
			if tt.wantNil {
				if inst != nil {
					t.Fatalf("expected nil instance, got %+v", inst)
				}
				return
			}
			if inst == nil {
				t.Fatal("expected an instance, got nil")
			}
			if inst.DueDate == nil || *inst.DueDate != tt.wantDue {
				got := "<nil>"
				if inst.DueDate != nil {
					got = *inst.DueDate
				}
				t.Errorf("dueDate = %s, want %s", got, tt.wantDue)
			}
		})
	}
}

func TestNextOccurrenceInstanceShape(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.April, 10, 12, 0, 0, 0, time.Local)
	est := 45
	task := models.Task{
		ID:            "orig",
		Name:          "standup notes",
		Description:   "summarize the week",
		Completed:     true,
		CompletedAt:   &now,
		DueDate:       strPtr("2026-04-10"),
		DueTime:       strPtr("09:30"),
		Recurring:     rulePtr(models.RecurringWeekly),
		RecurringMode: models.RecurringModeDueDate,
		Estimation:    &est,
		Priority:      models.PriorityHigh,
		Labels:        []string{"l1", "l2"},
		ProjectID:     "p1",
		Comments:      []models.Comment{{ID: "c1", Text: "old"}},
		Attachments:   []models.Attachment{{ID: "a1", Name: "f.txt"}},
	}

	inst, err := NextOccurrence(&task, now)
	if err != nil {
		t.Fatalf("NextOccurrence returned error: %v", err)
	}
	if inst.ID == "" || inst.ID == task.ID {
		t.Errorf("instance id %q must be fresh", inst.ID)
	}
	if inst.Completed || inst.CompletedAt != nil {
		t.Error("instance must start uncompleted")
	}
	if len(inst.Comments) != 0 || len(inst.Attachments) != 0 {
		t.Error("comments and attachments must not carry over")
	}
	if inst.Name != task.Name || inst.Description != task.Description {
		t.Error("name and description must carry over")
	}
	if inst.DueTime == nil || *inst.DueTime != "09:30" {
		t.Error("due time must carry over")
	}
	if inst.Recurring == nil || *inst.Recurring != models.RecurringWeekly {
		t.Error("recurrence rule must carry over")
	}
	if inst.Estimation == nil || *inst.Estimation != 45 {
		t.Error("estimation must carry over")
	}
	if inst.ProjectID != "p1" || len(inst.Labels) != 2 {
		t.Error("project and labels must carry over")
	}

	// carried pointers are clones, not aliases
	*inst.DueTime = "10:00"
	if *task.DueTime != "09:30" {
		t.Error("instance due time aliases the snapshot")
	}
}
