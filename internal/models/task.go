package models

import "time"

// RecurringRule is the recurrence pattern of a task.
type RecurringRule string

const (
	RecurringDaily    RecurringRule = "daily"
	RecurringWeekdays RecurringRule = "weekdays"
	RecurringWeekly   RecurringRule = "weekly"
	RecurringBiweekly RecurringRule = "biweekly"
	RecurringMonthly  RecurringRule = "monthly"
	RecurringYearly   RecurringRule = "yearly"
)

// RecurringMode selects the base date for the next occurrence.
type RecurringMode string

const (
	// RecurringModeDueDate advances from the completed task's due date.
	RecurringModeDueDate RecurringMode = "dueDate"
	// RecurringModeCompletion advances from the completion date.
	RecurringModeCompletion RecurringMode = "completionDate"
)

// Layouts for the optional scheduling fields.
const (
	DueDateLayout = "2006-01-02"
	DueTimeLayout = "15:04"
)

// Priority values accepted for tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Comment is a note attached to a task. Comments are not carried into
// recurring follow-up instances.
type Comment struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Attachment is a file reference attached to a task. Attachments are not
// carried into recurring follow-up instances.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Task is a flat task entity. Groups reference tasks by id only.
// Optional scheduling fields are pointers: stored tasks hold either a value
// or nothing, never an explicit null.
type Task struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Completed     bool           `json:"completed"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
	DueDate       *string        `json:"dueDate,omitempty"`
	DueTime       *string        `json:"dueTime,omitempty"`
	Recurring     *RecurringRule `json:"recurring,omitempty"`
	RecurringMode RecurringMode  `json:"recurringMode,omitempty"`
	Estimation    *int           `json:"estimation,omitempty"`
	Priority      Priority       `json:"priority,omitempty"`
	Labels        []string       `json:"labels,omitempty"`
	ProjectID     string         `json:"projectId,omitempty"`
	Comments      []Comment      `json:"comments,omitempty"`
	Attachments   []Attachment   `json:"attachments,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// ValidRecurringRule reports whether r is a known recurrence pattern.
func ValidRecurringRule(r RecurringRule) bool {
	switch r {
	case RecurringDaily, RecurringWeekdays, RecurringWeekly, RecurringBiweekly, RecurringMonthly, RecurringYearly:
		return true
	default:
		return false
	}
}

// ValidRecurringMode reports whether m is a known recurrence mode.
func ValidRecurringMode(m RecurringMode) bool {
	switch m {
	case RecurringModeDueDate, RecurringModeCompletion:
		return true
	default:
		return false
	}
}
