package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/taskdeck/taskdeck-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but panic loudly if they do
	if err := Validate.RegisterValidation("group_type", validateGroupType); err != nil {
		panic(fmt.Sprintf("failed to register group_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("recurring_rule", validateRecurringRule); err != nil {
		panic(fmt.Sprintf("failed to register recurring_rule validator: %v", err))
	}
	if err := Validate.RegisterValidation("recurring_mode", validateRecurringMode); err != nil {
		panic(fmt.Sprintf("failed to register recurring_mode validator: %v", err))
	}
}

func validateGroupType(fl validator.FieldLevel) bool {
	return models.ValidGroupType(models.GroupType(fl.Field().String()))
}

func validateRecurringRule(fl validator.FieldLevel) bool {
	return models.ValidRecurringRule(models.RecurringRule(fl.Field().String()))
}

func validateRecurringMode(fl validator.FieldLevel) bool {
	return models.ValidRecurringMode(models.RecurringMode(fl.Field().String()))
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateGroupType validates a GroupType string value
func ValidateGroupType(value string) error {
	if !models.ValidGroupType(models.GroupType(value)) {
		return fmt.Errorf("invalid type: %s (must be 'task', 'project', or 'label')", value)
	}
	return nil
}

// ValidateRecurringRule validates a RecurringRule string value
func ValidateRecurringRule(value string) error {
	if !models.ValidRecurringRule(models.RecurringRule(value)) {
		return fmt.Errorf("invalid recurring rule: %s (must be 'daily', 'weekdays', 'weekly', 'biweekly', 'monthly', or 'yearly')", value)
	}
	return nil
}

// ValidateRecurringMode validates a RecurringMode string value
func ValidateRecurringMode(value string) error {
	if !models.ValidRecurringMode(models.RecurringMode(value)) {
		return fmt.Errorf("invalid recurring mode: %s (must be 'dueDate' or 'completionDate')", value)
	}
	return nil
}

// ValidateDueDate validates a due date string (YYYY-MM-DD)
func ValidateDueDate(value string) error {
	if _, err := time.Parse(models.DueDateLayout, value); err != nil {
		return fmt.Errorf("invalid dueDate: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}

// ValidateDueTime validates a due time string (HH:MM, 24h)
func ValidateDueTime(value string) error {
	if _, err := time.Parse(models.DueTimeLayout, value); err != nil {
		return fmt.Errorf("invalid dueTime: %s (must be HH:MM)", value)
	}
	return nil
}
