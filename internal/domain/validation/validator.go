// Package validation checks task payloads before they reach the store.
package validation

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/taskmaster/tracker/internal/domain/entities"
)

// Field names as they appear on the wire.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStatus      = "status"
	FieldDueDate     = "dueDate"
)

const (
	msgTitle       = "title is required (non-empty string)"
	msgDescription = "description must be a string"
	msgDueDate     = "dueDate must be a valid date string"
)

func statusMessage() string {
	names := make([]string, 0, 3)
	for _, s := range entities.TaskStatuses() {
		names = append(names, string(s))
	}
	return fmt.Sprintf("status must be one of %s", strings.Join(names, ", "))
}

// Validate returns every rule the fields violate. In partial mode an absent
// title is accepted; in full mode it is required. An empty result means the
// payload is acceptable.
func Validate(fields entities.Fields, partial bool) []string {
	problems := []string{}

	if !partial || fields.Has(FieldTitle) {
		if s, ok := fields[FieldTitle].(string); !ok || strings.TrimSpace(s) == "" {
			problems = append(problems, msgTitle)
		}
	}

	if v, ok := fields[FieldDescription]; ok {
		if _, isString := v.(string); !isString {
			problems = append(problems, msgDescription)
		}
	}

	if v, ok := fields[FieldStatus]; ok {
		s, isString := v.(string)
		if !isString || !entities.TaskStatus(s).IsValid() {
			problems = append(problems, statusMessage())
		}
	}

	if v, ok := fields[FieldDueDate]; ok && v != nil {
		if s, isString := v.(string); !isString || !IsDate(s) {
			problems = append(problems, msgDueDate)
		}
	}

	return problems
}

// IsDate reports whether s parses as a calendar date. Parsing is lenient and
// accepts most common date and datetime layouts, bare years included.
// Impossible days such as Feb 30 are rejected.
func IsDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := dateparse.ParseAny(s)
	return err == nil
}

// ToInput converts validated full-mode fields into a TaskInput, applying the
// defaults for omitted optional fields.
func ToInput(fields entities.Fields) entities.TaskInput {
	input := entities.TaskInput{
		Status: entities.TaskStatusPending,
	}
	if s, ok := fields[FieldTitle].(string); ok {
		input.Title = strings.TrimSpace(s)
	}
	if s, ok := fields[FieldDescription].(string); ok {
		input.Description = s
	}
	if s, ok := fields[FieldStatus].(string); ok {
		input.Status = entities.TaskStatus(s)
	}
	if s, ok := fields[FieldDueDate].(string); ok {
		input.DueDate = &s
	}
	return input
}

// ToPatch converts validated partial-mode fields into a TaskPatch holding
// only the fields that were present.
func ToPatch(fields entities.Fields) entities.TaskPatch {
	var patch entities.TaskPatch
	if s, ok := fields[FieldTitle].(string); ok {
		title := strings.TrimSpace(s)
		patch.Title = &title
	}
	if s, ok := fields[FieldDescription].(string); ok {
		patch.Description = &s
	}
	if s, ok := fields[FieldStatus].(string); ok {
		status := entities.TaskStatus(s)
		patch.Status = &status
	}
	if v, ok := fields[FieldDueDate]; ok {
		patch.SetDueDate = true
		if s, isString := v.(string); isString {
			patch.DueDate = &s
		}
	}
	return patch
}
