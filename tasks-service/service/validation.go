package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chepyr/tasks-api/shared"
	"github.com/chepyr/tasks-api/shared/models"
	"github.com/google/uuid"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 100
	DescriptionMaxLength = 500
)

// CreateTaskInput is a create payload that passed validation.
type CreateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
}

// UpdateTaskInput is an update payload that passed validation. Every mutable field is
// present; nil Description/DueDate clear the stored value.
type UpdateTaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    models.TaskPriority
	Status      models.TaskStatus
}

// ValidateCreateTask checks a decoded create payload. due_date must be strictly after now.
// All violations are returned, not only the first one.
func ValidateCreateTask(raw any, now time.Time) (CreateTaskInput, []shared.FieldError) {
	obj, ok := asObject(raw)
	if !ok {
		return CreateTaskInput{}, []shared.FieldError{{Field: "body", Message: "body must be a JSON object"}}
	}

	var (
		in   CreateTaskInput
		errs []shared.FieldError
	)
	in.Title, errs = validateTitle(obj, errs)
	in.Description, errs = validateDescription(obj, false, errs)

	var dueErrs []shared.FieldError
	in.DueDate, dueErrs = validateDueDate(obj, false, nil)
	if len(dueErrs) == 0 && in.DueDate != nil && !in.DueDate.After(now) {
		dueErrs = append(dueErrs, shared.FieldError{Field: "due_date", Message: "due_date must be in the future"})
	}
	errs = append(errs, dueErrs...)

	if len(errs) > 0 {
		return CreateTaskInput{}, errs
	}
	return in, nil
}

// ValidateUpdateTask checks a decoded update payload. Unlike create, due_date is only
// format-checked and may lie in the past.
func ValidateUpdateTask(raw any) (UpdateTaskInput, []shared.FieldError) {
	obj, ok := asObject(raw)
	if !ok {
		return UpdateTaskInput{}, []shared.FieldError{{Field: "body", Message: "body must be a JSON object"}}
	}

	var (
		in   UpdateTaskInput
		errs []shared.FieldError
	)
	in.Title, errs = validateTitle(obj, errs)
	in.Description, errs = validateDescription(obj, true, errs)
	in.DueDate, errs = validateDueDate(obj, true, errs)

	priority, present, isString := lookupString(obj, "priority")
	switch {
	case !present:
		errs = append(errs, shared.FieldError{Field: "priority", Message: "priority is required"})
	case !isString || !models.TaskPriority(priority).Valid():
		errs = append(errs, shared.FieldError{
			Field:   "priority",
			Message: "priority must be one of: " + joinValues(models.TaskPriorities),
		})
	default:
		in.Priority = models.TaskPriority(priority)
	}

	status, present, isString := lookupString(obj, "status")
	switch {
	case !present:
		errs = append(errs, shared.FieldError{Field: "status", Message: "status is required"})
	case !isString || !models.TaskStatus(status).Valid():
		errs = append(errs, shared.FieldError{
			Field:   "status",
			Message: "status must be one of: " + joinValues(models.TaskStatuses),
		})
	default:
		in.Status = models.TaskStatus(status)
	}

	if len(errs) > 0 {
		return UpdateTaskInput{}, errs
	}
	return in, nil
}

// ValidateTaskID checks that params carries an "id" in canonical UUID form.
func ValidateTaskID(raw any) (uuid.UUID, []shared.FieldError) {
	obj, ok := asObject(raw)
	if !ok {
		return uuid.Nil, []shared.FieldError{{Field: "id", Message: "id is required"}}
	}
	s, present, isString := lookupString(obj, "id")
	if !present {
		return uuid.Nil, []shared.FieldError{{Field: "id", Message: "id is required"}}
	}
	// uuid.Parse also accepts braced and urn forms, only the 36-char form is allowed
	if !isString || len(s) != 36 {
		return uuid.Nil, []shared.FieldError{{Field: "id", Message: "id must be a valid UUID"}}
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, []shared.FieldError{{Field: "id", Message: "id must be a valid UUID"}}
	}
	return id, nil
}

func validateTitle(obj map[string]any, errs []shared.FieldError) (string, []shared.FieldError) {
	title, present, isString := lookupString(obj, "title")
	switch {
	case !present || obj["title"] == nil:
		return "", append(errs, shared.FieldError{Field: "title", Message: "title is required"})
	case !isString:
		return "", append(errs, shared.FieldError{Field: "title", Message: "title must be a string"})
	}
	n := utf8.RuneCountInString(title)
	if n < TitleMinLength {
		return "", append(errs, shared.FieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must be at least %d characters", TitleMinLength),
		})
	}
	if n > TitleMaxLength {
		return "", append(errs, shared.FieldError{
			Field:   "title",
			Message: fmt.Sprintf("title must not exceed %d characters", TitleMaxLength),
		})
	}
	return title, errs
}

func validateDescription(obj map[string]any, required bool, errs []shared.FieldError) (*string, []shared.FieldError) {
	v, present := obj["description"]
	if !present {
		if required {
			return nil, append(errs, shared.FieldError{Field: "description", Message: "description is required (null to clear it)"})
		}
		return nil, errs
	}
	if v == nil {
		return nil, errs
	}
	desc, ok := v.(string)
	if !ok {
		return nil, append(errs, shared.FieldError{Field: "description", Message: "description must be a string or null"})
	}
	if utf8.RuneCountInString(desc) > DescriptionMaxLength {
		return nil, append(errs, shared.FieldError{
			Field:   "description",
			Message: fmt.Sprintf("description must not exceed %d characters", DescriptionMaxLength),
		})
	}
	return &desc, errs
}

func validateDueDate(obj map[string]any, required bool, errs []shared.FieldError) (*time.Time, []shared.FieldError) {
	v, present := obj["due_date"]
	if !present {
		if required {
			return nil, append(errs, shared.FieldError{Field: "due_date", Message: "due_date is required (null to clear it)"})
		}
		return nil, errs
	}
	if v == nil {
		return nil, errs
	}
	s, ok := v.(string)
	if !ok {
		return nil, append(errs, shared.FieldError{Field: "due_date", Message: "due_date must be an ISO-8601 UTC timestamp"})
	}
	// UTC "Z" form only, numeric offsets are rejected
	due, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || !strings.HasSuffix(s, "Z") {
		return nil, append(errs, shared.FieldError{Field: "due_date", Message: "due_date must be an ISO-8601 UTC timestamp"})
	}
	due = due.UTC()
	return &due, errs
}

// lookupString reports whether key is present and whether its value is a string.
func lookupString(obj map[string]any, key string) (value string, present, isString bool) {
	v, present := obj[key]
	if !present {
		return "", false, false
	}
	s, isString := v.(string)
	return s, true, isString
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[string]string:
		obj := make(map[string]any, len(v))
		for k, s := range v {
			obj[k] = s
		}
		return obj, true
	default:
		return nil, false
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
