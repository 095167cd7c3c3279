package service

import (
	"strings"
	"testing"
	"time"
)

func TestValidateCreateTask_Title(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		body    map[string]any
		wantErr string
	}{
		{name: "min length", body: map[string]any{"title": "abc"}},
		{name: "max length", body: map[string]any{"title": strings.Repeat("a", 100)}},
		{name: "multibyte counted as characters", body: map[string]any{"title": "Açaí"}},
		{name: "too short", body: map[string]any{"title": "ab"}, wantErr: "title must be at least 3 characters"},
		{name: "too long", body: map[string]any{"title": strings.Repeat("a", 101)}, wantErr: "title must not exceed 100 characters"},
		{name: "missing", body: map[string]any{}, wantErr: "title is required"},
		{name: "null", body: map[string]any{"title": nil}, wantErr: "title is required"},
		{name: "not a string", body: map[string]any{"title": 42.0}, wantErr: "title must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := ValidateCreateTask(tt.body, now)
			if tt.wantErr == "" {
				if len(errs) != 0 {
					t.Fatalf("unexpected errors: %+v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Field != "title" || errs[0].Message != tt.wantErr {
				t.Fatalf("errors = %+v, want title: %q", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateCreateTask_Description(t *testing.T) {
	now := time.Now()

	in, errs := ValidateCreateTask(map[string]any{"title": "abc", "description": strings.Repeat("d", 500)}, now)
	if len(errs) != 0 || in.Description == nil {
		t.Fatalf("500 chars should be accepted: %+v", errs)
	}

	in, errs = ValidateCreateTask(map[string]any{"title": "abc", "description": nil}, now)
	if len(errs) != 0 || in.Description != nil {
		t.Fatalf("null description should be accepted as absent: %+v", errs)
	}

	_, errs = ValidateCreateTask(map[string]any{"title": "abc", "description": strings.Repeat("d", 501)}, now)
	if len(errs) != 1 || errs[0].Field != "description" {
		t.Fatalf("expected description error, got %+v", errs)
	}

	_, errs = ValidateCreateTask(map[string]any{"title": "abc", "description": true}, now)
	if len(errs) != 1 || errs[0].Field != "description" {
		t.Fatalf("expected description type error, got %+v", errs)
	}
}

func TestValidateCreateTask_NotAnObject(t *testing.T) {
	for _, body := range []any{nil, "text", []any{"a"}, 1.0} {
		_, errs := ValidateCreateTask(body, time.Now())
		if len(errs) != 1 || errs[0].Field != "body" {
			t.Fatalf("body %v: errors = %+v", body, errs)
		}
	}
}

func TestValidateUpdateTask_PastDueDateAccepted(t *testing.T) {
	in, errs := ValidateUpdateTask(map[string]any{
		"title":       "abc",
		"description": "x",
		"due_date":    "1999-12-31T23:59:59Z",
		"priority":    "Baixa",
		"status":      "Cancelada",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if in.DueDate == nil || in.DueDate.Year() != 1999 {
		t.Fatalf("due date not parsed: %v", in.DueDate)
	}
}

func TestValidateUpdateTask_AllViolations(t *testing.T) {
	_, errs := ValidateUpdateTask(map[string]any{
		"title":       "",
		"description": 5.0,
		"due_date":    "yesterday",
		"priority":    1.0,
		"status":      "pending",
	})
	if len(errs) != 5 {
		t.Fatalf("expected 5 violations, got %d: %+v", len(errs), errs)
	}
}

func TestValidateTaskID(t *testing.T) {
	tests := []struct {
		name    string
		params  any
		wantErr bool
	}{
		{name: "valid", params: map[string]any{"id": "3f2504e0-4f89-41d3-9a0c-0305e82c3301"}},
		{name: "valid string map", params: map[string]string{"id": "3F2504E0-4F89-41D3-9A0C-0305E82C3301"}},
		{name: "missing", params: map[string]any{}, wantErr: true},
		{name: "nil params", params: nil, wantErr: true},
		{name: "short", params: map[string]any{"id": "3f2504e0"}, wantErr: true},
		{name: "urn form", params: map[string]any{"id": "urn:uuid:3f2504e0-4f89-41d3-9a0c-0305e82c3301"}, wantErr: true},
		{name: "not hex", params: map[string]any{"id": "zzzzzzzz-4f89-41d3-9a0c-0305e82c3301"}, wantErr: true},
		{name: "number", params: map[string]any{"id": 12.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := ValidateTaskID(tt.params)
			if tt.wantErr != (len(errs) > 0) {
				t.Fatalf("wantErr=%v, errors=%+v", tt.wantErr, errs)
			}
			if tt.wantErr && errs[0].Field != "id" {
				t.Fatalf("field = %q, want id", errs[0].Field)
			}
		})
	}
}

func TestValidateUpdateTask_DueDateRequiresUTC(t *testing.T) {
	body := map[string]any{
		"title":       "abc",
		"description": nil,
		"due_date":    "2030-01-01T10:00:00+02:00",
		"priority":    "Alta",
		"status":      "Pendente",
	}
	_, errs := ValidateUpdateTask(body)
	if len(errs) != 1 || errs[0].Field != "due_date" {
		t.Fatalf("expected due_date error for offset timestamp, got %+v", errs)
	}

	body["due_date"] = "2030-01-01T08:00:00Z"
	in, errs := ValidateUpdateTask(body)
	if len(errs) != 0 || in.DueDate == nil {
		t.Fatalf("Z timestamp should be accepted: %+v", errs)
	}
}
