package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownField is returned when a key does not name an issue field.
var ErrUnknownField = errors.New("unknown field")

// ErrImmutableField is returned when an update names a field that cannot change.
var ErrImmutableField = errors.New("immutable field")

// Assignment is a single field/value pair, used both for update change sets
// and for equality filters.
type Assignment struct {
	Field string
	Value any
}

// IssueUpdate is a partial change set. Nil fields are left untouched;
// UpdatedOn is always written.
type IssueUpdate struct {
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
	UpdatedOn  time.Time
}

var immutableFields = map[string]struct{}{
	FieldID:        {},
	FieldProject:   {},
	FieldCreatedOn: {},
	FieldUpdatedOn: {},
}

// ParseUpdate converts payload fields into an IssueUpdate stamped with now.
// A null value never clears a field; it is rejected with ErrInvalidValue.
// Keys are checked in sorted order so the reported error is stable.
func ParseUpdate(fields map[string]any, now time.Time) (IssueUpdate, error) {
	u := IssueUpdate{UpdatedOn: now}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := fields[key]
		if v == nil {
			return IssueUpdate{}, fmt.Errorf("%w: %s is null", ErrInvalidValue, key)
		}
		var dst **string
		switch key {
		case FieldIssueTitle:
			dst = &u.IssueTitle
		case FieldIssueText:
			dst = &u.IssueText
		case FieldCreatedBy:
			dst = &u.CreatedBy
		case FieldAssignedTo:
			dst = &u.AssignedTo
		case FieldStatusText:
			dst = &u.StatusText
		case FieldOpen:
			b, err := toBool(v)
			if err != nil {
				return IssueUpdate{}, fmt.Errorf("%s: %w", key, err)
			}
			u.Open = &b
			continue
		default:
			if _, ok := immutableFields[key]; ok {
				return IssueUpdate{}, fmt.Errorf("%w: %s", ErrImmutableField, key)
			}
			return IssueUpdate{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
		}

		s, err := toString(v)
		if err != nil {
			return IssueUpdate{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = &s
	}
	return u, nil
}

// Assignments lists the fields to write, updated_on last.
func (u IssueUpdate) Assignments() []Assignment {
	var out []Assignment
	add := func(field string, v *string) {
		if v != nil {
			out = append(out, Assignment{Field: field, Value: *v})
		}
	}
	add(FieldIssueTitle, u.IssueTitle)
	add(FieldIssueText, u.IssueText)
	add(FieldCreatedBy, u.CreatedBy)
	add(FieldAssignedTo, u.AssignedTo)
	add(FieldStatusText, u.StatusText)
	if u.Open != nil {
		out = append(out, Assignment{Field: FieldOpen, Value: *u.Open})
	}
	return append(out, Assignment{Field: FieldUpdatedOn, Value: u.UpdatedOn})
}
