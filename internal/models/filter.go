package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// IssueFilter holds equality constraints for listing issues. Nil fields do
// not constrain the result.
type IssueFilter struct {
	ID         *string
	Project    *string
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
	CreatedOn  *time.Time
	UpdatedOn  *time.Time
}

// ParseFilter types raw query values per field. A value that does not parse
// yields ErrInvalidValue. A key that names no issue field yields
// ErrUnknownField, but only once every known value has parsed.
func ParseFilter(query map[string]string) (IssueFilter, error) {
	var (
		f       IssueFilter
		unknown []string
	)

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := query[key]
		switch key {
		case FieldID:
			f.ID = &raw
		case FieldProject:
			f.Project = &raw
		case FieldIssueTitle:
			f.IssueTitle = &raw
		case FieldIssueText:
			f.IssueText = &raw
		case FieldCreatedBy:
			f.CreatedBy = &raw
		case FieldAssignedTo:
			f.AssignedTo = &raw
		case FieldStatusText:
			f.StatusText = &raw
		case FieldOpen:
			b, err := toBool(raw)
			if err != nil {
				return IssueFilter{}, fmt.Errorf("%s: %w", key, err)
			}
			f.Open = &b
		case FieldCreatedOn, FieldUpdatedOn:
			t, err := toTime(raw)
			if err != nil {
				return IssueFilter{}, fmt.Errorf("%s: %w", key, err)
			}
			if key == FieldCreatedOn {
				f.CreatedOn = &t
			} else {
				f.UpdatedOn = &t
			}
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return IssueFilter{}, fmt.Errorf("%w: %s", ErrUnknownField, strings.Join(unknown, ", "))
	}
	return f, nil
}

// Conditions lists the set constraints in a fixed field order.
func (f IssueFilter) Conditions() []Assignment {
	var out []Assignment
	str := func(field string, v *string) {
		if v != nil {
			out = append(out, Assignment{Field: field, Value: *v})
		}
	}
	str(FieldID, f.ID)
	str(FieldProject, f.Project)
	str(FieldIssueTitle, f.IssueTitle)
	str(FieldIssueText, f.IssueText)
	str(FieldCreatedBy, f.CreatedBy)
	str(FieldAssignedTo, f.AssignedTo)
	str(FieldStatusText, f.StatusText)
	if f.Open != nil {
		out = append(out, Assignment{Field: FieldOpen, Value: *f.Open})
	}
	if f.CreatedOn != nil {
		out = append(out, Assignment{Field: FieldCreatedOn, Value: *f.CreatedOn})
	}
	if f.UpdatedOn != nil {
		out = append(out, Assignment{Field: FieldUpdatedOn, Value: *f.UpdatedOn})
	}
	return out
}
