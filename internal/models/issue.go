package models

import (
	"errors"
	"fmt"
	"time"
)

// Field names shared by the HTTP payloads and both stores.
const (
	FieldID         = "_id"
	FieldProject    = "project"
	FieldIssueTitle = "issue_title"
	FieldIssueText  = "issue_text"
	FieldCreatedBy  = "created_by"
	FieldAssignedTo = "assigned_to"
	FieldStatusText = "status_text"
	FieldOpen       = "open"
	FieldCreatedOn  = "created_on"
	FieldUpdatedOn  = "updated_on"
)

// ErrMissingRequired is returned by NewIssue when a required field is absent or falsy.
var ErrMissingRequired = errors.New("required field(s) missing")

// RequiredFields lists the payload keys that must be present on create.
var RequiredFields = []string{FieldIssueTitle, FieldIssueText, FieldCreatedBy}

// Issue is a tracked problem within a project.
type Issue struct {
	ID         string    `json:"_id"`
	Project    string    `json:"project"`
	IssueTitle string    `json:"issue_title"`
	IssueText  string    `json:"issue_text"`
	CreatedBy  string    `json:"created_by"`
	AssignedTo string    `json:"assigned_to"`
	StatusText string    `json:"status_text"`
	Open       bool      `json:"open"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// Now returns the current UTC time truncated to the millisecond precision
// both stores keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewIssue builds an open issue for project from loosely typed payload fields.
// Optional fields default to the empty string when absent or falsy.
func NewIssue(project string, fields map[string]any, now time.Time) (Issue, error) {
	for _, name := range RequiredFields {
		if !Truthy(fields[name]) {
			return Issue{}, ErrMissingRequired
		}
	}

	issue := Issue{
		Project:   project,
		Open:      true,
		CreatedOn: now,
		UpdatedOn: now,
	}

	targets := []struct {
		name string
		dst  *string
	}{
		{FieldIssueTitle, &issue.IssueTitle},
		{FieldIssueText, &issue.IssueText},
		{FieldCreatedBy, &issue.CreatedBy},
		{FieldAssignedTo, &issue.AssignedTo},
		{FieldStatusText, &issue.StatusText},
	}
	for _, t := range targets {
		v := fields[t.name]
		if !Truthy(v) {
			continue
		}
		s, err := toString(v)
		if err != nil {
			return Issue{}, fmt.Errorf("%s: %w", t.name, err)
		}
		*t.dst = s
	}
	return issue, nil
}
