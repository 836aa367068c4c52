// Package storage defines the persistence contract for issues.
package storage

import (
	"context"
	"errors"

	"issuetracker/internal/models"
)

var (
	// ErrNotFound is returned when no issue matches the given id.
	ErrNotFound = errors.New("issue not found")
	// ErrInvalidID is returned when an id is not in the store's identifier format.
	ErrInvalidID = errors.New("invalid issue id")
)

// Store is a document collection of issues addressed by opaque ids.
type Store interface {
	// ListIssues returns every issue matching all filter constraints in
	// insertion order. The result is never nil.
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	// CreateIssue persists issue and assigns its ID.
	CreateIssue(ctx context.Context, issue *models.Issue) error
	UpdateIssue(ctx context.Context, id string, update models.IssueUpdate) error
	DeleteIssue(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	Close() error
}
