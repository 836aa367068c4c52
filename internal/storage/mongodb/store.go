// Package mongodb stores issues as documents in a MongoDB collection.
package mongodb

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"issuetracker/internal/models"
	"issuetracker/internal/storage"
)

// CollectionName is the collection holding issue documents.
const CollectionName = "issues"

type issueDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Project    string             `bson:"project"`
	IssueTitle string             `bson:"issue_title"`
	IssueText  string             `bson:"issue_text"`
	CreatedBy  string             `bson:"created_by"`
	AssignedTo string             `bson:"assigned_to"`
	StatusText string             `bson:"status_text"`
	Open       bool               `bson:"open"`
	CreatedOn  time.Time          `bson:"created_on"`
	UpdatedOn  time.Time          `bson:"updated_on"`
}

func (d issueDocument) issue() models.Issue {
	return models.Issue{
		ID:         d.ID.Hex(),
		Project:    d.Project,
		IssueTitle: d.IssueTitle,
		IssueText:  d.IssueText,
		CreatedBy:  d.CreatedBy,
		AssignedTo: d.AssignedTo,
		StatusText: d.StatusText,
		Open:       d.Open,
		CreatedOn:  d.CreatedOn.UTC(),
		UpdatedOn:  d.UpdatedOn.UTC(),
	}
}

// Store keeps issues in a MongoDB collection.
type Store struct {
	client *mongo.Client
	issues *mongo.Collection
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open connects to uri and verifies the deployment answers a ping before
// returning. The caller releases the connection with Close.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty mongodb uri")
	}
	if database == "" {
		return nil, fmt.Errorf("empty mongodb database name")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Debug("mongodb store ready", slog.String("database", database))
	return &Store{
		client: client,
		issues: client.Database(database).Collection(CollectionName),
		logger: logger,
	}, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// ListIssues returns matching documents in natural order.
func (s *Store) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	query := bson.D{}
	for _, cond := range filter.Conditions() {
		value := cond.Value
		if cond.Field == models.FieldID {
			oid, err := parseID(value.(string))
			if err != nil {
				return nil, err
			}
			value = oid
		}
		query = append(query, bson.E{Key: cond.Field, Value: value})
	}

	cursor, err := s.issues.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}

	var docs []issueDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}

	issues := make([]models.Issue, 0, len(docs))
	for _, d := range docs {
		issues = append(issues, d.issue())
	}
	return issues, nil
}

// CreateIssue inserts issue under a new ObjectID.
func (s *Store) CreateIssue(ctx context.Context, issue *models.Issue) error {
	doc := issueDocument{
		ID:         primitive.NewObjectID(),
		Project:    issue.Project,
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedBy:  issue.CreatedBy,
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
	}
	if _, err := s.issues.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	issue.ID = doc.ID.Hex()
	return nil
}

// UpdateIssue applies the change set with a single $set.
func (s *Store) UpdateIssue(ctx context.Context, id string, update models.IssueUpdate) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	set := bson.D{}
	for _, a := range update.Assignments() {
		set = append(set, bson.E{Key: a.Field, Value: a.Value})
	}

	res, err := s.issues.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteIssue removes the document with the given id.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.issues.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", storage.ErrInvalidID, id)
	}
	return oid, nil
}
