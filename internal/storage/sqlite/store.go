package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"issuetracker/internal/models"
	"issuetracker/internal/storage"
)

const issueColumns = `id, project, issue_title, issue_text, created_by, assigned_to, status_text, "open", created_on, updated_on`

// columns maps issue fields onto table columns. Only names listed here are
// ever interpolated into SQL.
var columns = map[string]string{
	models.FieldID:         "id",
	models.FieldProject:    "project",
	models.FieldIssueTitle: "issue_title",
	models.FieldIssueText:  "issue_text",
	models.FieldCreatedBy:  "created_by",
	models.FieldAssignedTo: "assigned_to",
	models.FieldStatusText: "status_text",
	models.FieldOpen:       `"open"`,
	models.FieldCreatedOn:  "created_on",
	models.FieldUpdatedOn:  "updated_on",
}

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// Open initializes a new SQLite store and creates the issues table.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection serializes writers; concurrent requests queue in the pool.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.bootstrap(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("sqlite store ready", slog.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) bootstrap() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS issues (
            id TEXT PRIMARY KEY,
            project TEXT NOT NULL,
            issue_title TEXT NOT NULL,
            issue_text TEXT NOT NULL,
            created_by TEXT NOT NULL,
            assigned_to TEXT NOT NULL DEFAULT '',
            status_text TEXT NOT NULL DEFAULT '',
            "open" BOOLEAN NOT NULL DEFAULT 1,
            created_on DATETIME NOT NULL,
            updated_on DATETIME NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}
	}
	return nil
}

// ListIssues returns the issues matching every filter constraint in insertion order.
func (s *Store) ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	var (
		where []string
		args  []any
	)
	for _, cond := range filter.Conditions() {
		value := cond.Value
		if cond.Field == models.FieldID {
			id, err := parseID(value.(string))
			if err != nil {
				return nil, err
			}
			value = id
		}
		where = append(where, columns[cond.Field]+" = ?")
		args = append(args, value)
	}

	query := `SELECT ` + issueColumns + ` FROM issues`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	issues := []models.Issue{}
	for rows.Next() {
		var i models.Issue
		if err := rows.Scan(&i.ID, &i.Project, &i.IssueTitle, &i.IssueText, &i.CreatedBy,
			&i.AssignedTo, &i.StatusText, &i.Open, &i.CreatedOn, &i.UpdatedOn); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		i.CreatedOn = i.CreatedOn.UTC()
		i.UpdatedOn = i.UpdatedOn.UTC()
		issues = append(issues, i)
	}
	return issues, rows.Err()
}

// CreateIssue inserts issue under a freshly generated ULID.
func (s *Store) CreateIssue(ctx context.Context, issue *models.Issue) error {
	id := ulid.Make().String()

	_, err := s.db.ExecContext(ctx, `INSERT INTO issues(`+issueColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, issue.Project, issue.IssueTitle, issue.IssueText, issue.CreatedBy,
		issue.AssignedTo, issue.StatusText, issue.Open, issue.CreatedOn, issue.UpdatedOn)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	issue.ID = id
	return nil
}

// UpdateIssue applies the change set to the issue with the given id.
func (s *Store) UpdateIssue(ctx context.Context, id string, update models.IssueUpdate) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	for _, a := range update.Assignments() {
		sets = append(sets, columns[a.Field]+" = ?")
		args = append(args, a.Value)
	}
	args = append(args, key)

	res, err := s.db.ExecContext(ctx, `UPDATE issues SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteIssue removes an issue by id.
func (s *Store) DeleteIssue(ctx context.Context, id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, key)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// parseID normalizes a ULID to its canonical upper-case form.
func parseID(id string) (string, error) {
	u, err := ulid.ParseStrict(id)
	if err != nil {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidID, id)
	}
	return u.String(), nil
}
