package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"issuetracker/internal/models"
)

const (
	msgListFailed     = "Error al obtener datos"
	msgSaveFailed     = "Error al guardar"
	msgMissingFields  = "required field(s) missing"
	msgMissingID      = "missing _id"
	msgNoUpdateFields = "no update field(s) sent"
	msgUpdateFailed   = "could not update"
	msgDeleteFailed   = "could not delete"
	msgUpdated        = "successfully updated"
	msgDeleted        = "successfully deleted"
)

// createdIssue is the create reply; project is not echoed.
type createdIssue struct {
	AssignedTo string    `json:"assigned_to"`
	StatusText string    `json:"status_text"`
	Open       bool      `json:"open"`
	ID         string    `json:"_id"`
	IssueTitle string    `json:"issue_title"`
	IssueText  string    `json:"issue_text"`
	CreatedBy  string    `json:"created_by"`
	CreatedOn  time.Time `json:"created_on"`
	UpdatedOn  time.Time `json:"updated_on"`
}

// handleListIssues returns the project's issues matching the query filters.
func (s *Server) handleListIssues(c *gin.Context) {
	query := queryFilters(c)
	query[models.FieldProject] = c.Param("project")

	filter, err := models.ParseFilter(query)
	if errors.Is(err, models.ErrUnknownField) {
		respondSuccess(c, []models.Issue{})
		return
	}
	if err != nil {
		s.respondError(c, err, gin.H{"error": msgListFailed})
		return
	}

	issues, err := s.store.ListIssues(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err, gin.H{"error": msgListFailed})
		return
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	respondSuccess(c, issues)
}

// handleCreateIssue stores a new open issue under the path project.
func (s *Server) handleCreateIssue(c *gin.Context) {
	issue, err := models.NewIssue(c.Param("project"), readPayload(c), models.Now())
	if errors.Is(err, models.ErrMissingRequired) {
		respondSuccess(c, gin.H{"error": msgMissingFields})
		return
	}
	if err == nil {
		err = s.store.CreateIssue(c.Request.Context(), &issue)
	}
	if err != nil {
		s.logger.Error("create issue failed",
			slog.String("project", c.Param("project")),
			slog.String("error", err.Error()))
		c.String(http.StatusOK, msgSaveFailed)
		return
	}

	respondSuccess(c, createdIssue{
		AssignedTo: issue.AssignedTo,
		StatusText: issue.StatusText,
		Open:       issue.Open,
		ID:         issue.ID,
		IssueTitle: issue.IssueTitle,
		IssueText:  issue.IssueText,
		CreatedBy:  issue.CreatedBy,
		CreatedOn:  issue.CreatedOn,
		UpdatedOn:  issue.UpdatedOn,
	})
}

// handleUpdateIssue merges the payload fields into the issue named by _id.
// The path project does not scope the update.
func (s *Server) handleUpdateIssue(c *gin.Context) {
	fields := readPayload(c)
	rawID := takeID(fields)
	if !models.Truthy(rawID) {
		respondSuccess(c, gin.H{"error": msgMissingID})
		return
	}
	if len(fields) == 0 {
		respondSuccess(c, gin.H{"error": msgNoUpdateFields, models.FieldID: rawID})
		return
	}

	failed := gin.H{"error": msgUpdateFailed, models.FieldID: rawID}

	id, err := cast.ToStringE(rawID)
	if err != nil {
		s.respondError(c, err, failed)
		return
	}
	update, err := models.ParseUpdate(fields, models.Now())
	if err != nil {
		s.respondError(c, err, failed)
		return
	}
	if err := s.store.UpdateIssue(c.Request.Context(), id, update); err != nil {
		s.respondError(c, err, failed)
		return
	}

	respondSuccess(c, gin.H{"result": msgUpdated, models.FieldID: rawID})
}

// handleDeleteIssue removes the issue named by _id.
// The path project does not scope the delete.
func (s *Server) handleDeleteIssue(c *gin.Context) {
	rawID := takeID(readPayload(c))
	if !models.Truthy(rawID) {
		respondSuccess(c, gin.H{"error": msgMissingID})
		return
	}

	failed := gin.H{"error": msgDeleteFailed, models.FieldID: rawID}

	id, err := cast.ToStringE(rawID)
	if err != nil {
		s.respondError(c, err, failed)
		return
	}
	if err := s.store.DeleteIssue(c.Request.Context(), id); err != nil {
		s.respondError(c, err, failed)
		return
	}

	respondSuccess(c, gin.H{"result": msgDeleted, models.FieldID: rawID})
}
