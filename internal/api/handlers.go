package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vetreport-server/internal/domain"
	"github.com/vetreport-server/internal/report"
)

// defaultUserLabel attributes mutations when the shell sends no user.
const defaultUserLabel = "Dr. Usuario"

// Request payloads

type userRequest struct {
	User string `json:"user,omitempty"`
}

type editTextRequest struct {
	Text string `json:"text"`
	User string `json:"user,omitempty"`
}

type addFindingRequest struct {
	Organ       string `json:"organ"`
	Text        string `json:"text"`
	LinkImageID string `json:"link_image_id,omitempty"`
	User        string `json:"user,omitempty"`
}

type regenerateRequest struct {
	Context  string   `json:"context,omitempty"`
	ImageIDs []string `json:"image_ids,omitempty"`
}

type annotateRequest struct {
	Text              string                 `json:"text"`
	AbnormalValues    []domain.AbnormalValue `json:"abnormal_values"`
	HighlightsEnabled bool                   `json:"highlights_enabled"`
}

// handleGetReport returns the current report snapshot.
func (s *Server) handleGetReport(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Report())
}

// handleExportReport renders the current snapshot as a paginated document.
func (s *Server) handleExportReport(c *gin.Context) {
	snapshot := s.service.Report()
	pages, err := s.exporter.Render(snapshot)
	if err != nil {
		s.logger.WithError(err).Error("Failed to render report document")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "EXPORT_ERROR",
			"error": "failed to render the report document",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"report_id": snapshot.ID,
		"pages":     pages,
	})
}

// handleAddFinding appends a manually authored finding.
func (s *Server) handleAddFinding(c *gin.Context) {
	var req addFindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	snapshot, err := s.service.AddFinding(c.Request.Context(), report.AddFindingInput{
		Organ:       req.Organ,
		Text:        req.Text,
		LinkImageID: req.LinkImageID,
	}, userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snapshot)
}

// handleAcceptFinding marks a finding as validated.
func (s *Server) handleAcceptFinding(c *gin.Context) {
	var req userRequest
	_ = c.ShouldBindJSON(&req)

	snapshot, err := s.service.AcceptFinding(c.Request.Context(), c.Param("id"), userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleEditFinding replaces a finding's current text.
func (s *Server) handleEditFinding(c *gin.Context) {
	var req editTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	snapshot, err := s.service.EditFinding(c.Request.Context(), c.Param("id"), req.Text, userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleRegenerateFinding requests a new AI draft for a finding. The call
// blocks until the provider settles; the busy flag rejects overlapping
// requests for the same finding in the meantime.
func (s *Server) handleRegenerateFinding(c *gin.Context) {
	var req regenerateRequest
	_ = c.ShouldBindJSON(&req)

	snapshot, err := s.service.RegenerateFinding(c.Request.Context(), c.Param("id"), req.Context, req.ImageIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleDeleteFinding removes a finding.
func (s *Server) handleDeleteFinding(c *gin.Context) {
	var req userRequest
	_ = c.ShouldBindJSON(&req)

	snapshot, err := s.service.DeleteFinding(c.Request.Context(), c.Param("id"), userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleAcceptDiagnosis marks the diagnosis as validated.
func (s *Server) handleAcceptDiagnosis(c *gin.Context) {
	var req userRequest
	_ = c.ShouldBindJSON(&req)

	snapshot, err := s.service.AcceptDiagnosis(c.Request.Context(), userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleEditDiagnosis replaces the diagnosis items from free-form text.
func (s *Server) handleEditDiagnosis(c *gin.Context) {
	var req editTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	snapshot, err := s.service.EditDiagnosis(c.Request.Context(), req.Text, userLabel(req.User))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleRegenerateDiagnosis requests a new AI diagnosis draft.
func (s *Server) handleRegenerateDiagnosis(c *gin.Context) {
	var req regenerateRequest
	_ = c.ShouldBindJSON(&req)

	snapshot, err := s.service.RegenerateDiagnosis(c.Request.Context(), req.Context, req.ImageIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleAnnotate computes highlight segments for a block of text.
func (s *Server) handleAnnotate(c *gin.Context) {
	var req annotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err)
		return
	}

	segments := s.engine.Annotate(req.Text, req.AbnormalValues, req.HighlightsEnabled)
	c.JSON(http.StatusOK, gin.H{"segments": segments})
}

// handleEvents upgrades to a websocket and streams mutation events.
func (s *Server) handleEvents(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request)
}

// handleAudit returns journal entries, newest first.
func (s *Server) handleAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := s.journal.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list audit events")
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "AUDIT_ERROR",
			"error": "failed to read the session journal",
		})
		return
	}
	total, err := s.journal.Count(c.Request.Context())
	if err != nil {
		total = int64(len(events))
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  total,
	})
}

// handleAuditExport streams the whole journal as JSON.
func (s *Server) handleAuditExport(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	if err := s.journal.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Failed to export audit events")
	}
}

// userLabel applies the default attribution when the shell sends no user.
func userLabel(user string) string {
	if strings.TrimSpace(user) == "" {
		return defaultUserLabel
	}
	return user
}

// writeBadRequest reports a malformed request body.
func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":  domain.ErrValidation,
		"error": err.Error(),
	})
}

// writeError maps core error kinds onto HTTP statuses. Validation failures
// and missing ids leave the snapshot unchanged; a busy entity conflicts; a
// failed regeneration is surfaced as a recoverable upstream error.
func writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var regenErr *domain.RegenerationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  domain.ErrValidation,
			"field": validationErr.Field,
			"error": validationErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"code":  domain.ErrNotFound,
			"error": notFoundErr.Error(),
		})
	case errors.As(err, &regenErr) && regenErr.Busy:
		c.JSON(http.StatusConflict, gin.H{
			"code":  domain.ErrRegeneration,
			"busy":  true,
			"error": regenErr.Error(),
		})
	case errors.As(err, &regenErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"code":  domain.ErrRegeneration,
			"error": regenErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
	}
}
