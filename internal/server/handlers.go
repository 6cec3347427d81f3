package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tdurojaiye/taxadvisor/internal/advisor"
	"github.com/tdurojaiye/taxadvisor/internal/audit"
	"github.com/tdurojaiye/taxadvisor/internal/history"
	"github.com/tdurojaiye/taxadvisor/internal/ingest"
	"github.com/tdurojaiye/taxadvisor/internal/tax"
)

type handlers struct {
	audits *audit.Service
	store  *history.Store
	logger *zap.Logger
}

func newHandlers(audits *audit.Service, store *history.Store, logger *zap.Logger) *handlers {
	return &handlers{
		audits: audits,
		store:  store,
		logger: logger,
	}
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AssessmentResponse is one assessment in API responses.
type AssessmentResponse struct {
	ID        string                    `json:"id,omitempty"`
	Source    string                    `json:"source"`
	Metrics   tax.Metrics               `json:"metrics"`
	Report    *tax.Report               `json:"report"`
	Review    *advisor.AssessmentReview `json:"review,omitempty"`
	CreatedAt string                    `json:"created_at,omitempty"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// createAssessment handles POST /api/v1/assessments: a multipart "statement"
// file, audited with advisory review when the "advice" field is true.
func (h *handlers) createAssessment(c *gin.Context) {
	file, err := c.FormFile("statement")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "multipart field 'statement' with the statement file is required",
		})
		return
	}

	advice := c.PostForm("advice")
	if advice == "" {
		advice = c.Query("advice")
	}
	withAdvice, _ := strconv.ParseBool(advice)

	// The pipeline dispatches on the file extension, so the upload keeps its
	// original name inside a private temp directory.
	dir, err := os.MkdirTemp("", "taxadvisor-upload-")
	if err != nil {
		h.logger.Error("failed to create upload directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to store upload"})
		return
	}
	defer os.RemoveAll(dir)

	name := filepath.Base(file.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "statement"
	}
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("failed to save upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to store upload"})
		return
	}

	result, err := h.audits.Run(c.Request.Context(), path, withAdvice)
	if err != nil {
		status := http.StatusInternalServerError
		if isStatementError(err) {
			status = http.StatusBadRequest
		} else {
			h.logger.Error("assessment failed", zap.String("source", name), zap.Error(err))
		}
		c.JSON(status, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: AssessmentResponse{
			ID:      result.RecordID,
			Source:  result.Source,
			Metrics: result.Metrics,
			Report:  result.Report,
			Review:  result.Review,
		},
	})
}

// listAssessments handles GET /api/v1/assessments.
func (h *handlers) listAssessments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	assessments, err := h.store.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list assessments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to list assessments"})
		return
	}

	items := make([]AssessmentResponse, 0, len(assessments))
	for _, a := range assessments {
		items = append(items, assessmentResponse(a))
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// getAssessment handles GET /api/v1/assessments/:id.
func (h *handlers) getAssessment(c *gin.Context) {
	a, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
			return
		}
		h.logger.Error("failed to load assessment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to load assessment"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: assessmentResponse(a)})
}

func assessmentResponse(a *history.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:        a.ID,
		Source:    a.Source,
		Metrics:   a.Metrics,
		Report:    a.Report,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// isStatementError reports whether the audit failed because of the uploaded
// statement rather than the service.
func isStatementError(err error) bool {
	return errors.Is(err, ingest.ErrUnsupportedFormat) ||
		errors.Is(err, ingest.ErrNoColumns) ||
		errors.Is(err, ingest.ErrEmptyStatement) ||
		errors.Is(err, ingest.ErrNoRevenue) ||
		errors.Is(err, tax.ErrInvalidInput)
}
