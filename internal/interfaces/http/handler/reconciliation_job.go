package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/infrastructure/jobs"
	"github.com/sellerhub/backend/internal/interfaces/http/dto"
)

// ReconciliationJobHandler handles background reconciliation job endpoints
type ReconciliationJobHandler struct {
	BaseHandler
	runner *jobs.Runner
}

// NewReconciliationJobHandler creates a new ReconciliationJobHandler
func NewReconciliationJobHandler(runner *jobs.Runner) *ReconciliationJobHandler {
	return &ReconciliationJobHandler{
		runner: runner,
	}
}

// SubmitJobRequest represents a request to enqueue a reconciliation job
// @Description Request body for submitting a background reconciliation run
type SubmitJobRequest struct {
	Marketplaces []string          `json:"marketplaces" binding:"required,min=2" example:"trendyol,hepsiburada,amazon"`
	Options      RunOptionsRequest `json:"options"`
}

// Submit godoc
// @Summary      Submit a background reconciliation job
// @Description  Enqueues a bulk reconciliation run for the seller and returns the job immediately. Poll the job endpoint for progress.
// @Tags         reconciliation-jobs
// @Accept       json
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        request body SubmitJobRequest true "Job parameters"
// @Success      202 {object} dto.Response{data=jobs.Snapshot}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/jobs [post]
func (h *ReconciliationJobHandler) Submit(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	job, err := h.runner.Submit(sellerID, toMarketplaceCodes(req.Marketplaces), req.Options.toRunOptions())
	if err != nil {
		h.handleJobError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(job.Snapshot()))
}

// Get godoc
// @Summary      Get a reconciliation job
// @Description  Returns the current status, progress and report of a reconciliation job
// @Tags         reconciliation-jobs
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.Response{data=jobs.Snapshot}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/jobs/{id} [get]
func (h *ReconciliationJobHandler) Get(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	job, err := h.runner.Get(jobID)
	if err != nil {
		h.handleJobError(c, err)
		return
	}

	// Jobs are seller-scoped: another seller's job looks like a missing one
	if job.SellerID() != sellerID {
		h.NotFound(c, "Job not found")
		return
	}

	h.Success(c, job.Snapshot())
}

// Cancel godoc
// @Summary      Cancel a reconciliation job
// @Description  Requests cooperative cancellation. A pending job never starts; a running one stops before its next group transaction.
// @Tags         reconciliation-jobs
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        id path string true "Job ID"
// @Success      200 {object} dto.Response{data=jobs.Snapshot}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/jobs/{id} [delete]
func (h *ReconciliationJobHandler) Cancel(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	job, err := h.runner.Get(jobID)
	if err != nil {
		h.handleJobError(c, err)
		return
	}
	if job.SellerID() != sellerID {
		h.NotFound(c, "Job not found")
		return
	}

	if err := h.runner.Cancel(jobID); err != nil {
		h.handleJobError(c, err)
		return
	}

	h.Success(c, job.Snapshot())
}

// handleJobError maps job runner errors to HTTP responses
func (h *ReconciliationJobHandler) handleJobError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		h.NotFound(c, "Job not found")
	case errors.Is(err, jobs.ErrJobNotCancellable):
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "Job already finished")
	case errors.Is(err, jobs.ErrQueueFull):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeQueueFull, "Job queue is full, retry later")
	case errors.Is(err, jobs.ErrRunnerNotRunning):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeQueueFull, "Job runner is not accepting work")
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
