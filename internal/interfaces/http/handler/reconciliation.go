package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	appreconciliation "github.com/sellerhub/backend/internal/application/reconciliation"
	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// ReconciliationHandler handles reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	analyzeService   appreconciliation.AnalyzeService
	reconcileService appreconciliation.ReconcileService
	executeService   appreconciliation.ExecuteService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	analyzeService appreconciliation.AnalyzeService,
	reconcileService appreconciliation.ReconcileService,
	executeService appreconciliation.ExecuteService,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		analyzeService:   analyzeService,
		reconcileService: reconcileService,
		executeService:   executeService,
	}
}

// RunOptionsRequest carries the optional matching knobs of a reconciliation run
// @Description Optional matching and persistence knobs
type RunOptionsRequest struct {
	StrictMatching      bool    `json:"strict_matching" example:"false"`
	SimilarityThreshold float64 `json:"similarity_threshold" binding:"omitempty,gt=0,lte=1" example:"0.85"`
	IgnoreBrand         bool    `json:"ignore_brand" example:"false"`
	SeedScanGrouping    bool    `json:"seed_scan_grouping" example:"false"`
	OverwriteExisting   bool    `json:"overwrite_existing" example:"false"`
}

func (r RunOptionsRequest) toRunOptions() appreconciliation.RunOptions {
	return appreconciliation.RunOptions{
		StrictMatching:      r.StrictMatching,
		SimilarityThreshold: r.SimilarityThreshold,
		IgnoreBrand:         r.IgnoreBrand,
		SeedScanGrouping:    r.SeedScanGrouping,
		OverwriteExisting:   r.OverwriteExisting,
	}
}

// AnalyzeRequest represents a request for a two-marketplace analysis
// @Description Request body for a two-marketplace analysis run
type AnalyzeRequest struct {
	Source  string            `json:"source" binding:"required" example:"trendyol"`
	Target  string            `json:"target" binding:"required" example:"hepsiburada"`
	Options RunOptionsRequest `json:"options"`
}

// ReconcileRequest represents a request for an N-marketplace reconciliation
// @Description Request body for an N-marketplace reconciliation run
type ReconcileRequest struct {
	Marketplaces []string          `json:"marketplaces" binding:"required,min=2" example:"trendyol,hepsiburada,amazon"`
	Options      RunOptionsRequest `json:"options"`
}

// toMarketplaceCode normalizes request input to the canonical uppercase codes
func toMarketplaceCode(name string) marketplace.Code {
	return marketplace.Code(strings.ToUpper(strings.TrimSpace(name)))
}

func toMarketplaceCodes(names []string) []marketplace.Code {
	codes := make([]marketplace.Code, 0, len(names))
	for _, name := range names {
		codes = append(codes, toMarketplaceCode(name))
	}
	return codes
}

// Analyze godoc
// @Summary      Analyze two marketplace catalogs
// @Description  Compares the seller's catalogs on two marketplaces and reports matches, one-sided products, conflicts and sync recommendations. Read-only.
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        request body AnalyzeRequest true "Analysis parameters"
// @Success      200 {object} dto.Response{data=reconciliation.AnalysisReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/analyze [post]
func (h *ReconciliationHandler) Analyze(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.analyzeService.Analyze(
		c.Request.Context(),
		sellerID,
		toMarketplaceCode(req.Source),
		toMarketplaceCode(req.Target),
		req.Options.toRunOptions(),
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

// Reconcile godoc
// @Summary      Reconcile catalogs across marketplaces
// @Description  Groups the seller's listings across all requested marketplaces into canonical products. Read-only.
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        request body ReconcileRequest true "Reconciliation parameters"
// @Success      200 {object} dto.Response{data=reconciliation.ReconcileReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/run [post]
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.reconcileService.ReconcileAll(
		c.Request.Context(),
		sellerID,
		toMarketplaceCodes(req.Marketplaces),
		req.Options.toRunOptions(),
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

// Execute godoc
// @Summary      Execute a reconciliation run
// @Description  Runs the grouping pipeline and persists canonical products and listings. At most one execute runs per seller at a time.
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        request body ReconcileRequest true "Reconciliation parameters"
// @Success      200 {object} dto.Response{data=reconciliation.ExecutionReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/execute [post]
func (h *ReconciliationHandler) Execute(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.executeService.Execute(
		c.Request.Context(),
		sellerID,
		toMarketplaceCodes(req.Marketplaces),
		req.Options.toRunOptions(),
		nil,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
