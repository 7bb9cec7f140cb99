package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
)

// ReconciledProductHandler handles read access to the canonical catalog
type ReconciledProductHandler struct {
	BaseHandler
	repo reconciliation.ReconciledProductReader
}

// NewReconciledProductHandler creates a new ReconciledProductHandler
func NewReconciledProductHandler(repo reconciliation.ReconciledProductReader) *ReconciledProductHandler {
	return &ReconciledProductHandler{
		repo: repo,
	}
}

// ProductListFilter represents query parameters for listing canonical products
// @Description Query parameters for listing canonical products
type ProductListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
}

// ListingResponse represents one marketplace listing of a canonical product
// @Description Marketplace listing of a canonical product
type ListingResponse struct {
	Marketplace      marketplace.Code             `json:"marketplace" example:"trendyol"`
	ExternalID       string                       `json:"external_id" example:"TY-123456"`
	SKU              string                       `json:"sku,omitempty" example:"SKU-001"`
	Price            string                       `json:"price" example:"149.90"`
	Stock            int64                        `json:"stock" example:"12"`
	Status           reconciliation.ListingStatus `json:"status" example:"active"`
	LastReconciledAt time.Time                    `json:"last_reconciled_at"`
}

// ReconciledProductResponse represents a canonical product in API responses
// @Description Canonical product with its marketplace listings
type ReconciledProductResponse struct {
	ID          string            `json:"id" example:"550e8400-e29b-41d4-a716-446655440010"`
	SellerID    string            `json:"seller_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string            `json:"name" example:"Wireless Mouse"`
	Brand       string            `json:"brand,omitempty" example:"Logitech"`
	Description string            `json:"description,omitempty"`
	Barcode     string            `json:"barcode,omitempty" example:"8690000000001"`
	TotalStock  int64             `json:"total_stock" example:"37"`
	Price       string            `json:"price" example:"149.90"`
	Listings    []ListingResponse `json:"listings"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func toReconciledProductResponse(p *reconciliation.ReconciledProduct) ReconciledProductResponse {
	resp := ReconciledProductResponse{
		ID:          p.ID.String(),
		SellerID:    p.SellerID.String(),
		Name:        p.Name,
		Brand:       p.Brand,
		Description: p.Description,
		Barcode:     p.Barcode,
		TotalStock:  p.TotalStock,
		Price:       p.Price.String(),
		Listings:    make([]ListingResponse, 0, len(p.Listings)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	for _, l := range p.Listings {
		resp.Listings = append(resp.Listings, ListingResponse{
			Marketplace:      l.Marketplace,
			ExternalID:       l.ExternalID,
			SKU:              l.SKU,
			Price:            l.Price.String(),
			Stock:            l.Stock,
			Status:           l.Status,
			LastReconciledAt: l.LastReconciledAt,
		})
	}
	return resp
}

// List godoc
// @Summary      List canonical products
// @Description  Lists the seller's canonical products produced by reconciliation runs
// @Tags         products
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name search"
// @Success      200 {object} dto.Response{data=[]ReconciledProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/products [get]
func (h *ReconciledProductHandler) List(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	var query ProductListFilter
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.DefaultFilter()
	if query.Page > 0 {
		filter.Page = query.Page
	}
	if query.PageSize > 0 {
		filter.PageSize = query.PageSize
	}
	filter.Search = query.Search

	products, err := h.repo.FindAllForSeller(c.Request.Context(), sellerID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	total, err := h.repo.CountForSeller(c.Request.Context(), sellerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]ReconciledProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, toReconciledProductResponse(&products[i]))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get a canonical product
// @Description  Retrieves one canonical product with all of its marketplace listings
// @Tags         products
// @Produce      json
// @Param        X-Seller-ID header string true "Seller ID"
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} dto.Response{data=ReconciledProductResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /reconciliation/products/{id} [get]
func (h *ReconciledProductHandler) GetByID(c *gin.Context) {
	sellerID, err := getSellerID(c)
	if err != nil {
		h.Unauthorized(c, "Seller identification required")
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	product, err := h.repo.FindByID(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	// Canonical products are seller-scoped
	if product.SellerID != sellerID {
		h.NotFound(c, "Product not found")
		return
	}

	h.Success(c, toReconciledProductResponse(product))
}
