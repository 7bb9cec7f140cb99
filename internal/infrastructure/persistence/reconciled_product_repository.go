package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/reconciliation"
	"github.com/sellerhub/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ReconciledProductSortFields contains allowed sort fields for canonical products
var ReconciledProductSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"brand":       true,
	"barcode":     true,
	"total_stock": true,
	"price":       true,
}

// GormReconciledProductRepository implements ReconciledProductRepository using GORM
type GormReconciledProductRepository struct {
	db *gorm.DB
}

// NewGormReconciledProductRepository creates a new GormReconciledProductRepository
func NewGormReconciledProductRepository(db *gorm.DB) *GormReconciledProductRepository {
	return &GormReconciledProductRepository{db: db}
}

// FindByID finds a canonical product with its listings
func (r *GormReconciledProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.ReconciledProduct, error) {
	var product reconciliation.ReconciledProduct
	if err := r.db.WithContext(ctx).
		Preload("Listings").
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByName finds a seller's canonical product by exact name
func (r *GormReconciledProductRepository) FindByName(ctx context.Context, sellerID uuid.UUID, name string) (*reconciliation.ReconciledProduct, error) {
	var product reconciliation.ReconciledProduct
	if err := r.db.WithContext(ctx).
		Preload("Listings").
		Where("seller_id = ? AND name = ?", sellerID, name).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByListingSKU finds the canonical product owning a listing with the given
// marketplace SKU
func (r *GormReconciledProductRepository) FindByListingSKU(ctx context.Context, sellerID uuid.UUID, code marketplace.Code, sku string) (*reconciliation.ReconciledProduct, error) {
	if sku == "" {
		return nil, shared.ErrNotFound
	}
	var product reconciliation.ReconciledProduct
	if err := r.db.WithContext(ctx).
		Preload("Listings").
		Joins("JOIN marketplace_listings ON marketplace_listings.product_id = reconciled_products.id").
		Where("reconciled_products.seller_id = ? AND marketplace_listings.marketplace = ? AND marketplace_listings.sku = ?",
			sellerID, code, sku).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAllForSeller lists a seller's canonical products
func (r *GormReconciledProductRepository) FindAllForSeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]reconciliation.ReconciledProduct, error) {
	var products []reconciliation.ReconciledProduct
	query := r.applyFilter(
		r.db.WithContext(ctx).
			Model(&reconciliation.ReconciledProduct{}).
			Preload("Listings").
			Where("seller_id = ?", sellerID),
		filter,
	)

	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CountForSeller counts a seller's canonical products
func (r *GormReconciledProductRepository) CountForSeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&reconciliation.ReconciledProduct{}).
		Where("seller_id = ?", sellerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SaveGroup persists one canonical product plus its listings in a single
// transaction. A failure rolls the whole group back and leaves every other
// group untouched.
func (r *GormReconciledProductRepository) SaveGroup(ctx context.Context, product *reconciliation.ReconciledProduct) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Listings").Save(product).Error; err != nil {
			return err
		}
		for i := range product.Listings {
			product.Listings[i].ProductID = product.ID
			if err := tx.Save(&product.Listings[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a canonical product and its listings
func (r *GormReconciledProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&reconciliation.MarketplaceListing{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&reconciliation.ReconciledProduct{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// applyFilter applies filter options including pagination and ordering
func (r *GormReconciledProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ReconciledProductSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormReconciledProductRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR brand ILIKE ? OR barcode ILIKE ?", searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "brand":
			query = query.Where("brand = ?", value)
		case "barcode":
			query = query.Where("barcode = ?", value)
		case "marketplace":
			code := marketplace.Code(strings.ToUpper(toString(value)))
			query = query.Where(
				"id IN (?)",
				r.db.Model(&reconciliation.MarketplaceListing{}).
					Select("product_id").
					Where("marketplace = ?", code),
			)
		case "min_stock":
			query = query.Where("total_stock >= ?", value)
		}
	}

	return query
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// Ensure GormReconciledProductRepository implements ReconciledProductRepository
var _ reconciliation.ReconciledProductRepository = (*GormReconciledProductRepository)(nil)
