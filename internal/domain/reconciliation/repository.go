package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
	"github.com/sellerhub/backend/internal/domain/shared"
)

// ReconciledProductReader defines the read side of canonical product persistence
type ReconciledProductReader interface {
	// FindByID finds a canonical product with its listings
	FindByID(ctx context.Context, id uuid.UUID) (*ReconciledProduct, error)

	// FindByName finds a seller's canonical product by exact name
	FindByName(ctx context.Context, sellerID uuid.UUID, name string) (*ReconciledProduct, error)

	// FindByListingSKU finds the canonical product owning a listing with the
	// given marketplace SKU
	FindByListingSKU(ctx context.Context, sellerID uuid.UUID, code marketplace.Code, sku string) (*ReconciledProduct, error)

	// FindAllForSeller lists a seller's canonical products
	FindAllForSeller(ctx context.Context, sellerID uuid.UUID, filter shared.Filter) ([]ReconciledProduct, error)

	// CountForSeller counts a seller's canonical products
	CountForSeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// ReconciledProductWriter defines the write side of canonical product
// persistence. SaveGroup is the transactional unit of the reconciliation
// writer: the canonical product and all of its listings commit or roll back
// together, and a failure affects that group only.
type ReconciledProductWriter interface {
	// SaveGroup persists one canonical product plus its listings in a single
	// transaction
	SaveGroup(ctx context.Context, product *ReconciledProduct) error

	// Delete removes a canonical product and its listings
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReconciledProductRepository is the full persistence interface
type ReconciledProductRepository interface {
	ReconciledProductReader
	ReconciledProductWriter
}
