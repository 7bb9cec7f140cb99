package marketplace

import (
	"context"

	"github.com/google/uuid"
)

// Pagination describes one page of a catalog pull
type Pagination struct {
	// Page is the page number (0-indexed, matching most marketplace APIs)
	Page int
	// Size is the number of records per page
	Size int
}

// ProductPage is one page of raw product records from a marketplace
type ProductPage struct {
	// Items contains the raw records for this page
	Items []RawProduct
	// TotalCount is the total number of products the marketplace reports
	TotalCount int64
	// HasMore indicates if there are more pages
	HasMore bool
}

// Adapter is the port interface for a marketplace's own product API.
// It follows the Ports & Adapters pattern: the interface lives in the domain
// layer and concrete HTTP clients (Trendyol, Hepsiburada, N11, Amazon) live in
// the infrastructure layer. The reconciliation engine only ever consumes the
// already-fetched record lists; adapter failures are input unavailability,
// never engine errors.
type Adapter interface {
	// Code returns the marketplace this adapter talks to
	Code() Code

	// IsEnabled returns true if this marketplace is enabled for the seller
	IsEnabled(ctx context.Context, sellerID uuid.UUID) (bool, error)

	// FetchProducts pulls one page of the seller's product catalog
	FetchProducts(ctx context.Context, sellerID uuid.UUID, page Pagination) (*ProductPage, error)
}

// AdapterRegistry provides access to configured marketplace adapters
type AdapterRegistry interface {
	// Get returns the adapter for the specified marketplace
	Get(code Code) (Adapter, error)

	// List returns all registered adapters
	List() []Adapter

	// ListEnabled returns all adapters enabled for a seller
	ListEnabled(ctx context.Context, sellerID uuid.UUID) ([]Adapter, error)
}
