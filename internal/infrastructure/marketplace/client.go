package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/backend/internal/domain/marketplace"
)

// maxResponseSize is the maximum allowed catalog response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Errors for client configuration
var (
	ErrClientMissingBaseURL = errors.New("marketplace: client base URL is required")
	ErrClientMissingAPIKey  = errors.New("marketplace: client API key is required")
	ErrClientInvalidPage    = errors.New("marketplace: client page size must be positive")
)

// ClientConfig holds the per-marketplace catalog client configuration
type ClientConfig struct {
	// BaseURL is the marketplace's product API endpoint
	BaseURL string
	// APIKey authenticates catalog pulls
	APIKey string
	// PageSize is the number of records requested per page
	PageSize int
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// Enabled gates the marketplace for reconciliation runs
	Enabled bool
	// RatePerSecond bounds requests per second against this marketplace
	RatePerSecond float64
	// RateBurst is the rate limiter burst size
	RateBurst int
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrClientMissingBaseURL
	}
	if c.APIKey == "" {
		return ErrClientMissingAPIKey
	}
	if c.PageSize <= 0 {
		return ErrClientInvalidPage
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 5
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 1
	}
	return nil
}

// envelope describes where a marketplace's product API puts the page payload.
// The record shape inside the items array stays marketplace-specific; only the
// mapper reads it.
type envelope struct {
	// itemsField is the JSON field holding the record array
	itemsField string
	// totalField is the JSON field holding the total record count
	totalField string
	// hasMoreField is the JSON field holding the more-pages flag; empty means
	// derive it from page arithmetic
	hasMoreField string
}

// CatalogClient is an HTTP marketplace.Adapter for one marketplace's product
// API. All four marketplaces share the transport; the envelope and auth header
// differ per marketplace.
type CatalogClient struct {
	code       marketplace.Code
	config     ClientConfig
	envelope   envelope
	authHeader string
	httpClient *http.Client
}

// NewTrendyolClient creates the Trendyol supplier-API catalog client
func NewTrendyolClient(config ClientConfig) (*CatalogClient, error) {
	return newCatalogClient(marketplace.CodeTrendyol, config, envelope{
		itemsField: "content",
		totalField: "totalElements",
	}, "Authorization")
}

// NewHepsiburadaClient creates the Hepsiburada listing-API catalog client
func NewHepsiburadaClient(config ClientConfig) (*CatalogClient, error) {
	return newCatalogClient(marketplace.CodeHepsiburada, config, envelope{
		itemsField: "listings",
		totalField: "totalCount",
	}, "Authorization")
}

// NewN11Client creates the N11 product-API catalog client
func NewN11Client(config ClientConfig) (*CatalogClient, error) {
	return newCatalogClient(marketplace.CodeN11, config, envelope{
		itemsField:   "products",
		totalField:   "totalCount",
		hasMoreField: "hasMore",
	}, "appkey")
}

// NewAmazonClient creates the Amazon SP-API catalog client
func NewAmazonClient(config ClientConfig) (*CatalogClient, error) {
	return newCatalogClient(marketplace.CodeAmazon, config, envelope{
		itemsField: "items",
		totalField: "numberOfResults",
	}, "x-amz-access-token")
}

func newCatalogClient(code marketplace.Code, config ClientConfig, env envelope, authHeader string) (*CatalogClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CatalogClient{
		code:       code,
		config:     config,
		envelope:   env,
		authHeader: authHeader,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Code returns the marketplace this client talks to
func (c *CatalogClient) Code() marketplace.Code {
	return c.code
}

// IsEnabled returns true if this marketplace is enabled for the seller
func (c *CatalogClient) IsEnabled(ctx context.Context, sellerID uuid.UUID) (bool, error) {
	return c.config.Enabled, nil
}

// Config returns the client configuration
func (c *CatalogClient) Config() ClientConfig {
	return c.config
}

// FetchProducts pulls one page of the seller's product catalog
func (c *CatalogClient) FetchProducts(ctx context.Context, sellerID uuid.UUID, page marketplace.Pagination) (*marketplace.ProductPage, error) {
	if page.Size <= 0 {
		page.Size = c.config.PageSize
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page.Page))
	query.Set("size", strconv.Itoa(page.Size))
	query.Set("sellerId", sellerID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", c.code, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.authHeader, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", c.code, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrRequestFailed, resp.StatusCode)
	}

	return c.decodePage(body, page)
}

func (c *CatalogClient) decodePage(body []byte, page marketplace.Pagination) (*marketplace.ProductPage, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}
	raw := marketplace.RawProduct(payload)

	items := raw.Slice(c.envelope.itemsField)
	records := make([]marketplace.RawProduct, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: non-object product record", marketplace.ErrInvalidResponse)
		}
		records = append(records, marketplace.RawProduct(m))
	}

	total := raw.Int(c.envelope.totalField)
	result := &marketplace.ProductPage{
		Items:      records,
		TotalCount: total,
	}

	if c.envelope.hasMoreField != "" {
		more, _ := payload[c.envelope.hasMoreField].(bool)
		result.HasMore = more
	} else {
		fetched := int64(page.Page+1) * int64(page.Size)
		result.HasMore = len(records) > 0 && fetched < total
	}
	return result, nil
}

// Ensure CatalogClient implements the adapter port
var _ marketplace.Adapter = (*CatalogClient)(nil)
