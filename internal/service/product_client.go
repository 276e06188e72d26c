package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"order-core/internal/models"
	"order-core/internal/util"
)

// ProductGateway resolves catalog data for product references. Prices are
// snapshotted through it at add/update time.
type ProductGateway interface {
	GetProduct(ctx context.Context, ref string) (*models.Product, error)
	GetProducts(ctx context.Context, refs []string) (map[string]models.Product, error)
}

// ProductClient is the HTTP ProductGateway against the product service.
type ProductClient struct {
	baseURL string
	client  *http.Client
}

// NewProductClient creates a product service client.
func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetProduct fetches one product by reference.
func (pc *ProductClient) GetProduct(ctx context.Context, ref string) (*models.Product, error) {
	start := time.Now()
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues("product").Observe(time.Since(start).Seconds())
	}()

	url := fmt.Sprintf("%s/api/products/%s", pc.baseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product lookup %s: %w: %v", ref, models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("product %s: %w", ref, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("product lookup %s: status %d: %w", ref, resp.StatusCode, models.ErrUpstreamUnavailable)
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("product lookup %s: %w: %v", ref, models.ErrUpstreamUnavailable, err)
	}
	if product.Ref == "" {
		product.Ref = ref
	}
	return &product, nil
}

// GetProducts batch-resolves the given references, deduplicated, keyed by ref.
// Used by view assembly so shape translation stays free of lookups.
func (pc *ProductClient) GetProducts(ctx context.Context, refs []string) (map[string]models.Product, error) {
	products := make(map[string]models.Product, len(refs))
	for _, ref := range refs {
		if _, ok := products[ref]; ok {
			continue
		}
		product, err := pc.GetProduct(ctx, ref)
		if err != nil {
			return nil, err
		}
		products[ref] = *product
	}
	return products, nil
}
