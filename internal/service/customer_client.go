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

// CustomerGateway resolves address references. The cart stores only the
// reference; the lookup validates it exists.
type CustomerGateway interface {
	GetAddress(ctx context.Context, id int64) (*models.Address, error)
}

// CustomerClient is the HTTP CustomerGateway against the customer service.
type CustomerClient struct {
	baseURL string
	client  *http.Client
}

// NewCustomerClient creates a customer service client.
func NewCustomerClient(baseURL string, timeout time.Duration) *CustomerClient {
	return &CustomerClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetAddress fetches an address by id.
func (cc *CustomerClient) GetAddress(ctx context.Context, id int64) (*models.Address, error) {
	start := time.Now()
	defer func() {
		util.UpstreamRequestLatency.WithLabelValues("customer").Observe(time.Since(start).Seconds())
	}()

	url := fmt.Sprintf("%s/api/customers/address/%d", cc.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := cc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("address lookup %d: %w: %v", id, models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("address %d: %w", id, models.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("address lookup %d: status %d: %w", id, resp.StatusCode, models.ErrUpstreamUnavailable)
	}

	var address models.Address
	if err := json.NewDecoder(resp.Body).Decode(&address); err != nil {
		return nil, fmt.Errorf("address lookup %d: %w: %v", id, models.ErrUpstreamUnavailable, err)
	}
	return &address, nil
}
