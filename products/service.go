// Package products holds the request shapes of the dashboard and product-detail views and
// sends them through the authenticated pipeline.
package products

import (
	"context"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

const (
	RouteProducts = "/api/products"
	RouteAlerts   = "/api/alerts"
)

// API is the authenticated JSON pipeline; *client.Client implements it
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string) error
}

type Service struct {
	api API
}

func NewService(api API) *Service {
	return &Service{api: api}
}

func productPath(id uuid.UUID, suffix ...string) string {
	p := RouteProducts + "/" + id.String()
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

// List returns the caller's tracked products
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := s.api.Get(ctx, RouteProducts, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req ProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out Product
	if err := s.api.Post(ctx, RouteProducts, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	var out Product
	if err := s.api.Get(ctx, productPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out Product
	if err := s.api.Put(ctx, productPath(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete stops tracking the product
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.api.Delete(ctx, productPath(id))
}

// CheckNow asks the backend to scrape the product immediately and returns its status message
func (s *Service) CheckNow(ctx context.Context, id uuid.UUID) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := s.api.Post(ctx, productPath(id, "check"), nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// History returns samples from the last days days; days <= 0 returns the full history
func (s *Service) History(ctx context.Context, id uuid.UUID, days int) ([]PriceHistory, error) {
	var query url.Values
	if days > 0 {
		query = url.Values{"days": []string{strconv.Itoa(days)}}
	}
	var out []PriceHistory
	if err := s.api.Get(ctx, productPath(id, "history"), query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	var out Stats
	if err := s.api.Get(ctx, productPath(id, "stats"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAlerts returns the price-drop alerts raised for the caller's products
func (s *Service) ListAlerts(ctx context.Context) ([]Alert, error) {
	var out []Alert
	if err := s.api.Get(ctx, RouteAlerts, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DismissAlert(ctx context.Context, id uuid.UUID) error {
	return s.api.Delete(ctx, RouteAlerts+"/"+id.String())
}
