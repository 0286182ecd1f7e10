// Package catalog is a read-only client for the product catalog REST API.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound    = errors.New("product not found in catalog")
	ErrCategoryNotFound   = errors.New("category not found in catalog")
	ErrCatalogUnavailable = errors.New("catalog unavailable or returned an error")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

var _ port.Catalog = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Products lists catalog products. A limit of zero or below lists all.
func (c *Client) Products(ctx context.Context, limit int) ([]domain.Product, error) {
	path := "/products"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var products []domain.Product
	if err := c.get(ctx, path, &products, ErrCatalogUnavailable); err != nil {
		return nil, fmt.Errorf("c.get products: %w", err)
	}
	return products, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.get(ctx, "/products/categories", &categories, ErrCatalogUnavailable); err != nil {
		return nil, fmt.Errorf("c.get categories: %w", err)
	}
	return categories, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return nil, errors.New("category is empty")
	}

	var products []domain.Product
	if err := c.get(ctx, "/products/category/"+url.PathEscape(category), &products, ErrCategoryNotFound); err != nil {
		return nil, fmt.Errorf("c.get category[%s]: %w", category, err)
	}
	return products, nil
}

// Product fetches a single product. The catalog answers unknown ids either
// with 404 or with an empty body; both map to ErrProductNotFound.
func (c *Client) Product(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	if id == "" {
		return domain.Product{}, errors.New("product id is empty")
	}

	var p domain.Product
	if err := c.get(ctx, "/products/"+url.PathEscape(id.String()), &p, ErrProductNotFound); err != nil {
		return domain.Product{}, fmt.Errorf("c.get product[%s]: %w", id, err)
	}
	if p.ID == "" {
		return domain.Product{}, fmt.Errorf("product[%s]: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// get decodes the JSON body of path into out. A 404 answer is reported as
// notFound.
func (c *Client) get(ctx context.Context, path string, out any, notFound error) error {
	u := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("catalog request failed", zap.String("url", u), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: status code %d", notFound, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("catalog returned non-OK status", zap.String("url", u), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status code %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrCatalogUnavailable, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrCatalogUnavailable, path, err)
	}

	c.log.Debug("catalog request done", zap.String("url", u))
	return nil
}
