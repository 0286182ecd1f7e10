package catalog_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const productsJSON = `[
	{"id":1,"title":"Backpack","price":109.95,"category":"men's clothing","image":"a.jpg","rating":{"rate":3.9,"count":120}},
	{"id":5,"title":"Bracelet","price":695,"category":"jewelery","image":"b.jpg","rating":{"rate":4.6,"count":400}}
]`

func newServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *catalog.Client {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return catalog.New(srv.URL+"/", catalog.WithLogger(zaptest.NewLogger(t)), catalog.WithTimeout(2*time.Second))
}

func writeJSON(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_Products(t *testing.T) {
	var gotLimit string
	c := newServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /products": func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			writeJSON(productsJSON)(w, r)
		},
	})

	products, err := c.Products(t.Context(), 8)
	require.NoError(t, err)

	assert.Equal(t, "8", gotLimit)
	require.Len(t, products, 2)
	assert.Equal(t, domain.ProductID("1"), products[0].ID)
	assert.True(t, decimal.RequireFromString("109.95").Equal(products[0].Price))
	assert.Equal(t, "jewelery", products[1].Category)
}

func TestClient_ProductsByCategory(t *testing.T) {
	var gotPath string
	c := newServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /products/category/{name}": func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.PathValue("name")
			writeJSON(productsJSON)(w, r)
		},
	})

	products, err := c.ProductsByCategory(t.Context(), "men's clothing")
	require.NoError(t, err)

	assert.Equal(t, "men's clothing", gotPath)
	assert.Len(t, products, 2)

	_, err = c.ProductsByCategory(t.Context(), "")
	assert.Error(t, err)
}

func TestClient_Product(t *testing.T) {
	c := newServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /products/1":   writeJSON(`{"id":1,"title":"Backpack","price":109.95}`),
		"GET /products/404": func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
		"GET /products/500": func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"GET /products/777": writeJSON(``),
		"GET /products/bad": writeJSON(`{"id":`),
	})

	tests := []struct {
		name    string
		id      domain.ProductID
		wantErr error
	}{
		{name: "found", id: "1"},
		{name: "404: not found", id: "404", wantErr: catalog.ErrProductNotFound},
		{name: "empty body: not found", id: "777", wantErr: catalog.ErrProductNotFound},
		{name: "500: unavailable", id: "500", wantErr: catalog.ErrCatalogUnavailable},
		{name: "malformed body: unavailable", id: "bad", wantErr: catalog.ErrCatalogUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Product(t.Context(), tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, p.ID)
			assert.Equal(t, "Backpack", p.Title)
		})
	}
}

func TestClient_NotFoundPerEndpoint(t *testing.T) {
	c := newServer(t, map[string]func(http.ResponseWriter, *http.Request){})

	_, err := c.Products(t.Context(), 0)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = c.Categories(t.Context())
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.NotErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = c.ProductsByCategory(t.Context(), "toys")
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
	assert.NotErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = c.Product(t.Context(), "1")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := catalog.New(srv.URL)
	_, err := c.Categories(t.Context())
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}

func TestClient_ContextCanceled(t *testing.T) {
	c := newServer(t, map[string]func(http.ResponseWriter, *http.Request){
		"GET /products/categories": writeJSON(`["electronics"]`),
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := c.Categories(ctx)
	assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
}
