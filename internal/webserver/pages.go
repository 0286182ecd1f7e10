package webserver

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/storefront/internal/catalog"
	"github.com/nikolayk812/storefront/internal/domain"
	"go.uber.org/zap"
)

type homeView struct {
	Featured   []domain.Product `json:"featured"`
	Categories []string         `json:"categories"`
}

type categoryView struct {
	Category string           `json:"category"`
	Products []domain.Product `json:"products"`
}

func (s *Server) home(c echo.Context) error {
	home, err := catalog.LoadHome(c.Request().Context(), s.catalog)
	if err != nil {
		return s.catalogFail(c, err)
	}

	s.track(c, domain.PageView{
		PageType:   domain.PageStart,
		ProductIDs: catalog.ProductIDs(home.Featured),
	})

	return ok(c, homeView{Featured: home.Featured, Categories: home.Categories})
}

func (s *Server) category(c echo.Context) error {
	name, err := url.PathUnescape(c.Param("category"))
	if err != nil || name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_CATEGORY", "Invalid category", nil)
	}

	products, err := s.catalog.ProductsByCategory(c.Request().Context(), name)
	if err != nil {
		return s.catalogFail(c, err)
	}

	s.track(c, domain.PageView{
		PageType:   domain.PageCategory,
		ProductIDs: catalog.ProductIDs(products),
		CategoryID: name,
	})

	return ok(c, categoryView{Category: name, Products: products})
}

func (s *Server) product(c echo.Context) error {
	id := domain.ProductID(c.Param("id"))
	if id == "" {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	p, err := s.catalog.Product(c.Request().Context(), id)
	if err != nil {
		return s.catalogFail(c, err)
	}

	s.track(c, domain.PageView{
		PageType:   domain.PageProductDetail,
		ProductIDs: []domain.ProductID{p.ID},
		CategoryID: p.Category,
	})

	return ok(c, p)
}

func (s *Server) catalogFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	case errors.Is(err, catalog.ErrCategoryNotFound):
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	}

	s.log.Warn("catalog call failed", zap.String("path", c.Path()), zap.Error(err))
	return fail(c, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Catalog is unavailable", err.Error())
}
