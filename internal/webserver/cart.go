package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/storefront/internal/cart"
	"github.com/nikolayk812/storefront/internal/domain"
	"golang.org/x/text/language"
)

const storageWarning = "Your cart could not be saved and may be lost when the session ends"

type lineView struct {
	ID        domain.ProductID `json:"id"`
	Title     string           `json:"title"`
	Price     string           `json:"price"`
	Image     string           `json:"image"`
	Quantity  int              `json:"quantity"`
	LineTotal string           `json:"line_total"`
}

type cartView struct {
	Items        []lineView `json:"items"`
	TotalItems   int        `json:"total_items"`
	TotalPrice   string     `json:"total_price"`
	TotalDisplay string     `json:"total_display"`
	Currency     string     `json:"currency"`
	Warning      string     `json:"warning,omitempty"`
}

type countView struct {
	TotalItems int `json:"total_items"`
}

type addItemRequest struct {
	ProductID domain.ProductID `json:"product_id"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func newCartView(c domain.Cart, persistErr error) cartView {
	items := make([]lineView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, lineView{
			ID:        item.ID,
			Title:     item.Title,
			Price:     item.Price.String(),
			Image:     item.Image,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal().String(),
		})
	}

	view := cartView{
		Items:        items,
		TotalItems:   c.TotalItems(),
		TotalPrice:   c.TotalPrice().String(),
		TotalDisplay: c.Total().Display(language.AmericanEnglish),
		Currency:     c.Currency.String(),
	}
	if persistErr != nil {
		view.Warning = storageWarning
	}
	return view
}

func storeView(store *cart.Store) cartView {
	return newCartView(store.Cart(), store.PersistErr())
}

func (s *Server) getCart(c echo.Context) error {
	store := s.openCart(c)
	snapshot := store.Cart()

	ids := make([]domain.ProductID, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		ids = append(ids, item.ID)
	}
	s.track(c, domain.PageView{PageType: domain.PageCart, ProductIDs: ids})

	return ok(c, newCartView(snapshot, store.PersistErr()))
}

func (s *Server) cartCount(c echo.Context) error {
	return ok(c, countView{TotalItems: s.openCart(c).TotalItems()})
}

// addItem snapshots the product from the catalog and adds it to the cart.
func (s *Server) addItem(c echo.Context) error {
	var req addItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse item", err.Error())
	}
	if req.ProductID == "" {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "product_id is required", nil)
	}

	p, err := s.catalog.Product(c.Request().Context(), req.ProductID)
	if err != nil {
		return s.catalogFail(c, err)
	}
	if !p.Addable() {
		return fail(c, http.StatusUnprocessableEntity, "PRODUCT_NOT_ADDABLE", "Product cannot be added to the cart", nil)
	}

	store := s.openCart(c)
	store.AddItem(p)

	return ok(c, storeView(store))
}

func (s *Server) updateQuantity(c echo.Context) error {
	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be an integer", err.Error())
	}
	if req.Quantity == nil {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be an integer", nil)
	}
	if *req.Quantity > domain.MaxQuantity {
		return fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity is too large",
			map[string]int{"max": domain.MaxQuantity})
	}

	store := s.openCart(c)
	store.UpdateQuantity(domain.ProductID(c.Param("id")), *req.Quantity)

	return ok(c, storeView(store))
}

func (s *Server) removeItem(c echo.Context) error {
	store := s.openCart(c)
	store.RemoveItem(domain.ProductID(c.Param("id")))

	return ok(c, storeView(store))
}

func (s *Server) clearCart(c echo.Context) error {
	store := s.openCart(c)
	store.ClearCart()

	return ok(c, storeView(store))
}
