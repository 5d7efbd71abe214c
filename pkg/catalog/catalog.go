// Package catalog holds the product catalog used to browse products and validate order lines.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"orderdesk/pkg/apperr"
)

// Category groups products.
type Category string

const (
	CategoryElectronics    Category = "electronics"
	CategoryFurniture      Category = "furniture"
	CategoryOfficeSupplies Category = "office_supplies"
	CategorySoftware       Category = "software"
)

var categories = map[Category]bool{
	CategoryElectronics: true, CategoryFurniture: true, CategoryOfficeSupplies: true, CategorySoftware: true,
}

// ParseCategory accepts a category name in any case.
func ParseCategory(v string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(v)))
	if !categories[c] {
		return "", apperr.Newf(apperr.ValidationFailed, "INVALID_CATEGORY", "Invalid category: %s", v).
			WithDetail("field", "category")
	}
	return c, nil
}

// Product is one sellable item.
type Product struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Category      Category        `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

// InStock reports whether any units are available.
func (p Product) InStock() bool { return p.StockQuantity > 0 }

// Filter narrows List. Nil price bounds are open.
type Filter struct {
	Category    Category
	InStockOnly bool
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
}

// Catalog is a read-mostly in-memory product list.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]Product
}

// New creates a catalog holding products.
func New(products ...Product) *Catalog {
	c := &Catalog{products: make(map[string]Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// List returns active products matching f ordered by id.
func (c *Catalog) List(_ context.Context, f Filter) []Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	c.mu.RLock()
	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		switch {
		case !p.IsActive:
		case f.Category != "" && p.Category != f.Category:
		case f.InStockOnly && !p.InStock():
		case search != "" && !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search):
		case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
		case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
		default:
			out = append(out, p)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a product by id.
func (c *Catalog) Get(_ context.Context, id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, notFound("id", id)
	}
	return p, nil
}

// GetBySKU returns a product by sku.
func (c *Catalog) GetBySKU(_ context.Context, sku string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, notFound("sku", sku)
}

// Describe returns the sku and name of an active product.
func (c *Catalog) Describe(_ context.Context, productID string) (sku, name string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, found := c.products[productID]
	if !found || !p.IsActive {
		return "", "", false
	}
	return p.SKU, p.Name, true
}

func notFound(field, value string) error {
	return apperr.New(apperr.NotFound, "PRODUCT_NOT_FOUND", fmt.Sprintf("Product with %s %s not found", field, value))
}

// Seed returns the default product list.
func Seed() []Product {
	price := decimal.RequireFromString
	return []Product{
		{ID: "prod_001", SKU: "LAPTOP-PRO-15", Name: `ProBook Laptop 15"`, Description: "Professional laptop with 16GB RAM",
			Price: price("1299.99"), Category: CategoryElectronics, StockQuantity: 50, IsActive: true},
		{ID: "prod_002", SKU: "MOUSE-WL-001", Name: "Wireless Mouse", Description: "Ergonomic wireless mouse",
			Price: price("49.99"), Category: CategoryElectronics, StockQuantity: 200, IsActive: true},
		{ID: "prod_003", SKU: "DESK-STD-001", Name: "Standing Desk", Description: "Adjustable height standing desk",
			Price: price("599.99"), Category: CategoryFurniture, StockQuantity: 25, IsActive: true},
		{ID: "prod_004", SKU: "CHAIR-ERG-001", Name: "Ergonomic Office Chair", Description: "Lumbar support office chair",
			Price: price("399.99"), Category: CategoryFurniture, StockQuantity: 40, IsActive: true},
		{ID: "prod_005", SKU: "MONITOR-27-4K", Name: `27" 4K Monitor`, Description: "Ultra HD professional display",
			Price: price("549.99"), Category: CategoryElectronics, StockQuantity: 75, IsActive: true},
	}
}
