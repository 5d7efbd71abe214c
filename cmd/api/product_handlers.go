package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/catalog"
	"orderdesk/pkg/otel"
)

// listProductsHandler lists the catalog. No session required.
// @Summary List products
// @Tags products
// @Produce json
// @Param category query string false "electronics, furniture, office_supplies or software"
// @Param in_stock_only query bool false "Only products in stock"
// @Param search query string false "Search name and description"
// @Param min_price query string false "Minimum price"
// @Param max_price query string false "Maximum price"
// @Success 200 {object} productListResponse
// @Router /api/v1/products [get]
func listProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listProductsHandler")
	defer span.End()

	q := r.URL.Query()
	f := catalog.Filter{Search: q.Get("search")}
	if v := q.Get("category"); v != "" {
		c, err := catalog.ParseCategory(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		f.Category = c
	}
	if v := q.Get("in_stock_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, apperr.Validation("in_stock_only", "in_stock_only must be a boolean"))
			return
		}
		f.InStockOnly = b
	}
	for name, dst := range map[string]**decimal.Decimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			writeError(w, r, apperr.Validation(name, name+" must be a decimal amount"))
			return
		}
		*dst = &d
	}

	found := products.List(ctx, f)
	out := make([]productResponse, len(found))
	for i, p := range found {
		out[i] = toProductResponse(p)
	}
	writeJSON(w, http.StatusOK, productListResponse{Products: out, Total: len(out)})
}

// getProductHandler returns a product by id.
// @Summary Get product
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} productResponse
// @Failure 404 {object} errorResponse
// @Router /api/v1/products/{id} [get]
func getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductHandler")
	defer span.End()

	p, err := products.Get(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// getProductBySKUHandler returns a product by sku.
// @Summary Get product by SKU
// @Tags products
// @Produce json
// @Param sku path string true "SKU"
// @Success 200 {object} productResponse
// @Failure 404 {object} errorResponse
// @Router /api/v1/products/sku/{sku} [get]
func getProductBySKUHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getProductBySKUHandler")
	defer span.End()

	p, err := products.GetBySKU(ctx, mux.Vars(r)["sku"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}
