package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/customer"
	"orderdesk/pkg/order"
	"orderdesk/pkg/otel"
)

// listCustomersHandler lists customers. Administrators only.
// @Summary List customers
// @Tags customers
// @Produce json
// @Param tier query string false "standard, premium or enterprise"
// @Param active_only query bool false "Only active accounts" default(true)
// @Param limit query int false "Maximum results (1-200)" default(50)
// @Success 200 {object} customerListResponse
// @Security SessionAuth
// @Router /api/v1/customers [get]
func listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listCustomersHandler")
	defer span.End()

	q := r.URL.Query()
	f := customer.Filter{ActiveOnly: true, Limit: 50}
	if v := q.Get("tier"); v != "" {
		tier, err := customer.ParseTier(v)
		if err != nil {
			writeError(w, r, apperr.Validation("tier", err.Error()))
			return
		}
		f.Tier = tier
	}
	if v := q.Get("active_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, apperr.Validation("active_only", "active_only must be a boolean"))
			return
		}
		f.ActiveOnly = b
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, apperr.Validation("limit", "limit must be an integer"))
			return
		}
		f.Limit = n
	}

	found, err := customers.List(ctx, f, actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customerListResponse{Customers: found, Count: len(found)})
}

// createCustomerHandler registers a customer. Administrators only.
// @Summary Create customer
// @Tags customers
// @Accept json
// @Produce json
// @Param customer body createCustomerRequest true "Customer"
// @Success 201 {object} customer.Customer
// @Failure 400 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/customers [post]
func createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createCustomerHandler")
	defer span.End()

	var req createCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := customers.Create(ctx, customer.CreateInput{Name: req.Name, Email: req.Email, Company: req.Company}, actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// getCustomerHandler returns one customer.
// @Summary Get customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} customer.Customer
// @Failure 404 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/customers/{id} [get]
func getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getCustomerHandler")
	defer span.End()

	c, err := customers.Get(ctx, mux.Vars(r)["id"], actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// updateCustomerHandler changes name, email or tier.
// @Summary Update customer
// @Tags customers
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param patch body updateCustomerRequest true "Changes"
// @Success 200 {object} customer.Customer
// @Security SessionAuth
// @Router /api/v1/customers/{id} [patch]
func updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateCustomerHandler")
	defer span.End()

	var req updateCustomerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := customer.Patch{Name: req.Name, Email: req.Email}
	if req.Tier != nil {
		tier, err := customer.ParseTier(*req.Tier)
		if err != nil {
			writeError(w, r, apperr.Validation("tier", err.Error()))
			return
		}
		patch.Tier = &tier
	}
	c, err := customers.Update(ctx, mux.Vars(r)["id"], patch, actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// deactivateCustomerHandler soft-deletes a customer. Administrators only.
// @Summary Deactivate customer
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} customer.Customer
// @Security SessionAuth
// @Router /api/v1/customers/{id} [delete]
func deactivateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deactivateCustomerHandler")
	defer span.End()

	c, err := customers.Deactivate(ctx, mux.Vars(r)["id"], actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// customerOrdersHandler lists the orders of one customer.
// @Summary List customer orders
// @Tags customers
// @Produce json
// @Param id path string true "Customer ID"
// @Param status query string false "Filter by status"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} orderListResponse
// @Security SessionAuth
// @Router /api/v1/customers/{id}/orders [get]
func customerOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "customerOrdersHandler")
	defer span.End()

	acting := actingSession(r)
	id := mux.Vars(r)["id"]
	if _, err := customers.Get(ctx, id, acting); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := listInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.CustomerID = id
	writeOrderPage(w, r, in, func() ([]order.Order, int, error) {
		return orders.List(ctx, in, acting)
	})
}
