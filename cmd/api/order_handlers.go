package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"orderdesk/pkg/apperr"
	"orderdesk/pkg/order"
	"orderdesk/pkg/otel"
)

const defaultPageSize = 20

// createOrderHandler creates a new order and authorizes payment for it.
// @Summary Create order
// @Tags orders
// @Accept json
// @Produce json
// @Param order body createOrderRequest true "Order"
// @Success 201 {object} orderResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Failure 422 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders [post]
func createOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createOrderHandler")
	defer span.End()

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := orders.Create(ctx, req.toInput(), actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

// listOrdersHandler lists orders, newest first. Customers only see their own orders.
// @Summary List orders
// @Tags orders
// @Produce json
// @Param status query string false "Filter by status"
// @Param customer_id query string false "Filter by customer (admins only)"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Success 200 {object} orderListResponse
// @Security SessionAuth
// @Router /api/v1/orders [get]
func listOrdersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listOrdersHandler")
	defer span.End()

	in, err := listInput(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOrderPage(w, r, in, func() ([]order.Order, int, error) {
		return orders.List(ctx, in, actingSession(r))
	})
}

func listInput(r *http.Request) (order.ListInput, error) {
	q := r.URL.Query()
	in := order.ListInput{
		CustomerID: q.Get("customer_id"),
		Page:       1,
		PageSize:   defaultPageSize,
	}
	var err error
	if v := q.Get("status"); v != "" {
		if in.Status, err = order.ParseStatus(v); err != nil {
			return in, apperr.Validation("status", err.Error())
		}
	}
	if v := q.Get("page"); v != "" {
		if in.Page, err = strconv.Atoi(v); err != nil {
			return in, apperr.Validation("page", "page must be an integer")
		}
	}
	if v := q.Get("page_size"); v != "" {
		if in.PageSize, err = strconv.Atoi(v); err != nil {
			return in, apperr.Validation("page_size", "page_size must be an integer")
		}
	}
	return in, nil
}

func writeOrderPage(w http.ResponseWriter, r *http.Request, in order.ListInput, list func() ([]order.Order, int, error)) {
	found, total, err := list()
	if err != nil {
		writeError(w, r, err)
		return
	}
	items := make([]orderResponse, len(found))
	for i, o := range found {
		items[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Items:    items,
		Total:    total,
		Page:     in.Page,
		PageSize: in.PageSize,
		HasMore:  in.Page*in.PageSize < total,
	})
}

// getOrderHandler retrieves an order by ID.
// @Summary Get order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} orderResponse
// @Failure 403 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders/{id} [get]
func getOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderHandler")
	defer span.End()

	o, err := orders.Get(ctx, mux.Vars(r)["id"], actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// updateOrderHandler changes the address or notes of a pending order.
// @Summary Update order
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param patch body updateOrderRequest true "Changes"
// @Success 200 {object} orderResponse
// @Failure 400 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders/{id} [patch]
func updateOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateOrderHandler")
	defer span.End()

	var req updateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := order.Patch{Notes: req.Notes}
	if req.ShippingAddress != nil {
		addr := req.ShippingAddress.toDomain()
		patch.ShippingAddress = &addr
	}
	o, err := orders.Update(ctx, mux.Vars(r)["id"], patch, actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// cancelOrderHandler cancels a pending or confirmed order.
// @Summary Cancel order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} orderResponse
// @Failure 400 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders/{id}/cancel [post]
func cancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "cancelOrderHandler")
	defer span.End()

	o, err := orders.Cancel(ctx, mux.Vars(r)["id"], actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// transitionOrderHandler moves an order to another status.
// @Summary Change order status
// @Description Administrators only. Shipping captures payment, refunding refunds the full total.
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param transition body transitionRequest true "Target status"
// @Success 200 {object} orderResponse
// @Failure 400 {object} errorResponse
// @Failure 403 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders/{id}/status [post]
func transitionOrderHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "transitionOrderHandler")
	defer span.End()

	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, apperr.Validation("status", err.Error()))
		return
	}
	o, err := orders.Transition(ctx, mux.Vars(r)["id"], to,
		order.TransitionInput{TrackingNumber: req.TrackingNumber, Reason: req.Reason}, actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// getOrderPaymentHandler reports the payment behind an order.
// @Summary Get order payment
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} payment.Status
// @Failure 404 {object} errorResponse
// @Security SessionAuth
// @Router /api/v1/orders/{id}/payment [get]
func getOrderPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getOrderPaymentHandler")
	defer span.End()

	o, err := orders.Get(ctx, mux.Vars(r)["id"], actingSession(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if o.PaymentID == "" {
		writeError(w, r, apperr.New(apperr.NotFound, "PAYMENT_NOT_FOUND", "Order has no payment").
			WithDetail("order_id", o.ID))
		return
	}
	writeJSON(w, http.StatusOK, payments.Status(ctx, o.PaymentID))
}
