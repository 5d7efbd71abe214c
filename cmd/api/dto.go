package main

import (
	"time"

	"github.com/shopspring/decimal"

	"orderdesk/pkg/catalog"
	"orderdesk/pkg/customer"
	"orderdesk/pkg/order"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// loginRequest identifies the user by email.
type loginRequest struct {
	Email string `json:"email" example:"orders@acme.com"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type addressRequest struct {
	Street     string `json:"street" example:"123 Main St"`
	City       string `json:"city" example:"Seattle"`
	State      string `json:"state" example:"WA"`
	PostalCode string `json:"postal_code" example:"98101"`
	Country    string `json:"country,omitempty" example:"US"`
	Name       string `json:"name,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (a addressRequest) toDomain() order.Address {
	return order.Address{
		Street: a.Street, City: a.City, State: a.State, PostalCode: a.PostalCode,
		Country: a.Country, Name: a.Name, Phone: a.Phone,
	}
}

type orderItemRequest struct {
	ProductID string          `json:"product_id" example:"prod_001"`
	SKU       string          `json:"sku,omitempty" example:"LAPTOP-PRO-15"`
	Name      string          `json:"name,omitempty" example:"ProBook Laptop"`
	Quantity  int             `json:"quantity" example:"1"`
	UnitPrice decimal.Decimal `json:"unit_price" swaggertype:"string" example:"1299.99"`
}

type createOrderRequest struct {
	CustomerID      string             `json:"customer_id" example:"cust_001"`
	Items           []orderItemRequest `json:"items"`
	ShippingAddress addressRequest     `json:"shipping_address"`
	Notes           string             `json:"notes,omitempty"`
}

func (req createOrderRequest) toInput() order.CreateInput {
	items := make([]order.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = order.ItemInput{
			ProductID: it.ProductID, SKU: it.SKU, Name: it.Name,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice,
		}
	}
	return order.CreateInput{
		CustomerID:      req.CustomerID,
		Items:           items,
		ShippingAddress: req.ShippingAddress.toDomain(),
		Notes:           req.Notes,
	}
}

type updateOrderRequest struct {
	ShippingAddress *addressRequest `json:"shipping_address,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
}

type transitionRequest struct {
	Status         string `json:"status" example:"shipped"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

type orderItemResponse struct {
	ProductID  string          `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" swaggertype:"string"`
	TotalPrice decimal.Decimal `json:"total_price" swaggertype:"string"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	Status          string              `json:"status"`
	Items           []orderItemResponse `json:"items"`
	ItemCount       int                 `json:"item_count"`
	Subtotal        decimal.Decimal     `json:"subtotal" swaggertype:"string"`
	Tax             decimal.Decimal     `json:"tax" swaggertype:"string"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost" swaggertype:"string"`
	Total           decimal.Decimal     `json:"total" swaggertype:"string"`
	ShippingAddress order.Address       `json:"shipping_address"`
	PaymentID       string              `json:"payment_id,omitempty"`
	RefundID        string              `json:"refund_id,omitempty"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ProductID: it.ProductID, SKU: it.SKU, Name: it.Name, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice, TotalPrice: it.TotalPrice(),
		}
	}
	return orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		Items:           items,
		ItemCount:       o.ItemCount(),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		ShippingCost:    o.ShippingCost,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		PaymentID:       o.PaymentID,
		RefundID:        o.RefundID,
		TrackingNumber:  o.TrackingNumber,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type orderListResponse struct {
	Items    []orderResponse `json:"items"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	HasMore  bool            `json:"has_more"`
}

type createCustomerRequest struct {
	Name    string `json:"name" example:"Contoso Ltd"`
	Email   string `json:"email" example:"buyer@contoso.com"`
	Company string `json:"company,omitempty"`
}

type updateCustomerRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Tier  *string `json:"tier,omitempty" example:"premium"`
}

type customerListResponse struct {
	Customers []customer.Customer `json:"customers"`
	Count     int                 `json:"count"`
}

type productResponse struct {
	catalog.Product
	InStock bool `json:"in_stock"`
}

type productListResponse struct {
	Products []productResponse `json:"products"`
	Total    int               `json:"total"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{Product: p, InStock: p.InStock()}
}
