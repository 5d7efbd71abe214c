// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "SessionAuth": {"type": "apiKey", "name": "X-Session-ID", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login",
            "parameters": [{"in": "body", "name": "creds", "required": true, "schema": {"$ref": "#/definitions/loginRequest"}}],
            "responses": {"201": {"description": "Created"}, "401": {"description": "Unknown or inactive account"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout", "security": [{"SessionAuth": []}],
            "responses": {"204": {"description": "No Content"}}}},
        "/auth/session": {"get": {"tags": ["auth"], "summary": "Current session", "security": [{"SessionAuth": []}],
            "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid or expired session"}}}},
        "/api/v1/orders": {
            "get": {"tags": ["orders"], "summary": "List orders", "security": [{"SessionAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string"},
                    {"in": "query", "name": "customer_id", "type": "string"},
                    {"in": "query", "name": "page", "type": "integer", "default": 1},
                    {"in": "query", "name": "page_size", "type": "integer", "default": 20}
                ],
                "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["orders"], "summary": "Create order", "security": [{"SessionAuth": []}],
                "parameters": [{"in": "body", "name": "order", "required": true, "schema": {"$ref": "#/definitions/createOrderRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Payment authorization failed"}, "422": {"description": "Validation failed"}}}
        },
        "/api/v1/orders/{id}": {
            "get": {"tags": ["orders"], "summary": "Get order", "security": [{"SessionAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "patch": {"tags": ["orders"], "summary": "Update order", "security": [{"SessionAuth": []}],
                "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Order not modifiable"}}}
        },
        "/api/v1/orders/{id}/cancel": {"post": {"tags": ["orders"], "summary": "Cancel order", "security": [{"SessionAuth": []}],
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Order cannot be cancelled"}}}},
        "/api/v1/orders/{id}/status": {"post": {"tags": ["orders"], "summary": "Change order status", "security": [{"SessionAuth": []}],
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid transition"}, "403": {"description": "Admin required"}}}},
        "/api/v1/orders/{id}/payment": {"get": {"tags": ["orders"], "summary": "Get order payment", "security": [{"SessionAuth": []}],
            "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "No payment"}}}},
        "/api/v1/customers": {
            "get": {"tags": ["customers"], "summary": "List customers", "security": [{"SessionAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["customers"], "summary": "Create customer", "security": [{"SessionAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/customers/{id}": {
            "get": {"tags": ["customers"], "summary": "Get customer", "security": [{"SessionAuth": []}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["customers"], "summary": "Update customer", "security": [{"SessionAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["customers"], "summary": "Deactivate customer", "security": [{"SessionAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/customers/{id}/orders": {"get": {"tags": ["customers"], "summary": "List customer orders", "security": [{"SessionAuth": []}],
            "responses": {"200": {"description": "OK"}}}},
        "/api/v1/products": {"get": {"tags": ["products"], "summary": "List products", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/products/{id}": {"get": {"tags": ["products"], "summary": "Get product", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/products/sku/{sku}": {"get": {"tags": ["products"], "summary": "Get product by SKU", "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "loginRequest": {"type": "object", "properties": {"email": {"type": "string", "example": "orders@acme.com"}}},
        "createOrderRequest": {"type": "object", "properties": {
            "customer_id": {"type": "string", "example": "cust_001"},
            "items": {"type": "array", "items": {"type": "object", "properties": {
                "product_id": {"type": "string"}, "sku": {"type": "string"}, "name": {"type": "string"},
                "quantity": {"type": "integer"}, "unit_price": {"type": "string"}}}},
            "shipping_address": {"type": "object", "properties": {
                "street": {"type": "string"}, "city": {"type": "string"}, "state": {"type": "string"},
                "postal_code": {"type": "string"}, "country": {"type": "string"}}},
            "notes": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "2.4.1",
	Host:             "localhost:8443",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "OrderDesk API",
	Description:      "Order management API: customers, products and the order lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
