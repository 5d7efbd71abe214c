package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// TaxRate applies to the subtotal outside no-sales-tax states.
	TaxRate = decimal.RequireFromString("0.08")
	// ShippingBase is the flat fee per order.
	ShippingBase = decimal.RequireFromString("5.99")
	// ShippingPerUnit is charged for every unit shipped.
	ShippingPerUnit = decimal.RequireFromString("1.50")

	noSalesTaxStates = map[string]bool{"OR": true, "MT": true, "NH": true, "DE": true}
)

// Totals is the computed price breakdown of an order.
type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// Price computes the totals for items shipped to addr.
func Price(items []Item, addr Address) Totals {
	subtotal := Subtotal(items)
	tax := Tax(subtotal, addr.State)
	shipping := ShippingCost(items)
	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        subtotal.Add(tax).Add(shipping),
	}
}

// Subtotal sums the line totals.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.TotalPrice())
	}
	return sum
}

// Tax is TaxRate of subtotal, or zero for OR, MT, NH and DE.
func Tax(subtotal decimal.Decimal, state string) decimal.Decimal {
	if noSalesTaxStates[strings.ToUpper(strings.TrimSpace(state))] {
		return decimal.Zero
	}
	return subtotal.Mul(TaxRate)
}

// ShippingCost is ShippingBase plus ShippingPerUnit for each unit.
func ShippingCost(items []Item) decimal.Decimal {
	return ShippingBase.Add(ShippingPerUnit.Mul(decimal.NewFromInt(int64(countUnits(items)))))
}

func countUnits(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
