package entity

import "github.com/shopspring/decimal"

// Product es un producto del menú. Price es decimal exacto (nunca float) y no negativo.
type Product struct {
	ID         int64
	Name       string
	Price      decimal.Decimal
	CategoryID int64
}
