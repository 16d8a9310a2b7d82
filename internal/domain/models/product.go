// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package models

// Product is a catalog entry. Prices are kept in the currency's minor unit.
type Product struct {
	ID         int64
	SKU        string
	Name       string
	PriceCents int64
	Currency   string
	Active     bool
}
