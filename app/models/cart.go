package models

import "fmt"

// Cart maps productID → size → quantity. It never stores prices.
type Cart map[string]map[string]int

// PriceLookup resolves the current unit price of a product.
type PriceLookup interface {
	Price(productID string) (int64, bool)
}

// SetQuantity sets the quantity for (productID, size). Zero removes the
// entry; negative quantities are rejected.
func (c Cart) SetQuantity(productID, size string, qty int) error {
	if qty < 0 {
		return fmt.Errorf("cart: negative quantity %d", qty)
	}
	if qty == 0 {
		if sizes, ok := c[productID]; ok {
			delete(sizes, size)
			if len(sizes) == 0 {
				delete(c, productID)
			}
		}
		return nil
	}
	sizes, ok := c[productID]
	if !ok {
		sizes = make(map[string]int)
		c[productID] = sizes
	}
	sizes[size] = qty
	return nil
}

// Add increments (productID, size) by one.
func (c Cart) Add(productID, size string) {
	_ = c.SetQuantity(productID, size, c.Quantity(productID, size)+1)
}

// Quantity returns the quantity for (productID, size).
func (c Cart) Quantity(productID, size string) int {
	return c[productID][size]
}

// Count is the total number of units.
func (c Cart) Count() int {
	n := 0
	for _, sizes := range c {
		for _, q := range sizes {
			if q > 0 {
				n += q
			}
		}
	}
	return n
}

// IsEmpty reports whether the cart holds no units.
func (c Cart) IsEmpty() bool { return c.Count() == 0 }

// AmountTotal sums quantity × current price. Products the catalog no longer
// knows are skipped.
func (c Cart) AmountTotal(catalog PriceLookup) int64 {
	var total int64
	for productID, sizes := range c {
		price, ok := catalog.Price(productID)
		if !ok {
			continue
		}
		for _, q := range sizes {
			if q > 0 {
				total += int64(q) * price
			}
		}
	}
	return total
}

// ProductIDs lists the products referenced by the cart.
func (c Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}

// Clear empties the cart in place.
func (c Cart) Clear() {
	for k := range c {
		delete(c, k)
	}
}

// Clone returns a deep copy.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for id, sizes := range c {
		cp := make(map[string]int, len(sizes))
		for s, q := range sizes {
			cp[s] = q
		}
		out[id] = cp
	}
	return out
}
