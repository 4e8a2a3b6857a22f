package cart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Item is one (vendor, product) line in a customer's cart.
type Item struct {
	VendorID       uuid.UUID `json:"vendorId"`
	VendorName     string    `json:"vendorName"`
	ProductID      uuid.UUID `json:"productId"`
	Name           string    `json:"name"`
	UnitPricePaise int64     `json:"unitPricePaise"`
	Qty            int       `json:"qty"`
	SubtotalPaise  int64     `json:"subtotalPaise"`
}

func (i *Item) recompute() {
	i.SubtotalPaise = i.UnitPricePaise * int64(i.Qty)
}

// Cart is the ordered list of items held for a session.
type Cart struct {
	Items []Item `json:"items"`
}

// Total sums item subtotals; negative subtotals contribute nothing.
func (c Cart) Total() int64 {
	var total int64
	for _, item := range c.Items {
		if item.SubtotalPaise > 0 {
			total += item.SubtotalPaise
		}
	}
	return total
}

// Count is the number of distinct lines.
func (c Cart) Count() int {
	return len(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// NormalizeQty coerces a client quantity to an integer of at least 1. Numbers are truncated and
// numeric strings are read up to the first non-digit; anything else becomes 1.
func NormalizeQty(raw any) int {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 1
		}
		n = int64(v)
	case json.Number:
		return NormalizeQty(string(v))
	case string:
		n = leadingInt(v)
	default:
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if i == 0 && (r == '-' || r == '+') {
			end = i + 1
			continue
		}
		if !unicode.IsDigit(r) {
			break
		}
		end = i + 1
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return n
}
